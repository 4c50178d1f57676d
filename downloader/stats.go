package downloader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// maxErrors bounds how many job errors a Stats keeps for the final report.
// Failures past it are still counted.
const maxErrors = 100

// Stats holds the counters of a whole run. It is shared by every pool
// of the run and is safe for concurrent use.
type Stats struct {
	errors []error
	mu     sync.Mutex

	posts     atomic.Int64
	queued    atomic.Int64
	completed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64
}

func (s *Stats) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errors...)
}

func (s *Stats) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors) != 0
}

func (s *Stats) Posts() int64     { return s.posts.Load() }
func (s *Stats) Queued() int64    { return s.queued.Load() }
func (s *Stats) Completed() int64 { return s.completed.Load() }
func (s *Stats) Skipped() int64   { return s.skipped.Load() }
func (s *Stats) Failed() int64    { return s.failed.Load() }
func (s *Stats) Bytes() int64     { return s.bytes.Load() }

// AddBytes records n bytes written to disk.
func (s *Stats) AddBytes(n int64) {
	s.bytes.Add(n)
}

// appendIncr keeps the error while there is room and increments Failed count.
func (s *Stats) appendIncr(err error) {
	s.mu.Lock()
	if len(s.errors) < maxErrors {
		s.errors = append(s.errors, err)
	}
	s.mu.Unlock()
	s.failed.Add(1)
}

func (s *Stats) String() string {
	return fmt.Sprintf("Download status: Posts=%d; Queued=%d; Completed=%d; Skipped=%d; Failed=%d; Downloaded=%s",
		s.Posts(), s.Queued(), s.Completed(), s.Skipped(), s.Failed(), humanize.IBytes(uint64(s.Bytes())))
}

// ProgressLoop logs the counters every interval until ctx is done.
// A line is only printed when something changed since the previous one.
func (s *Stats) ProgressLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if msg := s.String(); msg != last {
				log.Info().Msg(msg)
				last = msg
			}
		}
	}
}
