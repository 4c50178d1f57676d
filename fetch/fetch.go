// fetch downloads single files to disk. Downloads resume from an
// existing <name>.incomplete file and only appear under their final
// name once every byte has been written.
package fetch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/handsomefox/kemonodl/api"
	"github.com/handsomefox/kemonodl/files"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStallTimeout = 10 * time.Second
	defaultChunkSize    = 32 * 1024
)

var (
	ErrStalled      = errors.New("no data received before the stall timeout")
	ErrPartialIsDir = errors.New("partial file path is a directory")
	ErrSizeMismatch = errors.New("downloaded size does not match the probed size")
)

// Outcome is the result of a fetch that did not fail.
type Outcome int

const (
	// Completed means the file now exists under its final name.
	Completed Outcome = iota
	// Skipped means nothing was committed: the file was already complete,
	// or the fetch was cancelled and the partial file was kept.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Transport is what the fetcher needs from the content host.
type Transport interface {
	Probe(ctx context.Context, url string) (int64, error)
	GetRange(ctx context.Context, url string, start int64) (*api.RangeResponse, error)
}

// Fetcher downloads files through a Transport.
// It holds no per-file state and is safe for concurrent use.
type Fetcher struct {
	transport    Transport
	stallTimeout time.Duration
	chunkSize    int
	onProgress   func(n int64)
}

// New returns a Fetcher. A non-positive stallTimeout means DefaultStallTimeout.
func New(transport Transport, stallTimeout time.Duration) *Fetcher {
	if stallTimeout <= 0 {
		stallTimeout = DefaultStallTimeout
	}
	return &Fetcher{
		transport:    transport,
		stallTimeout: stallTimeout,
		chunkSize:    defaultChunkSize,
	}
}

// WithProgress registers fn to be called with the size of every chunk written to disk.
func (f *Fetcher) WithProgress(fn func(n int64)) *Fetcher {
	f.onProgress = fn
	return f
}

// WithChunkSize sets the size of a single read from the response body.
func (f *Fetcher) WithChunkSize(n int) *Fetcher {
	if n > 0 {
		f.chunkSize = n
	}
	return f
}

// Fetch downloads url to dir/name.
//
// Cancellation of ctx is not an error: Fetch returns Skipped and leaves the
// partial file in place so that the next run can resume it.
func (f *Fetcher) Fetch(ctx context.Context, url, dir, name string) (Outcome, error) {
	if ctx.Err() != nil {
		return Skipped, nil
	}

	size, err := f.transport.Probe(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return Skipped, nil
		}
		return Skipped, err
	}

	final := filepath.Join(dir, name)
	if existing, ok := files.Size(final); ok && size > 0 && existing == size {
		log.Debug().Str("file", final).Msg("already downloaded")
		return Skipped, nil
	}

	partial := files.PartialPath(dir, name)
	if info, err := os.Stat(partial); err == nil && info.IsDir() {
		return Skipped, fmt.Errorf("%w (path=%s)", ErrPartialIsDir, partial)
	}

	file, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Skipped, fmt.Errorf("%w: couldn't open partial file(name=%s)", err, partial)
	}
	defer file.Close() // no-op after a successful commit

	info, err := file.Stat()
	if err != nil {
		return Skipped, fmt.Errorf("%w: couldn't stat partial file(name=%s)", err, partial)
	}
	offset := info.Size()

	if size > 0 && offset > size {
		log.Warn().
			Str("file", partial).
			Str("offset", humanize.IBytes(uint64(offset))).
			Str("size", humanize.IBytes(uint64(size))).
			Msg("partial file is larger than the remote file, restarting")
		if err := file.Truncate(0); err != nil {
			return Skipped, fmt.Errorf("%w: couldn't truncate partial file(name=%s)", err, partial)
		}
		offset = 0
	}

	if size > 0 && offset == size {
		log.Debug().Str("file", partial).Msg("partial file is already complete")
		if err := commit(file, partial, final); err != nil {
			return Skipped, err
		}
		return Completed, nil
	}

	res, err := f.transport.GetRange(ctx, url, offset)
	if err != nil {
		if ctx.Err() != nil {
			return Skipped, nil
		}
		// Without a known size, a refused range past a non-empty partial
		// means the partial already holds the whole file.
		if size <= 0 && offset > 0 && errors.Is(err, api.ErrRangeNotSatisfiable) {
			log.Debug().Str("file", partial).Int64("offset", offset).Msg("range refused, partial file is complete")
			if err := commit(file, partial, final); err != nil {
				return Skipped, err
			}
			return Completed, nil
		}
		return Skipped, err
	}
	defer res.Body.Close()

	if offset > 0 && !res.Partial {
		log.Warn().Str("url", url).Int64("offset", offset).Msg("server ignored the range request, restarting")
		if err := file.Truncate(0); err != nil {
			return Skipped, fmt.Errorf("%w: couldn't truncate partial file(name=%s)", err, partial)
		}
		offset = 0
	}

	// The expected total comes from the probe, or from the response when the probe had no size.
	want, known := size, size > 0
	if !known && res.ContentLength >= 0 {
		want, known = offset+res.ContentLength, true
	}

	log.Debug().
		Str("url", url).
		Str("file", name).
		Int64("offset", offset).
		Msgf("downloading %s of %s", humanize.IBytes(uint64(max(want-offset, 0))), humanize.IBytes(uint64(want)))

	w := bufio.NewWriterSize(file, f.chunkSize)
	written, outcome, err := f.copy(ctx, w, res.Body)
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("%w: couldn't write partial file(name=%s)", flushErr, partial)
	}
	if err != nil || outcome == Skipped {
		return Skipped, err
	}

	if total := offset + written; known && total != want {
		return Skipped, fmt.Errorf("%w (file=%s,got=%d,want=%d)", ErrSizeMismatch, name, total, want)
	}
	if err := commit(file, partial, final); err != nil {
		return Skipped, err
	}
	return Completed, nil
}

// commit closes the partial file and moves it to its final name.
func commit(file *os.File, partial, final string) error {
	if err := file.Close(); err != nil {
		return fmt.Errorf("%w: couldn't close partial file(name=%s)", err, partial)
	}
	if err := os.Rename(partial, final); err != nil {
		return fmt.Errorf("%w: couldn't rename partial file(name=%s)", err, partial)
	}
	return nil
}

type chunk struct {
	b   []byte
	err error
}

// copy moves body into w chunk by chunk. Reads happen on a separate
// goroutine so that a stalled connection can be abandoned; the goroutine
// only reads when asked to, so a chunk is never read ahead of a
// cancellation check.
func (f *Fetcher) copy(ctx context.Context, w io.Writer, body io.ReadCloser) (int64, Outcome, error) {
	var (
		next   = make(chan struct{}, 1)
		chunks = make(chan chunk)
		done   = make(chan struct{})
	)
	defer close(done)

	go func() {
		buf := make([]byte, f.chunkSize)
		for {
			select {
			case <-next:
			case <-done:
				return
			}
			n, err := body.Read(buf)
			select {
			case chunks <- chunk{b: buf[:n], err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(f.stallTimeout)
	defer timer.Stop()

	var written int64
	for {
		next <- struct{}{}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(f.stallTimeout)

		select {
		case <-ctx.Done():
			return written, Skipped, nil
		case <-timer.C:
			// Unblocks the pending Read.
			body.Close()
			return written, Skipped, fmt.Errorf("%w (timeout=%s)", ErrStalled, f.stallTimeout)
		case c := <-chunks:
			if ctx.Err() != nil {
				return written, Skipped, nil
			}
			if len(c.b) > 0 {
				n, err := w.Write(c.b)
				written += int64(n)
				if err != nil {
					return written, Skipped, fmt.Errorf("%w: couldn't write chunk", err)
				}
				if f.onProgress != nil {
					f.onProgress(int64(n))
				}
			}
			if errors.Is(c.err, io.EOF) {
				return written, Completed, nil
			}
			if c.err != nil {
				return written, Skipped, fmt.Errorf("%w: couldn't read response body", c.err)
			}
		}
	}
}
