package downloader

import (
	"fmt"
)

var (
	_ error = (*JobError)(nil)
	_ error = (*PostError)(nil)
)

// JobError is an error which contains data about which file failed to download and why.
type JobError struct {
	err  error
	File string
	URL  string
}

// PostError is an error which contains data about the post that could not be processed.
type PostError struct {
	err    error
	PostID string
}

func (e *JobError) Error() string {
	return fmt.Errorf("%w: couldn't download file (name=%s,url=%s)", e.err, e.File, e.URL).Error()
}

func (e *JobError) Unwrap() error { return e.err }

func (e *PostError) Error() string {
	return fmt.Errorf("%w: couldn't process post (id=%s)", e.err, e.PostID).Error()
}

func (e *PostError) Unwrap() error { return e.err }

// newJobError is a handy thing to create errors faster.
func newJobError(err error, job Job) *JobError {
	return &JobError{
		err:  err,
		File: job.Name,
		URL:  job.URL,
	}
}

// newPostError is a handy thing to create errors faster.
func newPostError(err error, postID string) *PostError {
	return &PostError{
		err:    err,
		PostID: postID,
	}
}
