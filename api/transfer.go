package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// RangeResponse is the streamed body of a ranged GET.
// Partial is false when the server ignored the range and sent the whole file.
type RangeResponse struct {
	Body          io.ReadCloser
	ContentLength int64
	Partial       bool
}

// Probe issues a HEAD request and returns the size of the resource.
// An unknown size is reported as 0.
func (c *Client) Probe(ctx context.Context, surl string) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodHead, surl)
	if err != nil {
		return 0, err
	}
	res, err := c.do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: probe failed", err)
	}
	res.Body.Close()

	if res.ContentLength < 0 {
		return 0, nil
	}
	return res.ContentLength, nil
}

// GetRange streams the resource starting at byte start.
// The caller must close the returned body.
func (c *Client) GetRange(ctx context.Context, surl string, start int64) (*RangeResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, surl)
	if err != nil {
		return nil, err
	}
	if start > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", start))
	}

	res, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: range fetch failed (start=%d)", err, start)
	}

	return &RangeResponse{
		Body:          res.Body,
		ContentLength: res.ContentLength,
		Partial:       res.StatusCode == http.StatusPartialContent,
	}, nil
}
