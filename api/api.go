// package api contains the code required to talk to a kemono-compatible content host:
// listing a creator's posts, fetching post details and profiles, and transferring files.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL        = "https://kemono.su"
	responseHeaderTimeout = time.Minute
	userAgent             = "go:kemonodl"
)

// Client is used for every request made to the content host.
// All requests carry a referer header equal to the base origin.
type Client struct {
	Creators *CreatorService

	client *http.Client
	base   *url.URL
}

// NewClient returns a client for the host at base.
//
// The underlying http.Client has no overall timeout: file transfers may run for
// as long as data keeps arriving. Only the wait for response headers is bounded.
func NewClient(base *url.URL) *Client {
	c := &Client{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConnsPerHost:   16,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: responseHeaderTimeout,
				DisableCompression:    true, // range offsets are byte offsets of the raw file
			},
		},
		base: base,
	}
	c.Creators = &CreatorService{client: c}
	return c
}

// DefaultClient returns a client for https://kemono.su.
func DefaultClient() *Client {
	base, _ := url.Parse(defaultBaseURL)
	return NewClient(base)
}

// WithBaseURL points the client at another kemono-compatible host.
func (c *Client) WithBaseURL(u *url.URL) *Client {
	c.base = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: strings.TrimRight(u.Path, "/")}
	return c
}

func (c *Client) BaseURL() *url.URL {
	return c.base
}

// Referer is the value of the referer header sent with every request.
func (c *Client) Referer() string {
	return (&url.URL{Scheme: c.base.Scheme, Host: c.base.Host}).String()
}

func (c *Client) newRequest(ctx context.Context, method, surl string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, surl, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCreateRequest, err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.Referer())
	return req, nil
}

// do performs the request and converts unexpected statuses into errors.
// The caller must close the body of a successful response.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s", err, req.Method, req.URL)
	}
	if err := checkStatusCode(res.StatusCode); err != nil {
		res.Body.Close()
		return nil, fmt.Errorf("%w: %s %s", err, req.Method, req.URL)
	}
	return res, nil
}

// getJSON fetches surl and decodes the response body into v.
func (c *Client) getJSON(ctx context.Context, surl string, v any) error {
	req, err := c.newRequest(ctx, http.MethodGet, surl)
	if err != nil {
		return err
	}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: couldn't decode response from %s", ErrMalformedResponse, err.Error(), surl)
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

// apiURL builds {base}/api/v1/{elem...}.
func (c *Client) apiURL(elem ...string) *url.URL {
	return c.base.JoinPath(append([]string{"api", "v1"}, elem...)...)
}
