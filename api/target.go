package api

import (
	"fmt"
	"net/url"
	"strings"
)

// Target is what the user asked to download: a creator's whole catalog,
// or a single post when PostID is set.
type Target struct {
	Base    *url.URL
	Creator Creator
	PostID  string
}

// ParseTarget parses urls shaped like
//
//	https://kemono.su/<service>/user/<creator>
//	https://kemono.su/<service>/user/<creator>/post/<post>
func ParseTarget(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, err.Error())
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: url must include a scheme and a host (url=%s)", ErrInvalidTarget, raw)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 3 || segments[1] != "user" || segments[0] == "" || segments[2] == "" {
		return nil, fmt.Errorf("%w: expected https://.../<service>/user/<creator> (url=%s)", ErrInvalidTarget, raw)
	}

	t := &Target{
		Base:    &url.URL{Scheme: u.Scheme, Host: u.Host},
		Creator: Creator{Service: segments[0], ID: segments[2]},
	}

	switch len(segments) {
	case 3:
		return t, nil
	case 5:
		if segments[3] == "post" && segments[4] != "" {
			t.PostID = segments[4]
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: expected https://.../<service>/user/<creator>/post/<post> (url=%s)", ErrInvalidTarget, raw)
}
