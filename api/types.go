package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Creator identifies a collection of posts: the service (fanbox, patreon, ...)
// and the creator's identifier on it.
type Creator struct {
	Service string
	ID      string
}

func (c Creator) String() string {
	return c.Service + "/" + c.ID
}

// PostsPage is one page of the posts-legacy listing.
type PostsPage struct {
	Props   Props         `json:"props"`
	Results []PostSummary `json:"results"`
}

type Props struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

// PostSummary is the part of a post the listing returns.
type PostSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (p *PostsPage) validate() error {
	for i, r := range p.Results {
		if r.ID == "" {
			return fmt.Errorf("%w: result %d has no id", ErrMalformedResponse, i)
		}
	}
	return nil
}

// PostDetail is the response of the post endpoint.
// Post is kept verbatim: it is written to disk as the metadata snapshot.
type PostDetail struct {
	Post        json.RawMessage `json:"post"`
	Attachments []AttachmentRef `json:"attachments"`
	Previews    []AttachmentRef `json:"previews"`
}

func (p *PostDetail) validate() error {
	raw := bytes.TrimSpace(p.Post)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("%w: post detail has no post object", ErrMalformedResponse)
	}
	return nil
}

// Title returns the title stored in the post object, or an empty string.
func (p *PostDetail) Title() string {
	var post struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(p.Post, &post); err != nil {
		return ""
	}
	return post.Title
}

// Candidates returns the attachments followed by the previews, in order.
func (p *PostDetail) Candidates() []AttachmentRef {
	out := make([]AttachmentRef, 0, len(p.Attachments)+len(p.Previews))
	out = append(out, p.Attachments...)
	return append(out, p.Previews...)
}

// AttachmentRef points to one downloadable file of a post.
// Every field is optional in the response; see Validate.
type AttachmentRef struct {
	Server string `json:"server,omitempty"`
	Name   string `json:"name,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Validate reports whether the reference can be downloaded.
func (a AttachmentRef) Validate() error {
	if a.Name == "" || a.Path == "" {
		return fmt.Errorf("%w (name=%q,path=%q)", ErrMissingAttachmentRef, a.Name, a.Path)
	}
	return nil
}

// URL returns {server}/data{path}. When the reference carries no server,
// the origin of base is used.
func (a AttachmentRef) URL(base *url.URL) string {
	server := strings.TrimRight(a.Server, "/")
	if server == "" {
		server = (&url.URL{Scheme: base.Scheme, Host: base.Host}).String()
	}
	path := a.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return server + "/data" + path
}

// Profile is the creator profile.
type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Service  string `json:"service"`
	PublicID string `json:"public_id,omitempty"`
}

// DisplayName is the public id when the creator has one, otherwise the name.
func (p *Profile) DisplayName() string {
	if p.PublicID != "" {
		return p.PublicID
	}
	return p.Name
}
