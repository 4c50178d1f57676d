package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURL(t *testing.T) {
	t.Parallel()
	_, err := url.Parse(defaultBaseURL)
	assert.NoError(t, err)
	assert.Equal(t, "https://kemono.su", DefaultClient().Referer())
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()
	u, err := url.Parse("https://coomer.su/")
	require.NoError(t, err)

	c := DefaultClient().WithBaseURL(u)
	assert.Equal(t, "https://coomer.su", c.Referer())
	assert.Equal(t, "https://coomer.su/api/v1/onlyfans/user/1/profile", c.apiURL("onlyfans", "user", "1", "profile").String())
}

func TestAPIURLFormatting(t *testing.T) {
	t.Parallel()
	c := DefaultClient()
	got := c.apiURL("fanbox", "user", "123", "posts-legacy").String()
	assert.Equal(t, "https://kemono.su/api/v1/fanbox/user/123/posts-legacy", got)
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return DefaultClient().WithBaseURL(u)
}

func serveFile(t *testing.T, name string) http.HandlerFunc {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	}
}

func TestPosts(t *testing.T) {
	t.Parallel()
	var (
		mu                    sync.Mutex
		gotOffset, gotReferer string
	)
	serve := serveFile(t, "posts.json")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/fanbox/user/70050825/posts-legacy", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotOffset = r.URL.Query().Get("o")
		gotReferer = r.Header.Get("Referer")
		mu.Unlock()
		serve(w, r)
	})
	c := newTestClient(t, mux)
	creator := Creator{Service: "fanbox", ID: "70050825"}

	page, err := c.Creators.Posts(context.TODO(), creator, 0)
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "", gotOffset, "offset 0 must not be sent")
	assert.Equal(t, c.Referer(), gotReferer)
	assert.Equal(t, Props{Count: 2, Limit: 50}, page.Props)
	want := []PostSummary{{ID: "1001", Title: "My: Post"}, {ID: "1002", Title: "Second post"}}
	if diff := cmp.Diff(want, page.Results); diff != "" {
		t.Errorf("Posts() mismatch (-want +got):\n%s", diff)
	}

	mu.Unlock()
	_, err = c.Creators.Posts(context.TODO(), creator, 50)
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, "50", gotOffset)
}

func TestPostsMalformed(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/fanbox/user/1/posts-legacy", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"props":{"count":1,"limit":50},"results":[{"title":"no id"}]}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Creators.Posts(context.TODO(), Creator{Service: "fanbox", ID: "1"}, 0)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestPost(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/fanbox/user/70050825/post/1001", serveFile(t, "post.json"))
	c := newTestClient(t, mux)

	detail, err := c.Creators.Post(context.TODO(), Creator{Service: "fanbox", ID: "70050825"}, "1001")
	require.NoError(t, err)
	assert.Equal(t, "My: Post", detail.Title())
	assert.True(t, json.Valid(detail.Post))

	want := []AttachmentRef{
		{Server: "https://n1.kemono.su", Name: "a.jpg", Path: "/aa/bb/aabb.jpg"},
		{Name: "b.zip", Path: "/cc/dd/ccdd.zip"},
		{Server: "https://n2.kemono.su", Name: "a.jpg", Path: "/aa/bb/aabb.jpg"},
		{},
	}
	if diff := cmp.Diff(want, detail.Candidates()); diff != "" {
		t.Errorf("Candidates() mismatch (-want +got):\n%s", diff)
	}
	assert.ErrorIs(t, detail.Candidates()[3].Validate(), ErrMissingAttachmentRef)
}

func TestPostWithoutPostObject(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/fanbox/user/1/post/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"attachments":[],"previews":[]}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Creators.Post(context.TODO(), Creator{Service: "fanbox", ID: "1"}, "2")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestProfile(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/fanbox/user/70050825/profile", serveFile(t, "profile.json"))
	c := newTestClient(t, mux)

	p, err := c.Creators.Profile(context.TODO(), Creator{Service: "fanbox", ID: "70050825"})
	require.NoError(t, err)
	assert.Equal(t, "someartist", p.DisplayName())

	p.PublicID = ""
	assert.Equal(t, "Some Artist", p.DisplayName())
}

func TestStatusErrors(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/fanbox/user/404/profile", http.NotFound)
	mux.HandleFunc("/api/v1/fanbox/user/500/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	_, err := c.Creators.Profile(context.TODO(), Creator{Service: "fanbox", ID: "404"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Creators.Profile(context.TODO(), Creator{Service: "fanbox", ID: "500"})
	assert.ErrorIs(t, err, ErrInvalidStatusCode)
}

func TestAttachmentURL(t *testing.T) {
	t.Parallel()
	base, _ := url.Parse("https://kemono.su/fanbox/user/1")
	tests := []struct {
		name string
		ref  AttachmentRef
		want string
	}{
		{"with server", AttachmentRef{Server: "https://n1.kemono.su", Path: "/a/b.jpg"}, "https://n1.kemono.su/data/a/b.jpg"},
		{"trailing slash", AttachmentRef{Server: "https://n1.kemono.su/", Path: "/a/b.jpg"}, "https://n1.kemono.su/data/a/b.jpg"},
		{"no server", AttachmentRef{Path: "/a/b.jpg"}, "https://kemono.su/data/a/b.jpg"},
		{"relative path", AttachmentRef{Server: "https://n1.kemono.su", Path: "a/b.jpg"}, "https://n1.kemono.su/data/a/b.jpg"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.ref.URL(base))
		})
	}
}

func TestProbeAndGetRange(t *testing.T) {
	t.Parallel()
	const content = "0123456789abcdef"
	var (
		mu       sync.Mutex
		referers []string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/data/file.bin", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		referers = append(referers, r.Header.Get("Referer"))
		mu.Unlock()
		http.ServeContent(w, r, "file.bin", time.Time{}, strings.NewReader(content))
	})
	mux.HandleFunc("/data/missing.bin", http.NotFound)
	c := newTestClient(t, mux)
	fileURL := c.BaseURL().String() + "/data/file.bin"

	size, err := c.Probe(context.TODO(), fileURL)
	require.NoError(t, err)
	assert.EqualValues(t, len(content), size)

	res, err := c.GetRange(context.TODO(), fileURL, 10)
	require.NoError(t, err)
	b, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Equal(t, content[10:], string(b))

	res, err = c.GetRange(context.TODO(), fileURL, 0)
	require.NoError(t, err)
	b, err = io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.False(t, res.Partial)
	assert.Equal(t, content, string(b))

	_, err = c.Probe(context.TODO(), c.BaseURL().String()+"/data/missing.bin")
	assert.True(t, errors.Is(err, ErrNotFound))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, referers, 3)
	for _, r := range referers {
		assert.Equal(t, c.Referer(), r)
	}
}

func TestParseTarget(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    *Target
		wantErr bool
	}{
		{
			raw: "https://kemono.su/fanbox/user/70050825",
			want: &Target{
				Base:    &url.URL{Scheme: "https", Host: "kemono.su"},
				Creator: Creator{Service: "fanbox", ID: "70050825"},
			},
		},
		{
			raw: "https://coomer.su/onlyfans/user/someone/post/42/",
			want: &Target{
				Base:    &url.URL{Scheme: "https", Host: "coomer.su"},
				Creator: Creator{Service: "onlyfans", ID: "someone"},
				PostID:  "42",
			},
		},
		{raw: "kemono.su/fanbox/user/1", wantErr: true},
		{raw: "https://kemono.su/fanbox/1", wantErr: true},
		{raw: "https://kemono.su/fanbox/user/1/posts/2", wantErr: true},
		{raw: "https://kemono.su/fanbox/user/1/post", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTarget(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTarget)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
