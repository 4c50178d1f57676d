package filter_test

import (
	"testing"
	"testing/quick"

	"github.com/handsomefox/kemonodl/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasses(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name             string
		whitelist, black []string
		text             string
		want             bool
	}{
		{name: "no patterns", text: "anything", want: true},
		{name: "whitelist matches", whitelist: []string{"jpg$"}, text: "a.jpg", want: true},
		{name: "whitelist misses", whitelist: []string{"jpg$"}, text: "a.png", want: false},
		{name: "whitelist needs every pattern", whitelist: []string{"^a", "jpg$"}, text: "b.jpg", want: false},
		{name: "whitelist every pattern matches", whitelist: []string{"^a", "jpg$"}, text: "a.jpg", want: true},
		{name: "blacklist excludes", black: []string{"PSD"}, text: "cover PSD", want: false},
		{name: "blacklist keeps others", black: []string{"PSD"}, text: "cover", want: true},
		{name: "blacklist needs every pattern", black: []string{"PSD", "zip$"}, text: "PSD pack.rar", want: true},
		{name: "blacklist every pattern matches", black: []string{"PSD", "zip$"}, text: "PSD pack.zip", want: false},
		{name: "both: white yes, black no", whitelist: []string{"pack"}, black: []string{"PSD"}, text: "pack.zip", want: true},
		{name: "both: white yes, black yes", whitelist: []string{"pack"}, black: []string{"PSD"}, text: "PSD pack.zip", want: false},
		{name: "both: white no", whitelist: []string{"pack"}, black: []string{"PSD"}, text: "cover.png", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pair, err := filter.NewPair(tt.whitelist, tt.black)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pair.Passes(tt.text))
		})
	}
}

func TestCompileInvalid(t *testing.T) {
	t.Parallel()
	_, err := filter.Compile("ok", "(unclosed")
	assert.Error(t, err)

	_, err = filter.NewPair(nil, []string{"[z-a]"})
	assert.Error(t, err)
}

func TestEmptySetsAlwaysPass(t *testing.T) {
	t.Parallel()
	empty := filter.PatternSet{}
	prop := func(text string) bool {
		return filter.Passes(empty, nil, text)
	}
	assert.NoError(t, quick.Check(prop, nil))
}

func TestWhitelistOnlyMatchesAll(t *testing.T) {
	t.Parallel()
	sets := [][]string{
		{"a"},
		{"a", "b"},
		{"^[a-m]", "[0-9]", "x|y"},
		{"(?i)post"},
	}
	for _, patterns := range sets {
		white := filter.MustCompile(patterns...)
		prop := func(text string) bool {
			want := true
			for _, re := range white {
				if !re.MatchString(text) {
					want = false
				}
			}
			return filter.Passes(white, nil, text) == want
		}
		assert.NoError(t, quick.Check(prop, nil), "patterns=%v", patterns)
	}
}

func TestStrings(t *testing.T) {
	t.Parallel()
	ps := filter.MustCompile("a+", "b$")
	assert.Equal(t, []string{"a+", "b$"}, ps.Strings())
	assert.False(t, ps.Empty())
}
