package input

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseForms(t *testing.T) {
	cases := []struct {
		raw  string
		want Selector
	}{
		{"https://coub.com/view/1a2b3c", Selector{Kind: KindLink, Value: "1a2b3c"}},
		{"coub.com/view/1a2b3c", Selector{Kind: KindLink, Value: "1a2b3c"}},
		{"http://coub.com/view/1a2b3c/", Selector{Kind: KindLink, Value: "1a2b3c"}},

		{"catlover", Selector{Kind: KindChannel, Value: "catlover"}},
		{"https://coub.com/catlover", Selector{Kind: KindChannel, Value: "catlover"}},
		{"https://coub.com/catlover/reposts", Selector{Kind: KindChannel, Value: "catlover"}},
		{"catlover#oldest", Selector{Kind: KindChannel, Value: "catlover", Sort: "oldest"}},

		{"https://coub.com/tags/cats", Selector{Kind: KindTag, Value: "cats"}},
		{"https://coub.com/tags/cats/likes", Selector{Kind: KindTag, Value: "cats", Sort: "likes_count"}},
		{"coub.com/tags/cats#views_count", Selector{Kind: KindTag, Value: "cats", Sort: "views_count"}},

		{"https://coub.com/search?q=dancing", Selector{Kind: KindSearch, Value: "dancing"}},
		{"https://coub.com/search/likes?q=dancing", Selector{Kind: KindSearch, Value: "dancing", Sort: "likes_count"}},
		{"https://coub.com/search/fresh?q=dancing", Selector{Kind: KindSearch, Value: "dancing", Sort: "newest"}},

		{"https://www.coub.com/view/1a2b3c", Selector{Kind: KindLink, Value: "1a2b3c"}},
		{"www.coub.com/tags/cats/views", Selector{Kind: KindTag, Value: "cats", Sort: "views_count"}},

		{"https://coub.com/community/animals-pets", Selector{Kind: KindCategory, Value: "animals-pets"}},
		{"https://coub.com/community/animals-pets/top", Selector{Kind: KindCategory, Value: "animals-pets", Sort: "likes_count"}},

		{"https://coub.com/stories/12345-cute-cats", Selector{Kind: KindStory, Value: "12345-cute-cats"}},

		{"https://coub.com", Selector{Kind: KindHot}},
		{"https://coub.com/hot", Selector{Kind: KindHot}},
		{"https://coub.com/rising", Selector{Kind: KindHot, Sort: "rising"}},
		{"https://coub.com/hot#weekly", Selector{Kind: KindHot, Sort: "weekly"}},

		{"https://coub.com/random", Selector{Kind: KindRandom}},
		{"https://coub.com/random/top", Selector{Kind: KindRandom, Sort: "top"}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := Parse(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseExplicitSortWinsOverURL(t *testing.T) {
	got, err := Parse("https://coub.com/tags/cats/likes#newest")
	require.NoError(t, err)
	require.Equal(t, Selector{Kind: KindTag, Value: "cats", Sort: "newest"}, got)
}

func TestParseExistingFileIsList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got, err := Parse(path)
	require.NoError(t, err)
	require.Equal(t, Selector{Kind: KindList, Value: path}, got)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"https://coub.com/view/",
		"https://coub.com/some/deep/path",
	} {
		_, err := Parse(raw)
		require.Error(t, err, raw)
	}
}

func TestValidateSortOrders(t *testing.T) {
	require.NoError(t, Selector{Kind: KindChannel, Value: "x", Sort: "oldest"}.Validate())
	require.NoError(t, Selector{Kind: KindTag, Value: "x"}.Validate())
	require.Error(t, Selector{Kind: KindTag, Value: "x", Sort: "oldest"}.Validate())
	require.Error(t, Selector{Kind: KindLink, Value: "x", Sort: "newest"}.Validate())
	require.NoError(t, Selector{Kind: KindRandom, Sort: "top"}.Validate())
	require.Error(t, Selector{Kind: KindRandom, Sort: "fresh"}.Validate())
}

func TestEndpointShapes(t *testing.T) {
	path, q, err := Selector{Kind: KindChannel, Value: "catlover"}.endpoint(0)
	require.NoError(t, err)
	require.Equal(t, "timeline/channel/catlover", path)
	require.Equal(t, "newest", q.Get("order_by"))
	require.Equal(t, "25", q.Get("per_page"))

	path, q, err = Selector{Kind: KindSearch, Value: "dancing cats"}.endpoint(0)
	require.NoError(t, err)
	require.Equal(t, "search/coubs", path)
	require.Equal(t, "dancing cats", q.Get("q"))
	require.Empty(t, q.Get("order_by"))

	path, _, err = Selector{Kind: KindCategory, Value: "animals-pets", Sort: "likes_count"}.endpoint(0)
	require.NoError(t, err)
	require.Equal(t, "timeline/community/animals-pets/fresh", path)

	path, q, err = Selector{Kind: KindStory, Value: "12345-cute-cats"}.endpoint(0)
	require.NoError(t, err)
	require.Equal(t, "stories/12345/coubs", path)
	require.Equal(t, "20", q.Get("per_page"))

	path, _, err = Selector{Kind: KindHot, Sort: "rising"}.endpoint(0)
	require.NoError(t, err)
	require.Equal(t, "timeline/subscriptions/rising", path)
}
