// Package input turns user-supplied selectors into a deduplicated, bounded,
// ordered list of item ids.
package input

import (
	"fmt"
	"net/url"

	"github.com/famomatic/coubdl/internal/types"
)

// Kind is the selector variant.
type Kind int

// Kinds in resolution order: direct links first, random feeds last.
const (
	KindLink Kind = iota
	KindList
	KindChannel
	KindTag
	KindSearch
	KindCategory
	KindStory
	KindHot
	KindRandom
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindList:
		return "list"
	case KindChannel:
		return "channel"
	case KindTag:
		return "tag"
	case KindSearch:
		return "search"
	case KindCategory:
		return "category"
	case KindStory:
		return "story"
	case KindHot:
		return "hot section"
	case KindRandom:
		return "random"
	}
	return "unknown"
}

// Selector is one user input: an item code, a list file path, or a feed
// with an optional sort order. Constructed once, never mutated.
type Selector struct {
	Kind  Kind
	Value string // item code, file path, channel/tag/category name, search term, story id
	Sort  string // empty selects the kind's default order
}

// timeline page sizes and the page index past which the API silently
// serves page 1 again.
const (
	perPage      = 25
	storyPerPage = 20
	pageCap      = 99
)

// Legal sort orders per feed kind; the first entry is the default.
var sortOrders = map[Kind][]string{
	KindChannel:  {"newest", "likes_count", "views_count", "oldest", "random"},
	KindTag:      {"newest_popular", "likes_count", "views_count", "newest"},
	KindSearch:   {"relevance", "likes_count", "views_count", "newest"},
	KindCategory: {"monthly", "daily", "weekly", "quarter", "half", "rising", "fresh", "likes_count", "views_count", "random"},
	KindHot:      {"monthly", "daily", "weekly", "quarter", "half", "rising", "fresh"},
	KindRandom:   {"popular", "top"},
}

// capped reports whether the kind's feed suffers the page-limit quirk.
func (k Kind) capped() bool {
	return k == KindTag || k == KindCategory || k == KindHot
}

func (s Selector) sortOrDefault() (string, error) {
	legal, ok := sortOrders[s.Kind]
	if !ok {
		if s.Sort != "" {
			return "", fmt.Errorf("%s input does not support sort orders", s.Kind)
		}
		return "", nil
	}
	if s.Sort == "" {
		return legal[0], nil
	}
	for _, o := range legal {
		if s.Sort == o {
			return o, nil
		}
	}
	return "", fmt.Errorf("unsupported sort order %q for %s input", s.Sort, s.Kind)
}

// Validate checks the sort order legality for the selector kind. An illegal
// combination is a configuration error, never a silent fallback.
func (s Selector) Validate() error {
	_, err := s.sortOrDefault()
	return err
}

func (s Selector) pageSize() int {
	if s.Kind == KindStory {
		return storyPerPage
	}
	return perPage
}

// endpoint builds the API path and query for one page fetch of a feed
// selector. Mirrors the platform's v2 endpoint layout.
func (s Selector) endpoint(reposts types.RepostPolicy) (string, url.Values, error) {
	sort, err := s.sortOrDefault()
	if err != nil {
		return "", nil, err
	}
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(s.pageSize()))

	switch s.Kind {
	case KindChannel:
		switch reposts {
		case types.RepostsExclude:
			q.Set("type", "simples")
		case types.RepostsOnly:
			q.Set("type", "recoubs")
		}
		q.Set("order_by", sort)
		return "timeline/channel/" + url.PathEscape(s.Value), q, nil
	case KindTag:
		q.Set("order_by", sort)
		return "timeline/tag/" + url.PathEscape(s.Value), q, nil
	case KindSearch:
		q.Set("q", s.Value)
		if sort != "relevance" {
			q.Set("order_by", sort)
		}
		return "search/coubs", q, nil
	case KindCategory:
		switch sort {
		case "likes_count", "views_count":
			q.Set("order_by", sort)
			return "timeline/community/" + url.PathEscape(s.Value) + "/fresh", q, nil
		case "random":
			return "timeline/random/" + url.PathEscape(s.Value), q, nil
		default:
			return "timeline/community/" + url.PathEscape(s.Value) + "/" + sort, q, nil
		}
	case KindStory:
		// Story URLs carry id plus a title slug separated by a dash.
		return "stories/" + url.PathEscape(storyID(s.Value)) + "/coubs", q, nil
	case KindHot:
		return "timeline/subscriptions/" + sort, q, nil
	case KindRandom:
		if sort != "popular" {
			q.Set("order_by", sort)
		}
		return "timeline/explore/random", q, nil
	}
	return "", nil, fmt.Errorf("%s input has no timeline endpoint", s.Kind)
}

func storyID(value string) string {
	for i := 0; i < len(value); i++ {
		if value[i] == '-' {
			return value[:i]
		}
	}
	return value
}
