package input

import (
	"fmt"
	"os"
	"strings"
)

// Parse maps a raw command-line token to a selector. Existing file paths
// are treated as link lists; everything else is interpreted as a (possibly
// partial) platform URL, with an optional "#sort" suffix overriding the
// sort order implied by the URL itself.
func Parse(raw string) (Selector, error) {
	if _, err := os.Stat(raw); err == nil {
		return Selector{Kind: KindList, Value: raw}, nil
	}

	link, sort := splitSort(raw)
	info := link
	// Cut at the host name rather than stripping known prefixes, so that
	// www.coub.com and scheme variations all normalize the same way.
	if i := strings.LastIndex(info, "coub.com"); i >= 0 {
		info = info[i+len("coub.com"):]
	}
	info = strings.Trim(info, "/")

	switch {
	case strings.HasPrefix(info, "view/"):
		id := strings.TrimPrefix(info, "view/")
		if id == "" {
			return Selector{}, fmt.Errorf("invalid item link %q", raw)
		}
		return Selector{Kind: KindLink, Value: id}, nil

	case strings.HasPrefix(info, "tags/"):
		name, urlSort := splitSuffix(strings.TrimPrefix(info, "tags/"), map[string]string{
			"likes": "likes_count", "views": "views_count", "fresh": "newest",
		})
		return Selector{Kind: KindTag, Value: name, Sort: pick(sort, urlSort)}, nil

	case strings.HasPrefix(info, "search?q="):
		return Selector{Kind: KindSearch, Value: strings.TrimPrefix(info, "search?q="), Sort: sort}, nil

	case strings.HasPrefix(info, "search/"):
		// Sorted searches put the sort segment before the query:
		// search/<sort>?q=<term>.
		seg, term, found := strings.Cut(strings.TrimPrefix(info, "search/"), "?q=")
		urlSort := map[string]string{
			"likes": "likes_count", "views": "views_count", "fresh": "newest",
		}[seg]
		if !found && urlSort == "" {
			term = seg
		}
		return Selector{Kind: KindSearch, Value: term, Sort: pick(sort, urlSort)}, nil

	case strings.HasPrefix(info, "community/"):
		name, urlSort := splitSuffix(strings.TrimPrefix(info, "community/"), map[string]string{
			"rising": "rising", "fresh": "fresh", "top": "likes_count",
			"views": "views_count", "random": "random",
		})
		return Selector{Kind: KindCategory, Value: name, Sort: pick(sort, urlSort)}, nil

	case strings.HasPrefix(info, "stories/"):
		return Selector{Kind: KindStory, Value: strings.TrimPrefix(info, "stories/")}, nil

	case info == "random" || strings.HasPrefix(info, "random/"):
		urlSort := ""
		if strings.HasSuffix(info, "/top") {
			urlSort = "top"
		}
		return Selector{Kind: KindRandom, Sort: pick(sort, urlSort)}, nil

	case info == "" || info == "hot":
		return Selector{Kind: KindHot, Sort: sort}, nil

	// The hot section's rising/fresh views live directly under the root.
	case info == "rising" || info == "fresh":
		return Selector{Kind: KindHot, Sort: pick(sort, info)}, nil

	default:
		// Channel URLs have no distinguishing path segment; they are the
		// fallthrough type. Strip the profile sub-pages.
		name := info
		for _, sub := range []string{"/coubs", "/reposts", "/stories"} {
			name = strings.TrimSuffix(name, sub)
		}
		if strings.ContainsAny(name, "/?") {
			return Selector{}, fmt.Errorf("cannot interpret input %q", raw)
		}
		return Selector{Kind: KindChannel, Value: name, Sort: sort}, nil
	}
}

func splitSort(raw string) (string, string) {
	if i := strings.LastIndexByte(raw, '#'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	return raw, ""
}

// splitSuffix strips a known trailing path segment and returns the sort
// order it implies.
func splitSuffix(s string, suffixes map[string]string) (string, string) {
	for suffix, sort := range suffixes {
		if strings.HasSuffix(s, "/"+suffix) {
			return strings.TrimSuffix(s, "/"+suffix), sort
		}
	}
	return s, ""
}

// pick prefers the explicitly provided sort over the URL-implied one.
func pick(explicit, implied string) string {
	if explicit != "" {
		return explicit
	}
	return implied
}
