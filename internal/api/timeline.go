package api

import (
	"context"
	"errors"
	"net/url"
	"strconv"
)

// ErrTimelineUnavailable indicates the feed itself does not exist (e.g. an
// unknown channel or tag).
var ErrTimelineUnavailable = errors.New("timeline unavailable")

// EntryKind distinguishes plain items from reposts. Decided once when the
// timeline response is parsed.
type EntryKind int

const (
	EntryOriginal EntryKind = iota
	EntryRepost
)

// TimelineEntry is one feed position. For a repost, OriginalID is the
// reposted item's id, not the repost wrapper's.
type TimelineEntry struct {
	Kind       EntryKind
	OriginalID string
}

// TimelinePage is one page of a timeline or search feed.
type TimelinePage struct {
	TotalPages int
	Entries    []TimelineEntry
}

type timelineResponse struct {
	Error      string `json:"error"`
	TotalPages int    `json:"total_pages"`
	Coubs      []struct {
		Permalink string `json:"permalink"`
		RecoubTo  *struct {
			Permalink string `json:"permalink"`
		} `json:"recoub_to"`
	} `json:"coubs"`
}

// Timeline fetches one page of the feed at path with the given query.
func (c *Client) Timeline(ctx context.Context, path string, query url.Values, page int) (*TimelinePage, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))

	var resp timelineResponse
	if err := c.getJSON(ctx, c.endpoint(path, q), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, ErrTimelineUnavailable
	}

	out := &TimelinePage{TotalPages: resp.TotalPages}
	for _, entry := range resp.Coubs {
		if entry.RecoubTo != nil {
			out.Entries = append(out.Entries, TimelineEntry{
				Kind:       EntryRepost,
				OriginalID: entry.RecoubTo.Permalink,
			})
			continue
		}
		out.Entries = append(out.Entries, TimelineEntry{
			Kind:       EntryOriginal,
			OriginalID: entry.Permalink,
		})
	}
	return out, nil
}
