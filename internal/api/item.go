package api

import (
	"context"
	"net/url"

	"github.com/famomatic/coubdl/internal/types"
)

// The html5 video block lists renditions by tier name; stream sizes can be
// 0 or null for a missing stream (an API irregularity), in which case the
// rendition counts as absent.
type itemResponse struct {
	Error     string `json:"error"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	Channel   struct {
		Title string `json:"title"`
	} `json:"channel"`
	Communities []struct {
		Permalink string `json:"permalink"`
	} `json:"communities"`
	Tags []struct {
		Title string `json:"title"`
	} `json:"tags"`
	FileVersions struct {
		HTML5 struct {
			Video map[string]renditionJSON `json:"video"`
			Audio map[string]renditionJSON `json:"audio"`
		} `json:"html5"`
		Mobile struct {
			// Mobile audio is a bare URL list; index 0 is the AAC stream.
			// It carries no size information.
			Audio []string `json:"audio"`
		} `json:"mobile"`
		Share struct {
			Default string `json:"default"`
		} `json:"share"`
	} `json:"file_versions"`
}

type renditionJSON struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Item fetches one item's descriptor. ErrItemUnavailable is returned when
// the API reports the item as missing.
func (c *Client) Item(ctx context.Context, id string) (*types.ItemMetadata, error) {
	var resp itemResponse
	if err := c.getJSON(ctx, c.endpoint("coubs/"+url.PathEscape(id), nil), &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, ErrItemUnavailable
	}

	meta := &types.ItemMetadata{
		ID:        id,
		Title:     resp.Title,
		CreatedAt: resp.CreatedAt,
		Channel:   resp.Channel.Title,
		Video:     map[types.VideoTier]types.Rendition{},
		Audio:     map[types.AudioTier]types.Rendition{},
	}
	if len(resp.Communities) > 0 {
		meta.Category = resp.Communities[0].Permalink
	}
	for _, t := range resp.Tags {
		meta.Tags = append(meta.Tags, t.Title)
	}

	for name, r := range resp.FileVersions.HTML5.Video {
		tier, ok := types.ParseVideoTier(name)
		if !ok || r.URL == "" || r.Size == 0 {
			continue
		}
		meta.Video[tier] = types.Rendition{URL: r.URL, Size: r.Size}
	}
	if r, ok := resp.FileVersions.HTML5.Audio["med"]; ok && r.URL != "" && r.Size != 0 {
		meta.Audio[types.AudioMP3Med] = types.Rendition{URL: r.URL, Size: r.Size}
	}
	if r, ok := resp.FileVersions.HTML5.Audio["high"]; ok && r.URL != "" && r.Size != 0 {
		meta.Audio[types.AudioMP3High] = types.Rendition{URL: r.URL, Size: r.Size}
	}
	if mobile := resp.FileVersions.Mobile.Audio; len(mobile) > 0 && mobile[0] != "" {
		meta.Audio[types.AudioAAC] = types.Rendition{URL: mobile[0]}
	}
	// Non-existence of the share version comes through as null or "{}".
	if share := resp.FileVersions.Share.Default; share != "" && share != "{}" {
		meta.Combined = &types.Rendition{URL: share}
	}
	return meta, nil
}
