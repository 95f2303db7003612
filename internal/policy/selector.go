// Package policy implements the deterministic stream-quality selection
// across the platform's competing audio/video renditions.
package policy

import (
	"errors"

	"github.com/famomatic/coubdl/internal/types"
)

var (
	// ErrVideoUnavailable means no video rendition exists inside the
	// configured tier range.
	ErrVideoUnavailable = errors.New("no suitable video rendition")
	// ErrAudioUnavailable means the audio ladder produced nothing.
	ErrAudioUnavailable = errors.New("no suitable audio rendition")
	// ErrCombinedUnavailable means the pre-muxed share version is absent.
	// There is no fallback to the independent streams.
	ErrCombinedUnavailable = errors.New("no combined rendition")
)

// Selection is the outcome of quality selection for one item.
type Selection struct {
	VideoURL string
	AudioURL string
	AudioExt string // "mp3" or "m4a" depending on the chosen tier
	Combined bool   // VideoURL points at the pre-muxed share version
}

// Select picks renditions per the policy. Pure and deterministic: the same
// metadata and policy always yield the same selection.
func Select(meta *types.ItemMetadata, p types.QualityPolicy) (Selection, error) {
	if p.WantCombined {
		if meta.Combined == nil {
			return Selection{}, ErrCombinedUnavailable
		}
		return Selection{VideoURL: meta.Combined.URL, Combined: true}, nil
	}

	var sel Selection
	if p.WantVideo {
		url, ok := pickVideo(meta.Video, p)
		if !ok {
			return Selection{}, ErrVideoUnavailable
		}
		sel.VideoURL = url
	}
	if p.WantAudio {
		tier, ok := pickAudio(meta.Audio, p)
		switch {
		case ok:
			sel.AudioURL = meta.Audio[tier].URL
			sel.AudioExt = tier.Ext()
		case !p.WantVideo:
			// Audio is the only requested family, so its absence fails
			// the item; with video present the clip is delivered silent.
			return Selection{}, ErrAudioUnavailable
		}
	}
	return sel, nil
}

// pickVideo walks the med < high < higher ladder restricted to
// [VideoMin, VideoMax] and takes the extremity in the requested direction.
// Absent tiers are skipped.
func pickVideo(renditions map[types.VideoTier]types.Rendition, p types.QualityPolicy) (string, bool) {
	var inRange []types.VideoTier
	for _, tier := range types.VideoTiers {
		if tier < p.VideoMin || tier > p.VideoMax {
			continue
		}
		if _, ok := renditions[tier]; ok {
			inRange = append(inRange, tier)
		}
	}
	if len(inRange) == 0 {
		return "", false
	}
	if p.VideoDirection == types.Worst {
		return renditions[inRange[0]].URL, true
	}
	return renditions[inRange[len(inRange)-1]].URL, true
}

// pickAudio builds the preference-dependent ladder in ascending quality
// order and takes the extremity in the requested direction.
func pickAudio(renditions map[types.AudioTier]types.Rendition, p types.QualityPolicy) (types.AudioTier, bool) {
	var ladder []types.AudioTier
	switch p.AudioPreference {
	case types.NoAAC:
		ladder = []types.AudioTier{types.AudioMP3Med, types.AudioMP3High}
	case types.PreferAAC:
		ladder = []types.AudioTier{types.AudioMP3Med, types.AudioMP3High, types.AudioAAC}
	case types.AACOnly:
		ladder = []types.AudioTier{types.AudioAAC}
	default: // PreferHighMP3
		ladder = []types.AudioTier{types.AudioMP3Med, types.AudioAAC, types.AudioMP3High}
	}

	var present []types.AudioTier
	for _, tier := range ladder {
		if _, ok := renditions[tier]; ok {
			present = append(present, tier)
		}
	}
	if len(present) == 0 {
		return 0, false
	}
	if p.AudioDirection == types.Worst {
		return present[0], true
	}
	return present[len(present)-1], true
}
