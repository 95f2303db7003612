package types

// VideoTier is a named video quality level, ordered by ascending resolution.
type VideoTier int

const (
	VideoMed VideoTier = iota
	VideoHigh
	VideoHigher
)

// VideoTiers lists all video tiers in ascending ladder order.
var VideoTiers = []VideoTier{VideoMed, VideoHigh, VideoHigher}

func (t VideoTier) String() string {
	switch t {
	case VideoMed:
		return "med"
	case VideoHigh:
		return "high"
	case VideoHigher:
		return "higher"
	}
	return "unknown"
}

// ParseVideoTier maps the API's tier names to a VideoTier.
func ParseVideoTier(s string) (VideoTier, bool) {
	switch s {
	case "med":
		return VideoMed, true
	case "high":
		return VideoHigh, true
	case "higher":
		return VideoHigher, true
	}
	return 0, false
}

// AudioTier is a named audio quality level.
//
// MP3Med is MP3@128Kbps CBR, MP3High is MP3@160Kbps VBR and AAC is the
// platform's mobile stream (AAC@128Kbps CBR, served as M4A).
type AudioTier int

const (
	AudioMP3Med AudioTier = iota
	AudioMP3High
	AudioAAC
)

func (t AudioTier) String() string {
	switch t {
	case AudioMP3Med:
		return "mp3-med"
	case AudioMP3High:
		return "mp3-high"
	case AudioAAC:
		return "aac"
	}
	return "unknown"
}

// Ext returns the file extension the platform serves this tier with.
func (t AudioTier) Ext() string {
	if t == AudioAAC {
		return "m4a"
	}
	return "mp3"
}

// Rendition is one downloadable encoding of an item's stream.
type Rendition struct {
	URL  string
	Size int64
}

// ItemMetadata is the descriptor of a single item as returned by the
// metadata API. Fetched at most once per id per run.
type ItemMetadata struct {
	ID        string
	Title     string
	CreatedAt string
	Channel   string
	Category  string // empty when the item belongs to no category
	Tags      []string

	Video    map[VideoTier]Rendition
	Audio    map[AudioTier]Rendition
	Combined *Rendition // pre-muxed "share" version, often absent
}

// Direction selects which end of a quality ladder to pick.
type Direction int

const (
	Best Direction = iota
	Worst
)

// AudioPreference controls how AAC ranks against the MP3 tiers.
type AudioPreference int

const (
	// PreferHighMP3 ranks MP3@160 above AAC (default).
	PreferHighMP3 AudioPreference = iota
	// PreferAAC ranks AAC above both MP3 tiers.
	PreferAAC
	// AACOnly accepts AAC and nothing else.
	AACOnly
	// NoAAC excludes AAC entirely.
	NoAAC
)

// QualityPolicy is the deterministic stream-selection policy.
//
// WantVideo and WantAudio must not both be false. WantCombined bypasses
// independent selection entirely; tier bounds and directions are ignored.
type QualityPolicy struct {
	VideoDirection Direction
	VideoMin       VideoTier
	VideoMax       VideoTier

	AudioDirection  Direction
	AudioPreference AudioPreference

	WantVideo    bool
	WantAudio    bool
	WantCombined bool
}

// RepostPolicy decides which timeline entries contribute an id.
type RepostPolicy int

const (
	// RepostsInclude keeps every entry; reposts resolve to the original id.
	RepostsInclude RepostPolicy = iota
	// RepostsExclude keeps plain entries only.
	RepostsExclude
	// RepostsOnly keeps repost entries only.
	RepostsOnly
)
