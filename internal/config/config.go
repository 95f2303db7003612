// Package config defines the immutable run configuration. A Settings value
// is built once at startup (defaults, then config file, then flags) and
// passed explicitly to every component.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/famomatic/coubdl/internal/types"
)

// Reserved scratch file names in the destination directory. A run refuses
// to start when these exist as unrelated files.
const (
	ConcatListName  = "coubdl.concat"
	ScratchMetaName = "coubdl.meta.json"
)

// DefaultRepeat loops the video until the audio ends for any realistic
// audio length.
const DefaultRepeat = 1000

var mergeExts = map[string]bool{
	"mkv": true, "mp4": true, "asf": true, "avi": true,
	"flv": true, "f4v": true, "mov": true,
}

// Settings holds every user-tunable knob. Immutable after Validate.
type Settings struct {
	// Output
	Quiet        bool
	Prompt       string // "", "yes" or "no"; empty asks interactively
	OutDir       string
	Keep         bool
	MergeExt     string
	NameTemplate string
	TagSep       string
	FallbackChar string

	// Loop/trim
	Repeat   int    // concat repetitions; 1 disables looping
	Duration string // ffmpeg time syntax, empty for none

	// Download
	Connections int
	Retries     int // 0 disables retry, negative retries indefinitely
	Limit       int // global id limit, 0 for unlimited
	Sleep       time.Duration
	RateLimit   int64 // bytes per second, 0 for unlimited

	// Format selection
	VideoDirection  types.Direction
	AudioDirection  types.Direction
	VideoMax        types.VideoTier
	VideoMin        types.VideoTier
	AudioPreference types.AudioPreference
	Share           bool
	VideoOnly       bool
	AudioOnly       bool

	// Channel feeds
	Reposts types.RepostPolicy

	// Side outputs
	ArchivePath     string
	WriteList       string
	UnavailableList string
	InfoJSON        string
	PreviewCmd      string

	// Tools
	FFmpegPath string

	fileKeys map[string]bool
}

// FromFile reports whether the named key was set by a config file.
func (s Settings) FromFile(key string) bool { return s.fileKeys[key] }

// Defaults mirrors the stock configuration of the platform's own client.
func Defaults() Settings {
	return Settings{
		OutDir:       ".",
		MergeExt:     "mkv",
		NameTemplate: "%id%",
		TagSep:       "_",
		FallbackChar: "-",
		Repeat:       DefaultRepeat,
		Connections:  25,
		Retries:      5,
		VideoMax:     types.VideoHigher,
		VideoMin:     types.VideoMed,
		FFmpegPath:   "ffmpeg",
	}
}

// LoadFile overlays KEY = value settings from a config file. Unknown keys
// are an error; the file format is plain KEY = value with # comments.
func (s *Settings) LoadFile(path string) error {
	kv, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return s.apply(kv)
}

func (s *Settings) apply(kv map[string]string) error {
	var errs []error
	for key, value := range kv {
		if err := s.set(key, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if s.fileKeys == nil {
			s.fileKeys = map[string]bool{}
		}
		s.fileKeys[key] = true
	}
	return errors.Join(errs...)
}

func (s *Settings) set(key, value string) error {
	switch key {
	case "QUIET":
		return parseBool(value, &s.Quiet)
	case "PROMPT":
		if value != "yes" && value != "no" {
			return fmt.Errorf("invalid prompt answer %q", value)
		}
		s.Prompt = value
	case "PATH":
		s.OutDir = value
	case "KEEP":
		return parseBool(value, &s.Keep)
	case "REPEAT":
		return parsePositive(value, &s.Repeat)
	case "DURATION":
		s.Duration = value
	case "CONNECTIONS":
		return parsePositive(value, &s.Connections)
	case "RETRIES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		s.Retries = n
	case "LIMIT":
		return parsePositive(value, &s.Limit)
	case "SLEEP":
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid sleep duration %q", value)
		}
		s.Sleep = d
	case "RATE_LIMIT":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid rate limit %q", value)
		}
		s.RateLimit = n
	case "V_MAX":
		return parseTier(value, &s.VideoMax)
	case "V_MIN":
		return parseTier(value, &s.VideoMin)
	case "AAC":
		switch value {
		case "no":
			s.AudioPreference = types.NoAAC
		case "prefer-mp3":
			s.AudioPreference = types.PreferHighMP3
		case "prefer":
			s.AudioPreference = types.PreferAAC
		case "strict":
			s.AudioPreference = types.AACOnly
		default:
			return fmt.Errorf("invalid AAC mode %q", value)
		}
	case "SHARE":
		return parseBool(value, &s.Share)
	case "RECOUBS":
		switch value {
		case "all":
			s.Reposts = types.RepostsInclude
		case "none":
			s.Reposts = types.RepostsExclude
		case "only":
			s.Reposts = types.RepostsOnly
		default:
			return fmt.Errorf("invalid recoub mode %q", value)
		}
	case "ARCHIVE":
		s.ArchivePath = value
	case "PREVIEW":
		s.PreviewCmd = value
	case "MERGE_EXT":
		s.MergeExt = value
	case "NAME_TEMPLATE":
		s.NameTemplate = value
	case "FFMPEG_PATH":
		s.FFmpegPath = value
	case "TAG_SEP":
		s.TagSep = value
	case "FALLBACK_CHAR":
		s.FallbackChar = value
	default:
		return errors.New("unknown option")
	}
	return nil
}

// Validate checks value-level invariants. Any error is an invalid
// configuration and aborts before work starts.
func (s Settings) Validate() error {
	var errs []error
	if s.Repeat < 1 {
		errs = append(errs, errors.New("repeat count must be positive"))
	}
	if s.Connections < 1 {
		errs = append(errs, errors.New("connection count must be positive"))
	}
	if s.Limit < 0 {
		errs = append(errs, errors.New("item limit must not be negative"))
	}
	if !mergeExts[s.MergeExt] {
		errs = append(errs, fmt.Errorf("unsupported merge extension %q", s.MergeExt))
	}
	if s.VideoMin > s.VideoMax {
		errs = append(errs, errors.New("minimum video quality exceeds maximum"))
	}
	if s.VideoOnly && s.AudioOnly {
		errs = append(errs, errors.New("audio-only and video-only are mutually exclusive"))
	}
	if s.Share && (s.VideoOnly || s.AudioOnly) {
		errs = append(errs, errors.New("share version cannot be combined with audio-only or video-only"))
	}
	return errors.Join(errs...)
}

// Policy derives the stream-selection policy from the settings.
func (s Settings) Policy() types.QualityPolicy {
	return types.QualityPolicy{
		VideoDirection:  s.VideoDirection,
		VideoMin:        s.VideoMin,
		VideoMax:        s.VideoMax,
		AudioDirection:  s.AudioDirection,
		AudioPreference: s.AudioPreference,
		WantVideo:       !s.AudioOnly,
		WantAudio:       !s.VideoOnly,
		WantCombined:    s.Share,
	}
}

func parseBool(value string, dst *bool) error {
	switch strings.ToLower(value) {
	case "true", "yes", "1":
		*dst = true
	case "false", "no", "0":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", value)
	}
	return nil
}

func parsePositive(value string, dst *int) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid positive integer %q", value)
	}
	*dst = n
	return nil
}

func parseTier(value string, dst *types.VideoTier) error {
	tier, ok := types.ParseVideoTier(value)
	if !ok {
		return fmt.Errorf("invalid video tier %q", value)
	}
	*dst = tier
	return nil
}
