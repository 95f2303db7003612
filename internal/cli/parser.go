// Package cli parses command-line options, assembles the run configuration
// and drives a full download run.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/famomatic/coubdl/internal/config"
	"github.com/famomatic/coubdl/internal/input"
	"github.com/famomatic/coubdl/internal/types"
)

// DefaultConfigName is looked up in the working directory when no explicit
// config file is given.
const DefaultConfigName = "coub.conf"

// stringList collects repeatable flag values.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// Options holds all command-line options.
type Options struct {
	// Input
	Args        []string
	Lists       stringList
	Channels    stringList
	Tags        stringList
	Searches    stringList
	Communities stringList
	Stories     stringList
	Hot         bool
	Random      bool

	// General
	ConfigFile string
	Quiet      bool
	Yes        bool
	No         bool

	// Download / Filesystem
	Path        string
	Keep        bool
	Repeat      int
	Duration    string
	Connections int
	Retries     int
	LimitNum    int
	Sleep       time.Duration
	RateLimit   int64

	// Format selection
	BestVideo  bool
	WorstVideo bool
	MaxVideo   string
	MinVideo   string
	BestAudio  bool
	WorstAudio bool
	AAC        bool
	AACStrict  bool
	NoAAC      bool
	Share      bool
	VideoOnly  bool
	AudioOnly  bool

	// Channel feeds
	Recoubs     bool
	NoRecoubs   bool
	OnlyRecoubs bool

	// Output naming
	Output       string
	Ext          string
	TagSep       string
	FallbackChar string

	// Side outputs
	WriteList       string
	UseArchive      string
	UnavailableList string
	InfoJSON        string
	Preview         string
	NoPreview       bool

	// Tools
	FFmpegPath string

	set map[string]bool
}

// Changed reports whether the named flag was given on the command line.
func (o *Options) Changed(name string) bool { return o.set[name] }

// ParseFlags parses args (without the program name) into Options.
func ParseFlags(args []string, errW io.Writer) (*Options, error) {
	opts := &Options{}
	fs := flag.NewFlagSet("coubdl", flag.ContinueOnError)
	fs.SetOutput(errW)

	fs.Var(&opts.Lists, "list", "Read item links from the given file (repeatable)")
	fs.Var(&opts.Channels, "channel", "Download a channel feed, NAME or NAME#SORT (repeatable)")
	fs.Var(&opts.Tags, "tag", "Download a tag feed, TAG or TAG#SORT (repeatable)")
	fs.Var(&opts.Searches, "search", "Download search results, TERM or TERM#SORT (repeatable)")
	fs.Var(&opts.Communities, "community", "Download a community feed, NAME or NAME#SORT (repeatable)")
	fs.Var(&opts.Stories, "story", "Download the clips embedded in a story (repeatable)")
	fs.BoolVar(&opts.Hot, "hot", false, "Download the hot section")
	fs.BoolVar(&opts.Random, "random", false, "Download random clips")

	fs.StringVar(&opts.ConfigFile, "config", "", "Configuration file (default "+DefaultConfigName+" when present)")
	fs.BoolVar(&opts.Quiet, "quiet", false, "Suppress all non-error output")
	fs.BoolVar(&opts.Quiet, "q", false, "Suppress all non-error output (shorthand)")
	fs.BoolVar(&opts.Yes, "yes", false, "Answer all prompts with yes")
	fs.BoolVar(&opts.Yes, "y", false, "Answer all prompts with yes (shorthand)")
	fs.BoolVar(&opts.No, "no", false, "Answer all prompts with no")
	fs.BoolVar(&opts.No, "n", false, "Answer all prompts with no (shorthand)")

	fs.StringVar(&opts.Path, "path", "", "Destination directory")
	fs.StringVar(&opts.Path, "p", "", "Destination directory (shorthand)")
	fs.BoolVar(&opts.Keep, "keep", false, "Keep the separate video and audio streams after merging")
	fs.BoolVar(&opts.Keep, "k", false, "Keep the separate streams after merging (shorthand)")
	fs.IntVar(&opts.Repeat, "repeat", config.DefaultRepeat, "Loop the video N times; 1 disables looping")
	fs.IntVar(&opts.Repeat, "r", config.DefaultRepeat, "Loop the video N times (shorthand)")
	fs.StringVar(&opts.Duration, "duration", "", "Cut the output to the given length (ffmpeg time syntax)")
	fs.StringVar(&opts.Duration, "d", "", "Cut the output to the given length (shorthand)")
	fs.IntVar(&opts.Connections, "connections", 25, "Maximum number of connections")
	fs.IntVar(&opts.Retries, "retries", 5, "Retry count per download; negative retries indefinitely")
	fs.IntVar(&opts.LimitNum, "limit-num", 0, "Download at most N items; 0 for unlimited")
	fs.DurationVar(&opts.Sleep, "sleep", 0, "Pause between downloads (e.g. 2s)")
	fs.Int64Var(&opts.RateLimit, "rate-limit", 0, "Download rate limit in bytes per second; 0 for unlimited")

	fs.BoolVar(&opts.BestVideo, "bestvideo", false, "Prefer the best available video quality (default)")
	fs.BoolVar(&opts.WorstVideo, "worstvideo", false, "Prefer the worst available video quality")
	fs.StringVar(&opts.MaxVideo, "max-video", "", "Maximum video tier: med, high or higher")
	fs.StringVar(&opts.MinVideo, "min-video", "", "Minimum video tier: med, high or higher")
	fs.BoolVar(&opts.BestAudio, "bestaudio", false, "Prefer the best available audio quality (default)")
	fs.BoolVar(&opts.WorstAudio, "worstaudio", false, "Prefer the worst available audio quality")
	fs.BoolVar(&opts.AAC, "aac", false, "Prefer AAC over high-quality MP3 audio")
	fs.BoolVar(&opts.AACStrict, "aac-strict", false, "Only download AAC audio")
	fs.BoolVar(&opts.NoAAC, "no-aac", false, "Never download AAC audio")
	fs.BoolVar(&opts.Share, "share", false, "Download the pre-muxed share version (shorter and lower quality)")
	fs.BoolVar(&opts.VideoOnly, "video-only", false, "Only download the video stream")
	fs.BoolVar(&opts.VideoOnly, "v", false, "Only download the video stream (shorthand)")
	fs.BoolVar(&opts.AudioOnly, "audio-only", false, "Only download the audio stream")
	fs.BoolVar(&opts.AudioOnly, "a", false, "Only download the audio stream (shorthand)")

	fs.BoolVar(&opts.Recoubs, "recoubs", false, "Include reposts in channel feeds (default)")
	fs.BoolVar(&opts.NoRecoubs, "no-recoubs", false, "Exclude reposts from channel feeds")
	fs.BoolVar(&opts.OnlyRecoubs, "only-recoubs", false, "Only download reposts from channel feeds")

	fs.StringVar(&opts.Output, "output", "", "Output name template with %id%, %title%, %creation%, %community%, %channel% and %tags%")
	fs.StringVar(&opts.Output, "o", "", "Output name template (shorthand)")
	fs.StringVar(&opts.Ext, "ext", "", "Merge container extension: mkv, mp4, asf, avi, flv, f4v or mov")
	fs.StringVar(&opts.TagSep, "tag-sep", "", "Separator between tags in the output name")
	fs.StringVar(&opts.FallbackChar, "fallback-char", "", "Replacement for characters the filesystem rejects")

	fs.StringVar(&opts.WriteList, "write-list", "", "Write all resolved links to the given file and exit")
	fs.StringVar(&opts.UseArchive, "use-archive", "", "Skip ids recorded in the given archive file and record new ones")
	fs.StringVar(&opts.UnavailableList, "unavailable-list", "", "Append links of unavailable items to the given file")
	fs.StringVar(&opts.InfoJSON, "info-json", "", "Append one JSON metadata line per finished item to the given file")
	fs.StringVar(&opts.Preview, "preview", "", "Run the given command on every finished file")
	fs.BoolVar(&opts.NoPreview, "no-preview", false, "Never run a preview command")

	fs.StringVar(&opts.FFmpegPath, "ffmpeg-path", "", "Path to the ffmpeg binary")

	fs.Usage = func() {
		fmt.Fprintf(errW, "Usage: coubdl [OPTIONS] INPUT [INPUT...]\n\n")
		fmt.Fprintln(errW, "Inputs are item links, list files, channel names or feed URLs;")
		fmt.Fprintln(errW, "append #SORT to feed inputs to pick a sort order.")
		fmt.Fprintln(errW, "\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.Args = fs.Args()
	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// formatFlags are mutually exclusive with the share version: the share
// rendition has exactly one quality.
var formatFlags = []string{
	"bestvideo", "worstvideo", "max-video", "min-video",
	"bestaudio", "worstaudio", "aac", "aac-strict", "no-aac",
}

// BuildSettings layers defaults, the config file and the flags into the
// final run configuration.
func BuildSettings(opts *Options) (config.Settings, error) {
	s := config.Defaults()

	switch {
	case opts.ConfigFile != "":
		if err := s.LoadFile(opts.ConfigFile); err != nil {
			return s, err
		}
	default:
		if _, err := os.Stat(DefaultConfigName); err == nil {
			if err := s.LoadFile(DefaultConfigName); err != nil {
				return s, err
			}
		}
	}

	if opts.Yes && opts.No {
		return s, fmt.Errorf("yes and no prompt answers are mutually exclusive")
	}
	if opts.Yes {
		s.Prompt = "yes"
	}
	if opts.No {
		s.Prompt = "no"
	}
	if opts.Share || s.Share {
		for _, name := range formatFlags {
			if opts.Changed(name) {
				return s, fmt.Errorf("the share version has a single quality; --%s cannot apply", name)
			}
		}
		for _, key := range []string{"V_MAX", "V_MIN", "AAC"} {
			if s.FromFile(key) {
				return s, fmt.Errorf("the share version has a single quality; %s cannot apply", key)
			}
		}
	}

	if opts.Changed("quiet") || opts.Changed("q") {
		s.Quiet = opts.Quiet
	}
	if opts.Path != "" {
		s.OutDir = opts.Path
	}
	if opts.Changed("keep") || opts.Changed("k") {
		s.Keep = opts.Keep
	}
	if opts.Changed("repeat") || opts.Changed("r") {
		s.Repeat = opts.Repeat
	}
	if opts.Duration != "" {
		s.Duration = opts.Duration
	}
	if opts.Changed("connections") {
		s.Connections = opts.Connections
	}
	if opts.Changed("retries") {
		s.Retries = opts.Retries
	}
	if opts.Changed("limit-num") {
		s.Limit = opts.LimitNum
	}
	if opts.Changed("sleep") {
		s.Sleep = opts.Sleep
	}
	if opts.Changed("rate-limit") {
		s.RateLimit = opts.RateLimit
	}

	if opts.WorstVideo {
		s.VideoDirection = types.Worst
	}
	if opts.BestVideo {
		s.VideoDirection = types.Best
	}
	if opts.WorstAudio {
		s.AudioDirection = types.Worst
	}
	if opts.BestAudio {
		s.AudioDirection = types.Best
	}
	if opts.MaxVideo != "" {
		tier, ok := types.ParseVideoTier(opts.MaxVideo)
		if !ok {
			return s, fmt.Errorf("invalid video tier %q", opts.MaxVideo)
		}
		s.VideoMax = tier
	}
	if opts.MinVideo != "" {
		tier, ok := types.ParseVideoTier(opts.MinVideo)
		if !ok {
			return s, fmt.Errorf("invalid video tier %q", opts.MinVideo)
		}
		s.VideoMin = tier
	}
	switch {
	case opts.AACStrict:
		s.AudioPreference = types.AACOnly
	case opts.AAC:
		s.AudioPreference = types.PreferAAC
	case opts.NoAAC:
		s.AudioPreference = types.NoAAC
	}
	if opts.Share {
		s.Share = true
	}
	if opts.VideoOnly {
		s.VideoOnly = true
	}
	if opts.AudioOnly {
		s.AudioOnly = true
	}

	switch {
	case opts.OnlyRecoubs:
		s.Reposts = types.RepostsOnly
	case opts.NoRecoubs:
		s.Reposts = types.RepostsExclude
	case opts.Recoubs:
		s.Reposts = types.RepostsInclude
	}

	if opts.Output != "" {
		s.NameTemplate = opts.Output
	}
	if opts.Ext != "" {
		s.MergeExt = opts.Ext
	}
	if opts.TagSep != "" {
		s.TagSep = opts.TagSep
	}
	if opts.FallbackChar != "" {
		s.FallbackChar = opts.FallbackChar
	}

	if opts.UseArchive != "" {
		s.ArchivePath = opts.UseArchive
	}
	if opts.WriteList != "" {
		s.WriteList = opts.WriteList
	}
	if opts.UnavailableList != "" {
		s.UnavailableList = opts.UnavailableList
	}
	if opts.InfoJSON != "" {
		s.InfoJSON = opts.InfoJSON
	}
	if opts.Preview != "" {
		s.PreviewCmd = opts.Preview
	}
	if opts.NoPreview {
		s.PreviewCmd = ""
	}
	if opts.FFmpegPath != "" {
		s.FFmpegPath = opts.FFmpegPath
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Selectors turns positional arguments and input flags into validated
// selectors.
func Selectors(opts *Options) ([]input.Selector, error) {
	var sels []input.Selector
	add := func(kind input.Kind, raw string) {
		value, sort, _ := strings.Cut(raw, "#")
		sels = append(sels, input.Selector{Kind: kind, Value: value, Sort: sort})
	}

	for _, arg := range opts.Args {
		sel, err := input.Parse(arg)
		if err != nil {
			return nil, err
		}
		sels = append(sels, sel)
	}
	for _, v := range opts.Lists {
		sels = append(sels, input.Selector{Kind: input.KindList, Value: v})
	}
	for _, v := range opts.Channels {
		add(input.KindChannel, v)
	}
	for _, v := range opts.Tags {
		add(input.KindTag, v)
	}
	for _, v := range opts.Searches {
		add(input.KindSearch, v)
	}
	for _, v := range opts.Communities {
		add(input.KindCategory, v)
	}
	for _, v := range opts.Stories {
		sels = append(sels, input.Selector{Kind: input.KindStory, Value: v})
	}
	if opts.Hot {
		sels = append(sels, input.Selector{Kind: input.KindHot})
	}
	if opts.Random {
		sels = append(sels, input.Selector{Kind: input.KindRandom})
	}

	for _, sel := range sels {
		if err := sel.Validate(); err != nil {
			return nil, err
		}
	}
	return sels, nil
}
