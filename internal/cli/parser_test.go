package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/famomatic/coubdl/internal/config"
	"github.com/famomatic/coubdl/internal/input"
	"github.com/famomatic/coubdl/internal/types"
)

func parse(t *testing.T, args ...string) *Options {
	t.Helper()
	opts, err := ParseFlags(args, io.Discard)
	require.NoError(t, err)
	return opts
}

func TestBuildSettingsDefaults(t *testing.T) {
	s, err := BuildSettings(parse(t))
	require.NoError(t, err)
	require.Equal(t, config.Defaults(), s)
}

func TestBuildSettingsFlagOverrides(t *testing.T) {
	s, err := BuildSettings(parse(t,
		"-quiet",
		"-yes",
		"-path", "downloads",
		"-keep",
		"-repeat", "5",
		"-duration", "00:00:10",
		"-connections", "4",
		"-retries", "-1",
		"-limit-num", "100",
		"-sleep", "2s",
		"-rate-limit", "500000",
		"-worstvideo",
		"-max-video", "high",
		"-aac",
		"-no-recoubs",
		"-o", "%id%_%title%",
		"-ext", "mp4",
		"-use-archive", "archive.txt",
	))
	require.NoError(t, err)

	require.True(t, s.Quiet)
	require.Equal(t, "yes", s.Prompt)
	require.Equal(t, "downloads", s.OutDir)
	require.True(t, s.Keep)
	require.Equal(t, 5, s.Repeat)
	require.Equal(t, "00:00:10", s.Duration)
	require.Equal(t, 4, s.Connections)
	require.Equal(t, -1, s.Retries)
	require.Equal(t, 100, s.Limit)
	require.Equal(t, 2*time.Second, s.Sleep)
	require.Equal(t, int64(500000), s.RateLimit)
	require.Equal(t, types.Worst, s.VideoDirection)
	require.Equal(t, types.VideoHigh, s.VideoMax)
	require.Equal(t, types.PreferAAC, s.AudioPreference)
	require.Equal(t, types.RepostsExclude, s.Reposts)
	require.Equal(t, "%id%_%title%", s.NameTemplate)
	require.Equal(t, "mp4", s.MergeExt)
	require.Equal(t, "archive.txt", s.ArchivePath)
}

func TestBuildSettingsConfigFileThenFlags(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "coub.conf")
	require.NoError(t, os.WriteFile(conf, []byte("REPEAT = 7\nQUIET = yes\n"), 0o644))

	s, err := BuildSettings(parse(t, "-config", conf, "-repeat", "3"))
	require.NoError(t, err)
	require.Equal(t, 3, s.Repeat, "flags beat the config file")
	require.True(t, s.Quiet, "untouched config values survive")
}

func TestBuildSettingsShareConflicts(t *testing.T) {
	for _, args := range [][]string{
		{"-share", "-worstvideo"},
		{"-share", "-max-video", "high"},
		{"-share", "-aac-strict"},
		{"-share", "-bestaudio"},
	} {
		_, err := BuildSettings(parse(t, args...))
		require.Error(t, err, "%v", args)
	}

	// Share alone is fine.
	_, err := BuildSettings(parse(t, "-share"))
	require.NoError(t, err)
}

func TestBuildSettingsShareConflictsWithConfigKeys(t *testing.T) {
	for _, content := range []string{
		"SHARE = yes\nV_MAX = high\n",
		"SHARE = yes\nV_MIN = high\n",
		"SHARE = yes\nAAC = strict\n",
	} {
		conf := filepath.Join(t.TempDir(), "coub.conf")
		require.NoError(t, os.WriteFile(conf, []byte(content), 0o644))
		_, err := BuildSettings(parse(t, "-config", conf))
		require.Error(t, err, "%q", content)
	}

	// The conflict also triggers across the two layers.
	conf := filepath.Join(t.TempDir(), "coub.conf")
	require.NoError(t, os.WriteFile(conf, []byte("V_MAX = high\n"), 0o644))
	_, err := BuildSettings(parse(t, "-config", conf, "-share"))
	require.Error(t, err)
}

func TestBuildSettingsYesNoConflict(t *testing.T) {
	_, err := BuildSettings(parse(t, "-yes", "-no"))
	require.Error(t, err)
}

func TestBuildSettingsInvalidValues(t *testing.T) {
	for _, args := range [][]string{
		{"-max-video", "ultra"},
		{"-ext", "webm"},
		{"-repeat", "0"},
		{"-video-only", "-audio-only"},
	} {
		_, err := BuildSettings(parse(t, args...))
		require.Error(t, err, "%v", args)
	}
}

func TestBuildSettingsNoPreviewWinsOverConfig(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "coub.conf")
	require.NoError(t, os.WriteFile(conf, []byte("PREVIEW = mpv\n"), 0o644))

	s, err := BuildSettings(parse(t, "-config", conf, "-no-preview"))
	require.NoError(t, err)
	require.Empty(t, s.PreviewCmd)
}

func TestSelectorsFromFlagsAndArgs(t *testing.T) {
	opts := parse(t,
		"-channel", "catlover#oldest",
		"-tag", "cats",
		"-search", "dancing",
		"-community", "animals-pets",
		"-story", "12345-cute",
		"-hot",
		"-random",
		"https://coub.com/view/1a2b3c",
	)
	sels, err := Selectors(opts)
	require.NoError(t, err)
	require.Equal(t, []input.Selector{
		{Kind: input.KindLink, Value: "1a2b3c"},
		{Kind: input.KindChannel, Value: "catlover", Sort: "oldest"},
		{Kind: input.KindTag, Value: "cats"},
		{Kind: input.KindSearch, Value: "dancing"},
		{Kind: input.KindCategory, Value: "animals-pets"},
		{Kind: input.KindStory, Value: "12345-cute"},
		{Kind: input.KindHot},
		{Kind: input.KindRandom},
	}, sels)
}

func TestSelectorsRejectBadSort(t *testing.T) {
	_, err := Selectors(parse(t, "-tag", "cats#oldest"))
	require.Error(t, err)
}

func TestSelectorsRejectGarbageArg(t *testing.T) {
	_, err := Selectors(parse(t, "https://coub.com/a/b/c"))
	require.Error(t, err)
}

func TestRepeatableInputFlags(t *testing.T) {
	opts := parse(t, "-tag", "cats", "-tag", "dogs")
	sels, err := Selectors(opts)
	require.NoError(t, err)
	require.Len(t, sels, 2)
}

func TestParseFlagsUnknownFlag(t *testing.T) {
	_, err := ParseFlags([]string{"-no-such-flag"}, io.Discard)
	require.Error(t, err)
}

func TestRunExitCodes(t *testing.T) {
	t.Run("no inputs", func(t *testing.T) {
		code := Run(nil, os.Stdin, io.Discard, io.Discard)
		require.Equal(t, ExitOptions, code)
	})
	t.Run("bad flag", func(t *testing.T) {
		code := Run([]string{"-no-such-flag"}, os.Stdin, io.Discard, io.Discard)
		require.Equal(t, ExitOptions, code)
	})
	t.Run("bad option combination", func(t *testing.T) {
		code := Run([]string{"-yes", "-no", "x"}, os.Stdin, io.Discard, io.Discard)
		require.Equal(t, ExitOptions, code)
	})
	t.Run("missing ffmpeg", func(t *testing.T) {
		code := Run([]string{"-ffmpeg-path", "/does/not/exist/ffmpeg", "https://coub.com/view/abc"},
			os.Stdin, io.Discard, io.Discard)
		require.Equal(t, ExitDependency, code)
	})
}
