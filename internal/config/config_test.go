package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/famomatic/coubdl/internal/types"
)

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coub.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConf(t, `
# comment line
PATH = downloads
QUIET = yes
REPEAT = 5
SLEEP = 2s
AAC = strict
RECOUBS = only
V_MAX = high
MERGE_EXT = mp4
`)
	s := Defaults()
	require.NoError(t, s.LoadFile(path))

	require.Equal(t, "downloads", s.OutDir)
	require.True(t, s.Quiet)
	require.Equal(t, 5, s.Repeat)
	require.Equal(t, 2*time.Second, s.Sleep)
	require.Equal(t, types.AACOnly, s.AudioPreference)
	require.Equal(t, types.RepostsOnly, s.Reposts)
	require.Equal(t, types.VideoHigh, s.VideoMax)
	require.Equal(t, "mp4", s.MergeExt)

	// Untouched keys keep their defaults.
	require.Equal(t, 25, s.Connections)
	require.Equal(t, "%id%", s.NameTemplate)
}

func TestLoadFileRejectsUnknownKey(t *testing.T) {
	path := writeConf(t, "NO_SUCH_OPTION = 1\n")
	s := Defaults()
	require.ErrorContains(t, s.LoadFile(path), "NO_SUCH_OPTION")
}

func TestLoadFileRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad bool":    "QUIET = maybe",
		"bad repeat":  "REPEAT = 0",
		"bad sleep":   "SLEEP = -1s",
		"bad aac":     "AAC = sometimes",
		"bad tier":    "V_MIN = ultra",
		"bad recoubs": "RECOUBS = few",
		"bad prompt":  "PROMPT = ask",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			s := Defaults()
			require.Error(t, s.LoadFile(writeConf(t, content+"\n")))
		})
	}
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]func(*Settings){
		"zero repeat":        func(s *Settings) { s.Repeat = 0 },
		"zero connections":   func(s *Settings) { s.Connections = 0 },
		"negative limit":     func(s *Settings) { s.Limit = -1 },
		"bad merge ext":      func(s *Settings) { s.MergeExt = "webm" },
		"inverted tiers":     func(s *Settings) { s.VideoMin = types.VideoHigher; s.VideoMax = types.VideoMed },
		"audio and video":    func(s *Settings) { s.AudioOnly = true; s.VideoOnly = true },
		"share + audio only": func(s *Settings) { s.Share = true; s.AudioOnly = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := Defaults()
			mutate(&s)
			require.Error(t, s.Validate())
		})
	}
}

func TestPolicyDerivation(t *testing.T) {
	s := Defaults()
	s.AudioOnly = true
	p := s.Policy()
	require.False(t, p.WantVideo)
	require.True(t, p.WantAudio)
	require.False(t, p.WantCombined)

	s = Defaults()
	s.VideoOnly = true
	p = s.Policy()
	require.True(t, p.WantVideo)
	require.False(t, p.WantAudio)

	s = Defaults()
	s.Share = true
	require.True(t, s.Policy().WantCombined)
}
