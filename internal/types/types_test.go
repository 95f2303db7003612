package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVideoTier(t *testing.T) {
	for _, tier := range VideoTiers {
		parsed, ok := ParseVideoTier(tier.String())
		require.True(t, ok)
		require.Equal(t, tier, parsed)
	}
	_, ok := ParseVideoTier("ultra")
	require.False(t, ok)
}

func TestVideoTiersAscend(t *testing.T) {
	for i := 1; i < len(VideoTiers); i++ {
		require.Less(t, VideoTiers[i-1], VideoTiers[i])
	}
}

func TestAudioTierExt(t *testing.T) {
	require.Equal(t, "mp3", AudioMP3Med.Ext())
	require.Equal(t, "mp3", AudioMP3High.Ext())
	require.Equal(t, "m4a", AudioAAC.Ext())
}
