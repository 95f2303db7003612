package namer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleFields() Fields {
	return Fields{
		ID:       "1a2b3c",
		Title:    "Cat does a flip",
		Creation: "2019-05-01T12:30:45",
		Category: "animals-pets",
		Channel:  "catlover",
		Tags:     []string{"cat", "flip"},
	}
}

func TestNameDefaultTemplateIsBareID(t *testing.T) {
	for _, template := range []string{"", "%id%"} {
		name, ok := Name(sampleFields(), template, "_", "-")
		require.True(t, ok)
		require.Equal(t, "1a2b3c", name)
	}
}

func TestNameSubstitutesAllPlaceholders(t *testing.T) {
	name, ok := Name(sampleFields(), "%id% %title% %creation% %community% %channel% %tags%", "_", "-")
	require.True(t, ok)
	require.Equal(t, "1a2b3c Cat does a flip 2019-05-01T12-30-45 animals-pets catlover cat_flip", name)
}

func TestNameEmptyCategoryBecomesUndefined(t *testing.T) {
	f := sampleFields()
	f.Category = ""
	name, ok := Name(f, "%community%", "_", "-")
	require.True(t, ok)
	require.Equal(t, "undefined", name)
}

func TestNameSanitizesForbiddenCharacters(t *testing.T) {
	f := sampleFields()
	f.Title = `what's <this>: a/b\c "quoted" |x?*`
	name, ok := Name(f, "%title%", "_", "-")
	require.True(t, ok)
	require.NotContains(t, name, "'")
	for _, c := range []string{"<", ">", ":", "/", "\\", "\"", "|", "?", "*", "\n", "\t"} {
		require.NotContains(t, name, c)
	}
}

func TestNameFallsBackToID(t *testing.T) {
	f := sampleFields()
	f.Title = "???"
	name, ok := Name(f, "%title%", "_", "-")
	require.False(t, ok)
	require.Equal(t, f.ID, name)
}

func TestNameOverlongFallsBackToID(t *testing.T) {
	f := sampleFields()
	f.Title = strings.Repeat("x", 400)
	name, ok := Name(f, "%title%", "_", "-")
	require.False(t, ok)
	require.Equal(t, f.ID, name)
}

func TestNameTrimsTrailingDotsAndSpaces(t *testing.T) {
	f := sampleFields()
	f.Title = "ends with dots..."
	name, ok := Name(f, "%title%", "_", "-")
	require.True(t, ok)
	require.Equal(t, "ends with dots", name)
}
