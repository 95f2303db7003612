// Package namer assembles filesystem-safe output base names from item
// metadata and a user template.
package namer

import (
	"strings"
)

// Placeholders recognized in name templates. Anything else in the template
// is taken literally.
const (
	PlaceholderID       = "%id%"
	PlaceholderTitle    = "%title%"
	PlaceholderCreation = "%creation%"
	PlaceholderCategory = "%community%"
	PlaceholderChannel  = "%channel%"
	PlaceholderTags     = "%tags%"
)

// Characters that break the downstream toolchain. Single quotes confuse
// the concat demuxer's file list; newlines and tabs break it outright.
var forbidden = []string{"\n", "\t", "'", "/", "<", ">", ":", "\"", "\\", "|", "?", "*"}

// maxNameBytes keeps the base name plus any extension below common
// filesystem limits.
const maxNameBytes = 230

// Fields carries the metadata values available for substitution.
type Fields struct {
	ID       string
	Title    string
	Creation string
	Category string
	Channel  string
	Tags     []string
}

// Name substitutes the template's placeholders, sanitizes the result and
// returns the base name. ok is false when the sanitized name was unusable
// and the bare id was used instead; this fallback never fails.
func Name(f Fields, template, tagSep, fallbackChar string) (name string, ok bool) {
	if template == "" || template == PlaceholderID {
		return f.ID, true
	}

	category := f.Category
	if category == "" {
		category = "undefined"
	}
	name = strings.NewReplacer(
		PlaceholderID, f.ID,
		PlaceholderTitle, f.Title,
		// Colons in timestamps are invalid on some filesystems.
		PlaceholderCreation, strings.ReplaceAll(f.Creation, ":", "-"),
		PlaceholderCategory, category,
		PlaceholderChannel, f.Channel,
		PlaceholderTags, strings.Join(f.Tags, tagSep),
	).Replace(template)

	for _, c := range forbidden {
		name = strings.ReplaceAll(name, c, fallbackChar)
	}
	name = strings.Trim(name, "-. ")

	if !usable(name, fallbackChar) {
		return f.ID, false
	}
	return name, true
}

// usable rejects names that are empty, overlong, or consist solely of
// fallback characters.
func usable(name, fallbackChar string) bool {
	if name == "" || len(name) > maxNameBytes {
		return false
	}
	stripped := name
	if fallbackChar != "" {
		stripped = strings.ReplaceAll(stripped, fallbackChar, "")
	}
	return strings.TrimSpace(stripped) != ""
}
