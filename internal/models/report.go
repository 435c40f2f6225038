package models

import (
	"strings"
	"time"
	"unicode/utf16"
)

const (
	// TimestampLayout is the second-resolution layout used in section headers
	TimestampLayout = "2006-01-02 15:04:05"

	// DefaultSeparatorWidth is the column width of the dash line between sections
	DefaultSeparatorWidth = 80
)

// ReportSection is one timestamped block appended to the report document
type ReportSection struct {
	Timestamp time.Time
	Title     string
	Separator string
	Body      string
}

// NewReportSection builds a section with a separator of the given width.
// Non-positive widths fall back to DefaultSeparatorWidth.
func NewReportSection(ts time.Time, title, body string, separatorWidth int) ReportSection {
	if separatorWidth <= 0 {
		separatorWidth = DefaultSeparatorWidth
	}
	return ReportSection{
		Timestamp: ts,
		Title:     title,
		Separator: strings.Repeat("-", separatorWidth),
		Body:      body,
	}
}

// SeparatorBlock is everything before the title line
func (s ReportSection) SeparatorBlock() string {
	return "\n\n" + s.Separator + "\n\n"
}

// TitleLine is the "[timestamp] title" line that gets styled
func (s ReportSection) TitleLine() string {
	return "[" + s.Timestamp.Format(TimestampLayout) + "] " + StripDroppedRunes(s.Title)
}

// StripDroppedRunes removes the characters Docs insertText silently drops
// (C0 controls other than tab, newline and vertical tab, and the BMP private use area),
// so offsets computed from the text match what the document stores.
func StripDroppedRunes(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r <= 0x08, r >= 0x0C && r <= 0x1F, r >= 0xE000 && r <= 0xF8FF:
			return -1
		}
		return r
	}, s)
}

// Render returns the full block inserted into the document
func (s ReportSection) Render() string {
	return s.SeparatorBlock() + s.TitleLine() + "\n\n" + s.Body
}

// InsertionPlan holds the offsets for one append, computed against the
// document's current end index.
type InsertionPlan struct {
	InsertionIndex int
	StyleStart     int
	StyleEnd       int
	Text           string
}

// PlanInsertion computes where a section lands for a document whose body ends at endIndex.
// Text is inserted before the trailing paragraph marker, which must never be split.
func PlanInsertion(endIndex int, section ReportSection) InsertionPlan {
	index := endIndex
	if endIndex > 1 {
		index = endIndex - 1
	}
	if index < 1 {
		index = 1
	}

	start := index + UTF16Len(section.SeparatorBlock())
	return InsertionPlan{
		InsertionIndex: index,
		StyleStart:     start,
		StyleEnd:       start + UTF16Len(section.TitleLine()),
		Text:           section.Render(),
	}
}

// UTF16Len returns the length of s in UTF-16 code units, the unit Google Docs
// uses for every index.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			// invalid runes are replaced with U+FFFD, one code unit
			n++
		}
	}
	return n
}
