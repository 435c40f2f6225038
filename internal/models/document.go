package models

import (
	"fmt"
	"strings"
)

const (
	// GoogleDocMimeType is the Drive MIME type of a native Google Doc
	GoogleDocMimeType = "application/vnd.google-apps.document"

	// DocumentURLBase is the canonical edit URL prefix for a Google Doc
	DocumentURLBase = "https://docs.google.com/document/d/"
)

// Document is the slice of a remote Google Doc this tool reads: identity plus
// the offsets of its top-level structural elements.
type Document struct {
	ID      string              `json:"id"`
	Title   string              `json:"title"`
	Content []StructuralElement `json:"content"`
}

// StructuralElement is one top-level body element (paragraph, section break, table).
// Offsets are in UTF-16 code units.
type StructuralElement struct {
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`
}

// EndIndex returns the end offset of the last body element.
// A document with no body elements has exactly one addressable position, so 1 is returned.
func (d *Document) EndIndex() int {
	if d == nil || len(d.Content) == 0 {
		return 1
	}
	end := d.Content[len(d.Content)-1].EndIndex
	if end < 1 {
		return 1
	}
	return end
}

// DocumentURL returns the edit URL for a document id
func DocumentURL(documentID string) string {
	return DocumentURLBase + documentID + "/edit"
}

// FileRef is a file entry returned by a Drive listing
type FileRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Trashed  bool   `json:"trashed"`
}

// FileQuery filters a Drive listing
type FileQuery struct {
	Name           string
	MimeType       string
	IncludeTrashed bool
}

// String renders the query in Drive's search syntax.
func (q FileQuery) String() string {
	var clauses []string
	if q.Name != "" {
		clauses = append(clauses, fmt.Sprintf("name = '%s'", escapeQueryValue(q.Name)))
	}
	if q.MimeType != "" {
		clauses = append(clauses, fmt.Sprintf("mimeType = '%s'", escapeQueryValue(q.MimeType)))
	}
	if !q.IncludeTrashed {
		clauses = append(clauses, "trashed = false")
	}
	return strings.Join(clauses, " and ")
}

// Matches reports whether a listed file satisfies the query exactly.
// Name comparison is case-sensitive, unlike Drive's own name operator.
func (q FileQuery) Matches(f FileRef) bool {
	if q.Name != "" && f.Name != q.Name {
		return false
	}
	if q.MimeType != "" && f.MimeType != q.MimeType {
		return false
	}
	if !q.IncludeTrashed && f.Trashed {
		return false
	}
	return true
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escapeQueryValue(s string) string {
	return queryEscaper.Replace(s)
}
