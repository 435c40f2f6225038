// Package markdown turns model markdown into plain text suitable for a Google Doc,
// where literal "**" and "#" markers would otherwise show up verbatim.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Flattener converts markdown to plain text
type Flattener struct {
	md     goldmark.Markdown
	logger arbor.ILogger
}

// NewFlattener creates a flattener with table, strikethrough and linkify support
func NewFlattener(logger arbor.ILogger) *Flattener {
	return &Flattener{
		md:     goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify)),
		logger: logger,
	}
}

// Flatten returns the plain-text rendering of source.
// Headings and paragraphs become blank-line separated blocks, list items keep a
// "- " or "N. " marker, table rows are joined with " | ", and links keep their URL.
func (f *Flattener) Flatten(source string) (string, error) {
	src := []byte(source)
	doc := f.md.Parser().Parse(text.NewReader(src))

	w := &plainWriter{source: src}
	if err := ast.Walk(doc, w.walk); err != nil {
		return "", fmt.Errorf("failed to flatten markdown: %w", err)
	}

	out := blankRuns.ReplaceAllString(w.buf.String(), "\n\n")
	out = strings.TrimSpace(out)

	f.logger.Debug().
		Int("markdown_len", len(source)).
		Int("plain_len", len(out)).
		Msg("Flattened markdown")

	return out, nil
}

type listState struct {
	ordered bool
	next    int
}

type plainWriter struct {
	source []byte
	buf    bytes.Buffer
	lists  []*listState
}

func (w *plainWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading, ast.KindParagraph:
		if !entering {
			w.endBlock()
		}
	case ast.KindTextBlock:
		if !entering {
			w.newline()
		}
	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			w.buf.Write(t.Segment.Value(w.source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				w.buf.WriteByte('\n')
			}
		}
	case ast.KindString:
		if entering {
			w.buf.Write(n.(*ast.String).Value)
		}
	case ast.KindCodeSpan:
		if entering {
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					w.buf.Write(t.Segment.Value(w.source))
				}
			}
		}
		return ast.WalkSkipChildren, nil
	case ast.KindLink:
		if !entering {
			link := n.(*ast.Link)
			dest := string(link.Destination)
			if dest != "" && dest != string(n.Text(w.source)) {
				fmt.Fprintf(&w.buf, " (%s)", dest)
			}
		}
	case ast.KindAutoLink:
		if entering {
			w.buf.Write(n.(*ast.AutoLink).URL(w.source))
		}
		return ast.WalkSkipChildren, nil
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		if entering {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				w.buf.Write(line.Value(w.source))
			}
			w.endBlock()
		}
		return ast.WalkSkipChildren, nil
	case ast.KindList:
		if entering {
			list := n.(*ast.List)
			w.lists = append(w.lists, &listState{ordered: list.IsOrdered(), next: list.Start})
		} else {
			w.lists = w.lists[:len(w.lists)-1]
			if len(w.lists) == 0 {
				w.endBlock()
			}
		}
	case ast.KindListItem:
		if entering {
			w.newline()
			w.listMarker()
		}
	case ast.KindThematicBreak:
		if entering {
			w.newline()
			w.buf.WriteString("---")
			w.endBlock()
		}
	case ast.KindHTMLBlock, ast.KindRawHTML:
		return ast.WalkSkipChildren, nil
	case extast.KindTable:
		if entering {
			w.writeTable(n)
			w.endBlock()
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// endBlock closes a block with a blank line, or a single newline inside a list
func (w *plainWriter) endBlock() {
	w.newline()
	if len(w.lists) == 0 {
		w.buf.WriteByte('\n')
	}
}

// newline ends the current line unless the buffer is already at a line start
func (w *plainWriter) newline() {
	if w.buf.Len() > 0 && !bytes.HasSuffix(w.buf.Bytes(), []byte("\n")) {
		w.buf.WriteByte('\n')
	}
}

func (w *plainWriter) listMarker() {
	if len(w.lists) == 0 {
		return
	}
	w.buf.WriteString(strings.Repeat("  ", len(w.lists)-1))
	list := w.lists[len(w.lists)-1]
	if list.ordered {
		fmt.Fprintf(&w.buf, "%d. ", list.next)
		list.next++
		return
	}
	w.buf.WriteString("- ")
}

func (w *plainWriter) writeTable(table ast.Node) {
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *extast.TableHeader, *extast.TableRow:
		default:
			continue
		}
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if _, ok := cell.(*extast.TableCell); ok {
				cells = append(cells, strings.TrimSpace(string(cell.Text(w.source))))
			}
		}
		w.newline()
		w.buf.WriteString(strings.Join(cells, " | "))
	}
}
