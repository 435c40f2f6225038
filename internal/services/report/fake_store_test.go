package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/ternarybob/briefdoc/internal/models"
)

// fakeDoc simulates a Google Doc body as UTF-16 text that always ends with the
// trailing paragraph marker. Index 0 holds the section break, so text[i] sits at index i+1.
type fakeDoc struct {
	id       string
	name     string
	mimeType string
	trashed  bool
	text     []uint16
	bold     [][2]int
	fontSize []float64

	// endOverride reports a fixed end index instead of simulating text
	endOverride int
	inserts     []models.InsertText
}

func (d *fakeDoc) String() string {
	return string(utf16.Decode(d.text))
}

// styledText returns the text covered by the i-th bold range
func (d *fakeDoc) styledText(i int) string {
	r := d.bold[i]
	return string(utf16.Decode(d.text[r[0]-1 : r[1]-1]))
}

type fakeStore struct {
	docs []*fakeDoc

	listErr   error
	createErr error
	getErr    error
	batchErr  error

	listCalls   int
	createCalls int
	getCalls    int
	batchCalls  int
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

// addDoc registers an existing document whose body holds only the trailing newline
func (s *fakeStore) addDoc(id, name string) *fakeDoc {
	d := &fakeDoc{id: id, name: name, mimeType: models.GoogleDocMimeType, text: []uint16{'\n'}}
	s.docs = append(s.docs, d)
	return d
}

func (s *fakeStore) doc(id string) *fakeDoc {
	for _, d := range s.docs {
		if d.id == id {
			return d
		}
	}
	return nil
}

func (s *fakeStore) ListFiles(ctx context.Context, query models.FileQuery) ([]models.FileRef, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	// Mimic Drive: name matching ignores case, trashed and MIME filters are applied
	var out []models.FileRef
	for _, d := range s.docs {
		if !strings.EqualFold(d.name, query.Name) {
			continue
		}
		if !query.IncludeTrashed && d.trashed {
			continue
		}
		if query.MimeType != "" && d.mimeType != query.MimeType {
			continue
		}
		out = append(out, models.FileRef{ID: d.id, Name: d.name, MimeType: d.mimeType, Trashed: d.trashed})
	}
	return out, nil
}

func (s *fakeStore) CreateDocument(ctx context.Context, title string) (string, error) {
	s.createCalls++
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	id := fmt.Sprintf("created-%d", s.nextID)
	s.addDoc(id, title)
	return id, nil
}

func (s *fakeStore) GetDocument(ctx context.Context, documentID string) (*models.Document, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	d := s.doc(documentID)
	if d == nil {
		return nil, errors.New("404 document not found")
	}
	if d.endOverride > 0 {
		return &models.Document{ID: d.id, Title: d.name, Content: []models.StructuralElement{{StartIndex: 0, EndIndex: d.endOverride}}}, nil
	}
	return &models.Document{
		ID:    d.id,
		Title: d.name,
		Content: []models.StructuralElement{
			{StartIndex: 0, EndIndex: 1},
			{StartIndex: 1, EndIndex: 1 + len(d.text)},
		},
	}, nil
}

func (s *fakeStore) BatchUpdate(ctx context.Context, documentID string, requests []models.EditRequest) error {
	s.batchCalls++
	if s.batchErr != nil {
		return s.batchErr
	}
	d := s.doc(documentID)
	if d == nil {
		return errors.New("404 document not found")
	}

	// Apply to copies so a rejected batch leaves the document untouched
	text := append([]uint16(nil), d.text...)
	bold := append([][2]int(nil), d.bold...)
	sizes := append([]float64(nil), d.fontSize...)
	var inserts []models.InsertText

	for _, req := range requests {
		switch {
		case req.InsertText != nil:
			inserts = append(inserts, *req.InsertText)
			if d.endOverride > 0 {
				continue
			}
			pos := req.InsertText.Index - 1
			// Inserting after the final newline is invalid in Docs
			if pos < 0 || pos > len(text)-1 {
				return fmt.Errorf("400 invalid insertion index %d", req.InsertText.Index)
			}
			ins := utf16.Encode([]rune(req.InsertText.Text))
			next := make([]uint16, 0, len(text)+len(ins))
			next = append(next, text[:pos]...)
			next = append(next, ins...)
			next = append(next, text[pos:]...)
			text = next
		case req.UpdateTextStyle != nil:
			u := req.UpdateTextStyle
			if d.endOverride == 0 && (u.StartIndex < 1 || u.EndIndex > len(text)+1 || u.StartIndex >= u.EndIndex) {
				return fmt.Errorf("400 invalid style range [%d,%d)", u.StartIndex, u.EndIndex)
			}
			if u.Bold {
				bold = append(bold, [2]int{u.StartIndex, u.EndIndex})
				sizes = append(sizes, u.FontSizePt)
			}
		default:
			return errors.New("400 empty request")
		}
	}

	d.text = text
	d.bold = bold
	d.fontSize = sizes
	d.inserts = append(d.inserts, inserts...)
	return nil
}
