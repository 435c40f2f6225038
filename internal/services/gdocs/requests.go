package gdocs

import (
	"fmt"

	"github.com/ternarybob/briefdoc/internal/models"
	docs "google.golang.org/api/docs/v1"
)

// toAPIRequests converts edit requests into Docs API requests, preserving order
func toAPIRequests(requests []models.EditRequest) ([]*docs.Request, error) {
	out := make([]*docs.Request, 0, len(requests))
	for i, req := range requests {
		switch {
		case req.InsertText != nil && req.UpdateTextStyle == nil:
			out = append(out, &docs.Request{
				InsertText: &docs.InsertTextRequest{
					Location: &docs.Location{Index: int64(req.InsertText.Index)},
					Text:     req.InsertText.Text,
				},
			})
		case req.UpdateTextStyle != nil && req.InsertText == nil:
			u := req.UpdateTextStyle
			style := &docs.TextStyle{Bold: u.Bold}
			if u.FontSizePt > 0 {
				style.FontSize = &docs.Dimension{Magnitude: u.FontSizePt, Unit: "PT"}
			}
			// Bold=false would be dropped by omitempty; force it so the mask can clear bold
			if !u.Bold {
				style.ForceSendFields = []string{"Bold"}
			}
			out = append(out, &docs.Request{
				UpdateTextStyle: &docs.UpdateTextStyleRequest{
					Range: &docs.Range{
						StartIndex: int64(u.StartIndex),
						EndIndex:   int64(u.EndIndex),
					},
					TextStyle: style,
					Fields:    u.Fields,
				},
			})
		default:
			return nil, fmt.Errorf("edit request %d must set exactly one operation", i)
		}
	}
	return out, nil
}
