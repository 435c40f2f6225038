package models

// EditRequest is one mutation inside a batch update. Exactly one field is set.
type EditRequest struct {
	InsertText      *InsertText      `json:"insert_text,omitempty"`
	UpdateTextStyle *UpdateTextStyle `json:"update_text_style,omitempty"`
}

// InsertText inserts Text at Index
type InsertText struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// UpdateTextStyle applies a text style to [StartIndex, EndIndex).
// Fields is the update mask, e.g. "bold,fontSize".
type UpdateTextStyle struct {
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	Bold       bool    `json:"bold"`
	FontSizePt float64 `json:"font_size_pt"`
	Fields     string  `json:"fields"`
}

// BuildEditRequests turns a plan into the insert-then-style batch.
func BuildEditRequests(plan InsertionPlan, fontSizePt float64) []EditRequest {
	return []EditRequest{
		{
			InsertText: &InsertText{
				Index: plan.InsertionIndex,
				Text:  plan.Text,
			},
		},
		{
			UpdateTextStyle: &UpdateTextStyle{
				StartIndex: plan.StyleStart,
				EndIndex:   plan.StyleEnd,
				Bold:       true,
				FontSizePt: fontSizePt,
				Fields:     "bold,fontSize",
			},
		},
	}
}
