// Package validate checks raw-intake rows before anything is persisted.
package validate

import (
	"fmt"

	"github.com/sawaliram/sawaliram/internal/schema"
	"github.com/sawaliram/sawaliram/internal/sheet"
)

const (
	MsgQuestionEmpty    = "Question field cannot be empty"
	MsgLanguageEmpty    = "Question Language field cannot be empty"
	MsgContextEmpty     = "Context field cannot be empty"
	MsgPublicationName  = "If the question was published, you must mention the publication name"
	MsgContributorEmpty = "You must mention the name of the contributor"
)

// Row returns the violations for one row, in rule order. An empty result
// means the row is valid. Every rule is checked independently.
func Row(r sheet.Row) []string {
	var msgs []string
	if r.Get(schema.LabelQuestion).IsAbsent() {
		msgs = append(msgs, MsgQuestionEmpty)
	}
	if r.Get(schema.LabelQuestionLanguage).IsAbsent() {
		msgs = append(msgs, MsgLanguageEmpty)
	}
	if r.Get(schema.LabelContext).IsAbsent() {
		msgs = append(msgs, MsgContextEmpty)
	}
	if published, _ := r.Get(schema.LabelPublished).Value(); published == "Yes" &&
		r.Get(schema.LabelPublicationName).IsAbsent() {
		msgs = append(msgs, MsgPublicationName)
	}
	if r.Get(schema.LabelContributorName).IsAbsent() {
		msgs = append(msgs, MsgContributorEmpty)
	}
	return msgs
}

// RowErrors holds the violations of one row under its user-facing label.
type RowErrors struct {
	Row      string   `json:"row"`
	Messages []string `json:"messages"`
}

// Errors is the sheet-wide result, in row order.
type Errors []RowErrors

// Map returns the errors keyed by row label.
func (e Errors) Map() map[string][]string {
	m := make(map[string][]string, len(e))
	for _, re := range e {
		m[re.Row] = re.Messages
	}
	return m
}

// Sheet checks every row and aggregates the violations keyed by the
// header-adjusted row label ("Row #<index+2>").
func Sheet(s *sheet.Sheet) Errors {
	var errs Errors
	for i, r := range s.Rows {
		if msgs := Row(r); len(msgs) > 0 {
			errs = append(errs, RowErrors{Row: sheet.RowLabel(i), Messages: msgs})
		}
	}
	return errs
}

// ValidationError rejects a whole sheet because at least one row is invalid.
type ValidationError struct {
	Errors Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sheet rejected: %d row(s) failed validation", len(e.Errors))
}

// Check is Sheet as an error: nil when the sheet is valid.
func Check(s *sheet.Sheet) error {
	if errs := Sheet(s); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
