// Package derive builds the sheet handed to the reviewers of the next stage.
package derive

import (
	"fmt"

	"github.com/sawaliram/sawaliram/internal/schema"
	"github.com/sawaliram/sawaliram/internal/sheet"
)

// curationOnly are the columns encoders do not need.
var curationOnly = map[string]bool{
	schema.LabelQuestionLanguage: true,
	schema.LabelQuestionFormat:   true,
	schema.LabelContext:          true,
	schema.LabelDateAsked:        true,
	schema.LabelStudentName:      true,
	schema.LabelGender:           true,
	schema.LabelStudentClass:     true,
	schema.LabelCurriculum:       true,
	schema.LabelMedium:           true,
	schema.LabelPublished:        true,
	schema.LabelPublicationName:  true,
	schema.LabelPublicationDate:  true,
	schema.LabelContributorName:  true,
	schema.LabelContributorRole:  true,
}

// DroppedForEncoding returns the labels removed from the encoding sheet.
func DroppedForEncoding() []string {
	out := make([]string, 0, len(curationOnly))
	for _, l := range schema.Labels(schema.StageRaw) {
		if curationOnly[l] {
			out = append(out, l)
		}
	}
	return out
}

// ForCuration returns the curation sheet for a raw batch: the source plus a
// blank "Field of Interest" column and a submission_id column holding batchID.
func ForCuration(src *sheet.Sheet, batchID int64) *sheet.Sheet {
	out := src.Clone()
	addColumn(out, schema.LabelFieldOfInterest)
	setColumn(out, schema.LabelSubmissionID, sheet.Int(batchID))
	return out
}

// ForEncoding returns the encoding sheet for a curated batch. ids holds the
// stored question id of every source row and is written to the id column.
func ForEncoding(src *sheet.Sheet, submissionID int64, ids []int64) (*sheet.Sheet, error) {
	if len(ids) != len(src.Rows) {
		return nil, fmt.Errorf("derive: %d question ids for %d rows", len(ids), len(src.Rows))
	}

	out := &sheet.Sheet{Rows: make([]sheet.Row, len(src.Rows))}
	for _, h := range src.Header {
		if !curationOnly[h] {
			out.Header = append(out.Header, h)
		}
	}
	for i, r := range src.Rows {
		nr := make(sheet.Row, len(r))
		for label, c := range r {
			if !curationOnly[label] {
				nr[label] = c
			}
		}
		out.Rows[i] = nr
	}

	for _, l := range schema.EncodingLabels() {
		addColumn(out, l)
	}
	setColumn(out, schema.LabelSubmissionID, sheet.Int(submissionID))

	if !out.HasColumn(schema.LabelID) {
		out.Header = append(out.Header, schema.LabelID)
	}
	for i, r := range out.Rows {
		r[schema.LabelID] = sheet.Int(ids[i])
	}
	return out, nil
}

// addColumn appends a blank column unless the header already has it.
func addColumn(s *sheet.Sheet, label string) {
	if !s.HasColumn(label) {
		s.Header = append(s.Header, label)
	}
}

func setColumn(s *sheet.Sheet, label string, c sheet.Cell) {
	addColumn(s, label)
	for _, r := range s.Rows {
		r[label] = c
	}
}
