// Package importer turns spreadsheet rows into persisted question records.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/schema"
	"github.com/sawaliram/sawaliram/internal/sheet"
)

// ErrDuplicateID is returned when a curated row names an id that an existing
// question already has.
var ErrDuplicateID = errors.New("question id already exists")

// Store is the persistence the importer writes through.
type Store interface {
	InsertRawQuestion(ctx context.Context, q *database.RawQuestion) (int64, error)
	InsertQuestion(ctx context.Context, q *database.Question) (int64, error)
	InsertTranslation(ctx context.Context, questionID int64, text, language string) (int64, error)
	GetQuestion(ctx context.Context, id int64) (*database.Question, error)
	UpdateQuestionEncoding(ctx context.Context, id int64, submissionID *int64, enc database.Encoding, encodedBy string) error
}

// RawQuestion builds the archival record for a raw-intake row. ok is false
// when the row has no question text and must be skipped.
func RawQuestion(row sheet.Row, cols map[string]schema.Field) (q *database.RawQuestion, ok bool) {
	if row.Get(schema.LabelQuestion).IsAbsent() {
		return nil, false
	}
	q = &database.RawQuestion{}
	applyFields(&q.QuestionFields, row, cols)
	return q, true
}

// CuratedQuestion builds a curated question from a curation-stage row.
func CuratedQuestion(row sheet.Row, cols map[string]schema.Field) (*database.Question, error) {
	q := &database.Question{}
	rest := applyFields(&q.QuestionFields, row, cols)

	for field, c := range rest {
		switch field {
		case schema.ID:
			id, err := c.Int64()
			if err != nil {
				return nil, fmt.Errorf("id: %w", err)
			}
			q.ID = id
		case schema.SubmissionID:
			sid, err := c.Int64()
			if err != nil {
				return nil, fmt.Errorf("submission_id: %w", err)
			}
			q.SubmissionID = &sid
		case schema.FieldOfInterest:
			v := c.Trimmed()
			q.FieldOfInterest = &v
		default:
			return nil, fmt.Errorf("no setter for field %q", field)
		}
	}
	return q, nil
}

// ImportRaw archives every raw-intake row that has question text and returns
// how many records were created. Headers must already be resolved.
func ImportRaw(ctx context.Context, store Store, s *sheet.Sheet, cols map[string]schema.Field, datasetID int64, submittedBy string) (int, error) {
	n := 0
	for i, row := range s.Rows {
		q, ok := RawQuestion(row, cols)
		if !ok {
			continue
		}
		q.DatasetID = &datasetID
		q.SubmittedBy = submittedBy
		if _, err := store.InsertRawQuestion(ctx, q); err != nil {
			return n, fmt.Errorf("%s: storing raw question: %w", sheet.RowLabel(i), err)
		}
		n++
	}
	return n, nil
}

// ImportCurated stores every row as a curated question, plus an English
// translation when the row carries one. It returns the stored question IDs
// in row order.
func ImportCurated(ctx context.Context, store Store, s *sheet.Sheet, cols map[string]schema.Field, curatedBy string) ([]int64, error) {
	ids := make([]int64, 0, len(s.Rows))
	for i, row := range s.Rows {
		label := sheet.RowLabel(i)

		q, err := CuratedQuestion(row, cols)
		if err != nil {
			return ids, fmt.Errorf("%s: %w", label, err)
		}
		q.CuratedBy = &curatedBy

		if q.ID != 0 {
			existing, err := store.GetQuestion(ctx, q.ID)
			if err != nil {
				return ids, fmt.Errorf("%s: loading question: %w", label, err)
			}
			if existing != nil {
				return ids, fmt.Errorf("%s: id %d: %w", label, q.ID, ErrDuplicateID)
			}
		}

		id, err := store.InsertQuestion(ctx, q)
		if err != nil {
			return ids, fmt.Errorf("%s: storing question: %w", label, err)
		}

		if c := row.Get(schema.LabelEnglishTranslation); !c.IsAbsent() {
			if _, err := store.InsertTranslation(ctx, id, c.Trimmed(), database.LanguageEnglish); err != nil {
				return ids, fmt.Errorf("%s: storing translation: %w", label, err)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// encodingColumns are read straight off the row, without the mapping table.
var encodingColumns = []struct {
	label string
	dst   func(e *database.Encoding) **string
}{
	{schema.LabelSubjectOfSession, func(e *database.Encoding) **string { return &e.SubjectOfSession }},
	{schema.LabelTopicRelation, func(e *database.Encoding) **string { return &e.QuestionTopicRelation }},
	{schema.LabelMotivation, func(e *database.Encoding) **string { return &e.Motivation }},
	{schema.LabelTypeOfInformation, func(e *database.Encoding) **string { return &e.TypeOfInformation }},
	{schema.LabelSource, func(e *database.Encoding) **string { return &e.Source }},
	{schema.LabelCuriosityIndex, func(e *database.Encoding) **string { return &e.CuriosityIndex }},
	{schema.LabelUrbanRural, func(e *database.Encoding) **string { return &e.UrbanOrRural }},
	{schema.LabelTypeOfSchool, func(e *database.Encoding) **string { return &e.TypeOfSchool }},
	{schema.LabelCodingRationale, func(e *database.Encoding) **string { return &e.CommentsOnCodingRationale }},
}

// Encoding reads the encoding fields of one row. Absent cells become nil so
// they overwrite whatever was stored before.
func Encoding(row sheet.Row) (questionID int64, submissionID *int64, enc database.Encoding, err error) {
	idCell := row.Get(schema.LabelID)
	if idCell.IsAbsent() {
		return 0, nil, enc, fmt.Errorf("question id is empty: %w", database.ErrMissingReference)
	}
	questionID, err = idCell.Int64()
	if err != nil {
		return 0, nil, enc, fmt.Errorf("id: %w", err)
	}

	if c := row.Get(schema.LabelSubmissionID); !c.IsAbsent() {
		sid, err := c.Int64()
		if err != nil {
			return 0, nil, enc, fmt.Errorf("submission_id: %w", err)
		}
		submissionID = &sid
	}

	for _, col := range encodingColumns {
		if v, ok := row.Get(col.label).Value(); ok {
			*col.dst(&enc) = &v
		}
	}
	return questionID, submissionID, enc, nil
}

// ImportEncoded writes the encoding fields of every row onto the curated
// question the row's id refers to. An unknown id aborts the import.
func ImportEncoded(ctx context.Context, store Store, s *sheet.Sheet, encodedBy string) (int, error) {
	n := 0
	for i, row := range s.Rows {
		label := sheet.RowLabel(i)

		id, sid, enc, err := Encoding(row)
		if err != nil {
			return n, fmt.Errorf("%s: %w", label, err)
		}

		q, err := store.GetQuestion(ctx, id)
		if err != nil {
			return n, fmt.Errorf("%s: loading question: %w", label, err)
		}
		if q == nil {
			return n, fmt.Errorf("%s: %w", label,
				&database.MissingReferenceError{Kind: "question", ID: strconv.FormatInt(id, 10)})
		}

		if err := store.UpdateQuestionEncoding(ctx, id, sid, enc, encodedBy); err != nil {
			return n, fmt.Errorf("%s: storing encoding: %w", label, err)
		}
		n++
	}
	return n, nil
}
