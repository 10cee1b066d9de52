package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

var encodingColumns = []string{
	"subject_of_session", "question_topic_relation", "motivation", "type_of_information",
	"source", "curiosity_index", "urban_or_rural", "type_of_school", "comments_on_coding_rationale",
}

var questionColumns = "q.id, " + prefixed("q.", fieldColumns) +
	", q.field_of_interest, q.submission_id, q.curated_by, " +
	prefixed("q.", encodingColumns) + ", q.encoded_by, q.created_on, q.updated_on"

func prefixed(prefix string, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return strings.Join(out, ", ")
}

func encodingArgs(e *Encoding) []any {
	return []any{
		e.SubjectOfSession, e.QuestionTopicRelation, e.Motivation, e.TypeOfInformation,
		e.Source, e.CuriosityIndex, e.UrbanOrRural, e.TypeOfSchool, e.CommentsOnCodingRationale,
	}
}

func encodingDest(e *Encoding) []any {
	return []any{
		&e.SubjectOfSession, &e.QuestionTopicRelation, &e.Motivation, &e.TypeOfInformation,
		&e.Source, &e.CuriosityIndex, &e.UrbanOrRural, &e.TypeOfSchool, &e.CommentsOnCodingRationale,
	}
}

// InsertQuestion stores a curated question. A non-zero q.ID is used as the
// primary key; zero lets SQLite assign one. Returns the stored ID.
func (db *DB) InsertQuestion(ctx context.Context, q *Question) (int64, error) {
	cols := "id, " + strings.Join(fieldColumns, ", ") + ", field_of_interest, submission_id, curated_by"
	args := append([]any{q.ID}, fieldArgs(&q.QuestionFields)...)
	args = append(args, q.FieldOfInterest, q.SubmissionID, q.CuratedBy)

	result, err := db.q.ExecContext(ctx,
		"INSERT INTO questions ("+cols+") VALUES (NULLIF(?, 0), "+placeholders(len(args)-1)+")",
		args...,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateQuestionEncoding overwrites the encoding fields of a question.
// Nil values clear the stored value.
func (db *DB) UpdateQuestionEncoding(ctx context.Context, id int64, submissionID *int64, enc Encoding, encodedBy string) error {
	sets := make([]string, 0, len(encodingColumns)+3)
	for _, c := range encodingColumns {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "submission_id = ?", "encoded_by = ?", "updated_on = datetime('now')")

	args := append(encodingArgs(&enc), submissionID, encodedBy, id)
	result, err := db.q.ExecContext(ctx,
		"UPDATE questions SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &MissingReferenceError{Kind: "question", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

// GetQuestion returns a question by ID, or nil if it does not exist.
func (db *DB) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	rows, err := db.q.QueryContext(ctx, "SELECT "+questionColumns+" FROM questions q WHERE q.id = ?", id)
	if err != nil {
		return nil, err
	}
	qs, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, nil
	}
	return &qs[0], nil
}

// GetQuestions returns questions newest first. When states is non-empty only
// questions from those states are returned.
func (db *DB) GetQuestions(ctx context.Context, states []string) ([]Question, error) {
	query := "SELECT " + questionColumns + " FROM questions q"
	var args []any
	if len(states) > 0 {
		query += " WHERE q.state IN (" + placeholders(len(states)) + ")"
		for _, s := range states {
			args = append(args, s)
		}
	}
	query += " ORDER BY q.created_on DESC, q.id DESC"

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanQuestions(rows)
}

// GetDistinctStates returns every state value present on a question, sorted.
func (db *DB) GetDistinctStates(ctx context.Context) ([]string, error) {
	rows, err := db.q.QueryContext(ctx,
		"SELECT DISTINCT state FROM questions WHERE state IS NOT NULL ORDER BY state",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// GetUnansweredQuestions returns questions that have no answer yet, newest first.
func (db *DB) GetUnansweredQuestions(ctx context.Context) ([]Question, error) {
	rows, err := db.q.QueryContext(ctx,
		"SELECT "+questionColumns+` FROM questions q
		LEFT JOIN answers a ON a.question_id = q.id
		WHERE a.id IS NULL
		ORDER BY q.created_on DESC, q.id DESC`,
	)
	if err != nil {
		return nil, err
	}
	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var published int
		dest := append([]any{&q.ID}, fieldDest(&q.QuestionFields, &published)...)
		dest = append(dest, &q.FieldOfInterest, &q.SubmissionID, &q.CuratedBy)
		dest = append(dest, encodingDest(&q.Encoding)...)
		dest = append(dest, &q.EncodedBy, &q.CreatedOn, &q.UpdatedOn)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		q.Published = published != 0
		out = append(out, q)
	}
	return out, rows.Err()
}
