package database

import (
	"context"
	"database/sql"
	"strings"
)

var rawQuestionColumns = "id, dataset_id, " + strings.Join(fieldColumns, ", ") + ", submitted_by, created_on"

// InsertRawQuestion archives a submitted question and returns its ID.
func (db *DB) InsertRawQuestion(ctx context.Context, q *RawQuestion) (int64, error) {
	cols := "dataset_id, " + strings.Join(fieldColumns, ", ") + ", submitted_by"
	args := append([]any{q.DatasetID}, fieldArgs(&q.QuestionFields)...)
	args = append(args, q.SubmittedBy)

	result, err := db.q.ExecContext(ctx,
		"INSERT INTO raw_questions ("+cols+") VALUES ("+placeholders(len(args))+")",
		args...,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRawQuestionsForDataset returns the archived questions of one upload in
// insertion order.
func (db *DB) GetRawQuestionsForDataset(ctx context.Context, datasetID int64) ([]RawQuestion, error) {
	rows, err := db.q.QueryContext(ctx,
		"SELECT "+rawQuestionColumns+" FROM raw_questions WHERE dataset_id = ? ORDER BY id",
		datasetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawQuestion
	for rows.Next() {
		q, err := scanRawQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func scanRawQuestion(rows *sql.Rows) (*RawQuestion, error) {
	var q RawQuestion
	var published int
	dest := append([]any{&q.ID, &q.DatasetID}, fieldDest(&q.QuestionFields, &published)...)
	dest = append(dest, &q.SubmittedBy, &q.CreatedOn)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	q.Published = published != 0
	return &q, nil
}
