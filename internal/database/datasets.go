package database

import (
	"context"
	"database/sql"
)

// InsertDataset creates the tracking entry for a raw upload.
func (db *DB) InsertDataset(ctx context.Context, submittedBy, status string) (int64, error) {
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO datasets (submitted_by, status) VALUES (?, ?)",
		submittedBy, status,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// SetDatasetQuestionCount records how many questions a raw upload produced.
func (db *DB) SetDatasetQuestionCount(ctx context.Context, id int64, count int) error {
	_, err := db.q.ExecContext(ctx, "UPDATE datasets SET question_count = ? WHERE id = ?", count, id)
	return err
}

// GetDataset returns a dataset by ID, or nil if it does not exist.
func (db *DB) GetDataset(ctx context.Context, id int64) (*Dataset, error) {
	var d Dataset
	err := db.q.QueryRowContext(ctx,
		"SELECT id, question_count, submitted_by, status, created_on FROM datasets WHERE id = ?", id,
	).Scan(&d.ID, &d.QuestionCount, &d.SubmittedBy, &d.Status, &d.CreatedOn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetAllDatasets returns every raw upload, newest first.
func (db *DB) GetAllDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := db.q.QueryContext(ctx,
		"SELECT id, question_count, submitted_by, status, created_on FROM datasets ORDER BY created_on DESC, id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.ID, &d.QuestionCount, &d.SubmittedBy, &d.Status, &d.CreatedOn); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
