package database

import (
	"context"
	"database/sql"
)

// InsertUncuratedSubmission creates the curation tracker for a batch.
func (db *DB) InsertUncuratedSubmission(ctx context.Context, submissionID int64, sheetName string, numberOfQuestions int) (int64, error) {
	result, err := db.q.ExecContext(ctx,
		`INSERT INTO uncurated_submissions (submission_id, excel_sheet_name, number_of_questions)
		VALUES (?, ?, ?)`,
		submissionID, sheetName, numberOfQuestions,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetUncuratedSubmission returns the curation tracker of a batch, or nil.
func (db *DB) GetUncuratedSubmission(ctx context.Context, submissionID int64) (*UncuratedSubmission, error) {
	var s UncuratedSubmission
	var curated int
	err := db.q.QueryRowContext(ctx,
		`SELECT id, submission_id, excel_sheet_name, number_of_questions, curated, created_on
		FROM uncurated_submissions WHERE submission_id = ?`, submissionID,
	).Scan(&s.ID, &s.SubmissionID, &s.ExcelSheetName, &s.NumberOfQuestions, &curated, &s.CreatedOn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Curated = curated != 0
	return &s, nil
}

// MarkCurated sets the curated flag of a batch's tracker.
func (db *DB) MarkCurated(ctx context.Context, submissionID int64) error {
	_, err := db.q.ExecContext(ctx,
		"UPDATE uncurated_submissions SET curated = 1 WHERE submission_id = ?", submissionID,
	)
	return err
}

// GetPendingCuration returns trackers not yet curated, newest first.
func (db *DB) GetPendingCuration(ctx context.Context) ([]UncuratedSubmission, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, submission_id, excel_sheet_name, number_of_questions, curated, created_on
		FROM uncurated_submissions WHERE curated = 0
		ORDER BY created_on DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UncuratedSubmission
	for rows.Next() {
		var s UncuratedSubmission
		var curated int
		if err := rows.Scan(&s.ID, &s.SubmissionID, &s.ExcelSheetName, &s.NumberOfQuestions, &curated, &s.CreatedOn); err != nil {
			return nil, err
		}
		s.Curated = curated != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertUnencodedSubmission creates the encoding tracker for a batch.
func (db *DB) InsertUnencodedSubmission(ctx context.Context, submissionID int64, sheetName string, numberOfQuestions int) (int64, error) {
	result, err := db.q.ExecContext(ctx,
		`INSERT INTO unencoded_submissions (submission_id, excel_sheet_name, number_of_questions)
		VALUES (?, ?, ?)`,
		submissionID, sheetName, numberOfQuestions,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetUnencodedSubmission returns the encoding tracker of a batch, or nil.
func (db *DB) GetUnencodedSubmission(ctx context.Context, submissionID int64) (*UnencodedSubmission, error) {
	var s UnencodedSubmission
	var encoded int
	err := db.q.QueryRowContext(ctx,
		`SELECT id, submission_id, excel_sheet_name, number_of_questions, encoded, created_on
		FROM unencoded_submissions WHERE submission_id = ?`, submissionID,
	).Scan(&s.ID, &s.SubmissionID, &s.ExcelSheetName, &s.NumberOfQuestions, &encoded, &s.CreatedOn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Encoded = encoded != 0
	return &s, nil
}

// MarkEncoded sets the encoded flag of a batch's tracker.
func (db *DB) MarkEncoded(ctx context.Context, submissionID int64) error {
	_, err := db.q.ExecContext(ctx,
		"UPDATE unencoded_submissions SET encoded = 1 WHERE submission_id = ?", submissionID,
	)
	return err
}

// GetPendingEncoding returns trackers not yet encoded, newest first.
func (db *DB) GetPendingEncoding(ctx context.Context) ([]UnencodedSubmission, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, submission_id, excel_sheet_name, number_of_questions, encoded, created_on
		FROM unencoded_submissions WHERE encoded = 0
		ORDER BY created_on DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnencodedSubmission
	for rows.Next() {
		var s UnencodedSubmission
		var encoded int
		if err := rows.Scan(&s.ID, &s.SubmissionID, &s.ExcelSheetName, &s.NumberOfQuestions, &encoded, &s.CreatedOn); err != nil {
			return nil, err
		}
		s.Encoded = encoded != 0
		out = append(out, s)
	}
	return out, rows.Err()
}
