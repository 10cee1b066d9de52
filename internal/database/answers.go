package database

import "context"

// InsertAnswer stores an answer and returns its ID.
func (db *DB) InsertAnswer(ctx context.Context, questionID int64, answerText, answeredBy string) (int64, error) {
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO answers (question_id, answer_text, answered_by) VALUES (?, ?, ?)",
		questionID, answerText, answeredBy,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetAnswersForQuestion returns a question's answers, oldest first.
func (db *DB) GetAnswersForQuestion(ctx context.Context, questionID int64) ([]Answer, error) {
	return db.queryAnswers(ctx,
		`SELECT id, question_id, answer_text, answered_by, created_on
		FROM answers WHERE question_id = ? ORDER BY id`, questionID,
	)
}

// GetAllAnswers returns every stored answer in ID order.
func (db *DB) GetAllAnswers(ctx context.Context) ([]Answer, error) {
	return db.queryAnswers(ctx,
		`SELECT id, question_id, answer_text, answered_by, created_on FROM answers ORDER BY id`,
	)
}

// UpdateAnswerText replaces the body of an answer.
func (db *DB) UpdateAnswerText(ctx context.Context, id int64, text string) error {
	_, err := db.q.ExecContext(ctx, "UPDATE answers SET answer_text = ? WHERE id = ?", text, id)
	return err
}

func (db *DB) queryAnswers(ctx context.Context, query string, args ...any) ([]Answer, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.AnswerText, &a.AnsweredBy, &a.CreatedOn); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
