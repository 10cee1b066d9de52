package database

import "context"

// LanguageEnglish is the language tag stored on English translations.
const LanguageEnglish = "english"

// InsertTranslation stores a translation of a question.
func (db *DB) InsertTranslation(ctx context.Context, questionID int64, text, language string) (int64, error) {
	result, err := db.q.ExecContext(ctx,
		"INSERT INTO translated_questions (question_id, question_text, language) VALUES (?, ?, ?)",
		questionID, text, language,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetTranslations returns the translations of a question.
func (db *DB) GetTranslations(ctx context.Context, questionID int64) ([]TranslatedQuestion, error) {
	rows, err := db.q.QueryContext(ctx,
		`SELECT id, question_id, question_text, language
		FROM translated_questions WHERE question_id = ? ORDER BY id`, questionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TranslatedQuestion
	for rows.Next() {
		var t TranslatedQuestion
		if err := rows.Scan(&t.ID, &t.QuestionID, &t.QuestionText, &t.Language); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
