package database

import "context"

// GetStats returns aggregate database statistics.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM datasets", &s.Datasets},
		{"SELECT COUNT(*) FROM raw_questions", &s.RawQuestions},
		{"SELECT COUNT(*) FROM questions", &s.Questions},
		{"SELECT COUNT(*) FROM questions WHERE encoded_by IS NOT NULL", &s.EncodedQuestions},
		{"SELECT COUNT(*) FROM answers", &s.Answers},
		{"SELECT COUNT(*) FROM questions WHERE id NOT IN (SELECT question_id FROM answers)", &s.UnansweredQuestions},
		{"SELECT COUNT(*) FROM uncurated_submissions WHERE curated = 0", &s.PendingCuration},
		{"SELECT COUNT(*) FROM unencoded_submissions WHERE encoded = 0", &s.PendingEncoding},
	}

	for _, q := range queries {
		if err := db.q.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
