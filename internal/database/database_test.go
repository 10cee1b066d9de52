package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func TestRawQuestionLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	dsID, err := db.InsertDataset(ctx, "asha@example.org", DatasetStatusRaw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := &RawQuestion{
		DatasetID:   &dsID,
		SubmittedBy: "asha@example.org",
		QuestionFields: QuestionFields{
			QuestionText: ptr("Why is the sky blue?"),
			Context:      ptr("Classroom"),
			Published:    true,
		},
	}
	id, err := db.InsertRawQuestion(ctx, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero raw question ID")
	}

	got, err := db.GetRawQuestionsForDataset(ctx, dsID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 raw question, got %d", len(got))
	}
	if got[0].QuestionText == nil || *got[0].QuestionText != "Why is the sky blue?" {
		t.Errorf("unexpected question text %v", got[0].QuestionText)
	}
	if !got[0].Published {
		t.Error("expected published to round-trip as true")
	}
	if got[0].Notes != nil {
		t.Error("expected unset notes to stay NULL")
	}
}

func TestDatasetQuestionCount(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, _ := db.InsertDataset(ctx, "asha@example.org", DatasetStatusRaw)
	if err := db.SetDatasetQuestionCount(ctx, id, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := db.GetDataset(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.QuestionCount != 7 {
		t.Errorf("expected question_count 7, got %d", d.QuestionCount)
	}
	if d.Status != "raw" {
		t.Errorf("expected status 'raw', got %q", d.Status)
	}

	missing, err := db.GetDataset(ctx, 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing dataset")
	}
}

func TestInsertQuestionWithExplicitID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.InsertQuestion(ctx, &Question{ID: 42, QuestionFields: QuestionFields{QuestionText: ptr("Q")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected id 42, got %d", id)
	}

	auto, err := db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("Next")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auto <= 42 {
		t.Errorf("expected auto id after 42, got %d", auto)
	}

	if _, err := db.InsertQuestion(ctx, &Question{ID: 42}); err == nil {
		t.Error("expected duplicate primary key to fail")
	}
}

func TestUpdateQuestionEncoding(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, _ := db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("Q")}})
	sub := int64(3)
	enc := Encoding{SubjectOfSession: ptr("Physics"), CuriosityIndex: ptr("4")}
	if err := db.UpdateQuestionEncoding(ctx, id, &sub, enc, "ravi@example.org"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, err := db.GetQuestion(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.SubjectOfSession == nil || *q.SubjectOfSession != "Physics" {
		t.Errorf("expected subject 'Physics', got %v", q.SubjectOfSession)
	}
	if q.Motivation != nil {
		t.Error("expected unset encoding field to be NULL")
	}
	if q.SubmissionID == nil || *q.SubmissionID != 3 {
		t.Errorf("expected submission_id 3, got %v", q.SubmissionID)
	}
	if q.EncodedBy == nil || *q.EncodedBy != "ravi@example.org" {
		t.Errorf("unexpected encoded_by %v", q.EncodedBy)
	}

	err = db.UpdateQuestionEncoding(ctx, 999, nil, Encoding{}, "ravi@example.org")
	if !errors.Is(err, ErrMissingReference) {
		t.Errorf("expected ErrMissingReference, got %v", err)
	}
}

func TestGetQuestionsStateFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("A"), State: ptr("Kerala")}})
	db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("B"), State: ptr("Assam")}})
	db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("C"), State: ptr("Kerala")}})
	db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("D")}})

	all, err := db.GetQuestions(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 questions, got %d", len(all))
	}
	if *all[0].QuestionText != "D" {
		t.Errorf("expected newest first, got %q", *all[0].QuestionText)
	}

	kerala, _ := db.GetQuestions(ctx, []string{"Kerala"})
	if len(kerala) != 2 {
		t.Errorf("expected 2 Kerala questions, got %d", len(kerala))
	}

	states, err := db.GetDistinctStates(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 2 || states[0] != "Assam" || states[1] != "Kerala" {
		t.Errorf("unexpected states %v", states)
	}
}

func TestUnansweredQuestions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	q1, _ := db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("A")}})
	q2, _ := db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("B")}})

	unanswered, _ := db.GetUnansweredQuestions(ctx)
	if len(unanswered) != 2 {
		t.Fatalf("expected 2 unanswered, got %d", len(unanswered))
	}

	db.InsertAnswer(ctx, q1, "<p>Because.</p>", "meera@example.org")
	db.InsertAnswer(ctx, q1, "<p>Also because.</p>", "arun@example.org")

	unanswered, _ = db.GetUnansweredQuestions(ctx)
	if len(unanswered) != 1 || unanswered[0].ID != q2 {
		t.Errorf("expected only question %d unanswered, got %v", q2, unanswered)
	}

	answers, _ := db.GetAnswersForQuestion(ctx, q1)
	if len(answers) != 2 {
		t.Errorf("expected 2 answers, got %d", len(answers))
	}
}

func TestAnswerRequiresQuestion(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.InsertAnswer(context.Background(), 12345, "text", "x"); err == nil {
		t.Error("expected foreign key failure for unknown question")
	}
}

func TestTranslations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	qid, _ := db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("Aakash neela kyon hai?")}})
	if _, err := db.InsertTranslation(ctx, qid, "Why is the sky blue?", LanguageEnglish); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts, err := db.GetTranslations(ctx, qid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ts) != 1 || ts[0].Language != "english" {
		t.Errorf("unexpected translations %v", ts)
	}
}

func TestCurationTrackerLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	db.InsertUncuratedSubmission(ctx, 1, "dataset_1_uncurated.xlsx", 3)
	db.InsertUncuratedSubmission(ctx, 2, "dataset_2_uncurated.xlsx", 5)

	pending, err := db.GetPendingCuration(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 2 || pending[0].SubmissionID != 2 {
		t.Fatalf("expected 2 pending newest first, got %v", pending)
	}

	if err := db.MarkCurated(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pending, _ = db.GetPendingCuration(ctx)
	if len(pending) != 1 || pending[0].SubmissionID != 2 {
		t.Errorf("expected only submission 2 pending, got %v", pending)
	}

	s, _ := db.GetUncuratedSubmission(ctx, 1)
	if s == nil || !s.Curated {
		t.Error("expected submission 1 to be curated")
	}

	missing, _ := db.GetUncuratedSubmission(ctx, 99)
	if missing != nil {
		t.Error("expected nil for unknown submission")
	}
}

func TestEncodingTrackerLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	db.InsertUnencodedSubmission(ctx, 4, "unencoded_dataset_4.xlsx", 2)
	pending, _ := db.GetPendingEncoding(ctx)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}

	db.MarkEncoded(ctx, 4)
	pending, _ = db.GetPendingEncoding(ctx)
	if len(pending) != 0 {
		t.Errorf("expected 0 pending after encoding, got %d", len(pending))
	}

	s, _ := db.GetUnencodedSubmission(ctx, 4)
	if s == nil || !s.Encoded || s.NumberOfQuestions != 2 {
		t.Errorf("unexpected tracker %+v", s)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *DB) error {
		if _, err := tx.InsertDataset(ctx, "asha@example.org", DatasetStatusRaw); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	all, _ := db.GetAllDatasets(ctx)
	if len(all) != 0 {
		t.Errorf("expected rollback to discard dataset, got %d", len(all))
	}
}

func TestWithTxCommits(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *DB) error {
		_, err := tx.InsertDataset(ctx, "asha@example.org", DatasetStatusRaw)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, _ := db.GetAllDatasets(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 dataset after commit, got %d", len(all))
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Questions != 0 {
		t.Errorf("expected 0 questions, got %d", stats.Questions)
	}

	qid, _ := db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("A")}})
	db.InsertQuestion(ctx, &Question{QuestionFields: QuestionFields{QuestionText: ptr("B")}})
	db.InsertAnswer(ctx, qid, "text", "meera@example.org")
	db.InsertUncuratedSubmission(ctx, 1, "dataset_1_uncurated.xlsx", 2)

	stats, _ = db.GetStats(ctx)
	if stats.Questions != 2 {
		t.Errorf("expected 2 questions, got %d", stats.Questions)
	}
	if stats.UnansweredQuestions != 1 {
		t.Errorf("expected 1 unanswered, got %d", stats.UnansweredQuestions)
	}
	if stats.PendingCuration != 1 {
		t.Errorf("expected 1 pending curation, got %d", stats.PendingCuration)
	}
}
