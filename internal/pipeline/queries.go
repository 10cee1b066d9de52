package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sawaliram/sawaliram/internal/database"
)

// QuestionList is the curated question listing with the states it can be
// filtered by.
type QuestionList struct {
	Questions []database.Question
	States    []string
}

// ListQuestions returns curated questions newest first, limited to the given
// states when any are named, together with every distinct state on record.
func (e *Engine) ListQuestions(ctx context.Context, states []string) (*QuestionList, error) {
	qs, err := e.db.GetQuestions(ctx, states)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	all, err := e.db.GetDistinctStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}
	return &QuestionList{Questions: qs, States: all}, nil
}

// ListUnanswered returns the curated questions that have no answer yet.
func (e *Engine) ListUnanswered(ctx context.Context) ([]database.Question, error) {
	return e.db.GetUnansweredQuestions(ctx)
}

// ListPendingCuration returns the batches still waiting for curation, newest first.
func (e *Engine) ListPendingCuration(ctx context.Context) ([]database.UncuratedSubmission, error) {
	return e.db.GetPendingCuration(ctx)
}

// ListPendingEncoding returns the batches still waiting for encoding, newest first.
func (e *Engine) ListPendingEncoding(ctx context.Context) ([]database.UnencodedSubmission, error) {
	return e.db.GetPendingEncoding(ctx)
}

// QuestionDetail is a curated question with its translations and answers.
type QuestionDetail struct {
	Question     database.Question
	Translations []database.TranslatedQuestion
	Answers      []database.Answer
}

// GetQuestion returns one curated question with its translations and answers.
func (e *Engine) GetQuestion(ctx context.Context, id int64) (*QuestionDetail, error) {
	q, err := e.db.GetQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading question: %w", err)
	}
	if q == nil {
		return nil, &database.MissingReferenceError{Kind: "question", ID: strconv.FormatInt(id, 10)}
	}
	tr, err := e.db.GetTranslations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}
	answers, err := e.db.GetAnswersForQuestion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading answers: %w", err)
	}
	return &QuestionDetail{Question: *q, Translations: tr, Answers: answers}, nil
}

// Stats returns record counts across all stages.
func (e *Engine) Stats(ctx context.Context) (*database.Stats, error) {
	return e.db.GetStats(ctx)
}

// ListDatasets returns every raw upload, newest first.
func (e *Engine) ListDatasets(ctx context.Context) ([]database.Dataset, error) {
	return e.db.GetAllDatasets(ctx)
}
