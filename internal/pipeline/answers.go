package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/richtext"
)

// ErrEmptyAnswer is returned when an answer has no text.
var ErrEmptyAnswer = errors.New("answer text is empty")

// SubmitAnswer stores an answer to a curated question and returns its ID.
// A question may collect any number of answers.
func (e *Engine) SubmitAnswer(ctx context.Context, questionID int64, text, caller string) (int64, error) {
	if caller == "" {
		return 0, ErrNoCaller
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyAnswer
	}

	var id int64
	err := e.db.WithTx(ctx, func(tx *database.DB) error {
		q, err := tx.GetQuestion(ctx, questionID)
		if err != nil {
			return fmt.Errorf("loading question: %w", err)
		}
		if q == nil {
			return &database.MissingReferenceError{Kind: "question", ID: strconv.FormatInt(questionID, 10)}
		}
		id, err = tx.InsertAnswer(ctx, questionID, text, caller)
		if err != nil {
			return fmt.Errorf("storing answer: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("answer submitted",
		zap.Int64("question_id", questionID),
		zap.Int64("answer_id", id),
		zap.String("caller", caller),
	)
	return id, nil
}

// CleanAnswers strips empty paragraphs and repeated line breaks from every
// stored answer and returns how many answers changed.
func (e *Engine) CleanAnswers(ctx context.Context) (int, error) {
	answers, err := e.db.GetAllAnswers(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading answers: %w", err)
	}

	changed := 0
	err = e.db.WithTx(ctx, func(tx *database.DB) error {
		for _, a := range answers {
			body, ok, err := richtext.Clean(a.AnswerText)
			if err != nil {
				e.logger.Warn("skipping answer", zap.Int64("answer_id", a.ID), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			if err := tx.UpdateAnswerText(ctx, a.ID, body); err != nil {
				return fmt.Errorf("updating answer %d: %w", a.ID, err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("answers cleaned", zap.Int("changed", changed), zap.Int("total", len(answers)))
	return changed, nil
}
