// Package pipeline moves question batches through the review stages:
// raw intake, curation, encoding and answering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/derive"
	"github.com/sawaliram/sawaliram/internal/importer"
	"github.com/sawaliram/sawaliram/internal/schema"
	"github.com/sawaliram/sawaliram/internal/sheet"
	"github.com/sawaliram/sawaliram/internal/storage"
	"github.com/sawaliram/sawaliram/internal/validate"
)

// Messages shown to the uploader after a successful submission.
const (
	MsgRawSubmitted   = "Thank you for the questions! We will get to work preparing the questions to be answered and translated."
	MsgSheetSubmitted = "Excel sheet submitted successfully"
)

// ErrUnreadableSheet is returned when an upload is not a readable workbook.
var ErrUnreadableSheet = errors.New("unreadable spreadsheet")

// ErrAlreadyCurated is returned when a curated sheet is uploaded for a batch
// whose curation is already complete.
var ErrAlreadyCurated = errors.New("batch already curated")

// ErrNoCaller is returned when a submission has no caller identity.
var ErrNoCaller = errors.New("caller identity is required")

// Result describes one completed stage transition.
type Result struct {
	Stage        string
	SubmissionID int64
	Questions    int
	Artifacts    []string
	Message      string
}

// Engine runs the stage transitions against a database and artifact store.
type Engine struct {
	db     *database.DB
	store  *storage.Root
	logger *zap.Logger
}

// New creates an engine. A nil logger disables logging.
func New(db *database.DB, store *storage.Root, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{db: db, store: store, logger: logger}
}

func readSheet(r io.Reader) (*sheet.Sheet, error) {
	s, err := sheet.ReadXLSX(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSheet, err)
	}
	return s, nil
}

// Validate checks a raw-intake sheet without persisting anything. An empty
// result means the sheet is valid.
func (e *Engine) Validate(r io.Reader) (validate.Errors, error) {
	s, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	return validate.Sheet(s), nil
}

// artifacts records the files a transition wrote so they can be removed when
// the transition does not commit.
type artifacts struct {
	stages []storage.Stage
	names  []string
	paths  []string
}

func (a *artifacts) save(store *storage.Root, stage storage.Stage, name string, s *sheet.Sheet) error {
	path, err := store.Save(stage, name, s)
	if err != nil {
		return err
	}
	a.stages = append(a.stages, stage)
	a.names = append(a.names, name)
	a.paths = append(a.paths, path)
	return nil
}

func (a *artifacts) discard(store *storage.Root, logger *zap.Logger) {
	for i, name := range a.names {
		if err := store.Remove(a.stages[i], name); err != nil {
			logger.Warn("removing artifact", zap.String("path", a.paths[i]), zap.Error(err))
		}
	}
}

// transition runs fn in one database transaction. Artifacts fn saved are
// deleted again when the transaction does not commit.
func (e *Engine) transition(ctx context.Context, fn func(tx *database.DB, saved *artifacts) error) ([]string, error) {
	var saved artifacts
	err := e.db.WithTx(ctx, func(tx *database.DB) error {
		return fn(tx, &saved)
	})
	if err != nil {
		saved.discard(e.store, e.logger)
		return nil, err
	}
	return saved.paths, nil
}

// SubmitRaw validates and archives a raw-intake sheet, then prepares the
// curation sheet for the new batch.
func (e *Engine) SubmitRaw(ctx context.Context, r io.Reader, caller string) (*Result, error) {
	if caller == "" {
		return nil, ErrNoCaller
	}
	s, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	if err := validate.Check(s); err != nil {
		return nil, err
	}
	cols, err := schema.Resolve(schema.StageRaw, s.Header)
	if err != nil {
		return nil, err
	}

	res := &Result{Stage: "raw", Message: MsgRawSubmitted}
	res.Artifacts, err = e.transition(ctx, func(tx *database.DB, saved *artifacts) error {
		batchID, err := tx.InsertDataset(ctx, caller, database.DatasetStatusRaw)
		if err != nil {
			return fmt.Errorf("creating dataset: %w", err)
		}

		n, err := importer.ImportRaw(ctx, tx, s, cols, batchID, caller)
		if err != nil {
			return err
		}
		if err := tx.SetDatasetQuestionCount(ctx, batchID, n); err != nil {
			return fmt.Errorf("counting dataset: %w", err)
		}

		if err := saved.save(e.store, storage.StageRaw, storage.RawName(batchID), s); err != nil {
			return err
		}
		curation := derive.ForCuration(s, batchID)
		name := storage.UncuratedName(batchID)
		if err := saved.save(e.store, storage.StageUncurated, name, curation); err != nil {
			return err
		}
		if _, err := tx.InsertUncuratedSubmission(ctx, batchID, name, len(curation.Rows)); err != nil {
			return fmt.Errorf("creating curation tracker: %w", err)
		}

		res.SubmissionID = batchID
		res.Questions = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("raw dataset submitted",
		zap.Int64("submission_id", res.SubmissionID),
		zap.Int("questions", res.Questions),
		zap.String("caller", caller),
	)
	return res, nil
}

// submissionID reads the batch a curation or encoding sheet belongs to from
// the submission_id cell of its first row.
func submissionID(s *sheet.Sheet) (int64, error) {
	if !s.HasColumn(schema.LabelSubmissionID) || len(s.Rows) == 0 {
		return 0, fmt.Errorf("sheet has no %s: %w", schema.LabelSubmissionID, database.ErrMissingReference)
	}
	c := s.Rows[0].Get(schema.LabelSubmissionID)
	if c.IsAbsent() {
		return 0, fmt.Errorf("%s is empty: %w", schema.LabelSubmissionID, database.ErrMissingReference)
	}
	id, err := c.Int64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", schema.LabelSubmissionID, err)
	}
	return id, nil
}

// SubmitCurated stores a curated sheet, closes the batch's curation tracker
// and prepares the encoding sheet.
func (e *Engine) SubmitCurated(ctx context.Context, r io.Reader, caller string) (*Result, error) {
	if caller == "" {
		return nil, ErrNoCaller
	}
	s, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	cols, err := schema.Resolve(schema.StageCuration, s.Header)
	if err != nil {
		return nil, err
	}
	sid, err := submissionID(s)
	if err != nil {
		return nil, err
	}

	res := &Result{Stage: "curation", SubmissionID: sid, Message: MsgSheetSubmitted}
	res.Artifacts, err = e.transition(ctx, func(tx *database.DB, saved *artifacts) error {
		tracker, err := tx.GetUncuratedSubmission(ctx, sid)
		if err != nil {
			return fmt.Errorf("loading curation tracker: %w", err)
		}
		if tracker == nil {
			return &database.MissingReferenceError{Kind: "uncurated submission", ID: strconv.FormatInt(sid, 10)}
		}
		if tracker.Curated {
			return fmt.Errorf("submission %d: %w", sid, ErrAlreadyCurated)
		}

		ids, err := importer.ImportCurated(ctx, tx, s, cols, caller)
		if err != nil {
			return err
		}
		if err := tx.MarkCurated(ctx, sid); err != nil {
			return fmt.Errorf("closing curation tracker: %w", err)
		}

		encoding, err := derive.ForEncoding(s, sid, ids)
		if err != nil {
			return err
		}
		name := storage.UnencodedName(sid)
		if err := saved.save(e.store, storage.StageUnencoded, name, encoding); err != nil {
			return err
		}
		if _, err := tx.InsertUnencodedSubmission(ctx, sid, name, len(encoding.Rows)); err != nil {
			return fmt.Errorf("creating encoding tracker: %w", err)
		}

		res.Questions = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("curated dataset submitted",
		zap.Int64("submission_id", sid),
		zap.Int("questions", res.Questions),
		zap.String("caller", caller),
	)
	return res, nil
}

// SubmitEncoded writes the encoding of every row onto its curated question
// and closes the batch's encoding tracker.
func (e *Engine) SubmitEncoded(ctx context.Context, r io.Reader, caller string) (*Result, error) {
	if caller == "" {
		return nil, ErrNoCaller
	}
	s, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	sid, err := submissionID(s)
	if err != nil {
		return nil, err
	}

	res := &Result{Stage: "encoding", SubmissionID: sid, Message: MsgSheetSubmitted}
	_, err = e.transition(ctx, func(tx *database.DB, _ *artifacts) error {
		tracker, err := tx.GetUnencodedSubmission(ctx, sid)
		if err != nil {
			return fmt.Errorf("loading encoding tracker: %w", err)
		}
		if tracker == nil {
			return &database.MissingReferenceError{Kind: "unencoded submission", ID: strconv.FormatInt(sid, 10)}
		}

		n, err := importer.ImportEncoded(ctx, tx, s, caller)
		if err != nil {
			return err
		}
		if err := tx.MarkEncoded(ctx, sid); err != nil {
			return fmt.Errorf("closing encoding tracker: %w", err)
		}
		res.Questions = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("encoded dataset submitted",
		zap.Int64("submission_id", sid),
		zap.Int("questions", res.Questions),
		zap.String("caller", caller),
	)
	return res, nil
}
