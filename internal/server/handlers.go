package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/pipeline"
	"github.com/sawaliram/sawaliram/internal/storage"
)

// defaultFileField is the multipart field uploads use unless the form names
// another one in excel-file-name.
const defaultFileField = "excel_file"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type submissionResponse struct {
	Message      string   `json:"message"`
	Stage        string   `json:"stage"`
	SubmissionID int64    `json:"submission_id"`
	Questions    int      `json:"questions"`
	Artifacts    []string `json:"artifacts,omitempty"`
}

type questionListResponse struct {
	Questions []database.Question `json:"questions"`
	States    []string            `json:"states"`
}

type questionDetailResponse struct {
	Question     database.Question             `json:"question"`
	Translations []database.TranslatedQuestion `json:"translations"`
	Answers      []database.Answer             `json:"answers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadedSheet returns the spreadsheet file of a multipart upload.
func uploadedSheet(r *http.Request) (multipart.File, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrUnreadableSheet, err)
	}
	field := r.FormValue("excel-file-name")
	if field == "" {
		field = defaultFileField
	}
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: no file in field %q", pipeline.ErrUnreadableSheet, field)
	}
	return f, nil
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	f, err := uploadedSheet(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	errs, err := s.engine.Validate(f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, newValidationResponse(errs))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "validated"})
}

type submitFunc func(ctx context.Context, r io.Reader, caller string) (*pipeline.Result, error)

func (s *Server) handleSubmission(submit submitFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := uploadedSheet(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		defer f.Close()

		res, err := submit(r.Context(), f, CallerFromContext(r.Context()))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, submissionResponse{
			Message:      res.Message,
			Stage:        res.Stage,
			SubmissionID: res.SubmissionID,
			Questions:    res.Questions,
			Artifacts:    res.Artifacts,
		})
	}
}

func (s *Server) handleSubmitRaw(w http.ResponseWriter, r *http.Request) {
	s.handleSubmission(s.engine.SubmitRaw)(w, r)
}

func (s *Server) handleSubmitCurated(w http.ResponseWriter, r *http.Request) {
	s.handleSubmission(s.engine.SubmitCurated)(w, r)
}

func (s *Server) handleSubmitEncoded(w http.ResponseWriter, r *http.Request) {
	s.handleSubmission(s.engine.SubmitEncoded)(w, r)
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(r.FormValue("question_id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid question_id")
		return
	}

	id, err := s.engine.SubmitAnswer(r.Context(), questionID, r.FormValue("rich-text-content"), CallerFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   pipeline.MsgSheetSubmitted,
		"answer_id": id,
	})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.ListQuestions(r.Context(), r.URL.Query()["states"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionListResponse{
		Questions: nonNil(list.Questions),
		States:    nonNil(list.States),
	})
}

func (s *Server) handleListUnanswered(w http.ResponseWriter, r *http.Request) {
	qs, err := s.engine.ListUnanswered(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": nonNil(qs)})
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid question id")
		return
	}

	d, err := s.engine.GetQuestion(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionDetailResponse{
		Question:     d.Question,
		Translations: nonNil(d.Translations),
		Answers:      nonNil(d.Answers),
	})
}

func (s *Server) handlePendingCuration(w http.ResponseWriter, r *http.Request) {
	subs, err := s.engine.ListPendingCuration(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": nonNil(subs)})
}

func (s *Server) handlePendingEncoding(w http.ResponseWriter, r *http.Request) {
	subs, err := s.engine.ListPendingEncoding(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": nonNil(subs)})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	stage, name := storage.Stage(vars["stage"]), vars["name"]

	if _, err := s.store.Path(stage, name); err != nil {
		writeErrorMessage(w, http.StatusNotFound, err.Error())
		return
	}
	rc, err := s.store.Open(stage, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("artifact download interrupted", zap.String("name", name), zap.Error(err))
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
