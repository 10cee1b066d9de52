package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/pipeline"
	"github.com/sawaliram/sawaliram/internal/schema"
	"github.com/sawaliram/sawaliram/internal/sheet"
	"github.com/sawaliram/sawaliram/internal/storage"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.New(filepath.Join(dir, "submissions"))
	return New(pipeline.New(db, store, nil), store, testSecret, nil)
}

func token(t *testing.T, caller string) string {
	t.Helper()
	tok, err := IssueToken(testSecret, caller, time.Hour)
	require.NoError(t, err)
	return tok
}

func rawSheet(rows ...sheet.Row) *sheet.Sheet {
	return &sheet.Sheet{Header: schema.Labels(schema.StageRaw), Rows: rows}
}

func validRow(question string) sheet.Row {
	return sheet.Row{
		schema.LabelQuestion:         sheet.Present(question),
		schema.LabelQuestionLanguage: sheet.Present("English"),
		schema.LabelContext:          sheet.Present("Classroom"),
		schema.LabelState:            sheet.Present("Goa"),
		schema.LabelContributorName:  sheet.Present("Asha"),
	}
}

// upload builds a multipart request carrying s in the given file field.
func upload(t *testing.T, path, field string, s *sheet.Sheet, extra map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(field, "questions.xlsx")
	require.NoError(t, err)
	require.NoError(t, sheet.WriteXLSX(fw, s))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request, caller string) *httptest.ResponseRecorder {
	if caller != "" {
		tok, _ := IssueToken(testSecret, caller, time.Hour)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(b))
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, upload(t, "/v1/datasets/validate", "excel_file", rawSheet(validRow("Why?")), nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"validated"}`, rec.Body.String())

	bad := validRow("How?")
	delete(bad, schema.LabelContext)
	rec = serve(s, upload(t, "/v1/datasets/validate", "excel_file", rawSheet(validRow("Why?"), bad), nil), "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{
		"errors": {"Row #3": ["Context field cannot be empty"]},
		"rows": [{"row": "Row #3", "messages": ["Context field cannot be empty"]}]
	}`, rec.Body.String())
}

func TestValidationRowsKeepSheetOrder(t *testing.T) {
	s := newTestServer(t)

	var rows []sheet.Row
	for i := 0; i < 10; i++ {
		r := validRow("Why?")
		delete(r, schema.LabelQuestionLanguage)
		rows = append(rows, r)
	}
	rec := serve(s, upload(t, "/v1/datasets/validate", "excel_file", rawSheet(rows...), nil), "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body validationResponse
	decode(t, rec, &body)
	require.Len(t, body.Rows, 10)
	for i, re := range body.Rows {
		assert.Equal(t, sheet.RowLabel(i), re.Row)
	}
	assert.Len(t, body.Errors, 10)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/v1/questions", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/questions", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = serve(s, req, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "asha",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	forged, err := other.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/v1/questions", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec = serve(s, req, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	s := newTestServer(t)
	tok, err := IssueToken(testSecret, "asha", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/questions", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := serve(s, req, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitRawEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, upload(t, "/v1/datasets/raw", "excel_file", rawSheet(validRow("Why?"), validRow("How?")), nil), "asha")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res submissionResponse
	decode(t, rec, &res)
	assert.Equal(t, pipeline.MsgRawSubmitted, res.Message)
	assert.Equal(t, 2, res.Questions)
	assert.NotZero(t, res.SubmissionID)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/submissions/uncurated", nil), "asha")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending struct {
		Submissions []database.UncuratedSubmission `json:"submissions"`
	}
	decode(t, rec, &pending)
	require.Len(t, pending.Submissions, 1)
	assert.Equal(t, res.SubmissionID, pending.Submissions[0].SubmissionID)

	name := storage.UncuratedName(res.SubmissionID)
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/artifacts/uncurated/"+name, nil), "ravi")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	got, err := sheet.ReadXLSX(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.True(t, got.HasColumn(schema.LabelFieldOfInterest))
}

func TestSubmitRawErrors(t *testing.T) {
	s := newTestServer(t)

	bad := validRow("How?")
	delete(bad, schema.LabelContributorName)
	rec := serve(s, upload(t, "/v1/datasets/raw", "excel_file", rawSheet(bad), nil), "asha")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{
		"errors": {"Row #2": ["You must mention the name of the contributor"]},
		"rows": [{"row": "Row #2", "messages": ["You must mention the name of the contributor"]}]
	}`, rec.Body.String())

	unknown := rawSheet(validRow("Why?"))
	unknown.Header = append(unknown.Header, "Shoe size")
	rec = serve(s, upload(t, "/v1/datasets/raw", "excel_file", unknown, nil), "asha")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, upload(t, "/v1/datasets/raw", "wrong_field", rawSheet(validRow("Why?")), nil), "asha")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurationAndAnswerFlow(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, upload(t, "/v1/datasets/raw", "excel_file", rawSheet(validRow("Why?")), nil), "asha")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var raw submissionResponse
	decode(t, rec, &raw)

	curation, err := s.store.Load(storage.StageUncurated, storage.UncuratedName(raw.SubmissionID))
	require.NoError(t, err)

	req := upload(t, "/v1/datasets/curated", "excel42", curation, map[string]string{"excel-file-name": "excel42"})
	rec = serve(s, req, "ravi")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(s, upload(t, "/v1/datasets/curated", "excel_file", curation, nil), "ravi")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/questions/unanswered", nil), "priya")
	require.Equal(t, http.StatusOK, rec.Code)
	var unanswered questionListResponse
	decode(t, rec, &unanswered)
	require.Len(t, unanswered.Questions, 1)
	qid := unanswered.Questions[0].ID

	form := url.Values{
		"question_id":       {strconv.FormatInt(qid, 10)},
		"rich-text-content": {"<p>Because of Rayleigh scattering.</p>"},
	}
	req = httptest.NewRequest(http.MethodPost, "/v1/answers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(s, req, "priya")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/questions/unanswered", nil), "priya")
	decode(t, rec, &unanswered)
	assert.Empty(t, unanswered.Questions)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/questions/"+strconv.FormatInt(qid, 10), nil), "priya")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail questionDetailResponse
	decode(t, rec, &detail)
	require.Len(t, detail.Answers, 1)
	assert.Equal(t, "priya", detail.Answers[0].AnsweredBy)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/questions?states=Goa&states=Kerala", nil), "priya")
	require.Equal(t, http.StatusOK, rec.Code)
	var list questionListResponse
	decode(t, rec, &list)
	assert.Len(t, list.Questions, 1)
	assert.Equal(t, []string{"Goa"}, list.States)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/submissions/unencoded", nil), "meera")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), storage.UnencodedName(raw.SubmissionID))
}

func TestSubmitCuratedMalformedCells(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, upload(t, "/v1/datasets/raw", "excel_file", rawSheet(validRow("Why?")), nil), "asha")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var raw submissionResponse
	decode(t, rec, &raw)

	curation, err := s.store.Load(storage.StageUncurated, storage.UncuratedName(raw.SubmissionID))
	require.NoError(t, err)
	curation.Header = append(curation.Header, schema.LabelID)
	curation.Rows[0][schema.LabelID] = sheet.Present("abc")

	rec = serve(s, upload(t, "/v1/datasets/curated", "excel_file", curation, nil), "ravi")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Row #2")

	bad := rawSheet(validRow("Why?"))
	bad.Header = append(bad.Header, schema.LabelSubmissionID)
	bad.Rows[0][schema.LabelSubmissionID] = sheet.Present("batch seven")
	rec = serve(s, upload(t, "/v1/datasets/curated", "excel_file", bad, nil), "ravi")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "submission_id")

	dup := rawSheet(validRow("Why?"))
	dup.Header = append(dup.Header, schema.LabelNotes)
	rec = serve(s, upload(t, "/v1/datasets/raw", "excel_file", dup, nil), "asha")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "appears more than once")
}

func TestSubmitEncodedUnknownSubmission(t *testing.T) {
	s := newTestServer(t)

	enc := &sheet.Sheet{
		Header: []string{schema.LabelID, schema.LabelSubmissionID},
		Rows:   []sheet.Row{{schema.LabelID: sheet.Int(1), schema.LabelSubmissionID: sheet.Int(404)}},
	}
	rec := serve(s, upload(t, "/v1/datasets/encoded", "excel_file", enc, nil), "meera")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnswerUnknownQuestion(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"question_id": {"99"}, "rich-text-content": {"<p>Hi</p>"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/answers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(s, req, "priya")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/questions/99", nil), "priya")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArtifactNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/v1/artifacts/raw/dataset_1_raw.xlsx", nil), "asha")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/v1/artifacts/secrets/x.xlsx", nil), "asha")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/v1/stats", nil), "asha")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats database.Stats
	decode(t, rec, &stats)
	assert.Zero(t, stats.Questions)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t)
	h := s.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCallerInContext(t *testing.T) {
	s := newTestServer(t)
	var seen string
	h := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "meera"))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "meera", seen)
}
