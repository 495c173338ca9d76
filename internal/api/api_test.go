package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"alcyxob/ai-reports/internal/archive"
	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/pdfreport"
	"alcyxob/ai-reports/internal/preview"
	"alcyxob/ai-reports/internal/service"
	"alcyxob/ai-reports/internal/storage"
	"alcyxob/ai-reports/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "region,total\nnorth,10\nsouth,20\n"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSummarizer struct{ text string }

func (s stubSummarizer) Enabled() bool { return s.text != "" }

func (s stubSummarizer) Summarize(context.Context, string, domain.Preview) (string, error) {
	return s.text, nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T, serverCfg config.ServerConfig) *testServer {
	t.Helper()
	repos, _ := testutil.Repositories(t)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	log := logger.Nop()

	uploadCfg := config.UploadConfig{MaxBytes: 4096, PreviewRows: 15, ReportRows: 500, PreviewTextChars: 2000}
	history := service.NewHistoryService(repos.History, repos.Reports, log)
	auth := service.NewAuthService(repos.Users, repos.Revoked, "api-test-secret", time.Hour)
	pipeline := service.NewPipeline(service.PipelineConfig{
		Uploads:    repos.Uploads,
		Reports:    repos.Reports,
		History:    history,
		Summarizer: stubSummarizer{text: "Numbers look fine."},
		Renderer:   pdfreport.New(),
		Files:      files,
		Upload:     uploadCfg,
		Log:        log,
	})
	svcs := Services{
		Auth:     auth,
		Uploads:  service.NewUploadService(repos.Uploads, history, preview.New(uploadCfg.PreviewRows, uploadCfg.PreviewTextChars), log),
		Reports:  service.NewReportService(repos.Reports, repos.Uploads, history, files, pdfreport.New(), preview.New(uploadCfg.ReportRows, uploadCfg.PreviewTextChars), log),
		History:  history,
		Pipeline: pipeline,
	}
	return &testServer{t: t, router: NewRouter(serverCfg, uploadCfg.MaxBytes, svcs, log)}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) call(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) upload(path, token, fileName, contentType string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(s.t, err)
		_, err = part.Write(data)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return s.do(req)
}

// login registers email and returns a bearer token.
func (s *testServer) login(email string) string {
	s.t.Helper()
	w := s.call(http.MethodPost, "/api/auth/register", "", gin.H{"fullName": "User " + email, "email": email, "password": "pw-123456"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "pw-123456"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp LoginResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPing(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})
	w := s.call(http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})

	w := s.call(http.MethodPost, "/api/auth/register", "", gin.H{"email": "a@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	token := s.login("a@example.com")

	w = s.call(http.MethodPost, "/api/auth/register", "", gin.H{"fullName": "Dup", "email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["message"])

	w = s.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@example.com", "password": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.call(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "a@example.com", user["email"])
	assert.NotContains(t, w.Body.String(), "password")

	w = s.call(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.call(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been revoked", decode(t, w)["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})
	for _, path := range []string{"/api/files", "/api/reports", "/api/history", "/api/auth/me"} {
		w := s.call(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	w := s.call(http.MethodGet, "/api/files", "not.a.jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateAndDeleteOwnAccountOnly(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})
	alice := s.login("alice@example.com")
	bob := s.login("bob@example.com")

	w := s.call(http.MethodGet, "/api/auth/me", alice, nil)
	aliceID := decode(t, w)["user"].(map[string]interface{})["id"].(string)

	w = s.call(http.MethodPut, "/api/auth/user/"+aliceID, bob, gin.H{"fullName": "Mallory"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.call(http.MethodPut, "/api/auth/user/"+aliceID, alice, gin.H{"fullName": "Alice A."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alice A.", decode(t, w)["user"].(map[string]interface{})["fullName"])

	w = s.call(http.MethodPut, "/api/auth/user/not-a-uuid", alice, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.call(http.MethodPatch, "/api/auth/user/"+aliceID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.call(http.MethodGet, "/api/auth/me", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFileLifecycle(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})
	token := s.login("files@example.com")

	w := s.upload("/api/files/upload", token, "sales.csv", "text/csv", []byte(sampleCSV), map[string]string{"description": "q1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Numbers look fine.", body["aiSummary"])
	file := body["file"].(map[string]interface{})
	id := file["id"].(string)
	assert.Equal(t, "sales.csv", file["fileName"])
	assert.Equal(t, "application/zip", file["archiveType"])
	steps := body["steps"].([]interface{})
	assert.Equal(t, "completed", steps[len(steps)-1].(map[string]interface{})["step"])

	w = s.call(http.MethodGet, "/api/files", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["files"], 1)

	w = s.call(http.MethodGet, "/api/files/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pv := decode(t, w)["preview"].(map[string]interface{})
	rows := pv["rows"].([]interface{})
	require.Len(t, rows, 2)
	assert.Equal(t, "north", rows[0].(map[string]interface{})["region"])

	w = s.call(http.MethodGet, "/api/files/download/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=sales.zip`, w.Header().Get("Content-Disposition"))
	name, data, err := archive.Codec{}.Decompress(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", name)
	assert.Equal(t, sampleCSV, string(data))

	w = s.call(http.MethodPut, "/api/files/upload/"+id, token, gin.H{"fileName": "renamed.csv"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed.csv", decode(t, w)["file"].(map[string]interface{})["fileName"])

	other := s.login("other@example.com")
	w = s.call(http.MethodGet, "/api/files/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.call(http.MethodPatch, "/api/files/upload/"+id+"/delete", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.call(http.MethodPatch, "/api/files/upload/"+id+"/delete", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.call(http.MethodPatch, "/api/files/upload/"+id+"/delete", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.call(http.MethodGet, "/api/files/download/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.call(http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var actions []string
	for _, e := range decode(t, w)["history"].([]interface{}) {
		actions = append(actions, e.(map[string]interface{})["action"].(string))
	}
	assert.ElementsMatch(t, []string{
		"Uploaded sales.csv", "Viewed sales.csv", "Downloaded sales.csv", "Updated a file", "Deleted file: renamed.csv",
	}, actions)
}

func TestUploadRejections(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})
	token := s.login("reject@example.com")

	w := s.upload("/api/files/upload", token, "", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File is required", decode(t, w)["message"])

	w = s.upload("/api/files/upload", token, "notes.json", "application/json", []byte(`{}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only CSV or Excel files are allowed", decode(t, w)["message"])

	big := bytes.Repeat([]byte("a,b\n"), 2000)
	w = s.upload("/api/files/upload", token, "big.csv", "text/csv", big, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.call(http.MethodGet, "/api/files", token, nil)
	assert.Empty(t, decode(t, w)["files"])
}

func TestReportLifecycle(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})
	token := s.login("reports@example.com")

	w := s.upload("/api/reports", token, "sales.csv", "text/csv", []byte(sampleCSV), map[string]string{"prompt": "regional split"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	report := body["report"].(map[string]interface{})
	id := report["id"].(string)
	assert.Equal(t, "AI Generated Report", report["title"])
	assert.Equal(t, "Report based on prompt: regional split", report["prompt"])
	assert.Equal(t, true, report["hasPdf"])
	assert.Len(t, body["preview"].(map[string]interface{})["rows"], 2)

	w = s.call(http.MethodGet, "/api/reports/download/pdf/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=report_"+id+".pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = s.call(http.MethodGet, "/api/reports/download/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))

	w = s.call(http.MethodPut, "/api/reports/"+id, token, gin.H{"title": "Regional split"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Regional split", decode(t, w)["report"].(map[string]interface{})["title"])

	w = s.call(http.MethodGet, "/api/reports", token, nil)
	assert.Len(t, decode(t, w)["reports"], 1)

	w = s.call(http.MethodPatch, "/api/reports/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.call(http.MethodGet, "/api/reports/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.call(http.MethodGet, "/api/reports/download/pdf/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{})
	token := s.login("history@example.com")

	w := s.call(http.MethodPost, "/api/history", token, gin.H{"action": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.call(http.MethodPost, "/api/history", token, gin.H{"action": "x", "reportId": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.call(http.MethodPost, "/api/history", token, gin.H{"action": "Exported chart"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["entry"].(map[string]interface{})["id"].(string)

	w = s.call(http.MethodPut, "/api/history/"+id, token, gin.H{"action": "Exported table"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Exported table", decode(t, w)["entry"].(map[string]interface{})["action"])

	w = s.call(http.MethodDelete, "/api/history/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.call(http.MethodDelete, "/api/history/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProcessingRateLimit(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{ProcessingRate: 0.001, ProcessingBurst: 1})
	token := s.login("busy@example.com")

	w := s.upload("/api/files/upload", token, "a.csv", "text/csv", []byte(sampleCSV), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.upload("/api/reports", token, "a.csv", "text/csv", []byte(sampleCSV), nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// listing is not throttled
	w = s.call(http.MethodGet, "/api/files", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// buckets are per user
	other := s.login("idle@example.com")
	w = s.upload("/api/files/upload", other, "a.csv", "text/csv", []byte(sampleCSV), nil)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/files", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	w := s.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
