package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/pdfreport"
	"alcyxob/ai-reports/internal/preview"
	"alcyxob/ai-reports/internal/repository"
	"alcyxob/ai-reports/internal/storage"
	"alcyxob/ai-reports/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

const sampleCSV = "region,total\nnorth,10\nsouth,20\n"

var testUploadConfig = config.UploadConfig{
	MaxBytes:         1 << 20,
	PreviewRows:      15,
	ReportRows:       500,
	PreviewTextChars: 2000,
}

type fixture struct {
	repos   repository.Repositories
	files   storage.FileStorage
	log     *logger.Logger
	logs    *observer.ObservedLogs
	history HistoryService
	user    *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, _ := testutil.Repositories(t)
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.Wrap(zap.New(core))

	return &fixture{
		repos:   repos,
		files:   files,
		log:     log,
		logs:    logs,
		history: NewHistoryService(repos.History, repos.Reports, log),
		user:    testutil.User(t, repos.Users, "owner@example.com"),
	}
}

func (f *fixture) pipeline(sum Summarizer, renderer PDFRenderer) *Pipeline {
	return NewPipeline(PipelineConfig{
		Uploads:    f.repos.Uploads,
		Reports:    f.repos.Reports,
		History:    f.history,
		Summarizer: sum,
		Renderer:   renderer,
		Files:      f.files,
		Upload:     testUploadConfig,
		Log:        f.log,
	})
}

func (f *fixture) authService() AuthService {
	svc := NewAuthService(f.repos.Users, f.repos.Revoked, "test-secret", 0).(*authService)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func (f *fixture) actions(t *testing.T, userID uuid.UUID) []string {
	t.Helper()
	entries, err := f.repos.History.ListByOwner(context.Background(), userID)
	require.NoError(t, err)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func csvInput(userID uuid.UUID) UploadInput {
	return UploadInput{
		UserID:      userID,
		FileName:    "sales.csv",
		ContentType: "text/csv",
		Size:        int64(len(sampleCSV)),
		Data:        []byte(sampleCSV),
	}
}

func testRowsExtractor() preview.Extractor {
	return preview.New(testUploadConfig.ReportRows, testUploadConfig.PreviewTextChars)
}

type fakeSummarizer struct {
	mu       sync.Mutex
	disabled bool
	text     string
	err      error
	prompts  []string
	ctxErrs  []error
}

func (f *fakeSummarizer) Enabled() bool { return !f.disabled }

func (f *fakeSummarizer) Summarize(ctx context.Context, instruction string, _ domain.Preview) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, instruction)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(pdfreport.Document) ([]byte, error) {
	return nil, errors.New("font missing")
}

// failingReports fails every Create.
type failingReports struct {
	repository.ReportRepository
}

func (failingReports) Create(context.Context, *domain.Report) error {
	return errors.New("connection reset")
}

type failingUploads struct {
	repository.UploadRepository
}

func (failingUploads) Create(context.Context, *domain.Upload) error {
	return errors.New("disk full")
}

// recordingStorage tracks deletes on top of a real backend.
type recordingStorage struct {
	storage.FileStorage
	putErr  error
	deleted []string
}

func (s *recordingStorage) PutObject(ctx context.Context, key, contentType string, body []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.FileStorage.PutObject(ctx, key, contentType, body)
}

func (s *recordingStorage) DeleteObject(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.FileStorage.DeleteObject(ctx, key)
}
