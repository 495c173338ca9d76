package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"alcyxob/ai-reports/internal/archive"
	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/logger"
	"alcyxob/ai-reports/internal/pdfreport"
	"alcyxob/ai-reports/internal/preview"
	"alcyxob/ai-reports/internal/repository"
	"alcyxob/ai-reports/internal/storage"
	"alcyxob/ai-reports/internal/summarizer"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	DefaultPrompt      = "Generate a data report based on the uploaded file."
	ReportTitle        = "AI Generated Report"
	SummaryErrorText   = "AI summary unavailable (error)"
	reportPromptPrefix = "Report based on prompt: "

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	xlsContentType  = "application/vnd.ms-excel"
)

var allowedContentTypes = map[string]bool{
	"text/csv":        true,
	"application/csv": true,
	xlsContentType:    true,
	xlsxContentType:   true,
}

var extensionContentTypes = map[string]string{
	".csv":  "text/csv",
	".xls":  xlsContentType,
	".xlsx": xlsxContentType,
}

// Sniffed content must descend from one of these.
var allowedSniffedRoots = []string{"text/plain", "application/zip", "application/x-ole-storage"}

// Summarizer produces the AI text for a preview.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, instruction string, p domain.Preview) (string, error)
}

// State is a pipeline position.
type State string

const (
	StateReceived         State = "received"
	StateValidated        State = "validated"
	StatePreviewExtracted State = "preview_extracted"
	StateSummarized       State = "summarized"
	StateArchived         State = "archived"
	StatePersisted        State = "persisted"
	StateRendered         State = "rendered"
	StateReportPersisted  State = "report_persisted"
	StateHistoryRecorded  State = "history_recorded"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// Step is one reached state; Degraded steps completed with a fallback.
type Step struct {
	State    State
	Degraded bool
	Reason   string
}

// Run is the trace of one pipeline execution.
type Run struct {
	Steps []Step
	State State
}

func (r *Run) done(s State) {
	r.Steps = append(r.Steps, Step{State: s})
	r.State = s
}

func (r *Run) degrade(s State, reason string) {
	r.Steps = append(r.Steps, Step{State: s, Degraded: true, Reason: reason})
	r.State = s
}

func (r *Run) fail() { r.State = StateFailed }

// Degraded lists the steps that completed with a fallback.
func (r *Run) Degraded() []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Degraded {
			out = append(out, s)
		}
	}
	return out
}

// UploadInput is one received file. Size is the length the client declared
// or the transport measured; Data must hold the full content.
type UploadInput struct {
	UserID      uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
	Prompt      string
	Description string
}

// PipelineResult is what a completed run produced. Report is nil for plain
// uploads and when the report could not be stored.
type PipelineResult struct {
	Upload  *domain.Upload
	Report  *domain.Report
	Preview domain.Preview
	Summary string
	Run     Run
}

type PipelineConfig struct {
	Uploads    repository.UploadRepository
	Reports    repository.ReportRepository
	History    HistoryService
	Summarizer Summarizer
	Renderer   PDFRenderer
	Files      storage.FileStorage
	Upload     config.UploadConfig
	Log        *logger.Logger
}

// Pipeline runs upload ingestion and report generation. Steps run strictly
// in order; nothing after validation observes client cancellation.
type Pipeline struct {
	uploads    repository.UploadRepository
	reports    repository.ReportRepository
	history    HistoryService
	summarizer Summarizer
	renderer   PDFRenderer
	files      storage.FileStorage
	codec      archive.Codec
	aiPreview  preview.Extractor
	reportRows preview.Extractor
	maxBytes   int64
	log        *logger.Logger
	now        func() time.Time
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		uploads:    cfg.Uploads,
		reports:    cfg.Reports,
		history:    cfg.History,
		summarizer: cfg.Summarizer,
		renderer:   cfg.Renderer,
		files:      cfg.Files,
		aiPreview:  preview.New(cfg.Upload.PreviewRows, cfg.Upload.PreviewTextChars),
		reportRows: preview.New(cfg.Upload.ReportRows, cfg.Upload.PreviewTextChars),
		maxBytes:   cfg.Upload.MaxBytes,
		log:        cfg.Log,
		now:        time.Now,
	}
}

// Upload stores the file with its AI summary.
func (p *Pipeline) Upload(ctx context.Context, in UploadInput) (*PipelineResult, error) {
	return p.run(ctx, in, false)
}

// CreateReport stores the file and a report rendered from it.
func (p *Pipeline) CreateReport(ctx context.Context, in UploadInput) (*PipelineResult, error) {
	return p.run(ctx, in, true)
}

func (p *Pipeline) run(ctx context.Context, in UploadInput, withReport bool) (*PipelineResult, error) {
	res := &PipelineResult{}
	run := &res.Run
	run.done(StateReceived)
	log := p.log.With("user_id", in.UserID, "file_name", in.FileName)

	contentType, err := p.validate(&in)
	if err != nil {
		run.fail()
		log.Info("upload rejected", "error", err)
		return nil, err
	}
	run.done(StateValidated)

	// The client may hang up while the AI call runs; finish the work anyway.
	ctx = context.WithoutCancel(ctx)

	res.Preview, err = p.aiPreview.Extract(in.Data, contentType)
	if err != nil {
		run.fail()
		return nil, fmt.Errorf("extract preview: %w", err)
	}
	run.done(StatePreviewExtracted)
	if res.Preview.Empty() {
		log.Info("upload has no previewable content")
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}
	res.Summary = p.summarize(ctx, log, run, prompt, res.Preview)

	packed, err := p.codec.Compress(in.FileName, in.Data)
	if err != nil {
		run.fail()
		log.Error("archive failed", "error", err)
		return nil, storageError("Could not store file", err)
	}
	run.done(StateArchived)

	upload := &domain.Upload{
		UserID:      in.UserID,
		FileName:    in.FileName,
		ContentType: contentType,
		ArchiveType: archive.ContentType,
		Payload:     packed,
		Size:        int64(len(in.Data)),
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		upload.Description = &d
	}
	if err := p.uploads.Create(ctx, upload); err != nil {
		run.fail()
		log.Error("upload persist failed", "error", err)
		return nil, storageError("Could not store file", err)
	}
	upload.Payload = nil
	res.Upload = upload
	run.done(StatePersisted)

	if withReport {
		res.Report = p.buildReport(ctx, log, run, upload, in.Data, contentType, prompt, res.Summary)
	}

	switch {
	case res.Report != nil:
		p.history.Record(ctx, in.UserID, &res.Report.ID, actionCreatedReport)
	default:
		p.history.Record(ctx, in.UserID, nil, actionUploaded+upload.FileName)
	}
	run.done(StateHistoryRecorded)
	run.done(StateCompleted)

	if degraded := run.Degraded(); len(degraded) > 0 {
		log.Warn("pipeline completed with degraded steps", "upload_id", upload.ID, "degraded", len(degraded))
	} else {
		log.Info("pipeline completed", "upload_id", upload.ID)
	}
	return res, nil
}

// validate checks the input and returns the effective content type.
func (p *Pipeline) validate(in *UploadInput) (string, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	if in.Data == nil && in.Size == 0 {
		return "", validationError("File is required")
	}
	if in.FileName == "" {
		return "", validationError("File name is required")
	}
	if strings.HasSuffix(in.FileName, "/") {
		return "", validationError("Invalid file name")
	}
	if p.maxBytes > 0 && (in.Size > p.maxBytes || int64(len(in.Data)) > p.maxBytes) {
		return "", validationError(fmt.Sprintf("File exceeds the maximum size of %d bytes", p.maxBytes))
	}

	contentType, ok := effectiveContentType(in.ContentType, in.FileName)
	if !ok {
		return "", newError(ErrUnsupportedMedia, "Only CSV or Excel files are allowed", nil)
	}
	if len(in.Data) > 0 && !sniffAllowed(in.Data) {
		return "", newError(ErrUnsupportedMedia, "File content does not match a CSV or Excel file", nil)
	}
	return contentType, nil
}

// effectiveContentType normalizes the declared type, inferring it from the
// extension when the client sent none or a generic one. Browsers on Windows
// declare .csv files as the legacy Excel type; those are parsed as CSV.
func effectiveContentType(declared, fileName string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		ct = parsed
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case ct == "" || ct == "application/octet-stream":
		inferred, ok := extensionContentTypes[ext]
		return inferred, ok
	case ct == xlsContentType && ext == ".csv":
		return extensionContentTypes[".csv"], true
	}
	return ct, allowedContentTypes[ct]
}

func sniffAllowed(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		for _, root := range allowedSniffedRoots {
			if m.Is(root) {
				return true
			}
		}
	}
	return false
}

func (p *Pipeline) summarize(ctx context.Context, log *logger.Logger, run *Run, prompt string, pv domain.Preview) string {
	if !p.summarizer.Enabled() {
		run.degrade(StateSummarized, "no API key")
		return summarizer.NoKeyMessage
	}
	text, err := p.summarizer.Summarize(ctx, prompt, pv)
	if err != nil {
		log.Warn("ai summary failed", "error", err)
		reason := "AI service unavailable"
		var aiErr *summarizer.Error
		if errors.As(err, &aiErr) && aiErr.StatusCode != 0 {
			reason = fmt.Sprintf("AI service returned status %d", aiErr.StatusCode)
		}
		run.degrade(StateSummarized, reason)
		return SummaryErrorText
	}
	run.done(StateSummarized)
	return text
}

// buildReport renders and stores the report. Failures here never undo the
// stored upload; they are recorded as degraded steps.
func (p *Pipeline) buildReport(ctx context.Context, log *logger.Logger, run *Run, upload *domain.Upload, data []byte, contentType, prompt, summary string) *domain.Report {
	uploadID := upload.ID
	report := &domain.Report{
		ID:        uuid.New(),
		UserID:    upload.UserID,
		UploadID:  &uploadID,
		Title:     ReportTitle,
		Prompt:    reportPromptPrefix + prompt,
		Summary:   summary,
		CreatedAt: p.now().UTC().Truncate(time.Second),
	}

	doc := pdfreport.Document{
		Title:       report.Title,
		Description: report.Prompt,
		Summary:     summary,
		GeneratedAt: report.CreatedAt,
	}
	if rows, err := p.reportRows.Extract(data, contentType); err == nil && rows.Tabular && !rows.Empty() {
		doc.Rows = rows.Rows
	}

	pdf, err := p.renderer.Render(doc)
	switch {
	case err != nil:
		log.Warn("report render failed", "report_id", report.ID, "error", err)
		run.degrade(StateRendered, "PDF rendering failed; it will be rendered on download")
	default:
		key := pdfKey(report.UserID, report.ID)
		if err := p.files.PutObject(ctx, key, pdfContentType, pdf); err != nil {
			log.Warn("report pdf store failed", "report_id", report.ID, "error", err)
			run.degrade(StateRendered, "PDF storage failed; it will be rendered on download")
		} else {
			report.PDFKey = key
			run.done(StateRendered)
		}
	}

	if err := p.reports.Create(ctx, report); err != nil {
		log.Error("report persist failed", "report_id", report.ID, "error", err)
		if report.PDFKey != "" {
			if derr := p.files.DeleteObject(ctx, report.PDFKey); derr != nil {
				log.Warn("orphan report pdf not removed", "pdf_key", report.PDFKey, "error", derr)
			}
		}
		run.degrade(StateReportPersisted, "report could not be saved")
		return nil
	}
	run.done(StateReportPersisted)
	return report
}

func pdfKey(userID, reportID uuid.UUID) string {
	return fmt.Sprintf("reports/%s/%s.pdf", userID, reportID)
}
