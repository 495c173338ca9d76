package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"alcyxob/ai-reports/internal/domain"
	"alcyxob/ai-reports/internal/pdfreport"
	"alcyxob/ai-reports/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReport(t *testing.T, f *fixture) *PipelineResult {
	t.Helper()
	res, err := f.pipeline(&fakeSummarizer{text: "Summary text"}, pdfreport.New()).CreateReport(context.Background(), csvInput(f.user.ID))
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	return res
}

func newReportService(f *fixture) ReportService {
	return NewReportService(f.repos.Reports, f.repos.Uploads, f.history, f.files, pdfreport.New(), testRowsExtractor(), f.log)
}

func TestReportGetAndList(t *testing.T) {
	f := newFixture(t)
	res := seedReport(t, f)
	svc := newReportService(f)
	ctx := context.Background()

	got, err := svc.Get(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summary text", got.Summary)

	list, err := svc.List(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	stranger := testutil.User(t, f.repos.Users, "stranger@example.com")
	_, err = svc.Get(ctx, stranger.ID, res.Report.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportStoredPDF(t *testing.T) {
	f := newFixture(t)
	res := seedReport(t, f)
	ctx := context.Background()

	stored, err := f.files.GetObject(ctx, res.Report.PDFKey)
	require.NoError(t, err)

	pdf, err := newReportService(f).PDF(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	assert.True(t, pdf.Stored())
	assert.Equal(t, "report_"+res.Report.ID.String()+".pdf", pdf.FileName)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, stored, pdf.Data)
}

func TestReportPDFRenderedWhenObjectMissing(t *testing.T) {
	f := newFixture(t)
	res := seedReport(t, f)
	ctx := context.Background()
	require.NoError(t, f.files.DeleteObject(ctx, res.Report.PDFKey))

	svc := newReportService(f)
	pdf, err := svc.PDF(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	assert.False(t, pdf.Stored())
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF-")))
	assert.Equal(t, 1, f.logs.FilterMessage("stored report pdf missing, rendering on demand").Len())

	// the rendered copy is put back under the same key
	again, err := svc.PDF(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	assert.True(t, again.Stored())
	assert.Equal(t, 1, f.logs.FilterMessage("stored report pdf missing, rendering on demand").Len())
}

func TestReportPDFServedWhenStoreFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.pipeline(&fakeSummarizer{text: "ok"}, failingRenderer{}).CreateReport(ctx, csvInput(f.user.ID))
	require.NoError(t, err)

	files := &recordingStorage{FileStorage: f.files, putErr: errors.New("bucket unavailable")}
	svc := NewReportService(f.repos.Reports, f.repos.Uploads, f.history, files, pdfreport.New(), testRowsExtractor(), f.log)
	pdf, err := svc.PDF(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	assert.False(t, pdf.Stored())
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF-")))
	assert.Equal(t, 1, f.logs.FilterMessage("report pdf store failed").Len())

	saved, err := f.repos.Reports.GetByID(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	assert.False(t, saved.HasPDF())
}

func TestReportPDFRenderFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.pipeline(&fakeSummarizer{text: "ok"}, failingRenderer{}).CreateReport(ctx, csvInput(f.user.ID))
	require.NoError(t, err)

	svc := NewReportService(f.repos.Reports, f.repos.Uploads, f.history, f.files, failingRenderer{}, testRowsExtractor(), f.log)
	_, err = svc.PDF(ctx, f.user.ID, res.Report.ID)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestReportDownloadArchive(t *testing.T) {
	f := newFixture(t)
	res := seedReport(t, f)
	svc := newReportService(f)
	ctx := context.Background()

	att, err := svc.DownloadArchive(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	assert.Equal(t, "sales.zip", att.FileName)
	assert.NotEmpty(t, att.Data)

	// the report outlives its upload, but the archive is gone
	require.NoError(t, newUploadService(f).Delete(ctx, f.user.ID, res.Upload.ID))
	_, err = svc.Get(ctx, f.user.ID, res.Report.ID)
	require.NoError(t, err)
	_, err = svc.DownloadArchive(ctx, f.user.ID, res.Report.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	res := seedReport(t, f)
	svc := newReportService(f)
	ctx := context.Background()

	_, err := svc.Update(ctx, f.user.ID, res.Report.ID, domain.ReportPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	title := "Q1 overview"
	updated, err := svc.Update(ctx, f.user.ID, res.Report.ID, domain.ReportPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Q1 overview", updated.Title)

	stranger := testutil.User(t, f.repos.Users, "stranger@example.com")
	assert.ErrorIs(t, svc.Delete(ctx, stranger.ID, res.Report.ID), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, f.user.ID, res.Report.ID))
	assert.ErrorIs(t, svc.Delete(ctx, f.user.ID, res.Report.ID), ErrNotFound)
	_, err = svc.PDF(ctx, f.user.ID, res.Report.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := f.repos.History.ListByOwner(ctx, f.user.ID)
	require.NoError(t, err)
	var reportActions []string
	for _, e := range entries {
		if e.ReportID != nil && *e.ReportID == res.Report.ID {
			reportActions = append(reportActions, e.Action)
		}
	}
	assert.ElementsMatch(t, []string{"Created new report", "Updated report", "Deleted report"}, reportActions)
}
