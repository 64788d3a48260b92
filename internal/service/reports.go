package service

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"kabraji/internal/domain"
	"kabraji/internal/reporting"
	"kabraji/internal/store"
)

func (s *Service) Report(ctx context.Context, period domain.ReportPeriod) (domain.Report, error) {
	if period.From != nil && period.To != nil && period.From.After(*period.To) {
		return domain.Report{}, errors.Wrap(store.ErrInvalidArgument, "report period starts after it ends")
	}

	s.mu.Lock()
	snapshot := s.state.snapshot()
	revision := s.revision
	s.mu.Unlock()

	return s.reports.Generate(ctx, revision, snapshot, reporting.Options{
		Period:            period,
		TopN:              s.topN,
		LowStockThreshold: s.lowStock,
		Now:               s.now(),
	}), nil
}

// ExportReport writes the rendered report to path, or to the default report
// file name in the working directory when path is empty.
func (s *Service) ExportReport(ctx context.Context, period domain.ReportPeriod, path string) (string, error) {
	report, err := s.Report(ctx, period)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = reporting.DefaultExportName(report.GeneratedAt)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(store.ErrPersistence, "create %s: %v", dir, err)
	}
	if err := renameio.WriteFile(path, []byte(reporting.RenderText(report)), 0o644, renameio.WithTempDir(dir)); err != nil {
		return "", errors.Wrapf(store.ErrPersistence, "export report to %s: %v", path, err)
	}
	s.logger.WithField("path", path).Info("report exported")
	return path, nil
}

func (s *Service) Dashboard() domain.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reporting.BuildDashboard(s.state.snapshot(), s.lowStock)
}
