package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/safestreets/report-cli/internal/aggregate"
	"github.com/safestreets/report-cli/internal/export"
)

// Analyze reads the canonical incident CSV and writes the aggregation
// artifacts: the markdown safety report and the stats JSON.
func (r *Runner) Analyze(_ context.Context) (aggregate.Stats, error) {
	csvPath := filepath.Join(r.cfg.Data.ProcessedDir, IncidentsCSV)
	incidents, err := export.ReadCSVFile(csvPath)
	if err != nil {
		return aggregate.Stats{}, err
	}

	stats := aggregate.Compute(incidents, r.pol)

	if err := os.MkdirAll(r.cfg.Data.ResultsDir, 0o755); err != nil {
		return stats, eris.Wrap(err, "pipeline: create results dir")
	}

	report := aggregate.RenderReport(stats, r.now())
	reportPath := filepath.Join(r.cfg.Data.ResultsDir, SafetyReport)
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return stats, eris.Wrapf(err, "pipeline: write %s", reportPath)
	}

	raw, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return stats, eris.Wrap(err, "pipeline: marshal stats")
	}
	statsPath := filepath.Join(r.cfg.Data.ResultsDir, AnalysisStats)
	if err := os.WriteFile(statsPath, raw, 0o644); err != nil {
		return stats, eris.Wrapf(err, "pipeline: write %s", statsPath)
	}

	zap.L().Info("analysis complete",
		zap.Int("incidents", stats.Total),
		zap.Int("ranked_streets", len(stats.StreetScores)),
		zap.String("report", reportPath),
	)
	return stats, nil
}
