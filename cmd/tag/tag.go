// Package tag implements the offline tag and featurize commands.
package tag

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/processor"
)

// summaryHeader is the header row of the tag output.
var summaryHeader = []string{"sequence", "city", "county", "state"}

// Command returns the tag command.
func Command() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag a JSONL file of events",
		Long: `Tag reads one event per line and writes a TSV row per event with the
city, county and state of its first location.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, input, output, domain.ModePredict, newSummaryWriter)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "events file (JSONL)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "result file (TSV)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// FeaturizeCommand returns the featurize command.
func FeaturizeCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "featurize",
		Short: "Write labelled feature rows for classifier training",
		Long: `Featurize reads labelled events and writes one JSON row per candidate
with its feature vector and ground-truth label.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, input, output, domain.ModeTrain, newFeatureWriter)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "labelled events file (JSONL)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "feature rows file (JSONL)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// ResultWriter writes processed events.
type ResultWriter interface {
	Write(results []processor.ProcessResult) error
	Flush() error
}

func run(
	cmd *cobra.Command,
	input, output string,
	mode domain.Mode,
	newWriter func(io.Writer) (ResultWriter, error),
) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log, err := bootstrap.CreateLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	pipeline, err := bootstrap.NewPipeline(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer pipeline.Close()

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	w, err := newWriter(out)
	if err != nil {
		return err
	}

	stats, err := Process(cmd.Context(), in, w, pipeline.Batch, cfg.Batch.MaxEvents, mode)
	if err != nil {
		return err
	}

	log.Info("Offline tagging complete",
		logger.String("mode", string(mode)),
		logger.Int("events", stats.Events),
		logger.Int("failed", stats.Failed),
		logger.Int("skipped", stats.Skipped),
	)
	return nil
}

// Stats counts processed lines.
type Stats struct {
	Events  int
	Failed  int
	Skipped int
}

// BatchProcessor tags a chunk of events.
type BatchProcessor interface {
	Process(ctx context.Context, events []*domain.Event, mode domain.Mode) []processor.ProcessResult
}

// Process reads events from r in chunks of chunkSize and writes results to w.
// Lines that are not valid events are skipped.
func Process(ctx context.Context, r io.Reader, w ResultWriter, batch BatchProcessor, chunkSize int, mode domain.Mode) (Stats, error) {
	var stats Stats

	flush := func(events []*domain.Event) error {
		if len(events) == 0 {
			return nil
		}
		results := batch.Process(ctx, events, mode)
		for _, res := range results {
			if res.Error != nil {
				stats.Failed++
			}
		}
		stats.Events += len(results)
		return w.Write(results)
	}

	err := ReadEvents(r, chunkSize, func(events []*domain.Event, skipped int) error {
		stats.Skipped += skipped
		if err := ctx.Err(); err != nil {
			return err
		}
		return flush(events)
	})
	if err != nil {
		return stats, err
	}
	return stats, w.Flush()
}

type summaryWriter struct {
	csv *csv.Writer
}

func newSummaryWriter(out io.Writer) (ResultWriter, error) {
	w := csv.NewWriter(out)
	w.Comma = '\t'
	if err := w.Write(summaryHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &summaryWriter{csv: w}, nil
}

func (s *summaryWriter) Write(results []processor.ProcessResult) error {
	for _, res := range results {
		if err := s.csv.Write(SummaryRow(res.Event.Sequence, res.Result)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

func (s *summaryWriter) Flush() error {
	s.csv.Flush()
	return s.csv.Error()
}

// SummaryRow flattens the first location of a result into sequence, city,
// county and state. Missing levels are empty.
func SummaryRow(sequence domain.ID, result domain.TagResult) []string {
	row := []string{string(sequence), "", "", ""}
	if len(result.Locations) == 0 {
		return row
	}

	loc := &result.Locations[0]
	for i, t := range []domain.LocationType{domain.Locality, domain.SubAdminArea, domain.AdminArea} {
		if name, ok := loc.Component(t); ok {
			row[i+1] = name
		}
	}
	return row
}

// FeatureRow is one training example.
type FeatureRow struct {
	Sequence  domain.ID `json:"sequence"`
	ComboName string    `json:"comboName"`
	Names     []string  `json:"names"`
	Values    []float64 `json:"values"`
	GT        int       `json:"gt"`
}

type featureWriter struct {
	enc *json.Encoder
}

func newFeatureWriter(out io.Writer) (ResultWriter, error) {
	return &featureWriter{enc: json.NewEncoder(out)}, nil
}

func (f *featureWriter) Write(results []processor.ProcessResult) error {
	for _, res := range results {
		for _, row := range FeatureRows(res.Event.Sequence, res.Result) {
			if err := f.enc.Encode(row); err != nil {
				return fmt.Errorf("write feature row: %w", err)
			}
		}
	}
	return nil
}

func (f *featureWriter) Flush() error { return nil }

// FeatureRows returns a row per candidate that has a feature vector.
func FeatureRows(sequence domain.ID, result domain.TagResult) []FeatureRow {
	rows := make([]FeatureRow, 0, len(result.Locations))
	for i := range result.Locations {
		loc := &result.Locations[i]
		if loc.FilterFeatures == nil {
			continue
		}
		row := FeatureRow{
			Sequence:  sequence,
			ComboName: loc.ComboName,
			Names:     loc.FilterFeatures.Names,
			Values:    loc.FilterFeatures.Values,
		}
		if loc.FilterFeatures.GT != nil {
			row.GT = *loc.FilterFeatures.GT
		}
		rows = append(rows, row)
	}
	return rows
}
