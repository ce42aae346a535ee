package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/remedyops/billcheck/internal/model"
)

// Case is one patient document-set with its ground-truth annotations.
type Case struct {
	PlanTerms      *model.PlanTerms `json:"plan_terms,omitempty"`
	ID             string           `json:"id"`
	Documents      []model.Document `json:"documents"`
	ExpectedIssues []model.RawIssue `json:"expected_issues"`
}

// Analyzer produces detected issues for one case. Implementations live
// outside the engine (LLM providers, heuristic detectors); an error return
// means the case has no analysis result at all.
type Analyzer interface {
	Analyze(ctx context.Context, c Case) ([]model.Issue, error)
}

// Config describes one benchmark run.
type Config struct {
	Model        string
	Provider     string
	Environment  string
	Trigger      string
	Filter       []string
	Savings      SavingsConfig
	Workers      int
	ShowProgress bool
}

// ConfigurationKey identifies the model/provider/environment combination a
// run's metrics belong to in the snapshot store.
func (c Config) ConfigurationKey() string {
	return fmt.Sprintf("%s:%s:%s", c.Provider, c.Model, c.Environment)
}

// Runner evaluates a set of cases against an analyzer and aggregates the
// scores into a Result.
type Runner struct {
	analyzer Analyzer
	config   Config
}

// NewRunner creates a benchmark runner.
func NewRunner(analyzer Analyzer, config Config) *Runner {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Runner{analyzer: analyzer, config: config}
}

// Run evaluates every case and returns the aggregated result. Cases are
// independent and evaluated concurrently; each case's transaction universe
// is private to it. Aggregation happens over the sorted case order, so the
// result is deterministic regardless of which worker finishes first. A
// failed case degrades into maximal false negatives; it never aborts the
// sweep.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Result, error) {
	cases = filterCases(cases, r.config.Filter)
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases to evaluate")
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].ID < cases[j].ID })

	slog.Info("Starting benchmark run",
		"cases", len(cases),
		"workers", r.config.Workers,
		"configuration", r.config.ConfigurationKey())

	var bar *progressbar.ProgressBar
	if r.config.ShowProgress {
		bar = progressbar.Default(int64(len(cases)), "evaluating cases")
	}

	scores := make([]CaseScore, len(cases))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.config.Workers)

	for i, c := range cases {
		i, c := i, c
		group.Go(func() error {
			scores[i] = r.evaluateCase(groupCtx, c)
			if bar != nil {
				_ = bar.Add(1)
			}
			return groupCtx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("benchmark run canceled: %w", err)
	}

	return r.aggregate(scores), nil
}

func (r *Runner) evaluateCase(ctx context.Context, c Case) CaseScore {
	expected := model.NewIssues(c.ExpectedIssues)

	detected, err := r.analyzer.Analyze(ctx, c)
	if err != nil {
		// Provider failure: the case stays in the denominator with every
		// expected issue counted as a false negative.
		slog.Warn("Analysis absent for case", "case_id", c.ID, "error", err)
		return ScoreCase(c.ID, nil, expected, true)
	}

	return ScoreCase(c.ID, detected, expected, false)
}

func (r *Runner) aggregate(scores []CaseScore) *Result {
	totals := SumTallies(scores)
	leaves := ComputeMetrics(totals)
	overall := OverallMetric(totals)
	savings := ReconcileSavings(scores, r.config.Savings)

	absent := 0
	for _, score := range scores {
		if score.AnalysisAbsent {
			absent++
		}
	}

	return &Result{
		RunID:                uuid.NewString(),
		ConfigurationKey:     r.config.ConfigurationKey(),
		Model:                r.config.Model,
		Provider:             r.config.Provider,
		Environment:          r.config.Environment,
		Trigger:              r.config.Trigger,
		GeneratedAt:          time.Now().UTC(),
		Precision:            overall.Precision,
		Recall:               overall.Recall,
		F1:                   overall.F1,
		DomainBreakdown:      leaves,
		AggregatedCategories: RollupParents(leaves),
		PotentialSavings:     savings.PotentialSavings,
		MissedSavings:        savings.MissedSavings,
		SavingsCaptureRate:   savings.SavingsCaptureRate,
		TotalCases:           len(scores),
		AbsentCases:          absent,
	}
}

// LoadCases reads every *.json ground-truth case from a directory.
// Malformed files are excluded from the returned cases but surfaced as
// warnings so they are never silently dropped.
func LoadCases(dir string) ([]Case, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cases directory: %w", err)
	}

	var cases []Case
	var warnings []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path) // #nosec G304 - path comes from the directory listing
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("unreadable case file %s: %v", entry.Name(), err))
			continue
		}

		var c Case
		if err := json.Unmarshal(data, &c); err != nil {
			warnings = append(warnings, fmt.Sprintf("malformed case file %s: %v", entry.Name(), err))
			continue
		}
		if c.ID == "" {
			c.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		cases = append(cases, c)
	}

	if len(warnings) > 0 {
		slog.Warn("Some ground-truth files were excluded", "count", len(warnings))
	}

	return cases, warnings, nil
}

func filterCases(cases []Case, filter []string) []Case {
	if len(filter) == 0 {
		return cases
	}
	keep := make(map[string]struct{}, len(filter))
	for _, id := range filter {
		keep[id] = struct{}{}
	}
	filtered := make([]Case, 0, len(cases))
	for _, c := range cases {
		if _, ok := keep[c.ID]; ok {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
