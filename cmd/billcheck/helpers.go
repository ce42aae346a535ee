package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/remedyops/billcheck/internal/benchmark"
	"github.com/remedyops/billcheck/internal/cli"
	"github.com/remedyops/billcheck/internal/model"
	"github.com/remedyops/billcheck/internal/storage"
)

// openStore opens (and migrates) the snapshot store at the configured path.
func openStore() (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "billcheck", "snapshots.db")
	}

	return storage.NewSQLiteStore(dbPath)
}

// renderIssues prints issues as a styled table.
func renderIssues(issues []model.Issue) string {
	if len(issues) == 0 {
		return cli.FormatSuccess("No issues found")
	}

	var b strings.Builder
	b.WriteString(cli.FormatTitle(fmt.Sprintf("%d issue(s) found", len(issues))))
	b.WriteString("\n")
	for _, issue := range issues {
		savings := "-"
		if issue.MaxSavings != nil {
			savings = fmt.Sprintf("$%.2f", *issue.MaxSavings)
		}
		b.WriteString(fmt.Sprintf("%s %s [%s] %s\n",
			severityIcon(issue.Severity),
			cli.BoldStyle.Render(string(issue.Category)),
			savings,
			issue.Title))
		if issue.Explanation != "" {
			b.WriteString(cli.SubtleStyle.Render("  " + issue.Explanation))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func severityIcon(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return cli.ErrorStyle.Render("●")
	case model.SeverityMedium:
		return cli.WarningStyle.Render("●")
	default:
		return cli.SubtleStyle.Render("●")
	}
}

// renderResult prints the aggregated benchmark result for humans.
func renderResult(result *benchmark.Result) string {
	var b strings.Builder
	b.WriteString(cli.FormatTitle("Benchmark results"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", cli.TableCellStyle.Render("Configuration:"), result.ConfigurationKey))
	b.WriteString(fmt.Sprintf("%s %d evaluated, %d without analysis\n",
		cli.TableCellStyle.Render("Cases:"), result.TotalCases, result.AbsentCases))
	b.WriteString(fmt.Sprintf("%s P=%.3f R=%.3f F1=%.3f\n",
		cli.TableCellStyle.Render("Overall:"), result.Precision, result.Recall, result.F1))
	b.WriteString(fmt.Sprintf("%s caught $%.2f, missed $%.2f (capture rate %.1f%%)\n",
		cli.TableCellStyle.Render("Savings:"),
		result.PotentialSavings, result.MissedSavings, result.SavingsCaptureRate*100))

	if len(result.DomainBreakdown) > 0 {
		b.WriteString("\n")
		b.WriteString(cli.TableHeaderStyle.Render("Per-category breakdown"))
		b.WriteString("\n")
		for _, name := range benchmark.SortedCategories(result.DomainBreakdown) {
			metric := result.DomainBreakdown[name]
			b.WriteString(fmt.Sprintf("  %-32s P=%.3f R=%.3f F1=%.3f (TP=%d FP=%d FN=%d)\n",
				name, metric.Precision, metric.Recall, metric.F1,
				metric.TruePositive, metric.FalsePositive, metric.FalseNegative))
		}
	}

	if len(result.AggregatedCategories) > 0 {
		b.WriteString("\n")
		b.WriteString(cli.TableHeaderStyle.Render("Parent category rollups"))
		b.WriteString("\n")
		for name, aggregate := range result.AggregatedCategories {
			b.WriteString(fmt.Sprintf("  %-32s recall %d/%d = %.3f, P=%.3f F1=%.3f\n",
				name, aggregate.TotalDetected, aggregate.TotalCases,
				aggregate.Recall, aggregate.Precision, aggregate.F1))
		}
	}

	for _, warning := range result.Warnings {
		b.WriteString(cli.FormatWarning(warning))
		b.WriteString("\n")
	}

	return b.String()
}
