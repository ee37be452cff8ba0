package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"vocalprep/internal/batch"
	"vocalprep/internal/enhance"
	"vocalprep/internal/journal"
	"vocalprep/internal/services"
)

var titleCaser = cases.Title(language.Und)

func displayStatus(value string) string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "_", " "))
}

func renderReport(report batch.Report) string {
	rows := make([][]string, 0, len(report.Runs))
	for _, run := range report.Runs {
		status := "Done"
		detail := ""
		if !run.OK() {
			status = displayStatus(services.FailureKind(run.Err))
			if run.Err != nil {
				detail = truncate(run.Err.Error(), 60)
			}
		}
		rows = append(rows, []string{
			filepath.Base(run.Source),
			shortID(run.RunID),
			status,
			fmt.Sprintf("%d", run.Segments),
			fmt.Sprintf("%d", run.Stems),
			fmt.Sprintf("%d", run.Enhanced),
			formatElapsed(run.Elapsed),
			detail,
		})
	}

	var b strings.Builder
	b.WriteString(renderTable([]tableColumn{
		col("File"), col("Run"), col("Status"),
		numCol("Segments"), numCol("Stems"), numCol("Enhanced"), numCol("Elapsed"),
		col("Error"),
	}, rows))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d succeeded, %d failed", report.Succeeded, report.Failed)
	if report.ConversionFailed > 0 {
		fmt.Fprintf(&b, " (%d could not be converted)", report.ConversionFailed)
	}
	fmt.Fprintf(&b, " in %s\n", formatElapsed(report.Elapsed))
	return b.String()
}

func renderEnhanceResults(results []enhance.Result) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "OK"
		final := filepath.Base(result.Final)
		if !result.OK() {
			status = displayStatus(services.FailureKind(result.Err))
			final = truncate(result.Err.Error(), 60)
		}
		rows = append(rows, []string{filepath.Base(result.Input), status, final})
	}
	return renderTable([]tableColumn{col("Input"), col("Status"), col("Output")}, rows)
}

func renderRunList(runs []*journal.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			filepath.Base(run.SourcePath),
			displayStatus(string(run.Status)),
			run.State,
			fmt.Sprintf("%d", run.Stems),
			fmt.Sprintf("%d", run.Enhanced),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			formatElapsed(run.Elapsed()),
		})
	}
	return renderTable([]tableColumn{
		col("Run"), col("File"), col("Status"), col("Phase"),
		numCol("Stems"), numCol("Enhanced"), col("Started"), numCol("Elapsed"),
	}, rows)
}

func renderPhases(events []journal.PhaseEvent) string {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			event.Phase,
			displayStatus(event.Outcome),
			formatElapsed(event.Elapsed),
			truncate(event.Detail, 60),
		})
	}
	return renderTable([]tableColumn{col("Phase"), col("Outcome"), numCol("Elapsed"), col("Detail")}, rows)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\n", " "))
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
