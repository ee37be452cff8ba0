package journal

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const runColumns = "id, batch_id, input_path, source_path, run_key, output_root, models, state, status, failure_kind, error_message, title, artist, segments, stems, enhanced, started_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           string
		batchID      sql.NullString
		inputPath    string
		sourcePath   sql.NullString
		runKey       sql.NullString
		outputRoot   sql.NullString
		models       sql.NullString
		state        string
		status       string
		failureKind  sql.NullString
		errorMessage sql.NullString
		title        sql.NullString
		artist       sql.NullString
		segments     int
		stems        int
		enhanced     int
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&batchID,
		&inputPath,
		&sourcePath,
		&runKey,
		&outputRoot,
		&models,
		&state,
		&status,
		&failureKind,
		&errorMessage,
		&title,
		&artist,
		&segments,
		&stems,
		&enhanced,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		BatchID:      batchID.String,
		InputPath:    inputPath,
		SourcePath:   sourcePath.String,
		RunKey:       runKey.String,
		OutputRoot:   outputRoot.String,
		State:        state,
		Status:       Status(status),
		FailureKind:  failureKind.String,
		ErrorMessage: errorMessage.String,
		Title:        title.String,
		Artist:       artist.String,
		Segments:     segments,
		Stems:        stems,
		Enhanced:     enhanced,
	}
	if models.Valid && models.String != "" {
		run.Models = strings.Split(models.String, ",")
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
