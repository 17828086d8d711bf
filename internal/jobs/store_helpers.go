package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const recordColumns = "id, job_name, source_name, source_path, source_kind, source_size, bucket, object_key, media_uri, mode, max_speakers, channel_0_role, status, remote_status, progress_stage, progress_percent, progress_message, error_message, conversation_path, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id               int64
		jobName          string
		sourceName       string
		sourcePath       sql.NullString
		sourceKind       string
		sourceSize       sql.NullInt64
		bucket           sql.NullString
		objectKey        sql.NullString
		mediaURI         sql.NullString
		mode             string
		maxSpeakers      sql.NullInt64
		channel0Role     sql.NullString
		statusStr        string
		remoteStatus     sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullInt64
		progressMessage  sql.NullString
		errorMessage     sql.NullString
		conversationPath sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&jobName,
		&sourceName,
		&sourcePath,
		&sourceKind,
		&sourceSize,
		&bucket,
		&objectKey,
		&mediaURI,
		&mode,
		&maxSpeakers,
		&channel0Role,
		&statusStr,
		&remoteStatus,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&errorMessage,
		&conversationPath,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:               id,
		JobName:          jobName,
		SourceName:       sourceName,
		SourcePath:       sourcePath.String,
		SourceKind:       sourceKind,
		SourceSize:       sourceSize.Int64,
		Bucket:           bucket.String,
		Key:              objectKey.String,
		MediaURI:         mediaURI.String,
		Mode:             mode,
		MaxSpeakers:      int(maxSpeakers.Int64),
		Channel0Role:     channel0Role.String,
		Status:           Status(statusStr),
		RemoteStatus:     remoteStatus.String,
		ProgressStage:    progressStage.String,
		ProgressPercent:  int(progressPercent.Int64),
		ProgressMessage:  progressMessage.String,
		ErrorMessage:     errorMessage.String,
		ConversationPath: conversationPath.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
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
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
