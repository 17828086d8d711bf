package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"scribe/internal/config"
	"scribe/internal/services"
)

// Store manages the submission ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.LedgerPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the ledger database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// NewSubmission inserts a pending record for a job about to be submitted.
// Identity fields come from the caller; lifecycle fields start at pending.
func (s *Store) NewSubmission(ctx context.Context, rec Record) (*Record, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO submissions (
            job_name, source_name, source_path, source_kind, source_size,
            bucket, object_key, media_uri,
            mode, max_speakers, channel_0_role,
            status, progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobName,
		rec.SourceName,
		nullableString(rec.SourcePath),
		rec.SourceKind,
		rec.SourceSize,
		nullableString(rec.Bucket),
		nullableString(rec.Key),
		nullableString(rec.MediaURI),
		rec.Mode,
		nullableInt(rec.MaxSpeakers),
		nullableString(rec.Channel0Role),
		StatusPending,
		0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a single record.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM submissions WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "get",
			fmt.Sprintf("no submission with id %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %d: %w", id, err)
	}
	return rec, nil
}

// GetByName fetches the most recent record for a job name.
func (s *Store) GetByName(ctx context.Context, jobName string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM submissions WHERE job_name = ? ORDER BY id DESC LIMIT 1",
		jobName)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "get",
			fmt.Sprintf("no submission named %q", jobName), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission %q: %w", jobName, err)
	}
	return rec, nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	return s.queryRecords(ctx,
		"SELECT "+recordColumns+" FROM submissions ORDER BY id DESC")
}

// ListByStatus returns records matching any of the given statuses, newest first.
func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*Record, error) {
	if len(statuses) == 0 {
		return s.List(ctx)
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	query := fmt.Sprintf(
		"SELECT %s FROM submissions WHERE status IN (%s) ORDER BY id DESC",
		recordColumns, makePlaceholders(len(statuses)))
	return s.queryRecords(ctx, query, args...)
}

// ListActive returns in-flight records, oldest first, for resume.
func (s *Store) ListActive(ctx context.Context) ([]*Record, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM submissions
         WHERE status IN ('pending', 'uploading', 'creating', 'polling')
         ORDER BY id ASC`)
}

// UpdateProgress records a lifecycle transition with its progress snapshot.
func (s *Store) UpdateProgress(ctx context.Context, id int64, status Status, percent int, stage, message string) error {
	return s.update(ctx, id,
		`UPDATE submissions
         SET status = ?, progress_percent = ?, progress_stage = ?, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		status, percent, nullableString(stage), nullableString(message), timestamp(), id)
}

// SetUploadTarget records the destination the media was (or will be) uploaded to.
func (s *Store) SetUploadTarget(ctx context.Context, id int64, bucket, key, mediaURI string) error {
	return s.update(ctx, id,
		`UPDATE submissions
         SET bucket = ?, object_key = ?, media_uri = ?, updated_at = ?
         WHERE id = ?`,
		bucket, key, mediaURI, timestamp(), id)
}

// SetRemoteStatus records the status string last reported by the service.
func (s *Store) SetRemoteStatus(ctx context.Context, id int64, remoteStatus string) error {
	return s.update(ctx, id,
		"UPDATE submissions SET remote_status = ?, updated_at = ? WHERE id = ?",
		nullableString(remoteStatus), timestamp(), id)
}

// MarkCompleted transitions a record to completed at 100%.
func (s *Store) MarkCompleted(ctx context.Context, id int64, conversationPath string) error {
	return s.update(ctx, id,
		`UPDATE submissions
         SET status = ?, progress_percent = 100, progress_stage = NULL,
             progress_message = NULL, error_message = NULL,
             conversation_path = ?, updated_at = ?
         WHERE id = ?`,
		StatusCompleted, nullableString(conversationPath), timestamp(), id)
}

// MarkFailed transitions a record to failed and stores the error text.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.update(ctx, id,
		`UPDATE submissions
         SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		StatusFailed, nullableString(strings.TrimSpace(message)), timestamp(), id)
}

// MarkUnconfirmed transitions a record to unconfirmed. The job may exist
// remotely; the response just gave us nothing to poll with.
func (s *Store) MarkUnconfirmed(ctx context.Context, id int64, message string) error {
	return s.update(ctx, id,
		`UPDATE submissions
         SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		StatusUnconfirmed, nullableString(strings.TrimSpace(message)), timestamp(), id)
}

// Remove deletes a single record.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM submissions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("remove submission %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "jobs", "remove",
			fmt.Sprintf("no submission with id %d", id), nil)
	}
	return nil
}

// Clear deletes records matching the given statuses, or all records when
// none are given. It returns the number removed.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := "DELETE FROM submissions"
	var args []any
	if len(statuses) > 0 {
		query += fmt.Sprintf(" WHERE status IN (%s)", makePlaceholders(len(statuses)))
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear submissions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// GetStats reports record counts per status.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM submissions GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByStatus: make(map[Status]int64)}
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.ByStatus[Status(status)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

func (s *Store) update(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "jobs", "update",
			fmt.Sprintf("no submission with id %d", id), nil)
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
