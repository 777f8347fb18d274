package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the journal database inside the working directory.
const FileName = "run.db"

// ErrNoJournal is returned by OpenExisting when the working directory holds
// no journal.
var ErrNoJournal = errors.New("no run journal found")

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the journal in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}
	return open(filepath.Join(dir, FileName))
}

// OpenExisting connects to the journal in dir without creating one.
func OpenExisting(dir string) (*Store, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoJournal, dir)
		}
		return nil, fmt.Errorf("stat journal: %w", err)
	}
	return open(path)
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
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

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts a running run.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, voice_id, model_id, total_chars, chunk_count, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, RunRunning, run.VoiceID, run.ModelID, run.TotalChars, run.ChunkCount, formatTime(started),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// SetSegmentation records the segmented size of a run.
func (s *Store) SetSegmentation(ctx context.Context, runID string, totalChars, chunkCount int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET total_chars = ?, chunk_count = ? WHERE id = ?`,
		totalChars, chunkCount, runID,
	)
	if err != nil {
		return fmt.Errorf("update run segmentation: %w", err)
	}
	return nil
}

// FinishRun stamps the terminal state of a run. failedChunk is 1-based and
// zero when no chunk is to blame.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, failedChunk int, reason, message string) error {
	var chunk any
	if failedChunk > 0 {
		chunk = failedChunk
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, failed_chunk = ?, error_reason = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status, chunk, nullableString(reason), nullableString(message), formatTime(time.Now()), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

// RecordCredential stores the quota observed for a credential.
func (s *Store) RecordCredential(ctx context.Context, runID string, rec CredentialRecord) error {
	var remaining any
	if rec.Remaining != nil {
		remaining = *rec.Remaining
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO credentials (run_id, position, label, remaining, error) VALUES (?, ?, ?, ?, ?)`,
		runID, rec.Position, rec.Label, remaining, nullableString(rec.Error),
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// RecordAttempt appends a synthesis attempt.
func (s *Store) RecordAttempt(ctx context.Context, runID string, attempt Attempt) error {
	created := attempt.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	var status any
	if attempt.StatusCode > 0 {
		status = attempt.StatusCode
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, chunk, credential, outcome, status_code, message, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, attempt.Chunk, attempt.Credential, attempt.Outcome, status, nullableString(attempt.Message), formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// RecordChunk stores a persisted and measured chunk.
func (s *Store) RecordChunk(ctx context.Context, runID string, rec ChunkRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chunks (run_id, chunk, chars, credential, clip_path, duration) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, rec.Chunk, rec.Chars, rec.Credential, rec.ClipPath, rec.Duration,
	)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started run, or nil when none exist.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// Report loads everything journaled for runID.
func (s *Store) Report(ctx context.Context, runID string) (*Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	report := &Report{Run: *run}

	if report.Credentials, err = s.listCredentials(ctx, runID); err != nil {
		return nil, err
	}
	if report.Attempts, err = s.listAttempts(ctx, runID); err != nil {
		return nil, err
	}
	if report.Chunks, err = s.listChunks(ctx, runID); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Store) listCredentials(ctx context.Context, runID string) ([]CredentialRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, label, remaining, error FROM credentials WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []CredentialRecord
	for rows.Next() {
		var (
			rec       CredentialRecord
			remaining sql.NullInt64
			errText   sql.NullString
		)
		if err := rows.Scan(&rec.Position, &rec.Label, &remaining, &errText); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		if remaining.Valid {
			v := int(remaining.Int64)
			rec.Remaining = &v
		}
		rec.Error = errText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) listAttempts(ctx context.Context, runID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk, credential, outcome, status_code, message, created_at FROM attempts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			attempt    Attempt
			outcome    string
			status     sql.NullInt64
			message    sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&attempt.Chunk, &attempt.Credential, &outcome, &status, &message, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempt.Outcome = Outcome(outcome)
		attempt.StatusCode = int(status.Int64)
		attempt.Message = message.String
		if ts, err := parseTimeString(createdRaw); err == nil {
			attempt.CreatedAt = ts
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

func (s *Store) listChunks(ctx context.Context, runID string) ([]ChunkRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk, chars, credential, clip_path, duration FROM chunks WHERE run_id = ? ORDER BY chunk`, runID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []ChunkRecord
	for rows.Next() {
		var rec ChunkRecord
		if err := rows.Scan(&rec.Chunk, &rec.Chars, &rec.Credential, &rec.ClipPath, &rec.Duration); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
