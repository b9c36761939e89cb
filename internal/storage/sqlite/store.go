package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/coincentrate/focusd/internal/domain"
	sqlitemigrate "github.com/coincentrate/focusd/internal/platform/storage/sqlitemigrate"
	"github.com/coincentrate/focusd/internal/storage"
	"github.com/coincentrate/focusd/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for profiles, tasks, and
// focus session history.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a focus economy SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

func ensureForeignKeysEnabled(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite db is required")
	}
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

// PutProfile inserts or replaces one profile row.
func (s *Store) PutProfile(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(profile.ID) == "" {
		return fmt.Errorf("profile id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO profiles (
			id, username, daily_coins, total_xp, level,
			current_streak, best_streak, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			daily_coins = excluded.daily_coins,
			total_xp = excluded.total_xp,
			level = excluded.level,
			current_streak = excluded.current_streak,
			best_streak = excluded.best_streak,
			updated_at = excluded.updated_at
	`, profile.ID, profile.Username, profile.DailyCoins, profile.TotalXP, profile.Level,
		profile.CurrentStreak, profile.BestStreak, toMillis(profile.CreatedAt), toMillis(profile.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// GetProfile loads one profile by id.
func (s *Store) GetProfile(ctx context.Context, profileID string) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Profile{}, fmt.Errorf("storage is not configured")
	}
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return domain.Profile{}, fmt.Errorf("profile id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, username, daily_coins, total_xp, level,
			current_streak, best_streak, created_at, updated_at
		FROM profiles WHERE id = ?
	`, profileID)
	return scanProfile(row)
}

// UpdateProfile replaces the mutable fields of an existing profile.
func (s *Store) UpdateProfile(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(profile.ID) == "" {
		return fmt.Errorf("profile id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
		UPDATE profiles SET
			username = ?, daily_coins = ?, total_xp = ?, level = ?,
			current_streak = ?, best_streak = ?, updated_at = ?
		WHERE id = ?
	`, profile.Username, profile.DailyCoins, profile.TotalXP, profile.Level,
		profile.CurrentStreak, profile.BestStreak, toMillis(profile.UpdatedAt), profile.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateTaskWithReservation atomically debits the task bid from the owner
// profile and inserts the task row. The debit fails with
// storage.ErrInsufficientCoins when the owner cannot cover the bid.
func (s *Store) CreateTaskWithReservation(ctx context.Context, task domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(task.ID) == "" {
		return fmt.Errorf("task id is required")
	}
	if strings.TrimSpace(task.OwnerID) == "" {
		return fmt.Errorf("task owner id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task reservation write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback task reservation write: %v", cause, rollbackErr)
		}
		return cause
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE profiles SET daily_coins = daily_coins - ?, updated_at = ?
		WHERE id = ? AND daily_coins >= ?
	`, task.CoinBid, toMillis(task.CreatedAt), task.OwnerID, task.CoinBid)
	if err != nil {
		return rollbackWith(fmt.Errorf("reserve task bid: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rollbackWith(fmt.Errorf("reserve task bid rows affected: %w", err))
	}
	if affected == 0 {
		var exists int
		if scanErr := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM profiles WHERE id = ?", task.OwnerID).Scan(&exists); scanErr != nil {
			return rollbackWith(fmt.Errorf("check task owner: %w", scanErr))
		}
		if exists == 0 {
			return rollbackWith(storage.ErrNotFound)
		}
		return rollbackWith(storage.ErrInsufficientCoins)
	}

	var completedAt *int64
	if task.CompletedAt != nil {
		millis := toMillis(*task.CompletedAt)
		completedAt = &millis
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (
			id, owner_id, title, description, category,
			duration_minutes, coin_bid, status, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, task.ID, task.OwnerID, task.Title, task.Description, string(task.Category),
		task.DurationMinutes, task.CoinBid, string(task.Status), toMillis(task.CreatedAt), completedAt); err != nil {
		if isUniqueConstraintError(err) {
			return rollbackWith(storage.ErrConflict)
		}
		return rollbackWith(fmt.Errorf("insert task: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task reservation write: %w", err)
	}
	return nil
}

// GetTask loads one task by id.
func (s *Store) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Task{}, fmt.Errorf("storage is not configured")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.Task{}, fmt.Errorf("task id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, category,
			duration_minutes, coin_bid, status, created_at, completed_at
		FROM tasks WHERE id = ?
	`, taskID)
	return scanTask(row)
}

// ListTasksByOwner lists the owner's tasks: pending before settled, then by
// bid size with the highest stakes first, then by recency.
func (s *Store) ListTasksByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, owner_id, title, description, category,
			duration_minutes, coin_bid, status, created_at, completed_at
		FROM tasks WHERE owner_id = ?
		ORDER BY (status != 'pending'), coin_bid DESC, created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus moves one task to the provided status.
func (s *Store) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return fmt.Errorf("task id is required")
	}

	var completedMillis *int64
	if completedAt != nil {
		millis := toMillis(*completedAt)
		completedMillis = &millis
	}
	result, err := s.sqlDB.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed_at = ? WHERE id = ?
	`, string(status), completedMillis, taskID)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task status rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTask removes one task row.
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return fmt.Errorf("task id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// InsertFocusSession appends one completed session record.
func (s *Store) InsertFocusSession(ctx context.Context, session domain.FocusSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	return insertFocusSessionExec(ctx, s.sqlDB, session)
}

// ListSessionsByOwner lists the owner's session history, most recent first.
func (s *Store) ListSessionsByOwner(ctx context.Context, ownerID string) ([]domain.FocusSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, owner_id, task_id, duration_minutes,
			coins_earned, xp_earned, completed, started_at, completed_at
		FROM focus_sessions WHERE owner_id = ?
		ORDER BY started_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list focus sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []domain.FocusSession
	for rows.Next() {
		session, err := scanFocusSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus sessions: %w", err)
	}
	return sessions, nil
}

// ApplySettlement atomically writes one settlement outcome: the updated
// profile balances, the task's terminal status, and the session history
// row. Re-applying a settlement for an already-terminal task fails with
// storage.ErrConflict.
func (s *Store) ApplySettlement(ctx context.Context, write storage.SettlementWrite) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(write.TaskID) == "" {
		return fmt.Errorf("settlement task id is required")
	}
	if !write.TaskStatus.IsTerminal() {
		return fmt.Errorf("settlement task status %q is not terminal", write.TaskStatus)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback settlement write: %v", cause, rollbackErr)
		}
		return cause
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed_at = ?
		WHERE id = ? AND status NOT IN ('completed', 'failed')
	`, string(write.TaskStatus), toMillis(write.CompletedAt), write.TaskID)
	if err != nil {
		return rollbackWith(fmt.Errorf("settle task status: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rollbackWith(fmt.Errorf("settle task status rows affected: %w", err))
	}
	if affected == 0 {
		var exists int
		if scanErr := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM tasks WHERE id = ?", write.TaskID).Scan(&exists); scanErr != nil {
			return rollbackWith(fmt.Errorf("check settled task: %w", scanErr))
		}
		if exists == 0 {
			return rollbackWith(storage.ErrNotFound)
		}
		return rollbackWith(storage.ErrConflict)
	}

	profile := write.Profile
	profileResult, err := tx.ExecContext(ctx, `
		UPDATE profiles SET
			daily_coins = ?, total_xp = ?, level = ?,
			current_streak = ?, best_streak = ?, updated_at = ?
		WHERE id = ?
	`, profile.DailyCoins, profile.TotalXP, profile.Level,
		profile.CurrentStreak, profile.BestStreak, toMillis(profile.UpdatedAt), profile.ID)
	if err != nil {
		return rollbackWith(fmt.Errorf("settle profile: %w", err))
	}
	profileAffected, err := profileResult.RowsAffected()
	if err != nil {
		return rollbackWith(fmt.Errorf("settle profile rows affected: %w", err))
	}
	if profileAffected == 0 {
		return rollbackWith(storage.ErrNotFound)
	}

	if err := insertFocusSessionExec(ctx, tx, write.Session); err != nil {
		return rollbackWith(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement write: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertFocusSessionExec(ctx context.Context, db execer, session domain.FocusSession) error {
	completed := 0
	if session.Completed {
		completed = 1
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO focus_sessions (
			id, owner_id, task_id, duration_minutes,
			coins_earned, xp_earned, completed, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.OwnerID, session.TaskID, session.DurationMinutes,
		session.CoinsEarned, session.XPEarned, completed,
		toMillis(session.StartedAt), toMillis(session.CompletedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert focus session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (domain.Profile, error) {
	var profile domain.Profile
	var createdAt, updatedAt int64
	err := row.Scan(&profile.ID, &profile.Username, &profile.DailyCoins, &profile.TotalXP,
		&profile.Level, &profile.CurrentStreak, &profile.BestStreak, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	profile.CreatedAt = fromMillis(createdAt)
	profile.UpdatedAt = fromMillis(updatedAt)
	return profile, nil
}

func scanTask(row rowScanner) (domain.Task, error) {
	var task domain.Task
	var category, status string
	var createdAt int64
	var completedAt sql.NullInt64
	err := row.Scan(&task.ID, &task.OwnerID, &task.Title, &task.Description, &category,
		&task.DurationMinutes, &task.CoinBid, &status, &createdAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("scan task: %w", err)
	}
	task.Category = domain.Category(category)
	task.Status = domain.TaskStatus(status)
	task.CreatedAt = fromMillis(createdAt)
	if completedAt.Valid {
		completed := fromMillis(completedAt.Int64)
		task.CompletedAt = &completed
	}
	return task, nil
}

func scanFocusSession(row rowScanner) (domain.FocusSession, error) {
	var session domain.FocusSession
	var completed int
	var startedAt, completedAt int64
	err := row.Scan(&session.ID, &session.OwnerID, &session.TaskID, &session.DurationMinutes,
		&session.CoinsEarned, &session.XPEarned, &completed, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FocusSession{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.FocusSession{}, fmt.Errorf("scan focus session: %w", err)
	}
	session.Completed = completed == 1
	session.StartedAt = fromMillis(startedAt)
	session.CompletedAt = fromMillis(completedAt)
	return session, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "UNIQUE constraint failed") ||
		strings.Contains(message, "constraint failed: UNIQUE")
}
