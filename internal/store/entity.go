package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Status is the lifecycle state of a synced record. Records are never
// physically deleted; a full sweep retires records the upstream no longer
// reports, and any later sighting reactivates them.
type Status string

const (
	StatusActive  Status = "active"
	StatusRetired Status = "retired"
)

// Audit is the bookkeeping block shared by every synced record.
type Audit struct {
	Status    Status
	UpdatedBy string
	CreatedAt int64 // unix nanos
	UpdatedAt int64 // unix nanos
}

// kindSpec describes one entity kind's table: its name, the kind-specific
// attribute columns, and accessors into the record struct. The common columns
// (external_id, status, updated_by, created_at, updated_at) are handled by
// EntityStore itself.
type kindSpec[T any] struct {
	table   string
	columns []string          // attribute columns, in declaration order
	id      func(*T) int64    // external id accessor
	attrs   func(*T) []any    // attribute values, matching columns
	ptrs    func(*T) []any    // attribute scan targets, matching columns
	audit   func(*T) *Audit   // shared audit block accessor
}

// querier is satisfied by both *sql.DB and *sql.Tx, letting the same upsert
// logic run standalone or inside a batch transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EntityStore persists one entity kind. It is the sole writer for its table;
// the rest of the application only reads.
type EntityStore[T any] struct {
	db      *sql.DB
	spec    kindSpec[T]
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

func newEntityStore[T any](db *sql.DB, spec kindSpec[T], logger *slog.Logger) *EntityStore[T] {
	return &EntityStore[T]{db: db, spec: spec, logger: logger, nowFunc: time.Now}
}

// Table returns the underlying table name.
func (s *EntityStore[T]) Table() string {
	return s.spec.table
}

// Get returns the record with the given external id, or nil when absent.
func (s *EntityStore[T]) Get(ctx context.Context, externalID int64) (*T, error) {
	query := fmt.Sprintf(
		`SELECT status, updated_by, created_at, updated_at, %s FROM %s WHERE external_id = ?`,
		strings.Join(s.spec.columns, ", "), s.spec.table)

	rec := new(T)
	a := s.spec.audit(rec)

	dest := append([]any{&a.Status, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt}, s.spec.ptrs(rec)...)

	err := s.db.QueryRowContext(ctx, query, externalID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("store: %s: get %d: %w", s.spec.table, externalID, err)
	}

	return rec, nil
}

// Upsert inserts the record if its external id is unseen, otherwise updates
// the mutable fields. Either way the record ends up active: a retired record
// reappearing upstream is resurrected. Returns true when a row was created.
func (s *EntityStore[T]) Upsert(ctx context.Context, rec *T) (bool, error) {
	return s.upsert(ctx, s.db, rec)
}

// UpsertBatch applies one batch of records inside a single transaction,
// returning created and updated counts. Items sync uses this so each batch
// is its own atomic unit rather than one giant run-wide transaction.
func (s *EntityStore[T]) UpsertBatch(ctx context.Context, recs []*T) (created, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("store: %s: begin batch: %w", s.spec.table, err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		wasCreated, upErr := s.upsert(ctx, tx, rec)
		if upErr != nil {
			return 0, 0, upErr
		}

		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("store: %s: commit batch: %w", s.spec.table, err)
	}

	return created, updated, nil
}

func (s *EntityStore[T]) upsert(ctx context.Context, q querier, rec *T) (bool, error) {
	id := s.spec.id(rec)
	now := s.nowFunc().UnixNano()
	a := s.spec.audit(rec)

	var exists int

	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE external_id = ?`, s.spec.table), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: %s: checking %d: %w", s.spec.table, id, err)
	}

	if exists == 0 {
		query := fmt.Sprintf(
			`INSERT INTO %s (external_id, status, updated_by, created_at, updated_at, %s)
			 VALUES (?, ?, ?, ?, ?%s)`,
			s.spec.table, strings.Join(s.spec.columns, ", "),
			strings.Repeat(", ?", len(s.spec.columns)))

		args := append([]any{id, StatusActive, a.UpdatedBy, now, now}, s.spec.attrs(rec)...)

		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return false, fmt.Errorf("store: %s: insert %d: %w", s.spec.table, id, err)
		}

		return true, nil
	}

	var sets []string
	for _, col := range s.spec.columns {
		sets = append(sets, col+" = ?")
	}

	query := fmt.Sprintf(
		`UPDATE %s SET status = ?, updated_by = ?, updated_at = ?, %s WHERE external_id = ?`,
		s.spec.table, strings.Join(sets, ", "))

	args := append([]any{StatusActive, a.UpdatedBy, now}, s.spec.attrs(rec)...)
	args = append(args, id)

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("store: %s: update %d: %w", s.spec.table, id, err)
	}

	return false, nil
}

// ActiveExternalIDs returns the external ids of all active records, in
// ascending order.
func (s *EntityStore[T]) ActiveExternalIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT external_id FROM %s WHERE status = ? ORDER BY external_id`, s.spec.table),
		StatusActive)
	if err != nil {
		return nil, fmt.Errorf("store: %s: listing active ids: %w", s.spec.table, err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: %s: scanning active id: %w", s.spec.table, err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: %s: iterating active ids: %w", s.spec.table, err)
	}

	return ids, nil
}

// RetireMissing marks every active record whose external id is not in seen
// as retired, stamping the actor. This is how upstream deletions propagate;
// callers must only invoke it after a full (not delta) fetch with at least
// one record, since an incomplete window must not be read as "everything
// else is gone". Returns the number of retired rows.
func (s *EntityStore[T]) RetireMissing(ctx context.Context, seen []int64, actor string) (int, error) {
	if len(seen) == 0 {
		return 0, nil
	}

	now := s.nowFunc().UnixNano()

	args := []any{StatusRetired, actor, now}
	for _, id := range seen {
		args = append(args, id)
	}

	args = append(args, StatusActive)

	query := fmt.Sprintf(
		`UPDATE %s SET status = ?, updated_by = ?, updated_at = ?
		 WHERE external_id NOT IN (%s) AND status = ?`,
		s.spec.table, placeholders(len(seen)))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: %s: retiring missing: %w", s.spec.table, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: %s: retire rows affected: %w", s.spec.table, err)
	}

	if n > 0 {
		s.logger.Info("retired records absent from full fetch",
			slog.String("table", s.spec.table),
			slog.Int64("count", n),
		)
	}

	return int(n), nil
}

// placeholders returns a comma-joined list of n SQL placeholders.
func placeholders(n int) string {
	return strings.TrimPrefix(strings.Repeat(",?", n), ",")
}
