package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/caiowilker/rifa-project/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketRepository is the authoritative store for raffle numbers, one row
// per number. Batch mutations lock the affected rows so concurrent
// reservations of overlapping batches serialize on the database.
type TicketRepository struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func (r *TicketRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// EnsureTickets provisions numbers 1..count as available. Existing rows are
// left untouched, so re-running at startup is safe and raising the count
// only appends new numbers.
func (r *TicketRepository) EnsureTickets(ctx context.Context, count int) error {
	const stmt = `
INSERT INTO tickets (number)
SELECT generate_series(1, $1)
ON CONFLICT (number) DO NOTHING`

	if _, err := r.exec(ctx, stmt, count); err != nil {
		return fmt.Errorf("ensure tickets: %w", err)
	}
	return nil
}

// GetBatchForUpdate reads the requested numbers in a single consistent
// snapshot, locking each row for the remainder of the transaction. Numbers
// that do not exist are simply absent from the result.
func (r *TicketRepository) GetBatchForUpdate(ctx context.Context, numbers []int) ([]domain.Ticket, error) {
	const query = `
SELECT number, status, COALESCE(holder_name, ''), COALESCE(holder_contact, ''), reserved_at, confirmed_at
FROM tickets
WHERE number = ANY($1)
ORDER BY number
FOR UPDATE`

	rows, err := r.query(ctx, query, numbers)
	if err != nil {
		return nil, fmt.Errorf("get ticket batch: %w", err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

// ReserveBatch overwrites every given number with a fresh reservation. The
// caller has already validated eligibility under the same transaction's row
// locks; prior holder data from an expired reservation is replaced here.
func (r *TicketRepository) ReserveBatch(ctx context.Context, numbers []int, name, contact string, reservedAt time.Time) error {
	const stmt = `
UPDATE tickets
SET status = 'reserved', holder_name = $2, holder_contact = $3, reserved_at = $4, confirmed_at = NULL
WHERE number = ANY($1)`

	tag, err := r.exec(ctx, stmt, numbers, name, contact, reservedAt)
	if err != nil {
		return fmt.Errorf("reserve tickets: %w", err)
	}
	if int(tag.RowsAffected()) != len(numbers) {
		return fmt.Errorf("reserve tickets: expected %d rows, got %d", len(numbers), tag.RowsAffected())
	}
	return nil
}

// MarkSoldBatch transitions the given numbers to sold. Rows already sold are
// skipped so a redelivered confirmation keeps its original confirmed_at;
// numbers that do not exist are skipped as well. Returns how many rows
// actually transitioned.
func (r *TicketRepository) MarkSoldBatch(ctx context.Context, numbers []int, confirmedAt time.Time) (int64, error) {
	const stmt = `
UPDATE tickets
SET status = 'sold', confirmed_at = $2
WHERE number = ANY($1) AND status <> 'sold'`

	tag, err := r.exec(ctx, stmt, numbers, confirmedAt)
	if err != nil {
		return 0, fmt.Errorf("mark tickets sold: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReleaseExpired reverts stale reservations to available. The write is
// conditional on the row still being reserved and still stale, so it no-ops
// against a ticket that was sold, or re-reserved, after the caller read it.
func (r *TicketRepository) ReleaseExpired(ctx context.Context, numbers []int, cutoff time.Time) error {
	const stmt = `
UPDATE tickets
SET status = 'available', holder_name = NULL, holder_contact = NULL, reserved_at = NULL
WHERE number = ANY($1) AND status = 'reserved' AND reserved_at < $2`

	if _, err := r.exec(ctx, stmt, numbers, cutoff); err != nil {
		return fmt.Errorf("release expired reservations: %w", err)
	}
	return nil
}

func (r *TicketRepository) Get(ctx context.Context, number int) (domain.Ticket, error) {
	const query = `
SELECT number, status, COALESCE(holder_name, ''), COALESCE(holder_contact, ''), reserved_at, confirmed_at
FROM tickets
WHERE number = $1`

	t, err := scanTicket(r.queryRow(ctx, query, number))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (r *TicketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
SELECT number, status, COALESCE(holder_name, ''), COALESCE(holder_contact, ''), reserved_at, confirmed_at
FROM tickets
ORDER BY number`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

func (r *TicketRepository) ListSold(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
SELECT number, status, COALESCE(holder_name, ''), COALESCE(holder_contact, ''), reserved_at, confirmed_at
FROM tickets
WHERE status = 'sold'
ORDER BY number`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sold tickets: %w", err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	return tickets, nil
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	var status string
	err := row.Scan(&t.Number, &status, &t.HolderName, &t.HolderContact, &t.ReservedAt, &t.ConfirmedAt)
	if err != nil {
		return domain.Ticket{}, err
	}
	t.Status = domain.TicketStatus(status)
	return t, nil
}

func (r *TicketRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *TicketRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *TicketRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
