// README: Monthly assistant quota, Postgres-backed with an in-memory fallback.
package support

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Quota interface {
	UseToken(ctx context.Context, uid string) error
}

func monthOf(t time.Time) string { return t.Format("2006-01") }

type PGQuota struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPGQuota(db *pgxpool.Pool) *PGQuota {
	return &PGQuota{db: db, now: time.Now}
}

// UseToken deducts one token, initialising the row on first use.
func (q *PGQuota) UseToken(ctx context.Context, uid string) error {
	err := q.deduct(ctx, uid)
	if !errors.Is(err, ErrInsufficientTokens) {
		return err
	}
	// Row may be missing: create it, then retry once.
	if err := q.ensure(ctx, uid); err != nil {
		return err
	}
	return q.deduct(ctx, uid)
}

// deduct resets the counter lazily when last_reset_month is behind.
// Zero rows updated means the quota is exhausted or the row is absent.
func (q *PGQuota) deduct(ctx context.Context, uid string) error {
	month := monthOf(q.now())
	tag, err := q.db.Exec(ctx, `
		UPDATE support_quota SET
			tokens_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, month, DefaultTokens, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

func (q *PGQuota) ensure(ctx context.Context, uid string) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO support_quota (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, DefaultTokens, monthOf(q.now()))
	return err
}

type memoryEntry struct {
	remaining int
	month     string
}

type MemoryQuota struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryQuota() *MemoryQuota {
	return &MemoryQuota{entries: make(map[string]memoryEntry), now: time.Now}
}

func (q *MemoryQuota) UseToken(_ context.Context, uid string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	month := monthOf(q.now())
	e, ok := q.entries[uid]
	if !ok || e.month < month {
		e = memoryEntry{remaining: DefaultTokens, month: month}
	}
	if e.remaining <= 0 {
		return ErrInsufficientTokens
	}
	e.remaining--
	q.entries[uid] = e
	return nil
}
