// README: Support chat tests: canned matching, quota fallback and the Postgres quota.
package support

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestCanned(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{message: "How do I BOOK a cab?", want: "To book a ride"},
		{message: "what does it cost", want: "Base fare starts at ₹50, with ₹15 per km and ₹2 per minute"},
		{message: "I want to cancel", want: "cancel your ride"},
		{message: "can I pay by card", want: "We accept cash"},
		{message: "my driver was rude", want: "Thank you for contacting support"},
		// ride wins over cancel because rules are checked in order
		{message: "cancel my ride", want: "To book a ride"},
	}
	for _, tt := range tests {
		if got := Canned(tt.message); !strings.Contains(got, tt.want) {
			t.Errorf("Canned(%q) = %q, want it to contain %q", tt.message, got, tt.want)
		}
	}
}

type stubAssistant struct {
	reply string
	err   error
	calls int
}

func (a *stubAssistant) Ask(context.Context, string) (string, error) {
	a.calls++
	return a.reply, a.err
}

func TestReply(t *testing.T) {
	ctx := context.Background()

	t.Run("no assistant", func(t *testing.T) {
		got, err := NewService(nil, nil, nil).Reply(ctx, "r1", "fare?")
		if err != nil || got.Source != SourceCanned {
			t.Fatalf("unexpected %+v %v", got, err)
		}
	})

	t.Run("assistant answers", func(t *testing.T) {
		a := &stubAssistant{reply: "Your driver is on the way."}
		got, err := NewService(a, NewMemoryQuota(), nil).Reply(ctx, "r1", "where is my driver")
		if err != nil || got.Source != SourceAssistant || got.Text != a.reply {
			t.Fatalf("unexpected %+v %v", got, err)
		}
	})

	t.Run("assistant error falls back", func(t *testing.T) {
		a := &stubAssistant{err: errors.New("503")}
		got, err := NewService(a, NewMemoryQuota(), nil).Reply(ctx, "r1", "payment")
		if err != nil || got.Source != SourceCanned {
			t.Fatalf("unexpected %+v %v", got, err)
		}
	})

	t.Run("quota exhausted falls back", func(t *testing.T) {
		a := &stubAssistant{reply: "hi"}
		svc := NewService(a, NewMemoryQuota(), nil)
		for i := 0; i < DefaultTokens; i++ {
			if _, err := svc.Reply(ctx, "r1", "hello"); err != nil {
				t.Fatal(err)
			}
		}
		got, _ := svc.Reply(ctx, "r1", "hello")
		if got.Source != SourceCanned || a.calls != DefaultTokens {
			t.Fatalf("expected canned after %d calls, got %+v after %d", DefaultTokens, got, a.calls)
		}
	})

	t.Run("invalid message", func(t *testing.T) {
		svc := NewService(nil, nil, nil)
		for _, msg := range []string{"   ", strings.Repeat("a", maxMessageLength+1)} {
			if _, err := svc.Reply(ctx, "r1", msg); !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		}
	})
}

func TestMemoryQuotaMonthlyReset(t *testing.T) {
	q := NewMemoryQuota()
	now := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < DefaultTokens; i++ {
		if err := q.UseToken(ctx, "r1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.UseToken(ctx, "r1"); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
	now = now.Add(2 * time.Hour)
	if err := q.UseToken(ctx, "r1"); err != nil {
		t.Fatalf("expected reset in new month, got %v", err)
	}
}

func TestPGQuota(t *testing.T) {
	q, db := setupPGQuota(t)
	ctx := context.Background()

	if err := q.UseToken(ctx, "rider_new"); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if got := remaining(t, db, "rider_new"); got != DefaultTokens-1 {
		t.Fatalf("expected %d remaining, got %d", DefaultTokens-1, got)
	}

	if _, err := db.Exec(ctx, "INSERT INTO support_quota VALUES ('rider_reset', 0, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := q.UseToken(ctx, "rider_reset"); err != nil {
		t.Fatalf("cross-month reset: %v", err)
	}
	if got := remaining(t, db, "rider_reset"); got != DefaultTokens-1 {
		t.Fatalf("expected %d remaining after reset, got %d", DefaultTokens-1, got)
	}

	if _, err := db.Exec(ctx, "INSERT INTO support_quota VALUES ('rider_zero', 0, $1)", monthOf(time.Now())); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := q.UseToken(ctx, "rider_zero"); !errors.Is(err, ErrInsufficientTokens) {
		t.Fatalf("expected ErrInsufficientTokens, got %v", err)
	}
}

func remaining(t *testing.T, db *pgxpool.Pool, uid string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(context.Background(), "SELECT tokens_remaining FROM support_quota WHERE uid = $1", uid).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	return n
}

// setupPGQuota skips unless FLASH_TEST_DSN points at a scratch database.
func setupPGQuota(t *testing.T) (*PGQuota, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("FLASH_TEST_DSN")
	if dsn == "" {
		t.Skip("FLASH_TEST_DSN not set; skipping DB-backed tests")
	}
	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE support_quota"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewPGQuota(db), db
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(stripSQLComments(string(content)), ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}
