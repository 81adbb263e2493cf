// README: Smoke checks: Postgres, Redis, migration tables and the rider ride flow.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"flashtaxi/internal/modules/ride"
	"flashtaxi/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// rideID carries the created ride between flow steps.
	rideID string
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg, httpc: &http.Client{Timeout: 15 * time.Second}}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
			defer db.Close()
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency.Round(time.Millisecond))
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	trip := map[string]string{"pickupAddress": r.cfg.Pickup, "dropoffAddress": r.cfg.Dropoff}
	return []TestCase{
		{Name: "Env: Postgres connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusSkip, Note: "dsn not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "Env: migration tables exist", Run: checkTables},
		{Name: "Env: Redis connect", Run: func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: statusSkip, Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			res, _ := r.call(ctx, http.MethodGet, "/health", nil, false, http.StatusOK)
			return res
		}},
		{Name: "Ride: estimate", Run: func(ctx context.Context, r *Runner) Result {
			res, body := r.call(ctx, http.MethodPost, "/api/rides/estimate", trip, true, http.StatusOK)
			if res.Status == statusPass {
				if est, ok := body["estimate"].(map[string]any); ok {
					res.Note = fmt.Sprintf("fare=%v distance=%v", est["fare"], est["distance"])
				}
			}
			return res
		}},
		{Name: "Ride: request", Run: func(ctx context.Context, r *Runner) Result {
			res, body := r.call(ctx, http.MethodPost, "/api/rides/request", trip, true, http.StatusCreated)
			if res.Status == statusPass {
				ride, _ := body["ride"].(map[string]any)
				r.rideID, _ = ride["id"].(string)
				res.Note = "id=" + r.rideID
			}
			return res
		}},
		{Name: "Ride: get", Run: func(ctx context.Context, r *Runner) Result {
			if r.rideID == "" {
				return Result{Status: statusSkip, Note: "no ride created"}
			}
			res, _ := r.call(ctx, http.MethodGet, "/api/rides/"+r.rideID, nil, true, http.StatusOK)
			return res
		}},
		{Name: "Ride: cancel", Run: func(ctx context.Context, r *Runner) Result {
			if r.rideID == "" {
				return Result{Status: statusSkip, Note: "no ride created"}
			}
			res, _ := r.call(ctx, http.MethodPost, "/api/rides/"+r.rideID+"/cancel", map[string]string{"reason": "smoke test"}, true, http.StatusOK)
			return res
		}},
		{Name: "Ride: cancel again -> 400", Run: func(ctx context.Context, r *Runner) Result {
			if r.rideID == "" {
				return Result{Status: statusSkip, Note: "no ride created"}
			}
			res, _ := r.call(ctx, http.MethodPost, "/api/rides/"+r.rideID+"/cancel", nil, true, http.StatusBadRequest)
			return res
		}},
		{Name: "Audit: ride transitions logged", Run: checkAudit},
		{Name: "Ride: history", Run: func(ctx context.Context, r *Runner) Result {
			res, body := r.call(ctx, http.MethodGet, "/api/rides/history", nil, true, http.StatusOK)
			if rides, ok := body["rides"].([]any); ok {
				res.Note = fmt.Sprintf("rides=%d", len(rides))
			}
			return res
		}},
	}
}

// call performs one API request and passes when the response has wantStatus.
func (r *Runner) call(ctx context.Context, method, path string, body any, auth bool, wantStatus int) (Result, map[string]any) {
	if auth && r.cfg.Token == "" {
		return Result{Status: statusSkip, Note: "FLASH_SMOKE_TOKEN not set"}, nil
	}
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, nil
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != wantStatus {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d message=%v", resp.StatusCode, out["message"])}, out
	}
	return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}, out
}

// checkAudit expects the request and the cancel in the ride's audit trail.
func checkAudit(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "dsn not configured"}
	}
	if r.rideID == "" {
		return Result{Status: statusSkip, Note: "no ride created"}
	}
	start := time.Now()
	evs, err := ride.NewPGEventLog(r.db).ListEvents(ctx, types.ID(r.rideID))
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	latency := time.Since(start)
	if len(evs) < 2 || evs[0].ToStatus != ride.StatusRequesting || evs[len(evs)-1].ToStatus != ride.StatusCancelled {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("events=%d", len(evs))}
	}
	return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("events=%d", len(evs))}
}

func checkTables(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusSkip, Note: "dsn not configured"}
	}
	tables, err := extractTables(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range tables {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
}

var createTableRe = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	matches := createTableRe.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}
