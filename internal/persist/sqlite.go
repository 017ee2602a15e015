package persist

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/session"
)

//go:embed schema.sql
var schema string

const (
	collectionPlanner = "planner"
	collectionHistory = "history"
)

// SQLite stores snapshots in a single database file
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and initializes) the database at dbPath
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load reads both collections and the session row
func (s *SQLite) Load(ctx context.Context) (Snapshot, error) {
	planner, err := s.listEvents(ctx, collectionPlanner)
	if err != nil {
		return Snapshot{}, err
	}
	history, err := s.listEvents(ctx, collectionHistory)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Planner: planner, History: history}

	var sess session.Session
	err = s.db.QueryRowContext(ctx,
		"SELECT date, generation_count_today, planner_add_count_today, anchor FROM sessions WHERE id = 1",
	).Scan(&sess.Date, &sess.GenerationCountToday, &sess.PlannerAddCountToday, &sess.Anchor)
	switch {
	case err == nil:
		snap.Session = &sess
	case !errors.Is(err, sql.ErrNoRows):
		return Snapshot{}, fmt.Errorf("get session: %w", err)
	}

	return snap, nil
}

// Save replaces both collections and the session in one transaction
func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM events"); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, collection, day, time, platform, title, caption, hashtags, score, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	insert := func(collection string, events []domain.PlannerEvent) error {
		for _, e := range events {
			tags, err := json.Marshal(nonNil(e.Hashtags))
			if err != nil {
				return fmt.Errorf("marshal hashtags: %w", err)
			}
			var completedAt *time.Time
			if e.CompletedAt != nil {
				t := e.CompletedAt.UTC()
				completedAt = &t
			}
			_, err = stmt.ExecContext(ctx,
				e.ID, collection, e.Day, e.Time, string(e.Platform), e.Title, e.Caption,
				string(tags), e.Score, string(e.Status), e.CreatedAt.UTC(), completedAt,
			)
			if err != nil {
				return fmt.Errorf("insert event %s: %w", e.ID, err)
			}
		}
		return nil
	}

	if err := insert(collectionPlanner, snap.Planner); err != nil {
		return err
	}
	if err := insert(collectionHistory, snap.History); err != nil {
		return err
	}

	if snap.Session != nil {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO sessions (id, date, generation_count_today, planner_add_count_today, anchor)
			VALUES (1, ?, ?, ?, ?)
		`, snap.Session.Date, snap.Session.GenerationCountToday, snap.Session.PlannerAddCountToday, snap.Session.Anchor)
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLite) listEvents(ctx context.Context, collection string) ([]domain.PlannerEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, day, time, platform, title, caption, hashtags, score, status, created_at, completed_at
		FROM events
		WHERE collection = ?
		ORDER BY rowid
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s events: %w", collection, err)
	}
	defer rows.Close()

	events := []domain.PlannerEvent{}
	for rows.Next() {
		var (
			e           domain.PlannerEvent
			platform    string
			status      string
			tags        string
			score       sql.NullFloat64
			completedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.Day, &e.Time, &platform, &e.Title, &e.Caption,
			&tags, &score, &status, &e.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		e.Platform = domain.Platform(platform)
		e.Status = domain.Status(status)
		if err := json.Unmarshal([]byte(tags), &e.Hashtags); err != nil {
			return nil, fmt.Errorf("decode hashtags for %s: %w", e.ID, err)
		}
		if score.Valid {
			v := score.Float64
			e.Score = &v
		}
		if completedAt.Valid {
			t := completedAt.Time.UTC()
			e.CompletedAt = &t
		}
		e.CreatedAt = e.CreatedAt.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
