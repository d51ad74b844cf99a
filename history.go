package studypartner

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// HistoryLedger is the append-only record of completed attempts. It
// rides on sqlite; the default DSN is :memory:, which keeps history
// scoped to the process lifetime. Attempts are keyed by session so
// concurrent browser sessions sharing the process never see each
// other's history.
type HistoryLedger struct {
	db *sql.DB
}

// attemptMinute is the dedup granularity: one row per quiz per minute.
const attemptMinute = "2006-01-02 15:04"

// OpenHistory opens (and initializes) the ledger. An empty dsn means
// in-memory.
func OpenHistory(dsn string) (*HistoryLedger, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	// The in-memory database vanishes if its only connection closes.
	db.SetMaxIdleConns(1)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			quiz_id TEXT NOT NULL,
			taken_at DATETIME NOT NULL,
			minute TEXT NOT NULL,
			choices TEXT NOT NULL,
			correct INTEGER NOT NULL,
			total INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS attempts_dedup
			ON attempts(session_id, quiz_id, minute)`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize history schema: %w", err)
		}
	}
	return &HistoryLedger{db: db}, nil
}

// Close closes the underlying database.
func (l *HistoryLedger) Close() error {
	return l.db.Close()
}

// Append records an attempt. A second submission of the same quiz in
// the same minute is silently ignored, so double submits are never
// double-counted. The unique index enforces this even across ledger
// handles sharing one database.
func (l *HistoryLedger) Append(a Attempt) error {
	choices, err := json.Marshal(a.Choices)
	if err != nil {
		return fmt.Errorf("failed to marshal choices: %w", err)
	}

	_, err = l.db.Exec(
		`INSERT OR IGNORE INTO attempts (id, session_id, quiz_id, taken_at, minute, choices, correct, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), a.SessionID, a.QuizID, a.TakenAt,
		a.TakenAt.Format(attemptMinute), string(choices), a.Correct, a.Total,
	)
	if err != nil {
		return fmt.Errorf("failed to append attempt: %w", err)
	}
	return nil
}

// HistoryStats summarizes a session's attempts. Scores are percentages.
type HistoryStats struct {
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
	BestScore    float64 `json:"best_score"`
	LatestScore  float64 `json:"latest_score"`
}

// Stats returns the aggregate view for a session: attempt count, mean
// score, best score and the most recent score.
func (l *HistoryLedger) Stats(sessionID string) (HistoryStats, error) {
	var stats HistoryStats
	err := l.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(AVG(100.0 * correct / total), 0),
		        COALESCE(MAX(100.0 * correct / total), 0)
		 FROM attempts WHERE session_id = ?`,
		sessionID,
	).Scan(&stats.Attempts, &stats.AverageScore, &stats.BestScore)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("failed to aggregate history: %w", err)
	}

	if stats.Attempts > 0 {
		err = l.db.QueryRow(
			`SELECT 100.0 * correct / total FROM attempts
			 WHERE session_id = ? ORDER BY taken_at DESC LIMIT 1`,
			sessionID,
		).Scan(&stats.LatestScore)
		if err != nil {
			return HistoryStats{}, fmt.Errorf("failed to read latest score: %w", err)
		}
	}
	return stats, nil
}

// Recent returns a session's newest attempts, most recent first. A
// limit of 0 means all.
func (l *HistoryLedger) Recent(sessionID string, limit int) ([]Attempt, error) {
	query := `SELECT session_id, quiz_id, taken_at, choices, correct, total
	          FROM attempts WHERE session_id = ? ORDER BY taken_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := l.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a           Attempt
			takenAt     time.Time
			choicesJSON string
		)
		if err := rows.Scan(&a.SessionID, &a.QuizID, &takenAt, &choicesJSON, &a.Correct, &a.Total); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.TakenAt = takenAt
		if err := json.Unmarshal([]byte(choicesJSON), &a.Choices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attempts: %w", err)
	}
	return attempts, nil
}

// Clear wipes a session's history. The only supported deletion.
func (l *HistoryLedger) Clear(sessionID string) error {
	if _, err := l.db.Exec(`DELETE FROM attempts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
