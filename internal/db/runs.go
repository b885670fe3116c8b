package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/activity.report/internal/analysis"
)

// ErrNotFound is returned when a run ID has no row.
var ErrNotFound = errors.New("run not found")

// RunSummary is the indexed part of a stored run. Metric columns are nil
// for failed runs.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	Participant  string    `json:"participant_id"`
	SourceFile   string    `json:"source_file,omitempty"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	QualityScore *float64  `json:"quality_score"`
	Grade        string    `json:"grade,omitempty"`
	WearHours    *float64  `json:"wear_hours"`
	MVPAMinutes  *float64  `json:"mvpa_minutes"`
	SleepHours   *float64  `json:"sleep_hours"`
	CreatedAt    time.Time `json:"created_at"`
}

// SleepPeriodRow is one scored sleep period of a run.
type SleepPeriodRow struct {
	RunID           string    `json:"run_id"`
	PeriodID        int       `json:"period_id"`
	Start           time.Time `json:"start_time"`
	End             time.Time `json:"end_time"`
	Type            string    `json:"sleep_type"`
	DurationMinutes float64   `json:"duration_minutes"`
	Efficiency      float64   `json:"efficiency"`
	QualityScore    float64   `json:"quality_score"`
}

// BoutRow is one activity bout of a run. MeanMG is nil when the bout had
// no finite samples.
type BoutRow struct {
	RunID           string    `json:"run_id"`
	Kind            string    `json:"kind"`
	Start           time.Time `json:"start_time"`
	End             time.Time `json:"end_time"`
	DurationMinutes float64   `json:"duration_minutes"`
	MeanMG          *float64  `json:"mean_mg"`
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func ptr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// InsertRun stores a result with its sleep periods and bouts in one
// transaction and returns the new run ID.
func (db *DB) InsertRun(ctx context.Context, r *analysis.Result) (string, error) {
	doc, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode result for %s: %w", r.Participant, err)
	}
	runID := uuid.NewString()

	var score, wearHours, mvpa, sleepHours sql.NullFloat64
	var grade string
	if r.OK() {
		wearHours = nullable(r.Wear.WearHours)
		mvpa = nullable(r.Activity.Summary.MVPAMinutes)
		sleepHours = nullable(r.Sleep.Summary.TotalSleepHours)
		if r.Quality != nil {
			score = nullable(r.Quality.Overall.Score)
			grade = r.Quality.Overall.Grade
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			run_id, participant_id, source_file, status, error,
			quality_score, grade, wear_hours, mvpa_minutes, sleep_hours,
			created_at, result_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Participant, r.SourceFile, r.Status, r.Error,
		score, grade, wearHours, mvpa, sleepHours,
		db.Clock.Now().Unix(), string(doc),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, c := range r.Sleep.Characteristics {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sleep_periods (
				run_id, period_id, start_unix, end_unix, sleep_type,
				duration_minutes, efficiency, quality_score
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, c.PeriodID, c.StartTime.Unix(), c.EndTime.Unix(), string(c.Type),
			nullable(c.TotalMinutes), nullable(c.Efficiency), nullable(c.QualityScore),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert sleep period %d: %w", c.PeriodID, err)
		}
	}

	for _, b := range r.Activity.Bouts.All() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO activity_bouts (
				run_id, kind, start_unix, end_unix, duration_minutes, mean_mg
			) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, string(b.Kind), b.StartTime.Unix(), b.EndTime.Unix(),
			nullable(b.DurationMinutes), nullable(b.Stats.Mean),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert %s bout: %w", b.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	db.logf("db: stored run %s for %s", runID, r.Participant)
	return runID, nil
}

// GetRun returns the stored result document.
func (db *DB) GetRun(ctx context.Context, runID string) (json.RawMessage, error) {
	var doc string
	err := db.QueryRowContext(ctx, `SELECT result_json FROM analysis_runs WHERE run_id = ?`, runID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return json.RawMessage(doc), nil
}

// GetResult decodes the stored result document.
func (db *DB) GetResult(ctx context.Context, runID string) (*analysis.Result, error) {
	doc, err := db.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	var r analysis.Result
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", runID, err)
	}
	return &r, nil
}

// ListRuns returns the newest runs first. A limit of zero or less returns
// every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, participant_id, source_file, status, error,
		       quality_score, grade, wear_hours, mvpa_minutes, sleep_hours, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, participant_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var s RunSummary
		var score, wearHours, mvpa, sleepHours sql.NullFloat64
		var created int64
		if err := rows.Scan(&s.RunID, &s.Participant, &s.SourceFile, &s.Status, &s.Error,
			&score, &s.Grade, &wearHours, &mvpa, &sleepHours, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.QualityScore = ptr(score)
		s.WearHours = ptr(wearHours)
		s.MVPAMinutes = ptr(mvpa)
		s.SleepHours = ptr(sleepHours)
		s.CreatedAt = time.Unix(created, 0).UTC()
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

func (db *DB) runExists(ctx context.Context, runID string) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up run %s: %w", runID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSleepPeriods returns a run's sleep periods in period order.
func (db *DB) ListSleepPeriods(ctx context.Context, runID string) ([]SleepPeriodRow, error) {
	if err := db.runExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT period_id, start_unix, end_unix, sleep_type, duration_minutes, efficiency, quality_score
		FROM sleep_periods
		WHERE run_id = ?
		ORDER BY period_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sleep periods: %w", err)
	}
	defer rows.Close()

	periods := []SleepPeriodRow{}
	for rows.Next() {
		p := SleepPeriodRow{RunID: runID}
		var start, end int64
		var dur, eff, score sql.NullFloat64
		if err := rows.Scan(&p.PeriodID, &start, &end, &p.Type, &dur, &eff, &score); err != nil {
			return nil, fmt.Errorf("failed to scan sleep period: %w", err)
		}
		p.Start = time.Unix(start, 0).UTC()
		p.End = time.Unix(end, 0).UTC()
		p.DurationMinutes = dur.Float64
		p.Efficiency = eff.Float64
		p.QualityScore = score.Float64
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// ListBouts returns a run's activity bouts ordered by start time.
func (db *DB) ListBouts(ctx context.Context, runID string) ([]BoutRow, error) {
	if err := db.runExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT kind, start_unix, end_unix, duration_minutes, mean_mg
		FROM activity_bouts
		WHERE run_id = ?
		ORDER BY start_unix, bout_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bouts: %w", err)
	}
	defer rows.Close()

	bouts := []BoutRow{}
	for rows.Next() {
		b := BoutRow{RunID: runID}
		var start, end int64
		var dur, mean sql.NullFloat64
		if err := rows.Scan(&b.Kind, &start, &end, &dur, &mean); err != nil {
			return nil, fmt.Errorf("failed to scan bout: %w", err)
		}
		b.Start = time.Unix(start, 0).UTC()
		b.End = time.Unix(end, 0).UTC()
		b.DurationMinutes = dur.Float64
		b.MeanMG = ptr(mean)
		bouts = append(bouts, b)
	}
	return bouts, rows.Err()
}

// DeleteRun removes a run and its child rows.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM sleep_periods WHERE run_id = ?`,
		`DELETE FROM activity_bouts WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, runID); err != nil {
			return fmt.Errorf("failed to delete run %s: %w", runID, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM analysis_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
