package exam

import (
	"context"
	"database/sql"
	"errors"
)

// SQLClassDirectory reads class-level facts from the classes table. Classes
// without a row (or without an explicit threshold) fall back to the
// deployment default.
type SQLClassDirectory struct {
	db         *sql.DB
	defaultMin float64
}

func NewSQLClassDirectory(db *sql.DB, defaultThreshold float64) *SQLClassDirectory {
	return &SQLClassDirectory{db: db, defaultMin: defaultThreshold}
}

func (d *SQLClassDirectory) PassingThreshold(ctx context.Context, classID string) (float64, error) {
	var t sql.NullFloat64
	err := d.db.QueryRowContext(ctx,
		`SELECT passing_threshold FROM classes WHERE id=$1`, classID).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return d.defaultMin, nil
	}
	if err != nil {
		return 0, err
	}
	if !t.Valid {
		return d.defaultMin, nil
	}
	return t.Float64, nil
}

// StaticThreshold is a ClassDirectory with one threshold for every class.
type StaticThreshold float64

func (t StaticThreshold) PassingThreshold(context.Context, string) (float64, error) {
	return float64(t), nil
}
