package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, run Run) error {
	outputs, err := json.Marshal(nonNil(run.Outputs))
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}
	const query = `
INSERT INTO campaigns (
    id, profile, confidence, source, requested, succeeded, outputs, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.DB.ExecContext(ctx, query,
		run.ID,
		run.Tier.String(),
		run.Confidence,
		string(run.Source),
		run.Requested,
		run.Succeeded,
		outputs,
		run.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Run, error) {
	const query = `
SELECT id, profile, confidence, source, requested, succeeded, outputs, created_at
FROM campaigns
WHERE id = $1
LIMIT 1`
	run, err := scanRun(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	return run, nil
}

// List lists runs ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, profile, confidence, source, requested, succeeded, outputs, created_at
FROM campaigns
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		profile string
		source  string
		outputs []byte
	)
	if err := row.Scan(
		&run.ID,
		&profile,
		&run.Confidence,
		&source,
		&run.Requested,
		&run.Succeeded,
		&outputs,
		&run.CreatedAt,
	); err != nil {
		return Run{}, err
	}
	t, err := tier.Parse(profile)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.Tier = t
	run.Source = suggestion.Source(source)
	run.Outputs = []string{}
	if len(outputs) > 0 {
		if err := json.Unmarshal(outputs, &run.Outputs); err != nil {
			return Run{}, fmt.Errorf("run %s outputs: %w", run.ID, err)
		}
	}
	return run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Repo = (*PGRepo)(nil)
