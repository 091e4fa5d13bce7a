package database

import (
	"context"
	"database/sql"
	"fmt"

	"qrypta/pqc/internal/models"
)

const runColumns = `id, run_id, chain, recipient, amount_human, amount_wei, iso_reference, state,
	error_kind, error_message, tx_hash, tx_status, block_number, gas_used, created_at`

// InsertRun journals a finished run and fills in its id and created_at
func (db *DB) InsertRun(ctx context.Context, run *models.Run) error {
	query := `
		INSERT INTO runs (
			run_id, chain, recipient, amount_human, amount_wei, iso_reference, state,
			error_kind, error_message, tx_hash, tx_status, block_number, gas_used
		) VALUES (
			:run_id, :chain, :recipient, :amount_human, :amount_wei, :iso_reference, :state,
			:error_kind, :error_message, :tx_hash, :tx_status, :block_number, :gas_used
		)
		RETURNING id, created_at
	`
	rows, err := db.NamedQueryContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&run.ID, &run.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan inserted run: %w", err)
		}
	}
	return rows.Err()
}

// GetRun retrieves a run by its run id
func (db *DB) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	var run models.Run
	query := `SELECT ` + runColumns + ` FROM runs WHERE run_id = $1`
	err := db.GetContext(ctx, &run, query, runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRunByTxHash retrieves the run that broadcast a transaction
func (db *DB) GetRunByTxHash(ctx context.Context, txHash string) (*models.Run, error) {
	var run models.Run
	query := `SELECT ` + runColumns + ` FROM runs WHERE tx_hash = $1`
	err := db.GetContext(ctx, &run, query, txHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecentRuns returns the newest runs first
func (db *DB) ListRecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	var runs []models.Run
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC LIMIT $1`
	if err := db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, err
	}
	return runs, nil
}
