package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/database"
	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/pipeline"
)

// journalWriteTimeout bounds a journal write, including one that outlives a cancelled run
const journalWriteTimeout = 10 * time.Second

// RunStore persists journal entries
type RunStore interface {
	InsertRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, runID string) (*models.Run, error)
	GetRunByTxHash(ctx context.Context, txHash string) (*models.Run, error)
	ListRecentRuns(ctx context.Context, limit int) ([]models.Run, error)
	Close() error
}

// StoreOpener connects to the store on first use
type StoreOpener func() (RunStore, error)

// JournalService records pipeline runs in PostgreSQL. It connects lazily so a
// run that never passes confirmation never touches the database.
type JournalService struct {
	open   StoreOpener
	logger *zap.Logger

	mu    sync.Mutex
	store RunStore
}

// NewJournalService creates a journal backed by PostgreSQL
func NewJournalService(cfg config.JournalConfig, logger *zap.Logger) *JournalService {
	return NewJournalServiceWithOpener(PostgresOpener(cfg), logger)
}

// NewJournalServiceWithOpener creates a journal over an arbitrary store
func NewJournalServiceWithOpener(open StoreOpener, logger *zap.Logger) *JournalService {
	return &JournalService{
		open:   open,
		logger: logger.Named("journal"),
	}
}

// PostgresOpener connects and migrates the journal database
func PostgresOpener(cfg config.JournalConfig) StoreOpener {
	return func() (RunStore, error) {
		db, err := database.Connect(database.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}
}

func (s *JournalService) connect() (RunStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		return s.store, nil
	}
	store, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	s.store = store
	return store, nil
}

// Record implements pipeline.Recorder
func (s *JournalService) Record(ctx context.Context, out *pipeline.Outcome) error {
	store, err := s.connect()
	if err != nil {
		return err
	}

	// The write must land even when the run itself was interrupted
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
	defer cancel()

	run := RunFromOutcome(out)
	if err := store.InsertRun(writeCtx, run); err != nil {
		return err
	}

	s.logger.Info("Run journaled",
		zap.String("run_id", run.RunID),
		zap.String("state", string(run.State)),
		zap.Int64("id", run.ID))

	return nil
}

// GetRun returns a journaled run by run id or transaction hash, nil if unknown
func (s *JournalService) GetRun(ctx context.Context, runIDOrTxHash string) (*models.Run, error) {
	store, err := s.connect()
	if err != nil {
		return nil, err
	}

	// run_id is a UUID column; anything else would be rejected by the query
	if id, err := uuid.Parse(runIDOrTxHash); err == nil {
		return store.GetRun(ctx, id.String())
	}
	return store.GetRunByTxHash(ctx, runIDOrTxHash)
}

// RecentRuns lists the newest journaled runs
func (s *JournalService) RecentRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit: %d", limit)
	}
	store, err := s.connect()
	if err != nil {
		return nil, err
	}
	return store.ListRecentRuns(ctx, limit)
}

// Close releases the store if one was opened
func (s *JournalService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// RunFromOutcome flattens an outcome into a journal row
func RunFromOutcome(out *pipeline.Outcome) *models.Run {
	run := &models.Run{
		RunID:        out.RunID,
		Chain:        string(out.Intent.Chain),
		Recipient:    out.Intent.Recipient,
		AmountHuman:  out.Intent.AmountHuman,
		AmountWei:    "0",
		IsoReference: out.Reference.String(),
		State:        out.State,
	}
	if out.AmountWei != nil {
		run.AmountWei = out.AmountWei.String()
	}

	if out.Err != nil {
		kind := string(models.KindOf(out.Err))
		message := out.Err.Error()
		if kind != "" {
			run.ErrorKind = &kind
		}
		run.ErrorMessage = &message
	}

	if result := out.Result; result != nil {
		txHash := result.TxHash
		status := result.Status
		blockNumber := int64(result.BlockNumber)
		gasUsed := int64(result.GasUsed)
		run.TxHash = &txHash
		run.TxStatus = &status
		run.BlockNumber = &blockNumber
		run.GasUsed = &gasUsed
	}

	return run
}
