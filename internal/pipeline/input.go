package pipeline

import (
	"context"

	"qrypta/pqc/internal/models"
)

// InputProvider supplies the transfer intent and the confirmation decision.
// Interactive providers may re-prompt until a value validates; the pipeline
// validates whatever is finally returned.
type InputProvider interface {
	Chain(ctx context.Context, configured []models.ChainKey) (models.ChainKey, error)
	Recipient(ctx context.Context) (string, error)
	Amount(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Confirm(ctx context.Context, summary Summary) (bool, error)
}

// ErrConfirmationRequired is returned when confirmation cannot be asked for
var ErrConfirmationRequired = models.NewError(models.KindInvalidInput,
	"confirmation required: pass --yes to proceed without a prompt")

// StaticInput is a non-interactive provider backed by preselected values.
// It never confirms on its own; the run proceeds only with Options.AssumeYes.
type StaticInput struct {
	ChainKey       models.ChainKey
	RecipientAddr  string
	AmountHuman    string
	ReferenceTitle string
}

func (s StaticInput) Chain(ctx context.Context, configured []models.ChainKey) (models.ChainKey, error) {
	if s.ChainKey != "" {
		return s.ChainKey, nil
	}
	// A single configured chain is unambiguous
	if len(configured) == 1 {
		return configured[0], nil
	}
	return "", models.NewError(models.KindInvalidInput, "chain is required (--chain)")
}

func (s StaticInput) Recipient(ctx context.Context) (string, error) {
	return s.RecipientAddr, nil
}

func (s StaticInput) Amount(ctx context.Context) (string, error) {
	return s.AmountHuman, nil
}

func (s StaticInput) Title(ctx context.Context) (string, error) {
	return s.ReferenceTitle, nil
}

func (s StaticInput) Confirm(ctx context.Context, summary Summary) (bool, error) {
	return false, ErrConfirmationRequired
}
