package pipeline

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qrypta/pqc/internal/blockchain/evm"
	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/prover"
	"qrypta/pqc/internal/reference"
	"qrypta/pqc/internal/validation"
)

// DefaultReferenceTitle is used when the operator leaves the title empty
const DefaultReferenceTitle = "PQC DEMO"

// ProofRequester obtains a proof for a validated intent
type ProofRequester interface {
	RequestProof(ctx context.Context, req prover.Request) (*models.ProofBundle, error)
}

// Submitter places the proof on chain and waits for the receipt
type Submitter interface {
	Submit(ctx context.Context, req evm.SubmitRequest) (*models.SubmissionResult, error)
}

// Recorder journals runs that passed the confirmation checkpoint
type Recorder interface {
	Record(ctx context.Context, out *Outcome) error
}

// Observer is notified of every state transition
type Observer interface {
	OnTransition(from, to models.State, out *Outcome)
}

// Options are the per-invocation switches
type Options struct {
	DryRun    bool
	AssumeYes bool // skips the confirmation checkpoint
	Fake      bool // asks the prover for a fake proof
}

// Dependencies are the collaborators of a pipeline run. Recorder, Observer and
// Clock are optional.
type Dependencies struct {
	Input     InputProvider
	Prover    ProofRequester
	Submitter Submitter
	Recorder  Recorder
	Observer  Observer
	Clock     func() time.Time
}

// Summary is what the operator confirms before any network call
type Summary struct {
	Project         string
	Chain           config.ChainConfig
	Recipient       string
	AmountHuman     string
	AmountWei       *big.Int
	DeadlineMinutes int
	Fake            bool
	Reference       models.ReferenceRecord
}

// Outcome is the result of one pipeline run
type Outcome struct {
	RunID     string
	State     models.State
	Intent    models.TransferIntent
	Chain     config.ChainConfig
	Reference models.ReferenceRecord
	AmountWei *big.Int
	Proof     *models.ProofBundle
	Result    *models.SubmissionResult
	Err       error
}

// Failure records where a run stopped. The originating error is kept intact so
// models.KindOf reports the stage's own kind.
type Failure struct {
	Stage     models.State
	Attempted string
	Err       error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed while %s: %v", f.Stage, f.Attempted, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Pipeline sequences collection, proving, submission and reporting
type Pipeline struct {
	cfg    config.Config
	deps   Dependencies
	opts   Options
	logger *zap.Logger
}

// New creates a pipeline for a single run
func New(cfg config.Config, deps Dependencies, opts Options, logger *zap.Logger) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		opts:   opts,
		logger: logger.Named("pipeline"),
	}
}

// Run executes one run to a terminal state. The returned outcome is never nil;
// the error is non-nil exactly when the outcome is Failed.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	out := &Outcome{RunID: uuid.NewString()}
	p.transition(out, models.StateCollecting)

	intent, err := p.collect(ctx)
	if err != nil {
		return p.fail(ctx, out, "collecting the transfer intent", err, false)
	}
	out.Intent = intent

	chainCfg, err := p.cfg.Chain(intent.Chain)
	if err != nil {
		return p.fail(ctx, out, "resolving chain configuration", err, false)
	}
	out.Chain = chainCfg

	amountWei, err := evm.ToBaseUnits(intent.AmountHuman)
	if err != nil {
		return p.fail(ctx, out, "converting the amount to base units", err, false)
	}
	out.AmountWei = amountWei
	out.Reference = reference.Build(intent, p.cfg.Project, p.deps.Clock())

	p.transition(out, models.StateValidated)

	if p.opts.DryRun {
		p.transition(out, models.StateDryRunExit)
		return out, nil
	}

	p.transition(out, models.StateAwaitingConfirmation)

	if !p.opts.AssumeYes {
		confirmed, err := p.deps.Input.Confirm(ctx, p.summary(out))
		if err != nil {
			return p.fail(ctx, out, "awaiting confirmation",
				models.WrapError(models.KindInvalidInput, "confirmation was not obtained", err), false)
		}
		if !confirmed {
			p.transition(out, models.StateCancelled)
			return out, nil
		}
	}

	p.transition(out, models.StateProving)

	bundle, err := p.deps.Prover.RequestProof(ctx, prover.Request{
		Chain:           intent.Chain,
		Recipient:       intent.Recipient,
		AmountWei:       amountWei.String(),
		Reference:       out.Reference.String(),
		Fake:            p.opts.Fake,
		DeadlineMinutes: p.cfg.Prover.DeadlineMinutes,
	})
	if err != nil {
		return p.fail(ctx, out, "requesting a proof", err, true)
	}
	out.Proof = bundle
	p.transition(out, models.StateProved)

	p.transition(out, models.StateSubmitting)

	result, err := p.deps.Submitter.Submit(ctx, evm.SubmitRequest{
		Chain:       chainCfg,
		PrivateKey:  p.cfg.Operator.EVMPrivateKey,
		Recipient:   intent.Recipient,
		AmountHuman: intent.AmountHuman,
		Proof:       *bundle,
		Reference:   out.Reference,
	})
	if err != nil {
		return p.fail(ctx, out, "submitting quantumTransferZK", err, true)
	}
	out.Result = result
	p.transition(out, models.StateSubmitted)

	p.transition(out, models.StateReported)
	p.record(ctx, out)

	return out, nil
}

// collect reads and validates the intent. The interactive provider re-prompts
// on its own, so a validation failure here is final.
func (p *Pipeline) collect(ctx context.Context) (models.TransferIntent, error) {
	input := p.deps.Input

	chain, err := input.Chain(ctx, p.cfg.ConfiguredChains())
	if err != nil {
		return models.TransferIntent{}, models.WrapError(models.KindInvalidInput, "failed to read chain", err)
	}
	chain = models.ChainKey(strings.ToLower(strings.TrimSpace(string(chain))))
	if !chain.IsSupported() {
		return models.TransferIntent{}, models.Errorf(models.KindInvalidInput,
			"unsupported chain %q: expected one of %v", chain, models.SupportedChains)
	}

	recipient, err := input.Recipient(ctx)
	if err != nil {
		return models.TransferIntent{}, models.WrapError(models.KindInvalidInput, "failed to read recipient", err)
	}
	recipient = strings.TrimSpace(recipient)
	if err := validation.ValidateAddress(recipient); err != nil {
		return models.TransferIntent{}, models.WrapError(models.KindInvalidInput, "invalid recipient", err)
	}

	amount, err := input.Amount(ctx)
	if err != nil {
		return models.TransferIntent{}, models.WrapError(models.KindInvalidInput, "failed to read amount", err)
	}
	amount = strings.TrimSpace(amount)
	if err := validation.ValidateAmount(amount); err != nil {
		return models.TransferIntent{}, models.WrapError(models.KindInvalidInput, "invalid amount", err)
	}

	title, err := input.Title(ctx)
	if err != nil {
		return models.TransferIntent{}, models.WrapError(models.KindInvalidInput, "failed to read reference title", err)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultReferenceTitle
	}

	return models.TransferIntent{
		Chain:          chain,
		Recipient:      recipient,
		AmountHuman:    amount,
		ReferenceTitle: title,
	}, nil
}

func (p *Pipeline) summary(out *Outcome) Summary {
	return Summary{
		Project:         p.cfg.Project,
		Chain:           out.Chain,
		Recipient:       out.Intent.Recipient,
		AmountHuman:     out.Intent.AmountHuman,
		AmountWei:       out.AmountWei,
		DeadlineMinutes: p.cfg.Prover.DeadlineMinutes,
		Fake:            p.opts.Fake,
		Reference:       out.Reference,
	}
}

func (p *Pipeline) transition(out *Outcome, to models.State) {
	from := out.State
	out.State = to

	p.logger.Debug("State transition",
		zap.String("run_id", out.RunID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	if p.deps.Observer != nil {
		p.deps.Observer.OnTransition(from, to, out)
	}
}

// fail stops forward progress. confirmed marks runs that passed the
// confirmation checkpoint; only those are journaled.
func (p *Pipeline) fail(ctx context.Context, out *Outcome, attempted string, err error, confirmed bool) (*Outcome, error) {
	failure := &Failure{Stage: out.State, Attempted: attempted, Err: err}
	out.Err = failure

	p.logger.Error("Pipeline run failed",
		zap.String("run_id", out.RunID),
		zap.String("stage", string(failure.Stage)),
		zap.String("kind", string(models.KindOf(err))),
		zap.Error(err))

	p.transition(out, models.StateFailed)

	if confirmed {
		p.record(ctx, out)
	}

	return out, failure
}

// record journals the outcome. A journal failure never changes the outcome.
func (p *Pipeline) record(ctx context.Context, out *Outcome) {
	if p.deps.Recorder == nil {
		return
	}
	if err := p.deps.Recorder.Record(ctx, out); err != nil {
		p.logger.Warn("Failed to journal run",
			zap.String("run_id", out.RunID),
			zap.Error(err))
	}
}
