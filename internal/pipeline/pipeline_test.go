package pipeline

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"qrypta/pqc/internal/blockchain/evm"
	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/prover"
)

var testRecipient = "0x" + strings.Repeat("a", 40)

// scriptedInput returns fixed answers and counts confirmation prompts
type scriptedInput struct {
	chain     models.ChainKey
	recipient string
	amount    string
	title     string
	confirm   bool

	confirmCalls int
	summary      Summary
}

func (s *scriptedInput) Chain(ctx context.Context, configured []models.ChainKey) (models.ChainKey, error) {
	return s.chain, nil
}

func (s *scriptedInput) Recipient(ctx context.Context) (string, error) { return s.recipient, nil }
func (s *scriptedInput) Amount(ctx context.Context) (string, error)    { return s.amount, nil }
func (s *scriptedInput) Title(ctx context.Context) (string, error)     { return s.title, nil }

func (s *scriptedInput) Confirm(ctx context.Context, summary Summary) (bool, error) {
	s.confirmCalls++
	s.summary = summary
	return s.confirm, nil
}

func defaultInput() *scriptedInput {
	return &scriptedInput{
		chain:     models.ChainEthereum,
		recipient: testRecipient,
		amount:    "2.5",
		title:     "TEST",
		confirm:   true,
	}
}

// fakeSubmitter records requests and returns a fixed result or error
type fakeSubmitter struct {
	result *models.SubmissionResult
	err    error
	calls  []evm.SubmitRequest
}

func (f *fakeSubmitter) Submit(ctx context.Context, req evm.SubmitRequest) (*models.SubmissionResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func successSubmitter() *fakeSubmitter {
	return &fakeSubmitter{result: &models.SubmissionResult{
		TxHash:      "0x" + strings.Repeat("f", 64),
		Status:      models.ReceiptStatusSuccess,
		StatusCode:  1,
		BlockNumber: 100,
		GasUsed:     21000,
		AmountWei:   big.NewInt(2_500_000_000_000_000_000),
	}}
}

type fakeRecorder struct {
	outcomes []*Outcome
	err      error
}

func (f *fakeRecorder) Record(ctx context.Context, out *Outcome) error {
	f.outcomes = append(f.outcomes, out)
	return f.err
}

type transitionLog struct {
	states []models.State
}

func (l *transitionLog) OnTransition(from, to models.State, out *Outcome) {
	l.states = append(l.states, to)
}

// proverStub serves /prove with a fixed answer and counts requests
type proverStub struct {
	server *httptest.Server
	hits   atomic.Int32
}

func newProverStub(t *testing.T, status int, body string) *proverStub {
	t.Helper()
	stub := &proverStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *proverStub) client() *prover.Client {
	return prover.NewClient(s.server.URL, time.Second, zap.NewNop())
}

func testConfig() config.Config {
	return config.Config{
		Project: "QRYPTA",
		Chains: map[models.ChainKey]config.ChainConfig{
			models.ChainEthereum: {
				Key:             models.ChainEthereum,
				Name:            "Ethereum Mainnet",
				ChainID:         1,
				RPCEndpoint:     "http://node.invalid",
				ContractAddress: "0x" + strings.Repeat("c", 40),
				ExplorerTxURL:   "https://etherscan.io/tx/",
			},
		},
		Operator: config.OperatorConfig{
			EVMPrivateKey: "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
		},
		Prover: config.ProverConfig{
			URL:             "http://prover.invalid",
			Timeout:         time.Second,
			DeadlineMinutes: 30,
		},
		Submission: config.SubmissionConfig{
			ConfirmationTimeout: time.Second,
			PollInterval:        time.Millisecond,
		},
	}
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestPipeline(input InputProvider, proofs ProofRequester, submitter Submitter, opts Options) (*Pipeline, *transitionLog, *fakeRecorder) {
	log := &transitionLog{}
	recorder := &fakeRecorder{}
	p := New(testConfig(), Dependencies{
		Input:     input,
		Prover:    proofs,
		Submitter: submitter,
		Recorder:  recorder,
		Observer:  log,
		Clock:     func() time.Time { return fixedNow },
	}, opts, zap.NewNop())
	return p, log, recorder
}

func TestRunEndToEndSuccess(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
	submitter := successSubmitter()
	input := defaultInput()

	p, log, recorder := newTestPipeline(input, stub.client(), submitter, Options{})
	out, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StateReported, out.State)
	require.NotNil(t, out.Result)
	assert.Equal(t, models.ReceiptStatusSuccess, out.Result.Status)
	assert.Equal(t, uint64(100), out.Result.BlockNumber)
	assert.Equal(t, uint64(21000), out.Result.GasUsed)
	assert.NotEmpty(t, out.RunID)

	assert.Equal(t, []models.State{
		models.StateCollecting,
		models.StateValidated,
		models.StateAwaitingConfirmation,
		models.StateProving,
		models.StateProved,
		models.StateSubmitting,
		models.StateSubmitted,
		models.StateReported,
	}, log.states)

	assert.Equal(t, 1, input.confirmCalls)
	assert.Equal(t, "2500000000000000000", input.summary.AmountWei.String())
	assert.Equal(t, 30, input.summary.DeadlineMinutes)

	require.Len(t, submitter.calls, 1)
	req := submitter.calls[0]
	assert.Equal(t, models.HexBytes{0x01}, req.Proof.PublicValues)
	assert.Equal(t, models.HexBytes{0x02}, req.Proof.ProofBytes)
	assert.Equal(t, "2.5", req.AmountHuman)
	assert.Equal(t, testRecipient, req.Recipient)
	assert.Equal(t,
		`{"project":"QRYPTA","title":"TEST","chain":"eth","recipient":"`+testRecipient+`","amount":"2.5","ts":"2024-05-01T12:00:00.000Z"}`,
		req.Reference.String())

	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, models.StateReported, recorder.outcomes[0].State)
}

func TestRunProverFailureStopsBeforeBroadcast(t *testing.T) {
	stub := newProverStub(t, http.StatusInternalServerError, "boom")
	submitter := successSubmitter()

	p, log, recorder := newTestPipeline(defaultInput(), stub.client(), submitter, Options{})
	out, err := p.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, models.StateFailed, out.State)
	assert.Equal(t, models.KindProverService, models.KindOf(err))
	assert.Empty(t, submitter.calls)
	assert.Nil(t, out.Proof)

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, models.StateProving, failure.Stage)
	assert.Equal(t, err, out.Err)

	assert.Equal(t, models.StateFailed, log.states[len(log.states)-1])
	require.Len(t, recorder.outcomes, 1)
}

func TestRunMalformedProofStopsBeforeBroadcast(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01"}`)
	submitter := successSubmitter()

	p, _, _ := newTestPipeline(defaultInput(), stub.client(), submitter, Options{})
	_, err := p.Run(context.Background())
	assert.Equal(t, models.KindMalformedProverResponse, models.KindOf(err))
	assert.Empty(t, submitter.calls)
}

func TestRunDryRunMakesNoNetworkCalls(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
	submitter := successSubmitter()
	input := defaultInput()

	p, log, recorder := newTestPipeline(input, stub.client(), submitter, Options{DryRun: true})
	out, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StateDryRunExit, out.State)
	assert.Equal(t, int32(0), stub.hits.Load())
	assert.Empty(t, submitter.calls)
	assert.Zero(t, input.confirmCalls)
	assert.Empty(t, recorder.outcomes)
	assert.Equal(t, []models.State{models.StateCollecting, models.StateValidated, models.StateDryRunExit}, log.states)
	assert.Equal(t, "2500000000000000000", out.AmountWei.String())
}

func TestRunDeclinedConfirmationCancels(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
	submitter := successSubmitter()
	input := defaultInput()
	input.confirm = false

	p, _, recorder := newTestPipeline(input, stub.client(), submitter, Options{})
	out, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StateCancelled, out.State)
	assert.Equal(t, int32(0), stub.hits.Load())
	assert.Empty(t, submitter.calls)
	assert.Empty(t, recorder.outcomes)
}

func TestRunAssumeYesSkipsConfirmation(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
	input := defaultInput()
	input.confirm = false

	p, _, _ := newTestPipeline(input, stub.client(), successSubmitter(), Options{AssumeYes: true})
	out, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateReported, out.State)
	assert.Zero(t, input.confirmCalls)
}

func TestRunInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *scriptedInput)
		wantInner models.Kind
	}{
		{name: "short address", mutate: func(in *scriptedInput) { in.recipient = "0x1234" }, wantInner: models.KindInvalidAddress},
		{name: "missing prefix", mutate: func(in *scriptedInput) { in.recipient = strings.Repeat("a", 40) }, wantInner: models.KindInvalidAddress},
		{name: "zero amount", mutate: func(in *scriptedInput) { in.amount = "0" }, wantInner: models.KindInvalidAmount},
		{name: "negative amount", mutate: func(in *scriptedInput) { in.amount = "-1" }, wantInner: models.KindInvalidAmount},
		{name: "not a number", mutate: func(in *scriptedInput) { in.amount = "abc" }, wantInner: models.KindInvalidAmount},
		{name: "unknown chain", mutate: func(in *scriptedInput) { in.chain = "sol" }, wantInner: models.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
			input := defaultInput()
			tt.mutate(input)

			p, _, recorder := newTestPipeline(input, stub.client(), successSubmitter(), Options{})
			out, err := p.Run(context.Background())
			require.Error(t, err)

			assert.Equal(t, models.StateFailed, out.State)
			assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
			assert.True(t, models.IsKind(err, tt.wantInner), "error: %v", err)
			assert.Zero(t, input.confirmCalls)
			assert.Equal(t, int32(0), stub.hits.Load())
			assert.Empty(t, recorder.outcomes)
		})
	}
}

func TestRunTrimsInputAndDefaultsTitle(t *testing.T) {
	input := defaultInput()
	input.chain = " ETH "
	input.recipient = "  " + testRecipient + "\n"
	input.amount = " 1.25 "
	input.title = "   "

	p, _, _ := newTestPipeline(input, nil, nil, Options{DryRun: true})
	out, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.TransferIntent{
		Chain:          models.ChainEthereum,
		Recipient:      testRecipient,
		AmountHuman:    "1.25",
		ReferenceTitle: DefaultReferenceTitle,
	}, out.Intent)
	assert.Equal(t, "1250000000000000000", out.AmountWei.String())
	assert.Contains(t, out.Reference.String(), `"title":"PQC DEMO"`)
}

func TestRunUnconfiguredChain(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
	input := defaultInput()
	input.chain = models.ChainBNB

	p, _, _ := newTestPipeline(input, stub.client(), successSubmitter(), Options{})
	out, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.StateFailed, out.State)
	assert.Equal(t, models.KindConfiguration, models.KindOf(err))
	assert.Zero(t, input.confirmCalls)
	assert.Equal(t, int32(0), stub.hits.Load())
}

func TestRunAmountBeyondPrecisionFailsBeforeConfirmation(t *testing.T) {
	input := defaultInput()
	input.amount = "0.0000000000000000001"

	p, _, _ := newTestPipeline(input, nil, nil, Options{})
	_, err := p.Run(context.Background())
	assert.Equal(t, models.KindAmountConversion, models.KindOf(err))
	assert.Zero(t, input.confirmCalls)
}

func TestRunPreservesSubmitterKind(t *testing.T) {
	kinds := []models.Kind{
		models.KindAmountConversion,
		models.KindInvalidCredential,
		models.KindBroadcast,
		models.KindConfirmationTimeout,
	}

	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
			submitter := &fakeSubmitter{err: models.NewError(kind, "stage failed")}

			p, _, recorder := newTestPipeline(defaultInput(), stub.client(), submitter, Options{})
			out, err := p.Run(context.Background())
			require.Error(t, err)

			assert.Equal(t, models.StateFailed, out.State)
			assert.Equal(t, kind, models.KindOf(err))
			assert.NotNil(t, out.Proof)

			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, models.StateSubmitting, failure.Stage)

			require.Len(t, recorder.outcomes, 1)
			assert.Equal(t, models.StateFailed, recorder.outcomes[0].State)
		})
	}
}

func TestRunRecorderErrorDoesNotChangeOutcome(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)

	p, _, recorder := newTestPipeline(defaultInput(), stub.client(), successSubmitter(), Options{})
	recorder.err = errors.New("database unavailable")

	out, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateReported, out.State)
	assert.Len(t, recorder.outcomes, 1)
}

func TestStaticInputRequiresExplicitOverride(t *testing.T) {
	stub := newProverStub(t, http.StatusOK, `{"publicValues":"0x01","proofBytes":"0x02"}`)
	input := StaticInput{
		ChainKey:      models.ChainEthereum,
		RecipientAddr: testRecipient,
		AmountHuman:   "2.5",
	}

	p, _, _ := newTestPipeline(input, stub.client(), successSubmitter(), Options{})
	out, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.StateFailed, out.State)
	assert.Equal(t, models.KindInvalidInput, models.KindOf(err))
	assert.Equal(t, int32(0), stub.hits.Load())

	p, _, _ = newTestPipeline(input, stub.client(), successSubmitter(), Options{AssumeYes: true})
	out, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateReported, out.State)
	assert.Equal(t, int32(1), stub.hits.Load())
}

func TestStaticInputChain(t *testing.T) {
	ctx := context.Background()

	chain, err := StaticInput{}.Chain(ctx, []models.ChainKey{models.ChainBNB})
	require.NoError(t, err)
	assert.Equal(t, models.ChainBNB, chain)

	_, err = StaticInput{}.Chain(ctx, []models.ChainKey{models.ChainBNB, models.ChainEthereum})
	assert.True(t, models.IsKind(err, models.KindInvalidInput))
}
