package prover

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/validation"
)

// ErrRealProofUnsupported is returned when a development prover is asked for a real proof
var ErrRealProofUnsupported = errors.New("real proofs are not supported by the development prover; set fake=true")

// publicValuesLayout is the ABI layout of fake public values:
// (address recipient, uint256 amount, bytes32 isoRefHash, uint64 deadline)
var publicValuesLayout = mustArguments("address", "uint256", "bytes32", "uint64")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

// FakeProver answers proving requests with deterministic, unverifiable proofs
// that commit to the request fields
type FakeProver struct {
	defaultDeadlineMinutes int
	clock                  func() time.Time
}

// NewFakeProver creates a development prover
func NewFakeProver(defaultDeadlineMinutes int, clock func() time.Time) *FakeProver {
	if clock == nil {
		clock = time.Now
	}
	return &FakeProver{
		defaultDeadlineMinutes: defaultDeadlineMinutes,
		clock:                  clock,
	}
}

// Prove validates the request and derives fake proof material from it
func (f *FakeProver) Prove(req ProveRequest) (*ProveResponse, error) {
	if !req.Fake {
		return nil, ErrRealProofUnsupported
	}

	chain := models.ChainKey(strings.ToLower(req.Chain))
	if !chain.IsSupported() {
		return nil, models.Errorf(models.KindInvalidInput, "unsupported chain %q", req.Chain)
	}
	if err := validation.ValidateAddress(req.Recipient); err != nil {
		return nil, err
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, models.Errorf(models.KindInvalidAmount, "invalid amount %q: expected positive base units", req.Amount)
	}
	if amount.BitLen() > 256 {
		return nil, models.Errorf(models.KindInvalidAmount, "amount %q exceeds uint256", req.Amount)
	}
	if strings.TrimSpace(req.IsoReference) == "" {
		return nil, models.NewError(models.KindInvalidInput, "isoReference is required")
	}

	minutes := req.DeadlineMinutes
	if minutes <= 0 {
		minutes = f.defaultDeadlineMinutes
	}
	deadline := f.clock().Add(time.Duration(minutes) * time.Minute).Unix()

	refHash := crypto.Keccak256Hash([]byte(req.IsoReference))

	publicValues, err := publicValuesLayout.Pack(
		common.HexToAddress(req.Recipient),
		amount,
		[32]byte(refHash),
		uint64(deadline),
	)
	if err != nil {
		return nil, err
	}
	proofBytes := crypto.Keccak256(publicValues)

	deadlineJSON, err := json.Marshal(deadline)
	if err != nil {
		return nil, err
	}

	return &ProveResponse{
		PublicValues: hexutil.Encode(publicValues),
		ProofBytes:   hexutil.Encode(proofBytes),
		IsoRefHash:   refHash.Hex(),
		Deadline:     deadlineJSON,
	}, nil
}
