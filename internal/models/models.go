package models

import (
	"math/big"
	"time"
)

// ChainKey identifies one of the supported target networks
type ChainKey string

const (
	ChainEthereum ChainKey = "eth"
	ChainBNB      ChainKey = "bnb"
)

// SupportedChains lists chain keys in the order they are offered to the operator
var SupportedChains = []ChainKey{ChainBNB, ChainEthereum}

// IsSupported reports whether k is a known chain key
func (k ChainKey) IsSupported() bool {
	for _, c := range SupportedChains {
		if c == k {
			return true
		}
	}
	return false
}

// State represents a stage of a pipeline run
type State string

const (
	StateCollecting           State = "COLLECTING"
	StateValidated            State = "VALIDATED"
	StateDryRunExit           State = "DRY_RUN_EXIT"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateCancelled            State = "CANCELLED"
	StateProving              State = "PROVING"
	StateProved               State = "PROVED"
	StateSubmitting           State = "SUBMITTING"
	StateSubmitted            State = "SUBMITTED"
	StateReported             State = "REPORTED"
	StateFailed               State = "FAILED"
)

// IsTerminal reports whether no further transition can leave s
func (s State) IsTerminal() bool {
	switch s {
	case StateDryRunExit, StateCancelled, StateReported, StateFailed:
		return true
	}
	return false
}

// TransferIntent is the operator's transfer request before proof or submission
type TransferIntent struct {
	Chain          ChainKey
	Recipient      string
	AmountHuman    string // decimal string, e.g. "1.25"
	ReferenceTitle string
}

// ReferenceRecord is the audit snapshot embedded verbatim in the contract call.
// It is built once per intent and never modified afterwards.
type ReferenceRecord struct {
	Project   string
	Title     string
	Chain     ChainKey
	Recipient string
	Amount    string
	CreatedAt time.Time

	encoded string
}

// NewReferenceRecord wraps the fields and their canonical encoding
func NewReferenceRecord(project, title string, chain ChainKey, recipient, amount string, createdAt time.Time, encoded string) ReferenceRecord {
	return ReferenceRecord{
		Project:   project,
		Title:     title,
		Chain:     chain,
		Recipient: recipient,
		Amount:    amount,
		CreatedAt: createdAt,
		encoded:   encoded,
	}
}

// String returns the canonical serialized form
func (r ReferenceRecord) String() string {
	return r.encoded
}

// ProofBundle holds the prover's attestation for an intent
type ProofBundle struct {
	PublicValues  HexBytes
	ProofBytes    HexBytes
	ReferenceHash HexBytes // optional, nil when the prover did not return one
	Deadline      *int64   // optional, unix seconds
}

// SubmissionResult describes a transaction once the network has included it
type SubmissionResult struct {
	TxHash            string
	Status            string // "success" or "reverted", derived from StatusCode only
	StatusCode        uint64
	BlockNumber       uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int // nil when the node does not report it
	LogCount          int
	AmountWei         *big.Int
}

const (
	ReceiptStatusSuccess  = "success"
	ReceiptStatusReverted = "reverted"
)

// Run is a journal entry for a pipeline run that passed the confirmation checkpoint
type Run struct {
	ID           int64   `db:"id"`
	RunID        string  `db:"run_id"`
	Chain        string  `db:"chain"`
	Recipient    string  `db:"recipient"`
	AmountHuman  string  `db:"amount_human"`
	AmountWei    string  `db:"amount_wei"`
	IsoReference string  `db:"iso_reference"`
	State        State   `db:"state"`
	ErrorKind    *string `db:"error_kind"`
	ErrorMessage *string `db:"error_message"`
	TxHash       *string `db:"tx_hash"`
	TxStatus     *string `db:"tx_status"`
	BlockNumber  *int64  `db:"block_number"`
	GasUsed      *int64  `db:"gas_used"`

	CreatedAt time.Time `db:"created_at"`
}
