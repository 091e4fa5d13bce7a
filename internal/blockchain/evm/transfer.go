package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// QuantumTransferABI is the ABI of the contract method that consumes a proof
const QuantumTransferABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "recipient", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "bytes", "name": "publicValues", "type": "bytes"},
			{"internalType": "bytes", "name": "proofBytes", "type": "bytes"},
			{"internalType": "string", "name": "isoReference", "type": "string"}
		],
		"name": "quantumTransferZK",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// QuantumTransferMethod is the contract method name
const QuantumTransferMethod = "quantumTransferZK"

var quantumTransferABI = mustParseABI(QuantumTransferABI)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("failed to parse quantumTransferZK ABI: %v", err))
	}
	return parsed
}

// TransferCall holds the five ordered arguments of quantumTransferZK
type TransferCall struct {
	Recipient    common.Address
	Amount       *big.Int // base units
	PublicValues []byte
	ProofBytes   []byte
	IsoReference string
}

// PackTransferCall ABI-encodes the call data for quantumTransferZK
func PackTransferCall(call TransferCall) ([]byte, error) {
	data, err := quantumTransferABI.Pack(QuantumTransferMethod,
		call.Recipient,
		call.Amount,
		call.PublicValues,
		call.ProofBytes,
		call.IsoReference,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", QuantumTransferMethod, err)
	}
	return data, nil
}
