package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/models"
)

// SubmitRequest holds everything needed to place one quantumTransferZK call
type SubmitRequest struct {
	Chain       config.ChainConfig
	PrivateKey  string
	Recipient   string
	AmountHuman string
	Proof       models.ProofBundle
	Reference   models.ReferenceRecord
}

// Submitter encodes, signs, broadcasts and confirms quantumTransferZK calls
type Submitter struct {
	dial                DialFunc
	confirmationTimeout time.Duration
	pollInterval        time.Duration
	logger              *zap.Logger
}

// NewSubmitter creates a submitter; a nil dial uses DialEthClient
func NewSubmitter(dial DialFunc, submissionCfg config.SubmissionConfig, logger *zap.Logger) *Submitter {
	if dial == nil {
		dial = DialEthClient
	}
	return &Submitter{
		dial:                dial,
		confirmationTimeout: submissionCfg.ConfirmationTimeout,
		pollInterval:        submissionCfg.PollInterval,
		logger:              logger.Named("submitter"),
	}
}

// Submit places the call and blocks until the network includes it.
// Nothing is retried: a failed broadcast or a missed confirmation ends the attempt.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*models.SubmissionResult, error) {
	amountWei, err := ToBaseUnits(req.AmountHuman)
	if err != nil {
		return nil, err
	}

	privateKey, _, err := ParsePrivateKey(req.PrivateKey)
	if err != nil {
		return nil, err
	}

	data, err := PackTransferCall(TransferCall{
		Recipient:    common.HexToAddress(req.Recipient),
		Amount:       amountWei,
		PublicValues: req.Proof.PublicValues,
		ProofBytes:   req.Proof.ProofBytes,
		IsoReference: req.Reference.String(),
	})
	if err != nil {
		return nil, models.WrapError(models.KindBroadcast, "failed to encode contract call", err)
	}

	backend, err := s.dial(ctx, req.Chain.RPCEndpoint)
	if err != nil {
		return nil, models.WrapError(models.KindBroadcast,
			fmt.Sprintf("failed to connect to %s RPC endpoint", req.Chain.Key), err)
	}
	client := NewClient(backend, req.Chain, privateKey, s.logger)
	defer client.Close()

	contract := common.HexToAddress(req.Chain.ContractAddress)

	s.logger.Info("Calling quantumTransferZK",
		zap.String("chain", string(req.Chain.Key)),
		zap.String("contract", contract.Hex()),
		zap.String("operator", client.OperatorAddress().Hex()),
		zap.String("recipient", req.Recipient),
		zap.String("amount_wei", amountWei.String()),
		zap.Int("public_values_len", len(req.Proof.PublicValues)),
		zap.Int("proof_bytes_len", len(req.Proof.ProofBytes)))

	txHash, err := client.SignAndSendTransaction(ctx, contract, data, big.NewInt(0))
	if err != nil {
		return nil, models.WrapError(models.KindBroadcast, "failed to broadcast quantumTransferZK", err)
	}

	receipt, err := client.WaitForTransaction(ctx, txHash, s.confirmationTimeout, s.pollInterval)
	if err != nil {
		return nil, err
	}

	result := resultFromReceipt(txHash, receipt, amountWei)

	s.logger.Info("quantumTransferZK confirmed",
		zap.String("tx_hash", result.TxHash),
		zap.String("status", result.Status),
		zap.Uint64("block_number", result.BlockNumber),
		zap.Uint64("gas_used", result.GasUsed))

	return result, nil
}

// resultFromReceipt copies receipt fields verbatim; only the status label is derived
func resultFromReceipt(txHash common.Hash, receipt *types.Receipt, amountWei *big.Int) *models.SubmissionResult {
	status := models.ReceiptStatusReverted
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = models.ReceiptStatusSuccess
	}

	var blockNumber uint64
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}

	var effectiveGasPrice *big.Int
	if receipt.EffectiveGasPrice != nil {
		effectiveGasPrice = new(big.Int).Set(receipt.EffectiveGasPrice)
	}

	return &models.SubmissionResult{
		TxHash:            txHash.Hex(),
		Status:            status,
		StatusCode:        receipt.Status,
		BlockNumber:       blockNumber,
		GasUsed:           receipt.GasUsed,
		EffectiveGasPrice: effectiveGasPrice,
		LogCount:          len(receipt.Logs),
		AmountWei:         new(big.Int).Set(amountWei),
	}
}
