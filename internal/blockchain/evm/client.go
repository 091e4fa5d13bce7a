package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"qrypta/pqc/internal/config"
	"qrypta/pqc/internal/models"
)

// gasBufferPercent is added on top of the node's gas estimate
const gasBufferPercent = 20

// Backend is the subset of the node API used to sign, broadcast and confirm a transaction.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// DialFunc opens a Backend for an RPC endpoint
type DialFunc func(ctx context.Context, rpcURL string) (Backend, error)

// DialEthClient connects to a JSON-RPC endpoint with go-ethereum's ethclient
func DialEthClient(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ParsePrivateKey parses a hex secp256k1 private key (0x prefix optional)
func ParsePrivateKey(credential string) (*ecdsa.PrivateKey, common.Address, error) {
	privateKeyHex := strings.TrimPrefix(strings.TrimSpace(credential), "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		// The underlying error never echoes the key material
		return nil, common.Address{}, models.WrapError(models.KindInvalidCredential, "failed to parse private key", err)
	}

	publicKeyECDSA, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, common.Address{}, models.NewError(models.KindInvalidCredential, "failed to cast public key to ECDSA")
	}

	return privateKey, crypto.PubkeyToAddress(*publicKeyECDSA), nil
}

// Client signs and broadcasts transactions for one chain with one operator key
type Client struct {
	backend     Backend
	chainConfig config.ChainConfig
	privateKey  *ecdsa.PrivateKey
	fromAddress common.Address
	logger      *zap.Logger
}

// NewClient creates a new EVM client for the specified chain
func NewClient(backend Backend, chainCfg config.ChainConfig, privateKey *ecdsa.PrivateKey, logger *zap.Logger) *Client {
	fromAddress := crypto.PubkeyToAddress(privateKey.PublicKey)

	logger.Debug("EVM client initialized",
		zap.String("chain", string(chainCfg.Key)),
		zap.Int64("chain_id", chainCfg.ChainID),
		zap.String("operator_address", fromAddress.Hex()))

	return &Client{
		backend:     backend,
		chainConfig: chainCfg,
		privateKey:  privateKey,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	c.backend.Close()
}

// OperatorAddress returns the operator's address
func (c *Client) OperatorAddress() common.Address {
	return c.fromAddress
}

// SignAndSendTransaction creates, signs, and sends a transaction
func (c *Client) SignAndSendTransaction(
	ctx context.Context,
	to common.Address,
	data []byte,
	value *big.Int,
) (common.Hash, error) {
	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID.Cmp(big.NewInt(c.chainConfig.ChainID)) != 0 {
		return common.Hash{}, fmt.Errorf("chain ID mismatch: node reports %s, %s expects %d",
			chainID, c.chainConfig.Key, c.chainConfig.ChainID)
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.fromAddress)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	gasLimit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  c.fromAddress,
		To:    &to,
		Data:  data,
		Value: value,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	gasLimit = gasLimit * (100 + gasBufferPercent) / 100

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), c.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	c.logger.Info("Transaction sent",
		zap.String("tx_hash", signedTx.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas_limit", gasLimit),
		zap.String("gas_price", gasPrice.String()))

	return signedTx.Hash(), nil
}

// WaitForTransaction polls until the transaction has a receipt or timeout elapses.
// A reverted receipt is returned as-is; interpreting the status is the caller's job.
func (c *Client) WaitForTransaction(ctx context.Context, txHash common.Hash, timeout, pollInterval time.Duration) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			// Cancellation by the caller is not a timeout
			if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, models.WrapError(models.KindBroadcast,
					fmt.Sprintf("interrupted while waiting for transaction %s; it may still be included", txHash.Hex()), ctx.Err())
			}
			return nil, models.WrapError(models.KindConfirmationTimeout,
				fmt.Sprintf("no receipt for transaction %s within %s", txHash.Hex(), timeout), waitCtx.Err())
		case <-ticker.C:
			receipt, err := c.backend.TransactionReceipt(waitCtx, txHash)
			if err == nil && receipt != nil {
				return receipt, nil
			}
			if err != nil && !errors.Is(err, ethereum.NotFound) {
				c.logger.Debug("Receipt poll failed",
					zap.String("tx_hash", txHash.Hex()),
					zap.Error(err))
			}
			// Transaction not yet mined, continue waiting
		}
	}
}
