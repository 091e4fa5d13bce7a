package prover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"qrypta/pqc/internal/models"
)

// maxErrorBodyBytes bounds how much of a failed response body is kept
const maxErrorBodyBytes = 64 << 10

// Request is the transfer intent as the proving service expects it
type Request struct {
	Chain           models.ChainKey
	Recipient       string
	AmountWei       string
	Reference       string
	Fake            bool
	DeadlineMinutes int
}

// ProveRequest is the JSON body of POST /prove
type ProveRequest struct {
	Chain           string `json:"chain"`
	Recipient       string `json:"recipient"`
	Amount          string `json:"amount"`
	IsoReference    string `json:"isoReference"`
	Fake            bool   `json:"fake"`
	DeadlineMinutes int    `json:"deadlineMinutes,omitempty"`
}

// ProveResponse is the JSON body of a successful POST /prove
type ProveResponse struct {
	PublicValues string          `json:"publicValues"`
	ProofBytes   string          `json:"proofBytes"`
	IsoRefHash   string          `json:"isoRefHash,omitempty"`
	Deadline     json.RawMessage `json:"deadline,omitempty"`
}

// ServiceError is a non-2xx answer from the proving service, or no answer at all (Status 0)
type ServiceError struct {
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("prover unreachable: %s", e.Body)
	}
	return fmt.Sprintf("prover error (%d): %s", e.Status, e.Body)
}

// Client calls the external proving service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a proving service client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("prover"),
	}
}

// RequestProof sends one proving request. It never retries and never caches.
func (c *Client) RequestProof(ctx context.Context, req Request) (*models.ProofBundle, error) {
	body, err := json.Marshal(ProveRequest{
		Chain:           string(req.Chain),
		Recipient:       req.Recipient,
		Amount:          req.AmountWei,
		IsoReference:    req.Reference,
		Fake:            req.Fake,
		DeadlineMinutes: req.DeadlineMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode prove request: %w", err)
	}

	url := c.baseURL + "/prove"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, models.WrapError(models.KindProverService, "failed to build prove request",
			&ServiceError{Status: 0, Body: err.Error()})
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("Requesting proof",
		zap.String("url", url),
		zap.String("chain", string(req.Chain)),
		zap.String("recipient", req.Recipient),
		zap.String("amount_wei", req.AmountWei),
		zap.Bool("fake", req.Fake))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, models.WrapError(models.KindProverService, "prove request failed",
			&ServiceError{Status: 0, Body: err.Error()})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("Prover returned an error",
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)))
		return nil, models.WrapError(models.KindProverService, "proving service rejected the request",
			&ServiceError{Status: resp.StatusCode, Body: text})
	}

	var payload ProveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, models.WrapError(models.KindMalformedProverResponse, "failed to decode prover response", err)
	}

	bundle, err := bundleFromResponse(payload)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Proof received",
		zap.Int("public_values_len", len(bundle.PublicValues)),
		zap.Int("proof_bytes_len", len(bundle.ProofBytes)),
		zap.Bool("has_ref_hash", bundle.ReferenceHash != nil),
		zap.Duration("duration", time.Since(start)))

	return bundle, nil
}

// bundleFromResponse validates and normalizes a decoded response.
// A response that fails any check yields no bundle at all.
func bundleFromResponse(payload ProveResponse) (*models.ProofBundle, error) {
	if strings.TrimSpace(payload.PublicValues) == "" || strings.TrimSpace(payload.ProofBytes) == "" {
		return nil, models.NewError(models.KindMalformedProverResponse,
			"invalid prover response: expected { publicValues, proofBytes }")
	}

	publicValues, err := models.ParseHexBytes(payload.PublicValues)
	if err != nil {
		return nil, models.WrapError(models.KindMalformedProverResponse, "publicValues is not valid hex", err)
	}
	proofBytes, err := models.ParseHexBytes(payload.ProofBytes)
	if err != nil {
		return nil, models.WrapError(models.KindMalformedProverResponse, "proofBytes is not valid hex", err)
	}
	if len(publicValues) == 0 || len(proofBytes) == 0 {
		return nil, models.NewError(models.KindMalformedProverResponse, "publicValues and proofBytes must not be empty")
	}

	bundle := &models.ProofBundle{
		PublicValues: publicValues,
		ProofBytes:   proofBytes,
	}

	// Optional fields are kept only when well-formed
	if payload.IsoRefHash != "" {
		if refHash, err := models.ParseHexBytes(payload.IsoRefHash); err == nil {
			bundle.ReferenceHash = refHash
		}
	}
	if len(payload.Deadline) > 0 && string(payload.Deadline) != "null" {
		var deadline int64
		if err := json.Unmarshal(payload.Deadline, &deadline); err == nil {
			bundle.Deadline = &deadline
		}
	}

	return bundle, nil
}
