package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cubazon/storefront/internal/config"
	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StockRPCClient calls the server-side transactional stock check. Every
// failure mode, including the per-call timeout, comes back as a transport
// error so the verifier can degrade to its per-item fallback.
type StockRPCClient interface {
	VerifyStock(ctx context.Context, items []models.StockCheckItem) (*models.StockResult, error)
}

type stockRPCClient struct {
	httpClient *http.Client
	cfg        *config.StockRPC
}

func NewStockRPCClient(cfg *config.StockRPC) StockRPCClient {
	return &stockRPCClient{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cfg: cfg,
	}
}

type stockRPCRequest struct {
	Items []models.StockCheckItem `json:"items"`
}

type stockRPCResponse struct {
	AllAvailable bool                    `json:"all_available"`
	Shortfalls   []models.StockShortfall `json:"shortfalls"`
	Message      string                  `json:"message,omitempty"`
}

func (c *stockRPCClient) VerifyStock(ctx context.Context, items []models.StockCheckItem) (*models.StockResult, error) {

	if c.cfg.BaseURL == "" {
		return nil, apperrors.ConfigurationError("Stock RPC endpoint is not configured")
	}

	body, err := json.Marshal(stockRPCRequest{Items: items})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stock check request: %w", err)
	}

	url := fmt.Sprintf("%s/rpc/%s", c.cfg.BaseURL, c.cfg.Function)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build stock check request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.TransportError("Stock check endpoint unreachable").WithError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.TransportError(
			fmt.Sprintf("Stock check failed with status %d", resp.StatusCode))
	}

	var rpcResp stockRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, apperrors.TransportError("Stock check returned a malformed response").WithError(err)
	}

	return &models.StockResult{
		AllAvailable: rpcResp.AllAvailable,
		Degraded:     false,
		Shortfalls:   rpcResp.Shortfalls,
	}, nil
}
