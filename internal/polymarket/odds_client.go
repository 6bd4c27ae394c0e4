package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"polybet/internal/config"
	"polybet/internal/models"
	"polybet/pkg/ratelimit"
)

// OddsClient - HTTP клиент агрегатора букмекерских линий.
//
// Линии несут маржу букмекера (vig), очистку делает internal/odds.
// Агрегаторы жестко лимитируют бесплатные ключи, поэтому лимитер
// здесь консервативнее, чем у торгового клиента.
type OddsClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.RateLimiter
}

var _ OddsDataSource = (*OddsClient)(nil)

// NewOddsClient создает клиент источника линий
func NewOddsClient(cfg config.OddsConfig) *OddsClient {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.RequestTimeout > 0 {
		httpCfg.TotalTimeout = cfg.RequestTimeout
	}

	return &OddsClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    newHTTPClient(httpCfg),
		limiter: ratelimit.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
	}
}

// oddsPayload - формат ответа агрегатора по одному рынку
type oddsPayload struct {
	MarketID         string  `json:"market_id"`
	TimeToEventHours float64 `json:"time_to_event_hours"`
	Lines            []struct {
		Outcome     string  `json:"outcome"`
		ImpliedProb float64 `json:"implied_prob"`
		Bookmaker   string  `json:"bookmaker"`
	} `json:"lines"`
}

// GetOdds возвращает срезы линий для перечисленных рынков.
// Рынки без линий в ответе просто отсутствуют в карте - это не ошибка.
func (c *OddsClient) GetOdds(ctx context.Context, marketIDs []string) (map[string]models.OddsSnapshot, error) {
	if len(marketIDs) == 0 {
		return map[string]models.OddsSnapshot{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("markets", strings.Join(marketIDs, ","))
	if c.apiKey != "" {
		query.Set("apiKey", c.apiKey)
	}

	reqURL := c.baseURL + "/odds?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET /odds", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "GET /odds", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Message: string(data)}
	case resp.StatusCode != http.StatusOK:
		return nil, &TransportError{
			Op:  "GET /odds",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, data),
		}
	}

	var payload []oddsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	now := time.Now().UTC()
	snapshots := make(map[string]models.OddsSnapshot, len(payload))
	for _, p := range payload {
		snapshot := models.OddsSnapshot{
			MarketID:         p.MarketID,
			TimeToEventHours: p.TimeToEventHours,
			FetchedAt:        now,
		}
		for _, line := range p.Lines {
			snapshot.Lines = append(snapshot.Lines, models.OddsLine{
				Outcome:     line.Outcome,
				ImpliedProb: line.ImpliedProb,
				Bookmaker:   line.Bookmaker,
			})
		}
		snapshots[p.MarketID] = snapshot
	}

	return snapshots, nil
}

// Close освобождает ресурсы клиента
func (c *OddsClient) Close() error {
	if transport, ok := c.http.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
