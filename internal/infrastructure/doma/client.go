package doma

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

const (
	TestnetBaseURL = "https://api-testnet.doma.xyz"

	pollEndpoint = "/v1/poll"
	apiKeyHeader = "Api-Key"

	// Цены фида - целые с шестью знаками после запятой (USDC-style).
	priceExponent = -6
)

// Client - HTTP-клиент Doma Poll API. Реализует domain.EventFeed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = TestnetBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.With("component", "doma_client"),
	}
}

// Poll забирает до limit последних событий. Любая транспортная ошибка или
// не-2xx статус заворачивается в domain.ErrFeedUnavailable: для цикла это
// фатально, частичный результат использовать нельзя.
func (c *Client) Poll(ctx context.Context, limit int) ([]domain.MarketEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("poll limit must be positive, got %d", limit)
	}

	url := c.baseURL + pollEndpoint + "?limit=" + strconv.Itoa(limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrFeedUnavailable, resp.StatusCode, body)
	}

	var payload pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrFeedUnavailable, err)
	}

	events := make([]domain.MarketEvent, 0, len(payload.Events))
	for _, raw := range payload.Events {
		ev, ok := c.mapEvent(raw)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// mapEvent переводит сырое событие в доменную модель. Событие без
// валидного id пропускаем с warn'ом: без id его нельзя дедуплицировать.
// Битый payment-блок не повод терять событие - просто остаемся без цены.
func (c *Client) mapEvent(raw json.RawMessage) (domain.MarketEvent, bool) {
	var dto eventDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		c.logger.Warn("skipping malformed event", slog.String("error", err.Error()))
		return domain.MarketEvent{}, false
	}
	if dto.ID <= 0 {
		c.logger.Warn("skipping event without id", slog.String("type", dto.Type))
		return domain.MarketEvent{}, false
	}

	ev := domain.MarketEvent{
		ID:      dto.ID,
		Kind:    domain.EventKind(dto.Type),
		Name:    dto.Name,
		Payment: c.mapPayment(dto),
		Raw:     raw,
	}
	return ev, true
}

// mapPayment достает цену из eventData. Любая кривизна блока означает
// "цена неизвестна", но само событие мы не теряем.
func (c *Client) mapPayment(dto eventDTO) *domain.Payment {
	if len(dto.EventData) == 0 {
		return nil
	}

	var ed eventData
	if err := json.Unmarshal(dto.EventData, &ed); err != nil {
		c.logger.Warn("event has malformed eventData, dropping payment",
			slog.Int64("event_id", dto.ID),
			slog.String("error", err.Error()))
		return nil
	}
	if ed.Payment == nil {
		return nil
	}

	amount, err := decimal.NewFromString(ed.Payment.Price.String())
	if err != nil {
		c.logger.Warn("event has unparseable price, dropping payment",
			slog.Int64("event_id", dto.ID),
			slog.String("price", ed.Payment.Price.String()))
		return nil
	}

	return &domain.Payment{
		Price:    amount.Shift(priceExponent),
		Currency: ed.Payment.CurrencySymbol,
	}
}
