package peter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// Client - клиент Peter intelligence API (анализ доменов для /report).
type Client struct {
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{apiURL: apiURL, httpClient: httpClient}
}

type reportDTO struct {
	DomainName       string  `json:"domain_name"`
	PeterScore       float64 `json:"peter_score"`
	ExecutiveSummary string  `json:"executive_summary"`
	Scores           struct {
		OnChainHealth    int `json:"on_chain_health"`
		OnChainLiquidity int `json:"on_chain_liquidity"`
		MarketTrend      int `json:"market_trend"`
		Brandability     int `json:"brandability"`
	} `json:"scores"`
}

// Report запрашивает полный отчет по домену. Анализ на их стороне может
// идти до минуты, поэтому таймаут клиента задается снаружи.
func (c *Client) Report(ctx context.Context, domainName string) (*domain.DomainReport, error) {
	reqURL := c.apiURL + "?domain=" + url.QueryEscape(domainName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("peter api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peter api error: status %d", resp.StatusCode)
	}

	var dto reportDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode peter report: %w", err)
	}

	return &domain.DomainReport{
		DomainName:       dto.DomainName,
		PeterScore:       dto.PeterScore,
		ExecutiveSummary: dto.ExecutiveSummary,
		Scores: domain.ReportScores{
			OnChainHealth:    dto.Scores.OnChainHealth,
			OnChainLiquidity: dto.Scores.OnChainLiquidity,
			MarketTrend:      dto.Scores.MarketTrend,
			Brandability:     dto.Scores.Brandability,
		},
	}, nil
}
