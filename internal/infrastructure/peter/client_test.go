package peter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("domain"); got != "crypto.ai" {
			t.Errorf("domain query = %q, want crypto.ai", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"domain_name": "crypto.ai",
			"peter_score": 87.5,
			"executive_summary": "Strong on-chain activity.",
			"scores": {
				"on_chain_health": 9,
				"on_chain_liquidity": 7,
				"market_trend": 8,
				"brandability": 10
			}
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, server.Client())
	report, err := c.Report(context.Background(), "crypto.ai")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if report.DomainName != "crypto.ai" || report.PeterScore != 87.5 {
		t.Errorf("unexpected report header: %+v", report)
	}
	if report.Scores.Brandability != 10 || report.Scores.OnChainLiquidity != 7 {
		t.Errorf("unexpected scores: %+v", report.Scores)
	}
}

func TestReport_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL, server.Client())
	if _, err := c.Report(context.Background(), "x.com"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
