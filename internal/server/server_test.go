package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

type stubRunner struct {
	report domain.CycleReport
}

func (s *stubRunner) RunCycle(ctx context.Context) domain.CycleReport {
	return s.report
}

type stubUpdates struct {
	got chan tgbotapi.Update
}

func (s *stubUpdates) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	s.got <- update
}

func newTestServer(report domain.CycleReport) (*Server, *stubUpdates) {
	updates := &stubUpdates{got: make(chan tgbotapi.Update, 1)}
	return New(":0", &stubRunner{report: report}, updates, nil), updates
}

func TestHandleCron_OK(t *testing.T) {
	srv, _ := newTestServer(domain.CycleReport{
		CycleID: "abc", Status: domain.CycleOK, CursorAfter: 7, Delivered: 2,
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cron", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var report domain.CycleReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Status != domain.CycleOK || report.CursorAfter != 7 || report.Delivered != 2 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestHandleCron_FailedIs502(t *testing.T) {
	srv, _ := newTestServer(domain.CycleReport{
		Status: domain.CycleFailed, Error: "event feed unavailable",
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cron", nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestHandleCron_PartialIs200(t *testing.T) {
	srv, _ := newTestServer(domain.CycleReport{Status: domain.CyclePartial, Failed: 1})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cron", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for partial", rec.Code)
	}
}

func TestHandleWebhook_DispatchesUpdate(t *testing.T) {
	srv, updates := newTestServer(domain.CycleReport{})

	body := `{"update_id": 99, "message": {"message_id": 1, "text": "/help"}}`
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bot", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	select {
	case update := <-updates.got:
		if update.UpdateID != 99 {
			t.Errorf("update_id = %d, want 99", update.UpdateID)
		}
	case <-time.After(time.Second):
		t.Fatal("update was not dispatched")
	}
}

func TestHandleWebhook_MalformedBodyStill200(t *testing.T) {
	// Телеграм ретраит не-2xx ответы; мусор в теле не повод для ретраев.
	srv, _ := newTestServer(domain.CycleReport{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bot", strings.NewReader("{garbage")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(domain.CycleReport{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
