package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// --- Fakes ---

type fakeSubs struct {
	mu      sync.Mutex
	created []domain.Subscription
	deleted []string
	listed  []domain.Subscription
	dup     bool
}

func (f *fakeSubs) Create(ctx context.Context, sub *domain.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dup {
		return domain.ErrAlreadySubscribed
	}
	f.created = append(f.created, *sub)
	return nil
}

func (f *fakeSubs) FindByDomain(ctx context.Context, domainName string) ([]domain.Subscription, error) {
	return nil, nil
}

func (f *fakeSubs) FindByTelegramID(ctx context.Context, telegramID int64) ([]domain.Subscription, error) {
	return f.listed, nil
}

func (f *fakeSubs) Delete(ctx context.Context, telegramID int64, domainName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, domainName)
	return nil
}

type fakeAnalyzer struct {
	report *domain.DomainReport
	err    error
}

func (f *fakeAnalyzer) Report(ctx context.Context, domainName string) (*domain.DomainReport, error) {
	return f.report, f.err
}

// fakeTelegram поднимает httptest-сервер вместо api.telegram.org и
// записывает все исходящие sendMessage.
type fakeTelegram struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeTelegram) server(t *testing.T) (*httptest.Server, *tgbotapi.BotAPI) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			_ = r.ParseForm()
			f.mu.Lock()
			f.texts = append(f.texts, r.Form.Get("text"))
			f.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(server.Close)

	api := &tgbotapi.BotAPI{Token: "test-token", Client: server.Client(), Buffer: 100}
	api.SetAPIEndpoint(server.URL + "/bot%s/%s")
	return server, api
}

func (f *fakeTelegram) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func commandMessage(text string, cmdLen int) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7, UserName: "tester"},
		Chat:      &tgbotapi.Chat{ID: 7},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

// --- Tests ---

func TestParseWatchPayload(t *testing.T) {
	cases := []struct {
		payload    string
		wantDomain string
		wantUser   string
		wantErr    bool
	}{
		{"watch_crypto_ai_tester", "crypto.ai", "tester", false},
		{"watch_sub_crypto_ai_tester", "sub.crypto.ai", "tester", false},
		{"watch_tester", "", "", true},
		{"watch", "", "", true},
	}

	for _, tc := range cases {
		d, u, err := parseWatchPayload(tc.payload)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseWatchPayload(%q): expected error", tc.payload)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseWatchPayload(%q): %v", tc.payload, err)
			continue
		}
		if d != tc.wantDomain || u != tc.wantUser {
			t.Errorf("parseWatchPayload(%q) = %q, %q; want %q, %q", tc.payload, d, u, tc.wantDomain, tc.wantUser)
		}
	}
}

func TestFormatReport(t *testing.T) {
	text := formatReport(&domain.DomainReport{
		DomainName:       "crypto.ai",
		PeterScore:       87.5,
		ExecutiveSummary: "Looks strong.",
		Scores:           domain.ReportScores{OnChainHealth: 9, Brandability: 10},
	})

	for _, want := range []string{"crypto.ai", "87.5/100", "Looks strong.", "9/10", "10/10"} {
		if !strings.Contains(text, want) {
			t.Errorf("report %q missing %q", text, want)
		}
	}
}

func TestWatchCommand_CreatesSubscription(t *testing.T) {
	tg := &fakeTelegram{}
	_, api := tg.server(t)
	subs := &fakeSubs{}
	h := NewHandler(api, subs, &fakeAnalyzer{}, "", 0, nil)

	h.handleMessage(context.Background(), commandMessage("/watch crypto.ai", 6))

	if len(subs.created) != 1 {
		t.Fatalf("created %d subscriptions, want 1", len(subs.created))
	}
	if subs.created[0].TelegramID != 7 || subs.created[0].Domain != "crypto.ai" {
		t.Errorf("unexpected subscription: %+v", subs.created[0])
	}
	if sent := tg.sent(); len(sent) != 1 || !strings.Contains(sent[0], "crypto.ai") {
		t.Errorf("unexpected replies: %v", sent)
	}
}

func TestWatchCommand_Duplicate(t *testing.T) {
	tg := &fakeTelegram{}
	_, api := tg.server(t)
	h := NewHandler(api, &fakeSubs{dup: true}, &fakeAnalyzer{}, "", 0, nil)

	h.handleMessage(context.Background(), commandMessage("/watch crypto.ai", 6))

	if sent := tg.sent(); len(sent) != 1 || !strings.Contains(sent[0], "already watching") {
		t.Errorf("expected already-watching reply, got %v", sent)
	}
}

func TestStartCommand_Deeplink(t *testing.T) {
	tg := &fakeTelegram{}
	_, api := tg.server(t)
	subs := &fakeSubs{}
	h := NewHandler(api, subs, &fakeAnalyzer{}, "", 0, nil)

	h.handleMessage(context.Background(), commandMessage("/start watch_crypto_ai_tester", 6))

	if len(subs.created) != 1 || subs.created[0].Domain != "crypto.ai" {
		t.Fatalf("deeplink did not create subscription: %+v", subs.created)
	}
	sent := tg.sent()
	if len(sent) == 0 || !strings.Contains(sent[0], "@tester") {
		t.Errorf("expected welcome mentioning @tester, got %v", sent)
	}
}

func TestUnwatchCommand(t *testing.T) {
	tg := &fakeTelegram{}
	_, api := tg.server(t)
	subs := &fakeSubs{}
	h := NewHandler(api, subs, &fakeAnalyzer{}, "", 0, nil)

	h.handleMessage(context.Background(), commandMessage("/unwatch crypto.ai", 8))

	if len(subs.deleted) != 1 || subs.deleted[0] != "crypto.ai" {
		t.Errorf("unexpected deletions: %v", subs.deleted)
	}
}

func TestReportCommand_AnalyzerFailure(t *testing.T) {
	tg := &fakeTelegram{}
	_, api := tg.server(t)
	h := NewHandler(api, &fakeSubs{}, &fakeAnalyzer{err: context.DeadlineExceeded}, "", 0, nil)

	h.handleMessage(context.Background(), commandMessage("/report crypto.ai", 7))

	sent := tg.sent()
	// Первое сообщение - acknowledgement, второе - извинение.
	if len(sent) != 2 || !strings.Contains(sent[1], "couldn't complete") {
		t.Errorf("unexpected replies: %v", sent)
	}
}
