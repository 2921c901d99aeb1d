package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// Текстовые константы для кнопок (чтобы не опечататься)
const (
	BtnWatch  = "➕ Watch a domain"
	BtnList   = "📋 My alerts"
	BtnReport = "🐒 Get a report"
)

type Handler struct {
	bot        *tgbotapi.BotAPI
	subs       domain.SubscriptionRepository
	analyzer   domain.DomainAnalyzer
	websiteURL string
	adminID    int64
	logger     *slog.Logger

	states map[int64]*UserState
	mu     sync.RWMutex
}

type UserState struct {
	Step string // awaiting_watch_domain, awaiting_report_domain
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	subs domain.SubscriptionRepository,
	analyzer domain.DomainAnalyzer,
	websiteURL string,
	adminID int64,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		bot:        bot,
		subs:       subs,
		analyzer:   analyzer,
		websiteURL: websiteURL,
		adminID:    adminID,
		logger:     logger.With("component", "bot"),
		states:     make(map[int64]*UserState),
	}
}

// Start - long-polling режим (локальная разработка, деплой без публичного
// URL). В webhook-режиме апдейты приходят через HandleUpdate.
func (h *Handler) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			go h.HandleUpdate(ctx, update)
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	h.handleMessage(ctx, update.Message)
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	telegramID := msg.From.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.cmdStart(ctx, msg)
		case "watch":
			h.cmdWatch(ctx, msg.Chat.ID, telegramID, msg.CommandArguments())
		case "unwatch":
			h.cmdUnwatch(ctx, msg.Chat.ID, telegramID, msg.CommandArguments())
		case "list":
			h.cmdList(ctx, msg.Chat.ID, telegramID)
		case "report":
			h.cmdReport(ctx, msg.Chat.ID, msg.CommandArguments())
		case "help":
			h.cmdHelp(msg.Chat.ID)
		}
		return
	}

	// Кнопки меню (текстовые сообщения)
	switch msg.Text {
	case BtnWatch:
		h.askFor(msg.Chat.ID, telegramID, "awaiting_watch_domain",
			"✍️ Which domain should I watch? (e.g. `crypto.ai`)")
		return
	case BtnList:
		h.cmdList(ctx, msg.Chat.ID, telegramID)
		return
	case BtnReport:
		h.askFor(msg.Chat.ID, telegramID, "awaiting_report_domain",
			"✍️ Which domain should I analyze?")
		return
	}

	// Обработка состояний
	h.mu.RLock()
	state := h.states[telegramID]
	h.mu.RUnlock()

	if state == nil {
		h.send(msg.Chat.ID, "Use the menu or /help to see what I can do.")
		return
	}

	h.clearState(telegramID)
	input := strings.TrimSpace(msg.Text)

	switch state.Step {
	case "awaiting_watch_domain":
		h.cmdWatch(ctx, msg.Chat.ID, telegramID, input)
	case "awaiting_report_domain":
		h.cmdReport(ctx, msg.Chat.ID, input)
	}
}

// --- Commands ---

func (h *Handler) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	payload := msg.CommandArguments()

	// Deeplink с сайта: watch_crypto_ai_username -> подписка на crypto.ai
	if strings.HasPrefix(payload, "watch_") {
		domainName, username, err := parseWatchPayload(payload)
		if err != nil {
			h.logger.Warn("bad deeplink payload",
				slog.String("payload", payload),
				slog.String("error", err.Error()))
			h.send(msg.Chat.ID, "There was an error processing your subscription link. Please try again from the website.")
			return
		}

		h.logger.Info("watch subscription via deeplink",
			slog.String("domain", domainName),
			slog.String("username", username))

		if err := h.subscribe(ctx, msg.From.ID, domainName); err != nil {
			if errors.Is(err, domain.ErrAlreadySubscribed) {
				h.send(msg.Chat.ID, fmt.Sprintf("You're already watching **%s** 👍", domainName))
				return
			}
			h.send(msg.Chat.ID, "⚠️ Could not save your subscription, please try again later.")
			return
		}

		h.send(msg.Chat.ID, fmt.Sprintf(
			"✅ Welcome, @%s!\n\nYou've successfully subscribed to real-time alerts for **%s**. I'll notify you of any important on-chain events.",
			username, domainName))
		h.showMainMenu(msg.Chat.ID)
		return
	}

	h.send(msg.Chat.ID,
		"Welcome to DomainApe! 🦍\n\nI am your personal domain intelligence agent.\n\nUse `/watch crypto.ai` to get real-time marketplace alerts, or `/report crypto.ai` for an instant AI-powered analysis.")
	h.showMainMenu(msg.Chat.ID)
}

func (h *Handler) cmdWatch(ctx context.Context, chatID, telegramID int64, domainName string) {
	domainName = strings.TrimSpace(domainName)
	if domainName == "" {
		h.send(chatID, "Please provide a domain to watch. Usage: `/watch example.com`")
		return
	}

	if err := h.subscribe(ctx, telegramID, domainName); err != nil {
		if errors.Is(err, domain.ErrAlreadySubscribed) {
			h.send(chatID, fmt.Sprintf("You're already watching **%s** 👍", domainName))
			return
		}
		h.logger.Error("subscribe failed", slog.String("error", err.Error()))
		h.send(chatID, "⚠️ Could not save your subscription, please try again later.")
		return
	}

	h.send(chatID, fmt.Sprintf("✅ Watching **%s**. I'll ping you about listings and sales.", domainName))
}

func (h *Handler) cmdUnwatch(ctx context.Context, chatID, telegramID int64, domainName string) {
	domainName = strings.TrimSpace(domainName)
	if domainName == "" {
		h.send(chatID, "Usage: `/unwatch example.com`")
		return
	}

	if err := h.subs.Delete(ctx, telegramID, domainName); err != nil {
		h.logger.Error("unsubscribe failed", slog.String("error", err.Error()))
		h.send(chatID, "⚠️ Could not remove the subscription, please try again later.")
		return
	}

	h.send(chatID, fmt.Sprintf("🗑 Stopped watching **%s**.", domainName))
}

func (h *Handler) cmdList(ctx context.Context, chatID, telegramID int64) {
	subs, err := h.subs.FindByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("list failed", slog.String("error", err.Error()))
		h.send(chatID, "⚠️ Could not load your subscriptions.")
		return
	}

	if len(subs) == 0 {
		h.send(chatID, "You're not watching any domains yet. Try `/watch crypto.ai`.")
		return
	}

	var b strings.Builder
	b.WriteString("*Your alerts:*\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "• `%s`\n", s.Domain)
	}
	h.send(chatID, b.String())
}

func (h *Handler) cmdReport(ctx context.Context, chatID int64, domainName string) {
	domainName = strings.TrimSpace(domainName)
	if domainName == "" {
		h.send(chatID, "Please provide a domain to analyze. Usage: `/report example.com`")
		return
	}

	// Сразу подтверждаем запрос: анализ может идти до минуты.
	h.send(chatID, fmt.Sprintf("🦍 Analyzing **%s**... This can take up to a minute while the agents conduct live research.", domainName))

	report, err := h.analyzer.Report(ctx, domainName)
	if err != nil {
		h.logger.Error("peter api error", slog.String("error", err.Error()))
		h.send(chatID, fmt.Sprintf("Sorry, I couldn't complete the analysis for *%s*. The intelligence service may be experiencing high load or an error.", domainName))
		return
	}

	reply := tgbotapi.NewMessage(chatID, formatReport(report))
	reply.ParseMode = tgbotapi.ModeMarkdown
	if h.websiteURL != "" {
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL(
					"View Full Interactive Report",
					fmt.Sprintf("%s/dashboard?domain=%s", h.websiteURL, report.DomainName),
				),
			),
		)
	}
	if _, err := h.bot.Send(reply); err != nil {
		h.logger.Error("failed to send report", slog.String("error", err.Error()))
	}
}

func (h *Handler) cmdHelp(chatID int64) {
	h.send(chatID,
		"`/watch domain.com` - subscribe to marketplace alerts\n`/unwatch domain.com` - unsubscribe\n`/list` - show your subscriptions\n`/report domain.com` - full intelligence report")
}

// --- Helpers ---

func (h *Handler) subscribe(ctx context.Context, telegramID int64, domainName string) error {
	return h.subs.Create(ctx, &domain.Subscription{
		TelegramID: telegramID,
		Domain:     domainName,
	})
}

// parseWatchPayload разбирает deeplink вида "watch_crypto_ai_username":
// средние части - домен (точки заменены подчеркиваниями), хвост - username.
func parseWatchPayload(payload string) (domainName, username string, err error) {
	parts := strings.Split(payload, "_")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid watch payload: %q", payload)
	}
	return strings.Join(parts[1:len(parts)-1], "."), parts[len(parts)-1], nil
}

func formatReport(r *domain.DomainReport) string {
	return fmt.Sprintf(`*Peter Intelligence Report for %s* 🐒

*Peter Score™: %.1f/100*

*Executive Summary:*
%s

*Key Scores:*
- On-Chain Health: *%d/10*
- Liquidity Score: *%d/10*
- Market Trend: *%d/10*
- Brandability: *%d/10*`,
		r.DomainName, r.PeterScore, r.ExecutiveSummary,
		r.Scores.OnChainHealth, r.Scores.OnChainLiquidity,
		r.Scores.MarketTrend, r.Scores.Brandability)
}

func (h *Handler) askFor(chatID, telegramID int64, step, prompt string) {
	h.mu.Lock()
	h.states[telegramID] = &UserState{Step: step}
	h.mu.Unlock()
	h.send(chatID, prompt)
}

func (h *Handler) clearState(telegramID int64) {
	h.mu.Lock()
	delete(h.states, telegramID)
	h.mu.Unlock()
}

func (h *Handler) showMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Menu:")
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnWatch),
			tgbotapi.NewKeyboardButton(BtnList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnReport),
		),
	)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("failed to send menu", slog.String("error", err.Error()))
	}
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
	}
}
