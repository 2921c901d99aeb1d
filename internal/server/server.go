package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// CycleRunner - прогон одного poll-цикла по внешнему запросу.
type CycleRunner interface {
	RunCycle(ctx context.Context) domain.CycleReport
}

// UpdateHandler - обработка входящего Telegram update (webhook-режим).
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// Server - HTTP-граница сервиса: триггер цикла для внешнего шедулера,
// webhook Telegram и healthcheck.
type Server struct {
	runner  CycleRunner
	updates UpdateHandler
	logger  *slog.Logger
	srv     *http.Server
}

func New(addr string, runner CycleRunner, updates UpdateHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:  runner,
		updates: updates,
		logger:  logger.With("component", "http"),
	}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // Цикл может идти долго
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/cron", s.handleCron).Methods(http.MethodPost)
	r.HandleFunc("/api/bot", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// Run блокируется до отмены контекста, затем гасит сервер gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// handleCron запускает один цикл и отдает его отчет. Внешний шедулер
// (Vercel cron, systemd timer) видит исход: 200 для ok/partial, 502 для
// провала фида.
func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	report := s.runner.RunCycle(r.Context())

	code := http.StatusOK
	if report.Status == domain.CycleFailed {
		code = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.logger.Error("failed to write cycle report", slog.String("error", err.Error()))
	}
}

// handleWebhook принимает Telegram update. Отвечаем 200 сразу, обработка
// уходит в фон: Telegram ретраит медленные ответы, плодя дубли апдейтов.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn("malformed webhook payload", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusOK)
		return
	}

	go s.updates.HandleUpdate(context.WithoutCancel(r.Context()), update)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
