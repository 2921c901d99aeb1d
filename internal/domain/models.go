package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// --- Enums & Constants ---

// EventKind - тип события из Doma Poll API (их taxonomy, как есть)
type EventKind string

const (
	KindListed    EventKind = "TOKEN_LISTED"         // Домен выставлен на продажу
	KindPurchased EventKind = "NAME_TOKEN_PURCHASED" // Домен куплен
)

// Alertable сообщает, шлем ли мы уведомления по этому типу события.
func (k EventKind) Alertable() bool {
	return k == KindListed || k == KindPurchased
}

type CycleStatus string

const (
	CycleOK      CycleStatus = "ok"      // Все доставки прошли
	CyclePartial CycleStatus = "partial" // Часть доставок/резолвов упала
	CycleFailed  CycleStatus = "failed"  // Фид недоступен, курсор не тронут
)

// AdvancePolicy - что делать с курсором, если часть доставок упала.
type AdvancePolicy string

const (
	// AdvanceAlways: курсор двигается на max id батча, даже если кто-то
	// не получил сообщение (at-most-once, поведение оригинала).
	AdvanceAlways AdvancePolicy = "always"
	// AdvanceBlockOnFailure: курсор двигается только по префиксу полностью
	// доставленных событий (at-least-once, возможны дубли при ретрае).
	AdvanceBlockOnFailure AdvancePolicy = "block-on-failure"
)

// --- Entities ---

// MarketEvent - сырое событие фида. Immutable после fetch.
type MarketEvent struct {
	ID      int64           // Монотонно растущий id, назначает upstream
	Kind    EventKind       // Строковый enum upstream'а
	Name    string          // Имя домена ("crypto.ai")
	Payment *Payment        // Опциональный блок оплаты
	Raw     json.RawMessage // Исходный payload, не трогаем
}

// Payment - цена события, уже переведенная из fixed-point в decimal.
type Payment struct {
	Price    decimal.Decimal
	Currency string
}

// Subscription - пара (подписчик, домен), уникальна per pair.
// Создается ботом (onboarding), пайплайн ее только читает.
type Subscription struct {
	ID         int64
	TelegramID int64
	Domain     string
	CreatedAt  time.Time
}

// --- Value Objects ---

// Price - цена кандидата на алерт. Unknown-сентинел: Zero + пустая валюта.
type Price struct {
	Amount   decimal.Decimal
	Currency string
}

// Known = false для событий без payment-блока или с битым блоком.
func (p Price) Known() bool {
	return !p.Amount.IsZero() && p.Currency != ""
}

// AlertCandidate - валидированное alertable-событие после классификации.
type AlertCandidate struct {
	EventID int64
	Kind    EventKind
	Domain  string
	Price   Price
}

// DeliveryReport - агрегат исходов доставки одного события.
type DeliveryReport struct {
	EventID     int64
	Delivered   int
	Failed      int
	FailedChats []int64
}

// Clean = true, если ни одна доставка события не упала.
func (r DeliveryReport) Clean() bool { return r.Failed == 0 }

// CycleReport - итог одного poll-цикла, уходит в HTTP-ответ и exit code.
type CycleReport struct {
	CycleID      string      `json:"cycle_id"`
	Status       CycleStatus `json:"status"`
	CursorBefore int64       `json:"cursor_before"`
	CursorAfter  int64       `json:"cursor_after"`
	Fetched      int         `json:"fetched"`
	New          int         `json:"new"`
	Alerts       int         `json:"alerts"`
	Delivered    int         `json:"delivered"`
	Failed       int         `json:"failed"`
	Error        string      `json:"error,omitempty"`
}

// DomainReport - ответ Peter API для команды /report.
type DomainReport struct {
	DomainName       string
	PeterScore       float64
	ExecutiveSummary string
	Scores           ReportScores
}

type ReportScores struct {
	OnChainHealth    int
	OnChainLiquidity int
	MarketTrend      int
	Brandability     int
}
