package usecase

import (
	"github.com/romanzzaa/domainape-bot/internal/domain"
)

// Classify превращает сырое событие фида в кандидата на алерт.
// Второй результат false = событие не alertable (игнорируем, но курсор
// через него все равно пройдет).
//
// Извлечение цены толерантное: нет payment-блока или он битый - ставим
// unknown-сентинел (Zero + пустая валюта), а не роняем батч.
func Classify(ev domain.MarketEvent) (domain.AlertCandidate, bool) {
	if !ev.Kind.Alertable() {
		return domain.AlertCandidate{}, false
	}

	cand := domain.AlertCandidate{
		EventID: ev.ID,
		Kind:    ev.Kind,
		Domain:  ev.Name,
	}

	if ev.Payment != nil {
		cand.Price = domain.Price{
			Amount:   ev.Payment.Price,
			Currency: ev.Payment.Currency,
		}
	}

	return cand, true
}
