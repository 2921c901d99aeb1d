package usecase

import (
	"fmt"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

const (
	labelListed    = "🔥 Just Listed"
	labelPurchased = "📈 Significant Sale"
)

// FormatAlert рендерит Markdown-текст алерта для одного события.
// Неизвестная цена показывается как N/A, событие от этого не теряется.
func FormatAlert(c domain.AlertCandidate) string {
	label := labelListed
	if c.Kind == domain.KindPurchased {
		label = labelPurchased
	}

	price := "N/A"
	if c.Price.Known() {
		price = fmt.Sprintf("%s %s", c.Price.Amount.String(), c.Price.Currency)
	}

	return fmt.Sprintf("%s Alert!\n\n**Domain:** `%s`\n**Price:** %s", label, c.Domain, price)
}
