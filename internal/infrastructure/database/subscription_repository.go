package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/romanzzaa/domainape-bot/internal/domain"
)

const pqUniqueViolation = "23505"

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create сохраняет подписку. Дубль пары (telegram_id, domain) ловим на
// уникальном индексе и отдаем как domain.ErrAlreadySubscribed.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (telegram_id, domain, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, sub.TelegramID, sub.Domain).
		Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrAlreadySubscribed
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *SubscriptionRepository) FindByDomain(ctx context.Context, domainName string) ([]domain.Subscription, error) {
	query := `
		SELECT id, telegram_id, domain, created_at
		FROM subscriptions
		WHERE domain = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, domainName)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriptions by domain: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func (r *SubscriptionRepository) FindByTelegramID(ctx context.Context, telegramID int64) ([]domain.Subscription, error) {
	query := `
		SELECT id, telegram_id, domain, created_at
		FROM subscriptions
		WHERE telegram_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriptions by user: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func (r *SubscriptionRepository) Delete(ctx context.Context, telegramID int64, domainName string) error {
	query := `DELETE FROM subscriptions WHERE telegram_id = $1 AND domain = $2`

	_, err := r.db.ExecContext(ctx, query, telegramID, domainName)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func scanSubscriptions(rows *sql.Rows) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	for rows.Next() {
		var s domain.Subscription
		if err := rows.Scan(&s.ID, &s.TelegramID, &s.Domain, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
