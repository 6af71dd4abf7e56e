package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// DealerRepository resolves dealer escalation settings and agent contacts.
type DealerRepository struct {
	db *sqlx.DB
}

// NewDealerRepository creates a new dealer repository.
func NewDealerRepository(db *sqlx.DB) *DealerRepository {
	return &DealerRepository{db: db}
}

// GetDealer returns the dealer's auto-cancel policy and contact email.
func (r *DealerRepository) GetDealer(ctx context.Context, id int64) (*models.Dealer, error) {
	var d models.Dealer
	err := r.db.GetContext(ctx, &d, `
		SELECT id, name, COALESCE(email, '') AS email, auto_cancel_for_delivery
		FROM dealers
		WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dealer %d: %w", id, err)
	}
	return &d, nil
}

// GetAgent returns the agent's contact email for escalation notices.
func (r *DealerRepository) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	var a models.Agent
	err := r.db.GetContext(ctx, &a, `
		SELECT id, name, COALESCE(email, '') AS email
		FROM agents
		WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent %d: %w", id, err)
	}
	return &a, nil
}
