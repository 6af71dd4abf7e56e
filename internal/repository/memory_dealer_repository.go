package repository

import (
	"context"
	"sync"

	"github.com/vinothini1803/rsa-crm-master-service-sub003/internal/models"
)

// MemoryDealerRepository is an in-memory DealerDirectory and AgentDirectory
// for tests.
type MemoryDealerRepository struct {
	mu      sync.RWMutex
	dealers map[int64]*models.Dealer
	agents  map[int64]*models.Agent
}

// NewMemoryDealerRepository creates a new in-memory dealer directory.
func NewMemoryDealerRepository() *MemoryDealerRepository {
	return &MemoryDealerRepository{
		dealers: make(map[int64]*models.Dealer),
		agents:  make(map[int64]*models.Agent),
	}
}

// AddDealer seeds a dealer.
func (r *MemoryDealerRepository) AddDealer(d *models.Dealer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dealers[d.ID] = d
}

// AddAgent seeds an agent.
func (r *MemoryDealerRepository) AddAgent(a *models.Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID] = a
}

// GetDealer returns the seeded dealer or ErrNotFound.
func (r *MemoryDealerRepository) GetDealer(_ context.Context, id int64) (*models.Dealer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dealers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// GetAgent returns the seeded agent or ErrNotFound.
func (r *MemoryDealerRepository) GetAgent(_ context.Context, id int64) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}
