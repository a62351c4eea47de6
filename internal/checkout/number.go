package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/sanbenito/ferreteria-backend/pkg/config"
)

// Counters roll over daily; the TTL just keeps stale keys from piling up.
const counterTTL = 48 * time.Hour

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// NumberGenerator mints order numbers like PED-20260115-0001, sequential
// within a calendar day.
type NumberGenerator interface {
	Next(ctx context.Context, at time.Time) (string, error)
}

type numberGenerator struct {
	store  counterStore
	prefix string
}

// NewNumberGenerator builds a redis-backed order number generator.
func NewNumberGenerator(store counterStore, cfg config.CheckoutConfig) (NumberGenerator, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store required")
	}
	if cfg.OrderNumberPrefix == "" {
		return nil, fmt.Errorf("order number prefix required")
	}
	return &numberGenerator{store: store, prefix: cfg.OrderNumberPrefix}, nil
}

func (g *numberGenerator) Next(ctx context.Context, at time.Time) (string, error) {
	day := at.UTC().Format("20060102")
	seq, err := g.store.IncrWithTTL(ctx, g.store.CounterKey("orders:"+day), counterTTL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", g.prefix, day, seq), nil
}
