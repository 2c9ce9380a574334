package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ticketdash/internal/config"
	api "ticketdash/pkg/contracts/api/v1"
	"ticketdash/pkg/contracts/domain"
)

// ErrNotFound is returned for unknown or expired dataset IDs.
var ErrNotFound = errors.New("dataset not found")

// Dataset is one loaded spreadsheet.
type Dataset struct {
	ID        string               `json:"id"`
	Table     *domain.TicketTable  `json:"table"`
	Options   domain.FilterOptions `json:"options"`
	CreatedAt time.Time            `json:"created_at"`
	ExpiresAt time.Time            `json:"expires_at"`

	// Pinned datasets never expire.
	Pinned bool `json:"pinned,omitempty"`
}

// Info summarizes d.
func (d *Dataset) Info() api.DatasetInfo {
	info := api.DatasetInfo{
		ID:        d.ID,
		Source:    d.Table.Source,
		Rows:      d.Table.Len(),
		Columns:   d.Table.Columns,
		CreatedAt: d.CreatedAt,
	}
	if !d.ExpiresAt.IsZero() {
		expires := d.ExpiresAt
		info.ExpiresAt = &expires
	}
	return info
}

// Store persists datasets by ID.
type Store interface {
	// Put stores d, setting ExpiresAt from the store's TTL unless d is
	// pinned. created is false when d replaced a dataset with the same ID.
	Put(ctx context.Context, d *Dataset) (created bool, err error)
	Get(ctx context.Context, id string) (*Dataset, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// New builds the configured backend.
func New(cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", config.StoreBackendMemory:
		return NewMemoryStore(cfg.TTL, logger), nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.KeyPrefix, cfg.TTL, logger), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
