package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	portsrepo "github.com/Rust-Frog/Accounting-System-sub002/internal/core/ports/repositories"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/middleware"
)

const keyPrefix = "ledger:thresholds:"

// CachedThresholdRepository fronts a threshold repository with redis. Writes go to the
// repository first and then drop the cached copy.
type CachedThresholdRepository struct {
	next  portsrepo.ThresholdRepositoryFacade
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedThresholdRepository wraps next. There is no process-local tier, so every
// replica sees an update as soon as the key is deleted.
func NewCachedThresholdRepository(next portsrepo.ThresholdRepositoryFacade, client *redis.Client, ttl time.Duration) *CachedThresholdRepository {
	return &CachedThresholdRepository{
		next:  next,
		cache: cache.New(&cache.Options{Redis: client}),
		ttl:   ttl,
	}
}

var _ portsrepo.ThresholdRepositoryFacade = (*CachedThresholdRepository)(nil)

// Key is the cache key of a company's thresholds.
func Key(companyID string) string {
	return keyPrefix + companyID
}

func (c *CachedThresholdRepository) GetForCompany(ctx context.Context, companyID string) (domain.EdgeCaseThresholds, error) {
	var (
		th      domain.EdgeCaseThresholds
		loadErr error
	)
	err := c.cache.Once(&cache.Item{
		Ctx:   ctx,
		Key:   Key(companyID),
		Value: &th,
		TTL:   c.ttl,
		Do: func(*cache.Item) (any, error) {
			loaded, err := c.next.GetForCompany(ctx, companyID)
			loadErr = err
			return loaded, err
		},
	})
	switch {
	case loadErr != nil:
		return domain.EdgeCaseThresholds{}, loadErr
	case err == nil:
		return th, nil
	}

	middleware.GetLoggerFromCtx(ctx).Warn("Threshold cache unavailable, reading through",
		slog.String("error", err.Error()),
		slog.String("company_id", companyID))
	return c.next.GetForCompany(ctx, companyID)
}

func (c *CachedThresholdRepository) SaveForCompany(ctx context.Context, thresholds domain.EdgeCaseThresholds) error {
	if err := c.next.SaveForCompany(ctx, thresholds); err != nil {
		return err
	}
	err := c.cache.Delete(ctx, Key(thresholds.CompanyID))
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("failed to invalidate cached thresholds: %w", err)
	}
	return nil
}
