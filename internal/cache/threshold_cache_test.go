package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/cache"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/repositories/memory"
)

type countingThresholds struct {
	*memory.Store
	reads int
	fail  error
}

func (c *countingThresholds) GetForCompany(ctx context.Context, companyID string) (domain.EdgeCaseThresholds, error) {
	c.reads++
	if c.fail != nil {
		return domain.EdgeCaseThresholds{}, c.fail
	}
	return c.Store.GetForCompany(ctx, companyID)
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingThresholds, *cache.CachedThresholdRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	next := &countingThresholds{Store: memory.New(domain.DefaultEdgeCaseThresholds())}
	return mr, next, cache.NewCachedThresholdRepository(next, client, time.Minute)
}

func TestCachedThresholds_SecondReadIsServedFromRedis(t *testing.T) {
	mr, next, repo := setup(t)
	ctx := context.Background()

	first, err := repo.GetForCompany(ctx, "co-1")
	require.NoError(t, err)
	second, err := repo.GetForCompany(ctx, "co-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "co-1", second.CompanyID)
	assert.Equal(t, int64(1_000_000), second.LargeAmountCents)
	assert.Equal(t, 1, next.reads)
	assert.True(t, mr.Exists(cache.Key("co-1")))
}

func TestCachedThresholds_SaveInvalidates(t *testing.T) {
	mr, next, repo := setup(t)
	ctx := context.Background()

	_, err := repo.GetForCompany(ctx, "co-1")
	require.NoError(t, err)

	updated := domain.DefaultEdgeCaseThresholds()
	updated.CompanyID = "co-1"
	updated.ApprovalThresholdCents = 250_000
	require.NoError(t, repo.SaveForCompany(ctx, updated))
	assert.False(t, mr.Exists(cache.Key("co-1")))

	got, err := repo.GetForCompany(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), got.ApprovalThresholdCents)
	assert.Equal(t, 2, next.reads)
}

func TestCachedThresholds_SaveWithoutCachedCopy(t *testing.T) {
	_, _, repo := setup(t)

	th := domain.DefaultEdgeCaseThresholds()
	th.CompanyID = "co-2"
	assert.NoError(t, repo.SaveForCompany(context.Background(), th))
}

func TestCachedThresholds_LoadErrorIsNotCached(t *testing.T) {
	mr, next, repo := setup(t)
	next.fail = errors.New("database down")

	_, err := repo.GetForCompany(context.Background(), "co-1")
	require.Error(t, err)
	assert.EqualError(t, err, "database down")
	assert.Equal(t, 1, next.reads)
	assert.False(t, mr.Exists(cache.Key("co-1")))
}

func TestCachedThresholds_ReadsThroughWhenRedisIsDown(t *testing.T) {
	mr, next, repo := setup(t)
	mr.Close()

	got, err := repo.GetForCompany(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, "co-1", got.CompanyID)
	assert.GreaterOrEqual(t, next.reads, 1)
}
