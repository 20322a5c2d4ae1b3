package usecase

import (
	"context"
	"errors"
	"testing"

	"notification-hub/internal/domain"
	"notification-hub/internal/domain/model"
)

func TestRateLimitCheck(t *testing.T) {
	quota := newMemQuotaRepo()
	uc := NewRateLimitUseCase(quota, nil, testLogger())
	user, _ := model.NewUser("", "bob", 2)

	if err := uc.Check(context.Background(), fakeTx{}, user); err != nil {
		t.Fatalf("check under limit: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := uc.Increment(context.Background(), fakeTx{}, user); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	err := uc.Check(context.Background(), fakeTx{}, user)
	if !errors.Is(err, domain.ErrRateLimitExceeded) {
		t.Fatalf("check at limit: err = %v, want ErrRateLimitExceeded", err)
	}
}

func TestRateLimitCheckRequiresTransaction(t *testing.T) {
	uc := NewRateLimitUseCase(newMemQuotaRepo(), nil, testLogger())
	user, _ := model.NewUser("", "bob", 2)

	err := uc.Check(context.Background(), nil, user)
	if !errors.Is(err, domain.ErrTxRequired) {
		t.Fatalf("err = %v, want ErrTxRequired", err)
	}
}

func TestRateLimitIncrementEvictsCache(t *testing.T) {
	quota := newMemQuotaRepo()
	cache := newFakeCache()
	uc := NewRateLimitUseCase(quota, cache, testLogger())
	user, _ := model.NewUser("", "bob", 5)

	// Prime the cache through the read path.
	if n, err := uc.Remaining(context.Background(), user); err != nil || n != 5 {
		t.Fatalf("remaining = %d, %v; want 5, nil", n, err)
	}
	if _, ok := cache.Get(context.Background(), user.ID, model.Today()); !ok {
		t.Fatal("expected cache fill after Remaining")
	}

	if err := uc.Increment(context.Background(), fakeTx{}, user); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if cache.evictions != 1 {
		t.Errorf("evictions = %d, want 1", cache.evictions)
	}
	if _, ok := cache.Get(context.Background(), user.ID, model.Today()); ok {
		t.Error("stale remaining figure left in cache after increment")
	}
	if n, err := uc.Remaining(context.Background(), user); err != nil || n != 4 {
		t.Errorf("remaining = %d, %v; want 4, nil", n, err)
	}
}

func TestRateLimitRemainingPrefersCache(t *testing.T) {
	quota := newMemQuotaRepo()
	cache := newFakeCache()
	uc := NewRateLimitUseCase(quota, cache, testLogger())
	user, _ := model.NewUser("", "bob", 5)

	// A cached value wins even when the repo disagrees.
	if err := cache.Set(context.Background(), user.ID, model.Today(), 3); err != nil {
		t.Fatalf("cache set: %v", err)
	}
	if n, err := uc.Remaining(context.Background(), user); err != nil || n != 3 {
		t.Errorf("remaining = %d, %v; want cached 3, nil", n, err)
	}
}

func TestRateLimitRemainingNeverNegative(t *testing.T) {
	quota := newMemQuotaRepo()
	uc := NewRateLimitUseCase(quota, nil, testLogger())
	user, _ := model.NewUser("", "bob", 1)

	for i := 0; i < 3; i++ {
		if err := uc.Increment(context.Background(), fakeTx{}, user); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if n, err := uc.Remaining(context.Background(), user); err != nil || n != 0 {
		t.Errorf("remaining = %d, %v; want 0, nil", n, err)
	}
}

func TestRateLimitZeroLimitBlocksImmediately(t *testing.T) {
	uc := NewRateLimitUseCase(newMemQuotaRepo(), nil, testLogger())
	user, _ := model.NewUser("", "bob", 0)

	err := uc.Check(context.Background(), fakeTx{}, user)
	if !errors.Is(err, domain.ErrRateLimitExceeded) {
		t.Fatalf("err = %v, want ErrRateLimitExceeded for zero limit", err)
	}
}
