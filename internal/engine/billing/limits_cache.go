package billing

import (
	"sync"
	"time"

	pkgerrors "rentr/internal/pkg/errors"
	"rentr/internal/platform/models"
	"rentr/internal/platform/repositories"
)

// PlanLimits holds the quota-relevant slice of a plan definition.
type PlanLimits struct {
	PlanKey      string
	BillingModel string
	MaxSeats     int
	MaxMaterials int
}

// LimitsCache serves plan limits on the hot path of every quota check.
// It holds a single map rebuilt from the active plans: a read within the
// freshness window is served from memory, anything older triggers a
// synchronous rebuild. Catalog mutations call Invalidate, which drops the
// map so the next read rebuilds immediately. Worst-case staleness is the
// freshness window; after an explicit mutation it is zero.
type LimitsCache struct {
	planRepo *repositories.PlanRepository

	mu      sync.Mutex
	limits  map[string]PlanLimits
	builtAt time.Time
	ttl     time.Duration
}

func NewLimitsCache(planRepo *repositories.PlanRepository, ttl time.Duration) *LimitsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LimitsCache{
		planRepo: planRepo,
		ttl:      ttl,
	}
}

// GetLimits returns the limits for an active plan. Inactive or unknown plan
// keys yield ErrNotFound.
func (c *LimitsCache) GetLimits(planKey string) (PlanLimits, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limits == nil || time.Since(c.builtAt) > c.ttl {
		if err := c.rebuild(); err != nil {
			return PlanLimits{}, err
		}
	}

	limits, ok := c.limits[planKey]
	if !ok {
		return PlanLimits{}, pkgerrors.ErrNotFound
	}
	return limits, nil
}

// Invalidate drops the cached map. Every plan catalog mutation must call
// this so a subsequent read sees the write.
func (c *LimitsCache) Invalidate() {
	c.mu.Lock()
	c.limits = nil
	c.mu.Unlock()
}

// rebuild is called with the lock held. A rebuild is a pure read of the
// active plans followed by a map swap.
func (c *LimitsCache) rebuild() error {
	plans, err := c.planRepo.FindActive()
	if err != nil {
		return err
	}

	limits := make(map[string]PlanLimits, len(plans))
	for _, plan := range plans {
		limits[plan.PlanKey] = PlanLimits{
			PlanKey:      plan.PlanKey,
			BillingModel: plan.BillingModel,
			MaxSeats:     plan.MaxSeats,
			MaxMaterials: plan.MaxMaterials,
		}
	}

	c.limits = limits
	c.builtAt = time.Now()
	return nil
}

// Allows reports whether a counter at current may grow by one under max,
// where models.Unlimited lifts the ceiling.
func Allows(max, current int) bool {
	return max == models.Unlimited || current+1 <= max
}
