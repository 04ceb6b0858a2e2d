package services

import (
	"context"
	"fmt"
	"time"

	"horizon/internal/cache"
	"horizon/internal/core"
)

// RecentActivity is one row of the administrator's activity feed.
type RecentActivity struct {
	Contribution core.Contribution
	MemberName   string
}

const statsCacheKey = "group-stats"

// GroupService builds the administrator's group-wide views.
type GroupService struct {
	store GroupStore
	stats *cache.LRUCache[core.GroupStats]
	loc   *time.Location
	now   func() time.Time
}

func NewGroupService(store GroupStore, loc *time.Location) *GroupService {
	if loc == nil {
		loc = time.UTC
	}
	return &GroupService{
		store: store,
		stats: cache.NewLRUCache[core.GroupStats](4, 30*time.Second),
		loc:   loc,
		now:   time.Now,
	}
}

// Stats aggregates the whole group for the current month. The figures
// scan every ledger row, so they are cached briefly; the admin dashboard
// tolerates half a minute of staleness.
func (s *GroupService) Stats(ctx context.Context) (core.GroupStats, error) {
	if cached, ok := s.stats.Get(statsCacheKey); ok {
		return cached, nil
	}

	members, err := s.store.ListProfiles(ctx)
	if err != nil {
		return core.GroupStats{}, fmt.Errorf("list members: %w", err)
	}
	contributions, err := s.store.ListAllContributions(ctx)
	if err != nil {
		return core.GroupStats{}, fmt.Errorf("list contributions: %w", err)
	}

	today := core.DateOf(s.now().In(s.loc))
	start, end := core.MonthRange(today)
	result := core.Summarize(members, contributions, start, end)
	s.stats.Set(statsCacheKey, result)
	return result, nil
}

// Recent returns the newest contributions across the group with member
// names resolved. A contribution whose member record has disappeared is
// listed with an empty name rather than dropped.
func (s *GroupService) Recent(ctx context.Context, limit int) ([]RecentActivity, error) {
	contributions, err := s.store.ListRecentContributions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent contributions: %w", err)
	}
	members, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.MemberID] = m.FullName
	}

	activity := make([]RecentActivity, 0, len(contributions))
	for _, c := range contributions {
		activity = append(activity, RecentActivity{Contribution: c, MemberName: names[c.MemberID]})
	}
	return activity, nil
}
