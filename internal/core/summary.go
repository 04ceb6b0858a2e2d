package core

import "github.com/shopspring/decimal"

// GroupStats is the administrator's group-wide view for one month.
type GroupStats struct {
	MemberCount      int
	TotalSavings     decimal.Decimal
	ThisMonthTotal   decimal.Decimal
	ThisMonthCount   int
	PerMemberAverage decimal.Decimal
}

// Summarize folds all members' ledgers into group totals. Administrator
// profiles are excluded from every figure. TotalSavings uses real balances
// (contribution total plus adjustment) regardless of each member's
// visibility flag, since this is the administrator view. The monthly figures
// cover contributions with dates in [monthStart, monthEnd] inclusive.
func Summarize(members []Profile, contributions []Contribution, monthStart, monthEnd Date) GroupStats {
	stats := GroupStats{
		TotalSavings:     decimal.Zero,
		ThisMonthTotal:   decimal.Zero,
		PerMemberAverage: decimal.Zero,
	}

	totals := make(map[string]decimal.Decimal, len(members))
	included := make(map[string]bool, len(members))
	for _, m := range members {
		if m.IsAdmin {
			continue
		}
		included[m.MemberID] = true
		totals[m.MemberID] = decimal.Zero
	}
	stats.MemberCount = len(included)

	for _, c := range contributions {
		if !included[c.MemberID] {
			continue
		}
		totals[c.MemberID] = totals[c.MemberID].Add(c.Amount)
		if c.Date.InRange(monthStart, monthEnd) {
			stats.ThisMonthTotal = stats.ThisMonthTotal.Add(c.Amount)
			stats.ThisMonthCount++
		}
	}

	for _, m := range members {
		if m.IsAdmin {
			continue
		}
		stats.TotalSavings = stats.TotalSavings.Add(AdminBalance(totals[m.MemberID], m.Adjustment))
	}

	if stats.MemberCount > 0 {
		stats.PerMemberAverage = stats.ThisMonthTotal.Div(decimal.NewFromInt(int64(stats.MemberCount)))
	}

	return stats
}
