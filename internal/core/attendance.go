package core

// MissedDays derives a member's catch-up deficit from ledger history.
//
// The window runs from the member's earliest contribution through yesterday,
// inclusive on both ends; today never counts as missed, so a member is not
// penalized before the day ends. The result is the number of days in that
// window minus the number of contributions, floored at zero. A backdated
// catch-up contribution reduces the deficit exactly like a same-day one.
// Ledger uniqueness (one contribution per member per date) keeps the plain
// arithmetic sound.
func MissedDays(contributions []Contribution, today Date) int {
	if len(contributions) == 0 {
		return 0
	}

	earliest := contributions[0].Date
	for _, c := range contributions[1:] {
		if c.Date.Before(earliest) {
			earliest = c.Date
		}
	}

	yesterday := today.AddDays(-1)
	expected := DaysBetween(earliest, yesterday) + 1
	if expected < 0 {
		expected = 0
	}

	missed := expected - len(contributions)
	if missed < 0 {
		return 0
	}
	return missed
}
