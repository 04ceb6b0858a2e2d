package core

import "testing"

func contribOn(d Date) Contribution {
	return Contribution{MemberID: "m1", Date: d, Status: StatusCompleted}
}

func TestMissedDays(t *testing.T) {
	today := NewDate(2025, 6, 15)

	tests := []struct {
		name  string
		dates []Date
		want  int
	}{
		{
			name:  "empty ledger - nothing to catch up",
			dates: nil,
			want:  0,
		},
		{
			name:  "contributed every day through yesterday",
			dates: []Date{today.AddDays(-3), today.AddDays(-2), today.AddDays(-1)},
			want:  0,
		},
		{
			name:  "only today - not yet missed",
			dates: []Date{today},
			want:  0,
		},
		{
			name:  "gaps on two of five days",
			dates: []Date{today.AddDays(-5), today.AddDays(-3)},
			want:  3,
		},
		{
			name:  "single contribution a week ago",
			dates: []Date{today.AddDays(-7)},
			want:  6,
		},
		{
			name:  "backdated catch-up reduces the deficit",
			dates: []Date{today.AddDays(-5), today.AddDays(-4), today.AddDays(-3), today.AddDays(-2)},
			want:  1,
		},
		{
			name:  "unordered input",
			dates: []Date{today.AddDays(-1), today.AddDays(-5), today.AddDays(-3)},
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var contribs []Contribution
			for _, d := range tt.dates {
				contribs = append(contribs, contribOn(d))
			}
			got := MissedDays(contribs, today)
			if got != tt.want {
				t.Errorf("MissedDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMissedDaysNeverNegative(t *testing.T) {
	today := NewDate(2025, 6, 15)
	// First contribution is today; the yesterday window is empty.
	contribs := []Contribution{contribOn(today)}
	if got := MissedDays(contribs, today); got != 0 {
		t.Errorf("MissedDays() = %d, want 0", got)
	}
}
