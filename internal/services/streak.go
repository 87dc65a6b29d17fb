package services

import (
	"sort"
	"time"
)

// utcDay truncates t to midnight UTC.
func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeStreak returns the current and longest runs of consecutive UTC calendar
// days containing at least one check-in. The current run must end today or
// yesterday (relative to now); otherwise it is 0.
func ComputeStreak(checkIns []time.Time, now time.Time) (current, longest int) {
	if len(checkIns) == 0 {
		return 0, 0
	}

	seen := make(map[time.Time]struct{}, len(checkIns))
	days := make([]time.Time, 0, len(checkIns))
	for _, t := range checkIns {
		d := utcDay(t)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := utcDay(now)
	last := days[len(days)-1]
	if gap := today.Sub(last); gap > 24*time.Hour {
		return 0, longest
	}
	// run is the length of the run that ends at the latest day.
	return run, longest
}
