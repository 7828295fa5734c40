package calculator

import (
	"errors"

	"UpkeepSentinel/internal/model"
)

// ElapsedDays returns whole logical days from "from" to "to". Negative when "to" is earlier.
func ElapsedDays(from, to model.Day) (int, error) {
	if from.IsZero() || to.IsZero() {
		return 0, errors.New("elapsed days needs two dates")
	}
	return from.DaysUntil(to), nil
}

// Accrue returns base plus one dailyCost per full day elapsed since asOf.
// Elapsed days before asOf count as zero and the result never goes below zero.
func Accrue(base, dailyCost int64, asOf, today model.Day) int64 {
	days, err := ElapsedDays(asOf, today)
	if err != nil || days < 0 {
		days = 0
	}
	if dailyCost < 0 {
		dailyCost = 0
	}
	owed := base + int64(days)*dailyCost
	if owed < 0 {
		return 0
	}
	return owed
}

// Mod2 is n mod 2 in {0, 1}, also for negative n.
func Mod2(n int) int {
	return ((n % 2) + 2) % 2
}
