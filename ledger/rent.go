package ledger

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date format all dates are stored in.
const DateLayout = "2006-01-02"

// CalculateRent returns the rent accrued by an open loan issued on the
// given date: elapsed whole days times the per-day rate, never negative.
// Display only — issuance eligibility uses MemberDebt, which counts
// returned loans instead.
func (d *Database) CalculateRent(issueDate string) (float64, error) {
	issued, err := time.Parse(DateLayout, issueDate)
	if err != nil {
		return 0, fmt.Errorf("parse issue date %q: %w", issueDate, err)
	}
	rent := float64(daysBetween(issued, d.now())) * d.ratePerDay
	if rent < 0 {
		return 0, nil
	}
	return rent, nil
}

// daysBetween counts whole days elapsed from then to now. Negative when
// then lies in the future.
func daysBetween(then, now time.Time) int {
	return int(now.Sub(then).Hours() / 24)
}

// today formats the clock's current value as a stored calendar date.
func (d *Database) today() string {
	return d.now().Format(DateLayout)
}
