package ledger

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Policy defaults, matching the lending rules the library runs on.
const (
	// DefaultRatePerDay is the rental fee charged per day on loan.
	DefaultRatePerDay = 10.0

	// DefaultDebtLimit is the fee total at which further issuance stops.
	DefaultDebtLimit = 500.0
)

// Option configures a Database.
type Option func(*Database) error

// WithClock sets the time source. Issue dates, return dates, rent and debt
// all read from this single clock so one operation never sees two nows.
func WithClock(now func() time.Time) Option {
	return func(d *Database) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		d.now = now
		return nil
	}
}

// WithRatePerDay overrides the per-day rental rate.
func WithRatePerDay(rate float64) Option {
	return func(d *Database) error {
		if rate <= 0 {
			return errors.New("rate per day must be positive")
		}
		d.ratePerDay = rate
		return nil
	}
}

// WithDebtLimit overrides the fee total that blocks new issuances.
func WithDebtLimit(limit float64) Option {
	return func(d *Database) error {
		if limit <= 0 {
			return errors.New("debt limit must be positive")
		}
		d.debtLimit = limit
		return nil
	}
}

// WithLogger sets the operational logger. Business rejections are logged at
// debug level, migrations at info level.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Database) error {
		if log == nil {
			return errors.New("logger must not be nil")
		}
		d.log = log
		return nil
	}
}
