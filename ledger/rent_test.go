package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRentGrowsWithElapsedDays(t *testing.T) {
	db, clock := clockedDB(t)
	issueDate := clock.Now().Format(DateLayout)

	prev := -1.0
	for day := 0; day <= 30; day++ {
		rent, err := db.CalculateRent(issueDate)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rent, 0.0)
		assert.GreaterOrEqual(t, rent, prev, "rent must not shrink as days pass")
		assert.InDelta(t, float64(day)*DefaultRatePerDay, rent, 0.001)
		prev = rent
		clock.AdvanceDays(1)
	}
}

func TestCalculateRentNeverNegative(t *testing.T) {
	db, clock := clockedDB(t)

	// Issue date in the future clamps to zero instead of going negative.
	future := clock.Now().AddDate(0, 0, 14).Format(DateLayout)
	rent, err := db.CalculateRent(future)
	require.NoError(t, err)
	assert.Zero(t, rent)
}

func TestCalculateRentRejectsBadDate(t *testing.T) {
	db := tempDB(t)

	_, err := db.CalculateRent("01/02/2024")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, daysBetween(base, base))
	assert.Equal(t, 5, daysBetween(base, base.AddDate(0, 0, 5)))
	assert.Equal(t, -5, daysBetween(base.AddDate(0, 0, 5), base))
	// Partial days truncate.
	assert.Equal(t, 1, daysBetween(base, base.Add(36*time.Hour)))
}
