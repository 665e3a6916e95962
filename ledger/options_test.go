package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRejectsInvalidOptions(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "opts.db")

	for name, opt := range map[string]Option{
		"nil clock":      WithClock(nil),
		"zero rate":      WithRatePerDay(0),
		"negative rate":  WithRatePerDay(-1),
		"zero limit":     WithDebtLimit(0),
		"negative limit": WithDebtLimit(-100),
		"nil logger":     WithLogger(nil),
	} {
		_, err := NewDatabase(dbPath, opt)
		assert.Error(t, err, name)
	}
}
