// Package testing switches the process into test mode when imported from a
// test binary so that entry points skip network side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("LEDGER_TEST_MODE", "1")
		if os.Getenv("TAX_MISSING_STATE_POLICY") == "" {
			_ = os.Setenv("TAX_MISSING_STATE_POLICY", "intra")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
