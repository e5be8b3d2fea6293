package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "ULTRABMS_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeInit sync.Once
)

// InTestMode reports whether runtime side effects (servers, workers,
// external clients) should be skipped. Controlled by ULTRABMS_TEST_MODE=1.
func InTestMode() bool {
	testModeInit.Do(func() {
		testMode.Store(os.Getenv(testModeEnv) == "1")
	})
	return testMode.Load()
}

// RefreshTestMode re-reads the flag after the environment changes.
func RefreshTestMode() {
	testMode.Store(os.Getenv(testModeEnv) == "1")
}
