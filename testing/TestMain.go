package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/ultra-bms/ultra-bms/internal/app"
)

var once sync.Once

// ensureTestMode pins the environment so package tests never reach for
// live infrastructure. Required secrets get throwaway defaults.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ULTRABMS_TEST_MODE", "1")
		for key, value := range map[string]string{
			"SESSION_SECRET": "test-session-secret",
			"CSRF_SECRET":    "test-csrf-secret",
			"GOTENBERG_URL":  "http://127.0.0.1:0",
		} {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, value)
			}
		}
		app.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
