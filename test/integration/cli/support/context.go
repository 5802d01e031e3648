package support

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastStdout   string
	LastStderr   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	TempDir string
	envSet  map[string]*string

	// Server state
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   []byte
	LastHTTPHeaders    http.Header
}

// NewTestContext creates a new test context with its own scratch directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "imgmerge-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		TempDir: tempDir,
		envSet:  map[string]*string{},
	}, nil
}

// Cleanup stops the server, restores environment variables and removes the
// scratch directory.
func (testCtx *TestContext) Cleanup() error {
	var errors []error

	if testCtx.HTTPTestServer != nil {
		testCtx.stopTestHTTPServer()
	}

	for name, prev := range testCtx.envSet {
		var err error
		if prev == nil {
			err = os.Unsetenv(name)
		} else {
			err = os.Setenv(name, *prev)
		}
		if err != nil {
			errors = append(errors, fmt.Errorf("failed to restore %s: %w", name, err))
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errors = append(errors, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("cleanup errors: %v", errors)
	}
	return nil
}

// SetEnvVar sets an environment variable for the rest of the scenario.
func (testCtx *TestContext) SetEnvVar(name, value string) error {
	if _, seen := testCtx.envSet[name]; !seen {
		if prev, ok := os.LookupEnv(name); ok {
			testCtx.envSet[name] = &prev
		} else {
			testCtx.envSet[name] = nil
		}
	}
	return os.Setenv(name, value)
}

// Path resolves a scenario-relative file name inside the scratch directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}
