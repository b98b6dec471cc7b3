// Package harness sets up App instances for the system tests under
// internal/test/system.
package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/cmdgraph/internal/app"
	"github.com/specialistvlad/cmdgraph/internal/kernels"
	"github.com/specialistvlad/cmdgraph/internal/testutil"
	"github.com/stretchr/testify/require"
)

// WriteRecipe writes files (name to HCL source) into a fresh temporary
// directory and returns it.
func WriteRecipe(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	}
	return dir
}

// Kernels returns a registry with the built-in kernels plus extra.
func Kernels(extra ...kernels.Kernel) *kernels.Registry {
	reg := kernels.Default()
	for _, k := range extra {
		reg.Register(k)
	}
	return reg
}

// SetupAppTest creates a new app instance for system testing. It returns the
// app, its result output and its debug log output.
func SetupAppTest(t *testing.T, cfg app.Config, reg *kernels.Registry) (*app.App, *testutil.SafeBuffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg.LogLevel = "debug"
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	config, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out, logs := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	testApp, err := app.NewApp(out, logs, config, reg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("CMDGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}
