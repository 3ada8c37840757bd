package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testResume = `{
  "contact": {"name": "Ada Lovelace", "email": "ada@example.com"},
  "summary": "Backend engineer.",
  "experience": [{"company": "Acme", "title": "Software Engineer", "achievements": ["Built the billing service"]}],
  "skills": {"technical": ["Go"], "soft": []}
}`

// testEnv is an isolated workspace: a config file pointing every store into
// a temp dir, and a résumé to edit
type testEnv struct {
	dir    string
	config string
	resume string
}

func newTestEnv(t *testing.T, backend string) *testEnv {
	t.Helper()
	// Keep a developer's .env from pointing tests at real services
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("JWT_SECRET", "")

	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		resume: filepath.Join(dir, "resume.json"),
	}
	cfg := fmt.Sprintf(`sqlite_path = %q
artifacts_dir = %q

[history]
backend = %q

[log]
level = "error"
`, filepath.Join(dir, "editor.db"), filepath.Join(dir, "artifacts"), backend)
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0644))
	require.NoError(t, os.WriteFile(env.resume, []byte(testResume), 0644))
	return env
}

// path returns a file name inside the workspace
func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

// run executes the CLI in-process with the workspace config
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.config}, args...)...)
}

// execute runs rootCmd with args and returns everything written to stdout
// and stderr. Flags are reset first because cobra keeps their values
// between executions.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
