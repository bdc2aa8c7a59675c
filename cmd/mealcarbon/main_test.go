package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/mealcarbon/internal/cli"
	"github.com/rshade/mealcarbon/internal/config"
	"github.com/rshade/mealcarbon/pkg/version"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvProjectDir, filepath.Join(t.TempDir(), "project"))
	t.Setenv(config.EnvLogLevel, "error")
	t.Cleanup(config.ResetGlobalConfigForTest)
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{
			name:     "version",
			args:     []string{"--version"},
			wantCode: cli.ExitOK,
			wantOut:  version.GetVersion(),
		},
		{
			name:     "point estimate",
			args:     []string{"simulate", "--trials", "1", "--meal", "salmon", "--no-progress"},
			wantCode: cli.ExitOK,
			wantOut:  "Meal kit stage",
		},
		{
			name:     "unknown flag",
			args:     []string{"simulate", "--bogus"},
			wantCode: cli.ExitError,
			wantErr:  "unknown flag",
		},
		{
			name:     "unknown meal",
			args:     []string{"simulate", "--trials", "1", "--meal", "Pizza"},
			wantCode: cli.ExitError,
			wantErr:  `unknown meal "Pizza"`,
		},
		{
			name:     "missing dataset",
			args:     []string{"dataset", "validate", "/does/not/exist.yaml"},
			wantCode: cli.ExitError,
			wantErr:  "reading dataset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr.String())
			if tt.wantOut != "" {
				assert.Contains(t, stdout.String(), tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, stderr.String(), tt.wantErr)
			}
		})
	}
}
