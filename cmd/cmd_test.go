package cmd_test

import (
	"path/filepath"
	"testing"

	"github.com/supmap/navd/cmd"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	tmp := t.TempDir()
	baseCmd := cmd.NewCommand("testing", "default")
	// Avoid port conflicts and keep state out of the working directory
	baseCmd.SetArgs([]string{
		"--http.port", "18090",
		"--http.metrics.port", "18091",
		"--backend.url", "http://localhost:8081",
		"--google_maps.api_key", "dummy",
		"--persistence.database", filepath.Join(tmp, "navd.db"),
		"--session.state_dir", filepath.Join(tmp, "state"),
	})
	err := baseCmd.Execute()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
