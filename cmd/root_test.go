package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newTestCmd() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().StringP("format", "f", "", "")
	c.Flags().BoolP("verbose", "v", false, "")
	return c
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	cfgFile = ""
	cfg, err := loadConfig(newTestCmd())
	if err != nil {
		t.Fatalf("loadConfig with no config file: %v", err)
	}
	if cfg.Format != "text" {
		t.Errorf("format = %q, want default %q", cfg.Format, "text")
	}
}

func TestLoadConfig_ReadsFileAndAppliesFlagOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `connections:
  - name: src
    engine: mysql
    host: testhost
    port: 3307
format: json
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfgFile = configPath
	defer func() { cfgFile = "" }()

	c := newTestCmd()
	c.Flags().Set("format", "markdown")

	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	conn, ok := cfg.ConnectionByName("src")
	if !ok || conn.Host != "testhost" || conn.Port != 3307 {
		t.Errorf("connection = %+v, ok=%v", conn, ok)
	}
	if cfg.Format != "markdown" {
		t.Errorf("format = %q, want flag override %q", cfg.Format, "markdown")
	}
}

func TestRootCommand_Use(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}
	if rootCmd.Use != "datasync" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "datasync")
	}
}
