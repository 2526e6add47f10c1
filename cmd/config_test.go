package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runConfigInit(t *testing.T, home, stdin string) *bytes.Buffer {
	t.Helper()
	t.Setenv("HOME", home)

	tmpInput, err := os.CreateTemp(home, "input")
	if err != nil {
		t.Fatalf("create temp stdin: %v", err)
	}
	defer tmpInput.Close()
	tmpInput.WriteString(stdin)
	tmpInput.Seek(0, 0)

	output := &bytes.Buffer{}
	configInitCmd.SetOut(output)
	configInitCmd.SetErr(output)
	configInitCmd.SetIn(tmpInput)

	if err := configInitCmd.RunE(configInitCmd, []string{}); err != nil {
		t.Fatalf("config init: %v", err)
	}
	return output
}

func TestConfigInitCmd_NewConfig(t *testing.T) {
	tmpDir := t.TempDir()
	runConfigInit(t, tmpDir, "source\nmysql\n127.0.0.1\n3306\ndatasync\n\ntext\n")

	configPath := filepath.Join(tmpDir, ".datasync", "config.yaml")
	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config file should be created at %s: %v", configPath, err)
	}
	contentStr := string(content)

	for _, expected := range []string{
		"connections:", "- name: source", "engine: mysql",
		"host: 127.0.0.1", "port: 3306", "user: datasync",
		"password_env:", "format: text",
	} {
		if !strings.Contains(contentStr, expected) {
			t.Errorf("config should contain %q, content:\n%s", expected, contentStr)
		}
	}

	fileInfo, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat config file: %v", err)
	}
	if perm := fileInfo.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}
}

func TestConfigInitCmd_AlreadyExists_Abort(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".datasync")
	os.MkdirAll(configDir, 0700)
	configPath := filepath.Join(configDir, "config.yaml")
	os.WriteFile(configPath, []byte("existing: config"), 0600)

	output := runConfigInit(t, tmpDir, "n\n")

	content, _ := os.ReadFile(configPath)
	if string(content) != "existing: config" {
		t.Error("config should not be overwritten when user aborts")
	}
	if !strings.Contains(output.String(), "Aborted") {
		t.Errorf("output should indicate abort, got: %s", output.String())
	}
}

func TestConfigInitCmd_AlreadyExists_Overwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".datasync")
	os.MkdirAll(configDir, 0700)
	configPath := filepath.Join(configDir, "config.yaml")
	os.WriteFile(configPath, []byte("old: config"), 0600)

	runConfigInit(t, tmpDir, "y\nsource\npostgres\nlocalhost\n5432\ntestuser\ntestdb\njson\n")

	content, _ := os.ReadFile(configPath)
	contentStr := string(content)
	if !strings.Contains(contentStr, "host: localhost") {
		t.Error("config should contain new host")
	}
	if !strings.Contains(contentStr, "port: 5432") {
		t.Error("config should contain new port")
	}
	if strings.Contains(contentStr, "old: config") {
		t.Error("config should not contain old content")
	}
}

func TestConfigShowCmd_NoConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	cfgFile = ""

	output := &bytes.Buffer{}
	configShowCmd.SetOut(output)
	configShowCmd.SetErr(output)

	if err := configShowCmd.RunE(configShowCmd, []string{}); err != nil {
		t.Fatalf("config show should handle missing config: %v", err)
	}

	result := output.String()
	if !strings.Contains(result, "No config file found") {
		t.Errorf("should indicate no config found, got: %s", result)
	}
	if !strings.Contains(result, "config init") {
		t.Errorf("should suggest running 'config init', got: %s", result)
	}
}

func TestConfigShowCmd_WithConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	content := "connections:\n  - name: source\n    engine: mysql\n    host: testhost\n    port: 3307\nformat: json\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	cfgFile = configPath
	defer func() { cfgFile = "" }()

	output := &bytes.Buffer{}
	configShowCmd.SetOut(output)
	configShowCmd.SetErr(output)

	if err := configShowCmd.RunE(configShowCmd, []string{}); err != nil {
		t.Fatalf("config show should succeed: %v", err)
	}

	result := output.String()
	if !strings.Contains(result, configPath) {
		t.Errorf("should show config file path, got: %s", result)
	}
	if !strings.Contains(result, "testhost") {
		t.Errorf("should show config content, got: %s", result)
	}
}

func TestConfigCmd_Structure(t *testing.T) {
	if configCmd == nil {
		t.Fatal("configCmd should not be nil")
	}
	if configCmd.Use != "config" {
		t.Errorf("configCmd.Use = %q, want %q", configCmd.Use, "config")
	}

	var foundInit, foundShow bool
	for _, c := range configCmd.Commands() {
		switch c.Use {
		case "init":
			foundInit = true
		case "show":
			foundShow = true
		}
	}
	if !foundInit {
		t.Error("configCmd should have 'init' subcommand")
	}
	if !foundShow {
		t.Error("configCmd should have 'show' subcommand")
	}
}

func TestConfigInitCmd_DirectoryCreation(t *testing.T) {
	tmpDir := t.TempDir()
	configDir := filepath.Join(tmpDir, ".datasync")
	if _, err := os.Stat(configDir); !os.IsNotExist(err) {
		t.Fatal("test setup error: .datasync should not exist")
	}

	runConfigInit(t, tmpDir, "\n\n\n\n\n\n\n")

	dirInfo, err := os.Stat(configDir)
	if err != nil {
		t.Fatalf(".datasync directory should be created: %v", err)
	}
	if !dirInfo.IsDir() {
		t.Error(".datasync should be a directory")
	}
	if perm := dirInfo.Mode().Perm(); perm != 0700 {
		t.Errorf(".datasync directory permissions = %o, want 0700", perm)
	}
}

func TestConfigInitCmd_Recommendations(t *testing.T) {
	tmpDir := t.TempDir()
	output := runConfigInit(t, tmpDir, "\n\n\n\ncustomuser\n\n\n")

	result := output.String()
	if !strings.Contains(result, "CREATE USER") {
		t.Error("should show CREATE USER recommendation for non-root user")
	}
	if !strings.Contains(result, "GRANT SELECT") {
		t.Error("should show GRANT recommendations")
	}
}
