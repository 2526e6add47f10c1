package cmd

import "testing"

func TestBuildVaultCommand_Structure(t *testing.T) {
	if buildVaultCmd.Use != "build-vault <name>" {
		t.Errorf("buildVaultCmd.Use = %q", buildVaultCmd.Use)
	}
	if buildVaultCmd.Flags().Lookup("connection") == nil {
		t.Error("build-vault command missing --connection flag")
	}
	if err := buildVaultCmd.Args(buildVaultCmd, []string{}); err == nil {
		t.Error("build-vault should require exactly one positional arg")
	}

	found := false
	for _, c := range rootCmd.Commands() {
		if c == buildVaultCmd {
			found = true
		}
	}
	if !found {
		t.Error("build-vault command should be registered with root command")
	}
}
