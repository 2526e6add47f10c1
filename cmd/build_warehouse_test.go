package cmd

import "testing"

func TestBuildWarehouseCommand_Structure(t *testing.T) {
	if buildWarehouseCmd.Use != "build-warehouse <name>" {
		t.Errorf("buildWarehouseCmd.Use = %q", buildWarehouseCmd.Use)
	}
	if buildWarehouseCmd.Flags().Lookup("connection") == nil {
		t.Error("build-warehouse command missing --connection flag")
	}
	if err := buildWarehouseCmd.Args(buildWarehouseCmd, []string{}); err == nil {
		t.Error("build-warehouse should require exactly one positional arg")
	}
	if err := buildWarehouseCmd.Args(buildWarehouseCmd, []string{"sales"}); err != nil {
		t.Errorf("build-warehouse should accept one positional arg: %v", err)
	}

	found := false
	for _, c := range rootCmd.Commands() {
		if c == buildWarehouseCmd {
			found = true
		}
	}
	if !found {
		t.Error("build-warehouse command should be registered with root command")
	}
}
