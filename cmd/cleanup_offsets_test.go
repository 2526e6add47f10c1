package cmd

import "testing"

func TestCleanupOffsetsCommand_Structure(t *testing.T) {
	if cleanupOffsetsCmd.Use != "cleanup-offsets" {
		t.Errorf("cleanupOffsetsCmd.Use = %q", cleanupOffsetsCmd.Use)
	}

	found := false
	for _, c := range rootCmd.Commands() {
		if c == cleanupOffsetsCmd {
			found = true
		}
	}
	if !found {
		t.Error("cleanup-offsets command should be registered with root command")
	}
}
