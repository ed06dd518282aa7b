package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	// rootCmd is shared across tests and pflag values persist between
	// Execute calls; clear the help flag left set by a prior --help run.
	if f := rootCmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
		f.Changed = false
	}
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionSubcommand(t *testing.T) {
	Version = "v9.9.9-test"
	out, err := execRoot(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "vvs-install v9.9.9-test") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestHelpListsInstallFlags(t *testing.T) {
	out, err := execRoot(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, flag := range []string{"--version", "--uninstall", "--install-dir", "--skip-verify"} {
		if !strings.Contains(out, flag) {
			t.Errorf("help output missing %s", flag)
		}
	}
}

func TestRejectsPositionalArgs(t *testing.T) {
	if _, err := execRoot(t, "unexpected-arg"); err == nil {
		t.Fatal("expected error for positional argument")
	}
}
