package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacquerai/contracts/internal/testhelper"
)

func TestMain(m *testing.M) {
	testhelper.SilenceLogs()
	os.Exit(m.Run())
}

func TestGetVersion(t *testing.T) {
	version := getVersion()
	assert.Contains(t, version, "dev")
	assert.Contains(t, version, "unknown")
}

func TestInitLogging(t *testing.T) {
	// Test that initLogging doesn't panic
	require.NotPanics(t, func() {
		initLogging()
	})
}

func TestInitConfig(t *testing.T) {
	// Test that initConfig doesn't panic
	require.NotPanics(t, func() {
		initConfig()
	})
}

func TestOutputMode(t *testing.T) {
	resetFlags(t)

	tests := []struct {
		value string
		want  string
	}{
		{"json", "json"},
		{"YAML", "yaml"},
		{"text", "text"},
		{"table", "text"},
		{"", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			require.NoError(t, rootCmd.PersistentFlags().Set("output", tt.value))
			assert.Equal(t, tt.want, outputMode())
		})
	}
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"validate", "lint", "examples", "serve", "schema", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	// Create a copy of the root command to avoid modifying the global one
	cmd := &cobra.Command{
		Use:           root.Use,
		Short:         root.Short,
		Long:          root.Long,
		Run:           root.Run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Copy all subcommands
	for _, subCmd := range root.Commands() {
		cmd.AddCommand(subCmd)
	}

	// Copy flags
	cmd.Flags().AddFlagSet(root.Flags())
	cmd.PersistentFlags().AddFlagSet(root.PersistentFlags())

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(new(bytes.Buffer))
	cmd.SetArgs(args)

	err = cmd.Execute()
	return buf.String(), err
}

// executeCommandWithInput runs a command with stdin bound to input.
func executeCommandWithInput(root *cobra.Command, input string, args ...string) (string, error) {
	stdin := bytes.NewBufferString(input)
	for _, sub := range root.Commands() {
		sub.SetIn(stdin)
	}
	defer func() {
		for _, sub := range root.Commands() {
			sub.SetIn(nil)
		}
	}()
	return executeCommand(root, args...)
}

// resetFlags restores the flags that outlive a single command execution.
func resetFlags(t *testing.T) {
	t.Helper()

	reset := func() {
		_ = rootCmd.PersistentFlags().Set("output", "text")
		_ = rootCmd.PersistentFlags().Set("quiet", "false")
		_ = rootCmd.PersistentFlags().Set("verbose", "false")
		examplesCheck = false
	}
	reset()
	t.Cleanup(reset)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
