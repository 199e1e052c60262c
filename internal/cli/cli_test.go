package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunWithArgs("0.1.0-test", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	assert.NoError(t, err)
	assert.Contains(t, output, "pagetrail 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	_ = RunWithArgs("1.2.3", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := strings.TrimSpace(buf.String())

	assert.Equal(t, "pagetrail 1.2.3", output)
}

func TestStatusSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"status"})
	assert.NoError(t, err)
}

func TestSearchSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"search", "test query"})
	assert.NoError(t, err)
}

func TestAddSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"add", "--url", "https://example.com", "--title", "Test"})
	assert.NoError(t, err)
}

func TestServeSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"serve"})
	assert.NoError(t, err)
}

func TestSyncSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"sync", "--enable"})
	assert.NoError(t, err)
}

func TestPurgeSubcommandRecognized(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"purge", "--all"})
	assert.NoError(t, err)
}

func TestAddRequiresURL(t *testing.T) {
	err := RunWithArgs("test", []string{"add", "--title", "Test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--url is required")
}

func TestPurgeRequiresAll(t *testing.T) {
	err := RunWithArgs("test", []string{"purge"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires --all")
}

func TestSyncRequiresAction(t *testing.T) {
	err := RunWithArgs("test", []string{"sync"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to do")
}

func TestSyncEnableDisableConflict(t *testing.T) {
	err := RunWithArgs("test", []string{"sync", "--enable", "--disable"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestSearchFlagsDefaults(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"search", "my query"})
	require.NoError(t, err)

	assert.Equal(t, 100, c.Search.Limit)
	assert.Equal(t, 0, c.Search.Offset)
}

func TestGlobalFlagsJSON(t *testing.T) {
	parser, globals, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"--json", "status"})
	require.NoError(t, err)
	assert.True(t, globals.JSON)
}

func TestGlobalFlagsVerbose(t *testing.T) {
	parser, globals, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"--verbose", "status"})
	require.NoError(t, err)
	assert.True(t, globals.Verbose)
}

func TestGlobalFlagsConfig(t *testing.T) {
	parser, globals, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"--config", "/tmp/test.yaml", "status"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.yaml", globals.Config)
}

func TestUnknownSubcommandFails(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"nonexistent"})
	require.Error(t, err)
}

func TestAllSubcommandsExist(t *testing.T) {
	expected := []string{"status", "search", "add", "serve", "sync", "purge"}
	parser, _, _ := buildParser("test")

	for _, name := range expected {
		cmd := parser.Find(name)
		assert.NotNil(t, cmd, "subcommand %q should exist", name)
	}
}

func TestHelpFlagDoesNotError(t *testing.T) {
	err := RunWithArgs("test", []string{"--help"})
	assert.NoError(t, err)
}

func TestServePortFlag(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"serve", "--port", "9999"})
	require.NoError(t, err)
	assert.Equal(t, 9999, c.Serve.Port)
}

func TestAddTimestampFlag(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"add", "--url", "https://x.com", "--timestamp", "1700000000000"})
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), c.Add.Timestamp)
}

func TestSyncFlags(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"sync", "--push", "--pull"})
	require.NoError(t, err)
	assert.True(t, c.Sync.Push)
	assert.True(t, c.Sync.Pull)
	assert.False(t, c.Sync.Sheets)
}

func TestPurgeForceFlag(t *testing.T) {
	p, _, c := buildParser("test")
	_, err := p.ParseArgs([]string{"purge", "--all", "--force"})
	require.NoError(t, err)
	assert.True(t, c.Purge.All)
	assert.True(t, c.Purge.Force)
}
