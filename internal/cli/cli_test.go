package cli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"detect", "graph", "export", "serve", "browse", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := t.TempDir() + "/pardetect.yaml"
	writeFile(t, path, "cache:\n  backend: none\nlog:\n  level: debug\n")

	c := New(io.Discard, LogInfo)
	c.configPath = path
	if err := c.loadConfig(); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if c.settings().Cache.Backend != "none" {
		t.Errorf("backend = %q", c.settings().Cache.Backend)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug from config", c.Logger.GetLevel())
	}
}

func TestCompletionCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out.String(), "pardetect") {
		t.Error("bash completion does not mention pardetect")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
