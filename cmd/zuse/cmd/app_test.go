package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	body = strings.ReplaceAll(body, "@DIR@", dir)
	path := filepath.Join(dir, "zuse.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })
}

func TestNewAppInstallsConfiguredModules(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		present []string
		absent  []string
	}{
		{
			name: "all modules with journal",
			config: `
[general]
data_dir = "@DIR@/data"
log_level = "error"

[interpreter]
modules = ["core", "control", "script", "pipe"]

[pipe]
socket_dir = "@DIR@"
transport = "line"

[journal]
enabled = true
path = "@DIR@/data/journal.db"
`,
			present: []string{"Echo", "If", "RunScript", "PipeSend", "JournalList"},
			absent:  []string{"Async", "Parallel"},
		},
		{
			name: "core only",
			config: `
[general]
data_dir = "@DIR@/data"
log_level = "error"

[interpreter]
modules = ["core"]

[pipe]
socket_dir = "@DIR@"
`,
			present: []string{"Echo", "LoadModule"},
			absent:  []string{"If", "RunScript", "PipeSend", "JournalList"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeConfig(t, tt.config)
			a, err := newApp()
			if err != nil {
				t.Fatalf("newApp() error = %v", err)
			}
			defer a.Close()

			for _, name := range tt.present {
				if !a.interp.HasCommand(name) {
					t.Errorf("command %s missing", name)
				}
			}
			for _, name := range tt.absent {
				if a.interp.HasCommand(name) {
					t.Errorf("command %s should not be installed", name)
				}
			}
			if a.runner == nil || a.bridge == nil {
				t.Error("runner and bridge must always exist")
			}
		})
	}
}

func TestNewAppRejectsBadConfig(t *testing.T) {
	writeConfig(t, `
[pipe]
transport = "carrier-pigeon"
`)
	if _, err := newApp(); err == nil {
		t.Fatal("newApp() should reject an unknown transport")
	}
}

func TestAppScriptAndPipeRoundTrip(t *testing.T) {
	writeConfig(t, `
[general]
data_dir = "@DIR@/data"
log_level = "error"

[pipe]
socket_dir = "@DIR@"
transport = "line"
`)
	a, err := newApp()
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()

	script := filepath.Join(t.TempDir(), "init.zs")
	if err := os.WriteFile(script, []byte("Global greeting hello\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	report, err := a.runner.RunFile(a.interp.NewThread(), script)
	if err != nil || report.Err() != nil {
		t.Fatalf("RunFile() = %v, %v", err, report.Err())
	}

	if _, err := a.bridge.CreatePipeServer("app", ""); err != nil {
		t.Fatalf("CreatePipeServer() error = %v", err)
	}
	client, err := a.bridge.CreatePipeClient("app", "cli")
	if err != nil {
		t.Fatalf("CreatePipeClient() error = %v", err)
	}
	got, err := client.GetServerResponse("Echo $greeting")
	if err != nil || got != "hello" {
		t.Errorf("GetServerResponse() = %q, %v, want hello", got, err)
	}
}
