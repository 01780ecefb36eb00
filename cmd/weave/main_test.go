package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const widgetUnit = `{
  "version": 1,
  "files": ["Widget.cs"],
  "types": [{
    "kind": "class",
    "name": "Widget",
    "members": [
      {"kind": "method", "name": "Foo", "type": "int", "modifiers": "public",
       "body": {"stmts": [{"kind": "return", "expr": {"kind": "literal", "lit": "int", "text": "42"}}]}},
      {"kind": "method", "name": "Foo_Log", "type": "int",
       "body": {"stmts": [{"kind": "return", "expr": {"kind": "link", "link": {"invoke": true, "hint": "noinline"}}}]}}
    ],
    "overrides": [{"target": {"name": "Foo", "sig": "()"},
                   "layers": [{"member": {"name": "Foo_Log", "sig": "()"}, "aspect": "LogAspect"}]}]
  }]
}`

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in      string
		want    uiMode
		wantErr bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWantsProgressUI(t *testing.T) {
	tests := []struct {
		name  string
		lf    linkFlags
		units int
		want  bool
	}{
		{"forced on", linkFlags{ui: uiModeOn, format: "short"}, 1, true},
		{"forced off", linkFlags{ui: uiModeOff, format: "short"}, 5, false},
		{"quiet wins", linkFlags{ui: uiModeOn, quiet: true, format: "short"}, 5, false},
		{"json wins", linkFlags{ui: uiModeOn, format: "json"}, 5, false},
		{"auto single unit", linkFlags{ui: uiModeAuto, format: "short"}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wantsProgressUI(tt.lf, tt.units); got != tt.want {
				t.Errorf("wantsProgressUI = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkCommandJSON(t *testing.T) {
	dir := t.TempDir()
	unit := filepath.Join(dir, "widget.json")
	if err := os.WriteFile(unit, []byte(widgetUnit), 0o600); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"link", "--ui", "off", "--format", "json", "--report-forwards", "--color", "off", "-o", outDir, unit})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("link: %v\n%s", err, stdout.String())
	}

	var units []jsonUnit
	if err := json.Unmarshal(stdout.Bytes(), &units); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if len(units) != 1 {
		t.Fatalf("units = %+v", units)
	}
	u := units[0]
	if u.Stats.Forwarded != 1 || u.Stats.Generated != 1 {
		t.Errorf("stats = %+v", u.Stats)
	}
	if len(u.Diagnostics) != 1 || u.Diagnostics[0].Code != "LNK1101" {
		t.Errorf("diagnostics = %+v", u.Diagnostics)
	}
	if !strings.Contains(u.Diagnostics[0].Message, "noinline hint") {
		t.Errorf("message = %q", u.Diagnostics[0].Message)
	}
	if _, err := os.Stat(filepath.Join(outDir, "widget.json")); err != nil {
		t.Errorf("linked unit not written: %v", err)
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	info := versionInfo{Version: "1.2.3", GitCommit: "abc"}
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true, showDate: true}); err != nil {
		t.Fatal(err)
	}
	var got versionPayload
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := versionPayload{Tool: "weave", Version: "1.2.3", GitCommit: "abc", BuildDate: "unknown"}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}
