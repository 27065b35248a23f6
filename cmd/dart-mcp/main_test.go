package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/jsonschema-go/jsonschema"
	goversion "github.com/hashicorp/go-version"

	dartmcp "github.com/kokistudios/dartmcp/internal/mcp"
	"github.com/kokistudios/dartmcp/internal/ui"
)

func TestBuildVersion(t *testing.T) {
	if got := buildVersion(); got != "dev" {
		t.Errorf("buildVersion() = %q, want dev", got)
	}

	commit, date = "abc123", "2026-01-01"
	defer func() { commit, date = "none", "unknown" }()
	if got := buildVersion(); got != "dev (abc123, 2026-01-01)" {
		t.Errorf("buildVersion() = %q", got)
	}
}

func TestSchemaType(t *testing.T) {
	tests := []struct {
		name   string
		schema *jsonschema.Schema
		want   string
	}{
		{"string", &jsonschema.Schema{Type: "string"}, "string"},
		{"nullable boolean", &jsonschema.Schema{Types: []string{"null", "boolean"}}, "boolean"},
		{"string array", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}, "string[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schemaType(tt.schema); got != tt.want {
				t.Errorf("schemaType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToolsMarkdown(t *testing.T) {
	server, err := dartmcp.NewServer(dartmcp.Deps{}, "test")
	if err != nil {
		t.Fatal(err)
	}
	md := toolsMarkdown(server.Tools())

	for _, want := range []string{
		"## dart-analyze",
		"## dart-project-roots",
		"_No parameters._",
		"| `format` | string | yes |",
		"one of: exe, aot-snapshot, jit-snapshot, kernel, js",
		"(default: true)",
		"| `paths` | string[] | yes |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRootRows(t *testing.T) {
	ui.Init(true, false)
	defer ui.Init(false, false)

	tmp := t.TempDir()
	app := filepath.Join(tmp, "app")
	bare := filepath.Join(tmp, "bare")
	os.MkdirAll(app, 0755)
	os.MkdirAll(bare, 0755)
	os.WriteFile(filepath.Join(app, "pubspec.yaml"), []byte("name: app\n"), 0644)

	rows, projects := rootRows([]string{bare, app}, "pubspec.yaml")
	if projects != 1 {
		t.Errorf("projects = %d, want 1", projects)
	}
	want := [][]string{
		{"1", bare, "no"},
		{"2", app, "yes"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if _, projects := rootRows([]string{bare}, "pubspec.yaml"); projects != 0 {
		t.Errorf("expected no projects for a bare working directory, got %d", projects)
	}
}

func TestSDKLabel(t *testing.T) {
	ui.Init(true, false)
	defer ui.Init(false, false)

	if got := sdkLabel(goversion.Must(goversion.NewVersion("3.5.0"))); got != "3.5.0" {
		t.Errorf("sdkLabel(3.5.0) = %q", got)
	}
	if got := sdkLabel(goversion.Must(goversion.NewVersion("2.18.7"))); got != "2.18.7 (minimum 2.19.0)" {
		t.Errorf("sdkLabel(2.18.7) = %q", got)
	}
}
