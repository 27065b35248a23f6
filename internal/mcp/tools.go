package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/dartmcp/internal/dart"
	"github.com/kokistudios/dartmcp/internal/ui"
)

// Enumerations accepted by the toolchain tools.
var (
	CompileFormats  = []string{"exe", "aot-snapshot", "jit-snapshot", "kernel", "js"}
	CreateTemplates = []string{"console", "package", "server-shelf", "web"}
	PubCommands     = []string{"get", "upgrade", "outdated", "add", "remove", "publish", "deps", "downgrade", "cache", "run", "global"}
)

const defaultTemplate = "package"

// AnalyzeArgs defines the input for dart-analyze.
type AnalyzeArgs struct {
	Path    string   `json:"path,omitempty" jsonschema:"Directory or file to analyze"`
	Options []string `json:"options,omitempty" jsonschema:"Additional options for the dart analyze command"`
}

// CompileArgs defines the input for dart-compile.
type CompileArgs struct {
	Format  string   `json:"format" jsonschema:"Output format for the compilation"`
	Path    string   `json:"path" jsonschema:"Path to the Dart file to compile"`
	Output  string   `json:"output,omitempty" jsonschema:"Output file path"`
	Options []string `json:"options,omitempty" jsonschema:"Additional compilation options"`
}

// CreateArgs defines the input for dart-create.
type CreateArgs struct {
	Template    string   `json:"template,omitempty" jsonschema:"Template to use for project generation"`
	ProjectName string   `json:"projectName" jsonschema:"Name of the project to create"`
	Output      string   `json:"output,omitempty" jsonschema:"Directory where to create the project (defaults to projectName)"`
	Options     []string `json:"options,omitempty" jsonschema:"Additional project creation options"`
}

// DocArgs defines the input for dart-doc.
type DocArgs struct {
	Path    string   `json:"path,omitempty" jsonschema:"Directory containing the Dart package to document"`
	Output  string   `json:"output,omitempty" jsonschema:"Output directory for the generated documentation"`
	Options []string `json:"options,omitempty" jsonschema:"Additional documentation options"`
}

// FixArgs defines the input for dart-fix. A nil Apply means true.
type FixArgs struct {
	Path    string   `json:"path,omitempty" jsonschema:"Directory or file to apply fixes to"`
	Apply   *bool    `json:"apply,omitempty" jsonschema:"Whether to apply the suggested fixes (false runs a dry run)"`
	Options []string `json:"options,omitempty" jsonschema:"Additional fix options"`
}

// FormatArgs defines the input for dart-format.
type FormatArgs struct {
	Paths            []string `json:"paths" jsonschema:"Files or directories to format"`
	SetExitIfChanged bool     `json:"setExitIfChanged,omitempty" jsonschema:"Return exit code 1 if there are any formatting changes"`
	Options          []string `json:"options,omitempty" jsonschema:"Additional format options"`
}

// InfoArgs defines the input for dart-info.
type InfoArgs struct {
	Options []string `json:"options,omitempty" jsonschema:"Additional info options"`
}

// PackageArgs defines the input for dart-package.
type PackageArgs struct {
	Command    string   `json:"command" jsonschema:"Pub subcommand to execute"`
	Args       []string `json:"args,omitempty" jsonschema:"Arguments for the pub subcommand"`
	WorkingDir string   `json:"workingDir,omitempty" jsonschema:"Working directory for the command"`
}

// RunArgs defines the input for dart-run.
type RunArgs struct {
	Script     string   `json:"script" jsonschema:"Path to the Dart script to run"`
	Args       []string `json:"args,omitempty" jsonschema:"Arguments to pass to the script"`
	WorkingDir string   `json:"workingDir,omitempty" jsonschema:"Working directory for the command"`
}

// TestArgs defines the input for dart-test.
type TestArgs struct {
	Path       string   `json:"path,omitempty" jsonschema:"Path to the test file or directory"`
	Options    []string `json:"options,omitempty" jsonschema:"Additional test options"`
	WorkingDir string   `json:"workingDir,omitempty" jsonschema:"Working directory for the command"`
}

// ProjectRootsArgs is empty: dart-project-roots takes no input.
type ProjectRootsArgs struct{}

// invocation is one toolchain call: subcommand, argv after it, and the directory to run in.
type invocation struct {
	subcommand string
	args       []string
	dir        string
}

func analyzeArgv(r PathResolver, a AnalyzeArgs) invocation {
	var args []string
	if a.Path != "" {
		args = append(args, r.Resolve(a.Path, ""))
	}
	return invocation{subcommand: "analyze", args: append(args, a.Options...)}
}

func compileArgv(r PathResolver, a CompileArgs) invocation {
	args := []string{a.Format, r.Resolve(a.Path, "")}
	if a.Output != "" {
		args = append(args, "-o", r.Resolve(a.Output, ""))
	}
	return invocation{subcommand: "compile", args: append(args, a.Options...)}
}

func createArgv(r PathResolver, a CreateArgs) invocation {
	template := a.Template
	if template == "" {
		template = defaultTemplate
	}
	target := a.Output
	if target == "" {
		target = a.ProjectName
	}
	args := append([]string{"-t", template}, a.Options...)
	return invocation{subcommand: "create", args: append(args, r.Resolve(target, ""))}
}

func docArgv(r PathResolver, a DocArgs) invocation {
	var args []string
	if a.Path != "" {
		args = append(args, r.Resolve(a.Path, ""))
	}
	if a.Output != "" {
		args = append(args, "--output", r.Resolve(a.Output, ""))
	}
	return invocation{subcommand: "doc", args: append(args, a.Options...)}
}

func fixArgv(r PathResolver, a FixArgs) invocation {
	var args []string
	if a.Path != "" {
		args = append(args, r.Resolve(a.Path, ""))
	}
	if a.Apply == nil || *a.Apply {
		args = append(args, "--apply")
	} else {
		args = append(args, "--dry-run")
	}
	return invocation{subcommand: "fix", args: append(args, a.Options...)}
}

func formatArgv(r PathResolver, a FormatArgs) invocation {
	args := r.ResolveAll(a.Paths, "")
	if a.SetExitIfChanged {
		args = append(args, "--set-exit-if-changed")
	}
	return invocation{subcommand: "format", args: append(args, a.Options...)}
}

func infoArgv(a InfoArgs) invocation {
	return invocation{subcommand: "info", args: append([]string{}, a.Options...)}
}

func packageArgv(r PathResolver, a PackageArgs) invocation {
	return invocation{
		subcommand: "pub",
		args:       append([]string{a.Command}, a.Args...),
		dir:        r.Resolve(a.WorkingDir, ""),
	}
}

func runArgv(r PathResolver, a RunArgs) invocation {
	return invocation{
		subcommand: "run",
		args:       append([]string{r.Resolve(a.Script, a.WorkingDir)}, a.Args...),
		dir:        r.Resolve(a.WorkingDir, ""),
	}
}

func testArgv(r PathResolver, a TestArgs) invocation {
	var args []string
	if a.Path != "" {
		args = append(args, r.Resolve(a.Path, a.WorkingDir))
	}
	return invocation{
		subcommand: "test",
		args:       append(args, a.Options...),
		dir:        r.Resolve(a.WorkingDir, ""),
	}
}

// toolResult maps a toolchain result onto the MCP result shape.
func toolResult(res dart.Result) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Text()}},
		IsError: res.Failed(),
	}
}

func (s *Server) invoke(tool string, inv invocation) *mcp.CallToolResult {
	ui.Debug("tool call", "tool", tool, "subcommand", inv.subcommand, "args", strings.Join(inv.args, " "), "dir", inv.dir)
	res := s.executor.Run(inv.subcommand, inv.args, inv.dir)
	if res.Failed() {
		ui.Debug("tool failed", "tool", tool, "stderr", res.Stderr)
	}
	return toolResult(res)
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-analyze", analyzeArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleCompile(ctx context.Context, req *mcp.CallToolRequest, args CompileArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-compile", compileArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleCreate(ctx context.Context, req *mcp.CallToolRequest, args CreateArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-create", createArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleDoc(ctx context.Context, req *mcp.CallToolRequest, args DocArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-doc", docArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleFix(ctx context.Context, req *mcp.CallToolRequest, args FixArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-fix", fixArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleFormat(ctx context.Context, req *mcp.CallToolRequest, args FormatArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-format", formatArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest, args InfoArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-info", infoArgv(args)), nil, nil
}

func (s *Server) handlePackage(ctx context.Context, req *mcp.CallToolRequest, args PackageArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-package", packageArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleRun(ctx context.Context, req *mcp.CallToolRequest, args RunArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-run", runArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleTest(ctx context.Context, req *mcp.CallToolRequest, args TestArgs) (*mcp.CallToolResult, any, error) {
	return s.invoke("dart-test", testArgv(s.resolver, args)), nil, nil
}

func (s *Server) handleProjectRoots(ctx context.Context, req *mcp.CallToolRequest, args ProjectRootsArgs) (*mcp.CallToolResult, any, error) {
	var roots []string
	if s.roots != nil {
		roots = s.roots.List()
	}
	text := strings.Join(roots, "\n")
	if text == "" {
		text = "No project roots registered."
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil, nil
}
