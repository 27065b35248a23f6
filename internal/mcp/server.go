package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kokistudios/dartmcp/internal/dart"
)

// ServerName is the implementation name reported during the MCP handshake.
const ServerName = "dart-mcp"

// PathResolver turns caller paths into absolute paths.
type PathResolver interface {
	Resolve(input, workingDir string) string
	ResolveAll(inputs []string, workingDir string) []string
}

// Runner executes one toolchain subcommand.
type Runner interface {
	Run(subcommand string, args []string, workingDir string) dart.Result
}

// RootLister exposes the registered project roots.
type RootLister interface {
	List() []string
}

// Deps are the collaborators the tool handlers call into.
type Deps struct {
	Resolver PathResolver
	Executor Runner
	Roots    RootLister
}

// ToolInfo describes a registered tool for listings.
type ToolInfo struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// Server wraps the MCP server with the toolchain handlers.
type Server struct {
	resolver PathResolver
	executor Runner
	roots    RootLister
	server   *mcp.Server
	tools    []ToolInfo
}

// NewServer creates a dart-mcp server with every tool registered.
func NewServer(deps Deps, version string) (*Server, error) {
	s := &Server{
		resolver: deps.Resolver,
		executor: deps.Executor,
		roots:    deps.Roots,
	}

	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}

	s.server = mcp.NewServer(impl, nil)
	if err := s.registerTools(); err != nil {
		return nil, err
	}

	return s, nil
}

// Run starts the MCP server on stdio and blocks until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// Tools returns the registered tools in registration order.
func (s *Server) Tools() []ToolInfo {
	return append([]ToolInfo{}, s.tools...)
}

// schemaTweak adjusts an inferred input schema (enums, defaults).
type schemaTweak func(*jsonschema.Schema)

func enum(prop string, values []string) schemaTweak {
	return func(sc *jsonschema.Schema) {
		p := sc.Properties[prop]
		for _, v := range values {
			p.Enum = append(p.Enum, v)
		}
	}
}

func defaultValue(prop string, v any) schemaTweak {
	return func(sc *jsonschema.Schema) {
		raw, _ := json.Marshal(v)
		sc.Properties[prop].Default = raw
	}
}

func addTool[In any](s *Server, name, description string, h mcp.ToolHandlerFor[In, any], tweaks ...schemaTweak) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("input schema for %s: %w", name, err)
	}
	for _, tweak := range tweaks {
		tweak(schema)
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
	}, h)
	s.tools = append(s.tools, ToolInfo{Name: name, Description: description, Schema: schema})
	return nil
}

// registerTools adds all toolchain tools to the MCP server.
func (s *Server) registerTools() error {
	return errors.Join(
		// dart-analyze - static analysis
		addTool(s, "dart-analyze",
			"Analyze Dart code in a directory or file. Returns the analyzer's diagnostics.",
			s.handleAnalyze),

		// dart-compile - compile to exe, snapshots, kernel or JavaScript
		addTool(s, "dart-compile",
			"Compile Dart to various formats (exe, aot-snapshot, jit-snapshot, kernel, js).",
			s.handleCompile, enum("format", CompileFormats)),

		// dart-create - scaffold a project from a template
		addTool(s, "dart-create",
			"Create a new Dart project from a template. The project is created in output, or in a directory named after projectName.",
			s.handleCreate, enum("template", CreateTemplates), defaultValue("template", defaultTemplate)),

		// dart-doc - API documentation
		addTool(s, "dart-doc",
			"Generate API documentation for a Dart package.",
			s.handleDoc),

		// dart-fix - automated fixes
		addTool(s, "dart-fix",
			"Apply automated fixes to Dart source code. Set apply to false for a dry run that only lists the fixes.",
			s.handleFix, defaultValue("apply", true)),

		// dart-format - formatter
		addTool(s, "dart-format",
			"Idiomatically format Dart source code.",
			s.handleFormat, defaultValue("setExitIfChanged", false)),

		// dart-info - tooling diagnostics
		addTool(s, "dart-info",
			"Show diagnostic information about the installed Dart tooling.",
			s.handleInfo),

		// dart-package - pub commands
		addTool(s, "dart-package",
			"Work with packages through dart pub (get, upgrade, add, remove and so on). Runs in workingDir when given.",
			s.handlePackage, enum("command", PubCommands)),

		// dart-run - run a program
		addTool(s, "dart-run",
			"Run a Dart program. The script path is resolved against workingDir when it is relative.",
			s.handleRun),

		// dart-test - test runner
		addTool(s, "dart-test",
			"Run tests for a project. The test path is resolved against workingDir when it is relative.",
			s.handleTest),

		// dart-project-roots - detected project roots, no process spawned
		addTool(s, "dart-project-roots",
			"List the Dart project roots this server detected at startup, one per line.",
			s.handleProjectRoots),
	)
}
