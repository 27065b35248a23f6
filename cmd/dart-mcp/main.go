package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	goversion "github.com/hashicorp/go-version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kokistudios/dartmcp/internal/config"
	"github.com/kokistudios/dartmcp/internal/dart"
	dartmcp "github.com/kokistudios/dartmcp/internal/mcp"
	"github.com/kokistudios/dartmcp/internal/pathres"
	"github.com/kokistudios/dartmcp/internal/roots"
	"github.com/kokistudios/dartmcp/internal/ui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	noColor bool
	verbose bool
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func main() {
	serveC := serveCmd()

	rootCmd := &cobra.Command{
		Use:   "dart-mcp",
		Short: "Dart toolchain over the Model Context Protocol",
		Long: `dart-mcp exposes the dart CLI (analyze, compile, create, doc, fix, format, info,
pub, run, test) as MCP tools over stdio. With no subcommand it starts the server.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Init(noColor, verbose || ui.Verbose())
		},
		RunE:          serveC.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr (same as "+ui.VerboseEnv+"=1)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)

	serveC.GroupID = "core"
	rootsC := rootsCmd()
	rootsC.GroupID = "core"
	toolsC := toolsCmd()
	toolsC.GroupID = "core"
	doctorC := doctorCmd()
	doctorC.GroupID = "core"

	configC := configCmd()
	configC.GroupID = "config"

	rootCmd.AddCommand(serveC)
	rootCmd.AddCommand(rootsC)
	rootCmd.AddCommand(toolsC)
	rootCmd.AddCommand(doctorC)
	rootCmd.AddCommand(configC)
	rootCmd.AddCommand(completionCmd())

	if err := rootCmd.Execute(); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

// loadConfig reads config.yaml (defaults when absent) and applies environment overrides.
func loadConfig() (*config.Store, error) {
	s, err := config.Load(config.Home())
	if err != nil {
		return nil, fmt.Errorf("cannot load configuration: %w", err)
	}
	s.ApplyEnv()
	if s.Config.Verbose && !verbose {
		verbose = true
		ui.SetVerbose(true)
	}
	return s, nil
}

func detectRoots(cfg config.Config) *roots.Registry {
	reg := roots.NewRegistry()
	roots.Detect(reg, roots.DetectOptions{
		ScanDirs: cfg.Roots.ScanDirs,
		Marker:   cfg.Roots.Marker,
		Extra:    cfg.Roots.Extra,
	})
	return reg
}

func newResolver(cfg config.Config, reg *roots.Registry) *pathres.Resolver {
	var opts []pathres.Option
	if cfg.Resolver.ProbeRoots {
		opts = append(opts, pathres.WithRootProbe())
	}
	return pathres.New(reg, opts...)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Start dart-mcp as a Model Context Protocol server over stdio.

Project roots are detected once at startup. stdout carries the protocol; diagnostics
go to stderr and only appear with --verbose or ` + ui.VerboseEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadConfig()
			if err != nil {
				return err
			}

			exe, err := dart.NewExecutor(s.Config.Dart.Command)
			if err != nil {
				return fmt.Errorf("invalid dart.command: %w", err)
			}
			if path, err := exe.LookPath(); err != nil {
				ui.Debug("dart binary not found; tool calls will report it", "command", exe.Name(), "err", err)
			} else {
				ui.Debug("using dart binary", "path", path)
			}

			reg := detectRoots(s.Config)
			server, err := dartmcp.NewServer(dartmcp.Deps{
				Resolver: newResolver(s.Config, reg),
				Executor: exe,
				Roots:    reg,
			}, version)
			if err != nil {
				return err
			}

			ui.Debug("serving", "roots", reg.Len(), "probe_roots", s.Config.Resolver.ProbeRoots)
			return server.Run(context.Background())
		},
	}
}

func rootsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roots",
		Short: "List the project roots the server would detect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadConfig()
			if err != nil {
				return err
			}
			marker := s.Config.Roots.Marker
			if marker == "" {
				marker = roots.DefaultMarker
			}

			reg := detectRoots(s.Config)
			rows, projects := rootRows(reg.List(), marker)
			ui.Table(os.Stdout, []string{"#", "ROOT", strings.ToUpper(marker)}, rows)
			if projects == 0 {
				ui.EmptyState(fmt.Sprintf("No directory with %s found; paths resolve against the working directory.", marker))
			}
			return nil
		},
	}
}

// rootRows builds the roots table and counts the roots that contain marker.
func rootRows(list []string, marker string) ([][]string, int) {
	projects := 0
	rows := lo.Map(list, func(root string, i int) []string {
		has := ui.Dim("no")
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			has = ui.Green("yes")
			projects++
		}
		return []string{strconv.Itoa(i + 1), root, has}
	})
	return rows, projects
}

func toolsCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Describe the tools exposed over MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := dartmcp.NewServer(dartmcp.Deps{}, version)
			if err != nil {
				return err
			}
			md := toolsMarkdown(server.Tools())
			if raw {
				fmt.Print(md)
				return nil
			}
			ui.RenderMarkdown(os.Stdout, md)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")
	return cmd
}

// toolsMarkdown renders the tool catalog with one parameter table per tool.
func toolsMarkdown(tools []dartmcp.ToolInfo) string {
	var b strings.Builder
	b.WriteString("# dart-mcp tools\n")
	for _, tool := range tools {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", tool.Name, tool.Description)
		if tool.Schema == nil || len(tool.Schema.Properties) == 0 {
			b.WriteString("\n_No parameters._\n")
			continue
		}

		b.WriteString("\n| Parameter | Type | Required | Notes |\n|---|---|---|---|\n")
		names := lo.Keys(tool.Schema.Properties)
		slices.Sort(names)
		for _, name := range names {
			prop := tool.Schema.Properties[name]
			required := ""
			if slices.Contains(tool.Schema.Required, name) {
				required = "yes"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", name, schemaType(prop), required, schemaNotes(prop))
		}
	}
	return b.String()
}

func schemaType(s *jsonschema.Schema) string {
	types := s.Types
	if s.Type != "" {
		types = []string{s.Type}
	}
	types = lo.Without(types, "null")
	t := strings.Join(types, "|")
	if t == "array" && s.Items != nil {
		return schemaType(s.Items) + "[]"
	}
	return t
}

func schemaNotes(s *jsonschema.Schema) string {
	notes := s.Description
	if len(s.Enum) > 0 {
		values := lo.Map(s.Enum, func(v any, _ int) string { return fmt.Sprint(v) })
		notes += " (one of: " + strings.Join(values, ", ") + ")"
	}
	if len(s.Default) > 0 {
		notes += " (default: " + string(s.Default) + ")"
	}
	return strings.TrimSpace(notes)
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the dart binary, SDK version and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.CommandBanner("DOCTOR", "health check")

			home := config.Home()
			issues := config.CheckHealth(home)

			s, err := loadConfig()
			if err != nil {
				// Already reported by CheckHealth; continue with defaults.
				s = &config.Store{Home: home, Config: config.DefaultConfig()}
				s.ApplyEnv()
			}

			ui.SectionHeader("Config")
			ui.Detail("file", s.Path())
			ui.Detail("command", s.Config.Dart.Command)

			ui.SectionHeader("Binary")
			exe, err := dart.NewExecutor(s.Config.Dart.Command)
			if err != nil {
				ui.Detail("binary", ui.Red("invalid command"))
				issues = append(issues, config.Issue{Severity: "error", Message: fmt.Sprintf("dart.command: %v", err)})
			} else if path, err := exe.LookPath(); err != nil {
				ui.Detail("binary", ui.Red("not found"))
				issues = append(issues, config.Issue{Severity: "error", Message: fmt.Sprintf("%s not found on PATH: %v", exe.Name(), err)})
			} else {
				ui.Detail("binary", path)

				ui.SectionHeader("SDK")
				spinner := ui.NewSpinner("Probing SDK version...")
				v, err := exe.SDKVersion()
				spinner.Stop()
				if err != nil {
					ui.Detail("version", ui.Red("unknown"))
					issues = append(issues, config.Issue{Severity: "error", Message: fmt.Sprintf("cannot determine SDK version: %v", err)})
				} else {
					ui.Detail("version", sdkLabel(v))
					if !dart.Supported(v) {
						issues = append(issues, config.Issue{Severity: "warning", Message: fmt.Sprintf("Dart SDK %s is older than %s; some tools may be missing", v, dart.MinimumSDK)})
					}
				}
			}

			ui.SectionHeader("Roots")
			reg := detectRoots(s.Config)
			ui.Detail("detected", strconv.Itoa(reg.Len()))
			fmt.Fprintln(os.Stderr)

			if len(issues) == 0 {
				ui.Success("Everything looks good")
				os.Exit(0)
			}

			hasError := false
			for _, issue := range issues {
				if issue.Severity == "error" {
					ui.Error(fmt.Sprintf("[ERR]  %s", issue.Message))
					hasError = true
				} else {
					ui.Warning(fmt.Sprintf("[WARN] %s", issue.Message))
				}
			}

			if hasError {
				os.Exit(2)
			}
			os.Exit(1)
			return nil
		},
	}
}

// sdkLabel renders v green when it meets MinimumSDK and yellow otherwise.
func sdkLabel(v *goversion.Version) string {
	if dart.Supported(v) {
		return ui.Green(v.String())
	}
	return ui.Yellow(fmt.Sprintf("%s (minimum %s)", v, dart.MinimumSDK))
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit dart-mcp configuration",
	}
	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.Home()
			if err := config.Init(home, force); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Wrote %s", filepath.Join(home, "config.yaml")))
			ui.Info("Change values with 'dart-mcp config set <key> <value>'")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(s.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a dart-mcp configuration value. Valid keys: " + strings.Join(config.ConfigKeys, ", ") + ". List keys take comma-separated values.",
		Example: `  dart-mcp config set dart.command "fvm dart"
  dart-mcp config set roots.extra ~/work/app,~/work/pkg
  dart-mcp config set resolver.probe_roots true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(config.Home())
			if err != nil {
				return err
			}
			if err := s.SetConfigValue(args[0], args[1]); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Set %s = %s", args[0], args[1]))
			ui.Info("Running servers read the config at startup; restart the MCP client to apply it")
			return nil
		},
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish]",
		Short:     "Generate shell completion scripts",
		Example:   "  dart-mcp completion bash > ~/.bashrc.d/dart-mcp\n  dart-mcp completion zsh > ~/.zfunc/_dart-mcp",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			default:
				return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", args[0])
			}
		},
	}
}
