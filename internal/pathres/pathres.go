// Package pathres turns caller-supplied paths into absolute filesystem paths
// suitable for handing to a subprocess.
package pathres

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/kokistudios/dartmcp/internal/ui"
)

// RootLister is the read side of the project root registry.
type RootLister interface {
	List() []string
}

// Context carries what a strategy may consult for one resolution.
type Context struct {
	// Base is the absolute directory relative input is anchored to.
	Base  string
	Roots RootLister
}

// Strategy maps an input to an absolute path, or reports that it does not apply.
type Strategy func(input string, ctx Context) (string, bool)

// Absolute returns absolute input unchanged, whether or not it exists.
func Absolute(input string, _ Context) (string, bool) {
	if filepath.IsAbs(input) {
		return input, true
	}
	return "", false
}

// BaseDir joins input onto the base directory. It always applies.
func BaseDir(input string, ctx Context) (string, bool) {
	return filepath.Join(ctx.Base, input), true
}

// RootProbe is a heuristic fallback for monorepo layouts: when input does not exist
// under the base directory, the first registered root under which it does exist wins.
// Its result depends on registry contents and order.
func RootProbe(input string, ctx Context) (string, bool) {
	if ctx.Roots == nil || exists(filepath.Join(ctx.Base, input)) {
		return "", false
	}
	for _, root := range ctx.Roots.List() {
		candidate := filepath.Join(root, input)
		if exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Resolver applies an ordered list of strategies; the first that applies wins.
type Resolver struct {
	Roots      RootLister
	Strategies []Strategy
	// Getwd reports the process working directory. Defaults to os.Getwd.
	Getwd func() (string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRootProbe inserts RootProbe ahead of the BaseDir baseline.
func WithRootProbe() Option {
	return func(r *Resolver) {
		r.Strategies = []Strategy{Absolute, RootProbe, BaseDir}
	}
}

// WithGetwd overrides how the process working directory is determined.
func WithGetwd(fn func() (string, error)) Option {
	return func(r *Resolver) {
		r.Getwd = fn
	}
}

// New returns a resolver using Absolute then BaseDir.
func New(roots RootLister, opts ...Option) *Resolver {
	r := &Resolver{
		Roots:      roots,
		Strategies: []Strategy{Absolute, BaseDir},
		Getwd:      os.Getwd,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns an absolute path for input, anchored at workingDir or the process
// working directory. Empty input is returned unchanged. Resolve never fails: the
// returned location need not exist.
func (r *Resolver) Resolve(input, workingDir string) string {
	if input == "" {
		return input
	}

	ctx := Context{Base: r.base(workingDir), Roots: r.Roots}
	for _, strategy := range r.Strategies {
		if resolved, ok := strategy(input, ctx); ok {
			ui.Debug("resolved path", "input", input, "resolved", resolved)
			return resolved
		}
	}
	return filepath.Join(ctx.Base, input)
}

// ResolveAll resolves each input against workingDir, preserving order and length.
func (r *Resolver) ResolveAll(inputs []string, workingDir string) []string {
	return lo.Map(inputs, func(p string, _ int) string {
		return r.Resolve(p, workingDir)
	})
}

func (r *Resolver) base(workingDir string) string {
	if filepath.IsAbs(workingDir) {
		return filepath.Clean(workingDir)
	}

	getwd := r.Getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	cwd, err := getwd()
	if err != nil || !filepath.IsAbs(cwd) {
		ui.Debug("cannot determine working directory, anchoring at filesystem root", "err", err)
		cwd = fsRoot()
	}
	return filepath.Join(cwd, workingDir)
}

func fsRoot() string {
	if vol := filepath.VolumeName(os.TempDir()); vol != "" {
		return vol + string(filepath.Separator)
	}
	return string(filepath.Separator)
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
