package roots

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/kokistudios/dartmcp/internal/ui"
)

// DefaultMarker is the file whose presence makes a directory a project root.
const DefaultMarker = "pubspec.yaml"

// DefaultScanDirs lists the directories searched for projects at startup.
// "." is the working directory; "~" expands to the user's home.
var DefaultScanDirs = []string{
	".",
	"~/dev",
	"~/projects",
	"~/workspace",
	"~/Documents",
	"~/src",
}

// DetectOptions configures Detect.
type DetectOptions struct {
	// WorkingDir anchors "." and relative entries. Empty means the process cwd.
	WorkingDir string
	// Home expands "~". Empty means os.UserHomeDir.
	Home     string
	ScanDirs []string
	Marker   string
	// Extra roots registered after the scan, whether or not they hold the marker.
	Extra []string
}

// Detect registers the working directory, then every scan directory (and each of its
// immediate subdirectories) containing the marker file, then the extra roots.
// Unreadable directories are skipped. Registration order follows ScanDirs order.
func Detect(reg *Registry, opts DetectOptions) {
	cwd := opts.WorkingDir
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			ui.Debug("cannot determine working directory", "err", err)
		}
		cwd = wd
	}
	home := opts.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	marker := opts.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	scanDirs := opts.ScanDirs
	if scanDirs == nil {
		scanDirs = DefaultScanDirs
	}

	reg.Register(cwd)

	ui.Debug("detecting project roots", "dirs", len(scanDirs), "marker", marker)

	found := iter.Map(scanDirs, func(dir *string) []string {
		return scanDir(expand(*dir, cwd, home), marker)
	})
	for _, projects := range found {
		for _, p := range projects {
			reg.Register(p)
		}
	}

	for _, extra := range opts.Extra {
		reg.Register(expand(extra, cwd, home))
	}
}

// scanDir returns dir itself when it holds the marker, followed by each immediate
// subdirectory that does, in directory-listing order.
func scanDir(dir, marker string) []string {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var out []string
	if hasFile(dir, marker) {
		out = append(out, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		ui.Debug("skipping unreadable directory", "dir", dir, "err", err)
		return out
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if hasFile(sub, marker) {
			out = append(out, sub)
		}
	}
	return out
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}

// expand turns "~" prefixes into home and anchors relative paths at cwd.
func expand(p, cwd, home string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home == "" {
			return ""
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		if cwd == "" {
			return ""
		}
		p = filepath.Join(cwd, p)
	}
	return filepath.Clean(p)
}
