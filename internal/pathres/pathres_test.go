package pathres

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kokistudios/dartmcp/internal/roots"
)

type spyRoots struct {
	roots []string
	calls int
}

func (s *spyRoots) List() []string {
	s.calls++
	return s.roots
}

func fixedWd(dir string) Option {
	return WithGetwd(func() (string, error) { return dir, nil })
}

func abs(p string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(`C:\`, filepath.FromSlash(p))
	}
	return p
}

func TestResolveEmptyPassthrough(t *testing.T) {
	spy := &spyRoots{roots: []string{"/r"}}
	r := New(spy, WithRootProbe(), fixedWd(abs("/mock/cwd")))

	if got := r.Resolve("", ""); got != "" {
		t.Errorf("Resolve(\"\") = %q, want empty", got)
	}
	if got := r.Resolve("", abs("/custom")); got != "" {
		t.Errorf("Resolve(\"\", wd) = %q, want empty", got)
	}
	if spy.calls != 0 {
		t.Errorf("expected no registry lookups for empty input, got %d", spy.calls)
	}
}

func TestResolveAbsoluteIdentity(t *testing.T) {
	r := New(nil, fixedWd(abs("/mock/cwd")))
	p := abs("/some/absolute/path/that/does/not/exist")
	for _, wd := range []string{"", abs("/custom/dir"), "relative"} {
		if got := r.Resolve(p, wd); got != p {
			t.Errorf("Resolve(%q, %q) = %q, want identity", p, wd, got)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	r := New(nil, fixedWd(abs("/mock/cwd")))

	tests := []struct {
		name  string
		input string
		wd    string
		want  string
	}{
		{"against cwd", "relative/path", "", "/mock/cwd/relative/path"},
		{"against working dir", "relative/path", abs("/custom/dir"), "/custom/dir/relative/path"},
		{"dot segments", "./lib/../test/x_test.dart", abs("/proj"), "/proj/test/x_test.dart"},
		{"parent escape", "../sibling", abs("/proj/app"), "/proj/sibling"},
		{"relative working dir", "lib", "apps/web", "/mock/cwd/apps/web/lib"},
		{"dot", ".", abs("/proj"), "/proj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.input, tt.wd); got != abs(tt.want) {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.input, tt.wd, got, abs(tt.want))
			}
		})
	}
}

func TestResolveNonexistentScenario(t *testing.T) {
	r := New(roots.NewRegistry(), fixedWd(abs("/elsewhere")))
	got := r.Resolve("lib/main.dart", abs("/proj"))
	if got != abs("/proj/lib/main.dart") {
		t.Errorf("got %q, want /proj/lib/main.dart", got)
	}
}

func TestResolveAlwaysAbsolute(t *testing.T) {
	inputs := []string{"a", "a/b/c.dart", "../../..", ".", "~/x", "weird name.dart"}
	wds := []string{"", "rel", abs("/abs")}

	r := New(nil)
	for _, in := range inputs {
		for _, wd := range wds {
			if got := r.Resolve(in, wd); !filepath.IsAbs(got) {
				t.Errorf("Resolve(%q, %q) = %q is not absolute", in, wd, got)
			}
		}
	}
}

func TestResolveGetwdFailure(t *testing.T) {
	r := New(nil, WithGetwd(func() (string, error) { return "", errors.New("gone") }))
	got := r.Resolve("lib/main.dart", "")
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path when cwd is unknown, got %q", got)
	}
	if filepath.Base(got) != "main.dart" {
		t.Errorf("unexpected result %q", got)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := New(roots.NewRegistry("/r"), fixedWd(abs("/mock/cwd")))
	for _, in := range []string{"lib", abs("/x/y"), "../z"} {
		first := r.Resolve(in, "")
		second := r.Resolve(in, "")
		if first != second {
			t.Errorf("Resolve(%q) not idempotent: %q then %q", in, first, second)
		}
	}
}

func TestResolveAll(t *testing.T) {
	r := New(nil, fixedWd(abs("/mock/cwd")))
	inputs := []string{"path1", "path2", abs("/absolute/path"), ""}
	want := []string{
		r.Resolve("path1", ""),
		r.Resolve("path2", ""),
		r.Resolve(abs("/absolute/path"), ""),
		"",
	}
	if diff := cmp.Diff(want, r.ResolveAll(inputs, "")); diff != "" {
		t.Errorf("ResolveAll mismatch (-want +got):\n%s", diff)
	}
	if want[0] != abs("/mock/cwd/path1") {
		t.Errorf("unexpected element %q", want[0])
	}

	got := r.ResolveAll(nil, "")
	if got == nil || len(got) != 0 {
		t.Errorf("ResolveAll(nil) = %#v, want empty slice", got)
	}
}

func TestRootProbe(t *testing.T) {
	tmp := t.TempDir()
	first := filepath.Join(tmp, "first")
	second := filepath.Join(tmp, "second")
	cwd := filepath.Join(tmp, "cwd")
	for _, d := range []string{
		filepath.Join(first, "other"),
		filepath.Join(second, "apps", "web", "lib"),
		filepath.Join(cwd, "local"),
	} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}
	reg := roots.NewRegistry(first, second)

	probing := New(reg, WithRootProbe(), fixedWd(cwd))
	plain := New(reg, fixedWd(cwd))

	if got, want := probing.Resolve("apps/web/lib", ""), filepath.Join(second, "apps", "web", "lib"); got != want {
		t.Errorf("probing resolve = %q, want %q", got, want)
	}
	if got, want := plain.Resolve("apps/web/lib", ""), filepath.Join(cwd, "apps", "web", "lib"); got != want {
		t.Errorf("plain resolve = %q, want %q", got, want)
	}
	// An existing cwd candidate beats every root.
	if got, want := probing.Resolve("local", ""), filepath.Join(cwd, "local"); got != want {
		t.Errorf("probing resolve of existing local path = %q, want %q", got, want)
	}
	// Nothing anywhere: falls back to the base directory.
	if got, want := probing.Resolve("nowhere", ""), filepath.Join(cwd, "nowhere"); got != want {
		t.Errorf("probing resolve of missing path = %q, want %q", got, want)
	}
}

func TestRootProbeNilRegistry(t *testing.T) {
	var reg *roots.Registry
	r := New(reg, WithRootProbe(), fixedWd(abs("/cwd")))

	if got, want := r.Resolve("x", ""), filepath.Join(abs("/cwd"), "x"); got != want {
		t.Errorf("Resolve with nil registry = %q, want %q", got, want)
	}
}
