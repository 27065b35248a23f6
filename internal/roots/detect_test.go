package roots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mkProject(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultMarker), []byte("name: x\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetect(t *testing.T) {
	tmp := t.TempDir()
	home := filepath.Join(tmp, "home")
	cwd := filepath.Join(tmp, "work")

	mkProject(t, cwd)
	mkProject(t, filepath.Join(home, "dev", "alpha"))
	mkProject(t, filepath.Join(home, "dev", "beta"))
	os.MkdirAll(filepath.Join(home, "dev", "not_dart"), 0755)
	mkProject(t, filepath.Join(home, "src"))
	mkProject(t, filepath.Join(home, "src", "gamma"))

	reg := NewRegistry()
	Detect(reg, DetectOptions{
		WorkingDir: cwd,
		Home:       home,
		ScanDirs:   []string{".", "~/dev", "~/missing", "~/src"},
		Extra:      []string{"~/extra", "rel"},
	})

	want := []string{
		cwd,
		filepath.Join(home, "dev", "alpha"),
		filepath.Join(home, "dev", "beta"),
		filepath.Join(home, "src"),
		filepath.Join(home, "src", "gamma"),
		filepath.Join(home, "extra"),
		filepath.Join(cwd, "rel"),
	}
	if diff := cmp.Diff(want, reg.List()); diff != "" {
		t.Errorf("detected roots mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectCustomMarker(t *testing.T) {
	tmp := t.TempDir()
	os.MkdirAll(filepath.Join(tmp, "app"), 0755)
	os.WriteFile(filepath.Join(tmp, "app", "melos.yaml"), []byte(""), 0644)
	mkProject(t, filepath.Join(tmp, "pkg"))

	reg := NewRegistry()
	Detect(reg, DetectOptions{WorkingDir: tmp, Home: tmp, ScanDirs: []string{"."}, Marker: "melos.yaml"})

	want := []string{tmp, filepath.Join(tmp, "app")}
	if diff := cmp.Diff(want, reg.List()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", "/home/u"},
		{"~/dev", "/home/u/dev"},
		{".", "/work"},
		{"sub/../x", "/work/x"},
		{"/abs/path/", "/abs/path"},
		{"~user/dev", "/work/~user/dev"},
	}
	for _, tt := range tests {
		got := expand(tt.in, "/work", "/home/u")
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
