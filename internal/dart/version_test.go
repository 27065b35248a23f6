package dart

import "testing"

func TestParseSDKVersion(t *testing.T) {
	tests := []struct {
		out     string
		want    string
		wantErr bool
	}{
		{`Dart SDK version: 3.5.0 (stable) (Tue Jul 30 02:17:59 2024 -0700) on "macos_arm64"`, "3.5.0", false},
		{"Dart SDK version: 2.19.6 (stable)\n", "2.19.6", false},
		{"Dart SDK version: 3.6.0-216.1.beta (beta)", "3.6.0-216.1.beta", false},
		{"command not found", "", true},
		{"Dart SDK version: banana", "", true},
	}
	for _, tt := range tests {
		v, err := ParseSDKVersion(tt.out)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSDKVersion(%q): expected error", tt.out)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSDKVersion(%q): unexpected error: %v", tt.out, err)
			continue
		}
		if v.Original() != tt.want {
			t.Errorf("ParseSDKVersion(%q) = %s, want %s", tt.out, v.Original(), tt.want)
		}
	}
}

func TestSupported(t *testing.T) {
	for in, want := range map[string]bool{
		"Dart SDK version: 2.18.7 (stable)": false,
		"Dart SDK version: 2.19.0 (stable)": true,
		"Dart SDK version: 3.5.0 (stable)":  true,
	} {
		v, err := ParseSDKVersion(in)
		if err != nil {
			t.Fatal(err)
		}
		if got := Supported(v); got != want {
			t.Errorf("Supported(%s) = %v, want %v", v, got, want)
		}
	}
	if Supported(nil) {
		t.Error("Supported(nil) should be false")
	}
}

func TestSDKVersionFromBinary(t *testing.T) {
	bin := fakeDart(t, `[ "$1" = "--version" ] && echo "Dart SDK version: 3.4.4 (stable) on \"linux_x64\"" >&2`)
	v, err := (&Executor{Command: []string{bin}}).SDKVersion()
	if err != nil {
		t.Fatalf("SDKVersion: %v", err)
	}
	if v.String() != "3.4.4" {
		t.Errorf("SDKVersion = %s, want 3.4.4", v)
	}
}
