package dart

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
)

// MinimumSDK is the oldest SDK whose CLI ships every wrapped subcommand.
var MinimumSDK = version.Must(version.NewVersion("2.19.0"))

var sdkVersionRe = regexp.MustCompile(`Dart SDK version:\s*(\S+)`)

// ParseSDKVersion extracts the version from `dart --version` output, e.g.
// "Dart SDK version: 3.5.0 (stable) (Tue Jul 30 02:17:59 2024 -0700) on "macos_arm64"".
func ParseSDKVersion(out string) (*version.Version, error) {
	m := sdkVersionRe.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("no SDK version in output %q", out)
	}
	v, err := version.NewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid SDK version %q: %w", m[1], err)
	}
	return v, nil
}

// SDKVersion runs `<command> --version` and parses the reported SDK version.
// Older SDKs print the banner on stderr, so both streams are searched.
func (e *Executor) SDKVersion() (*version.Version, error) {
	res := e.Run("--version", nil, "")
	v, err := ParseSDKVersion(res.Stdout + "\n" + res.Stderr)
	if err != nil {
		if res.Stdout == "" && res.Stderr != "" {
			return nil, fmt.Errorf("%s --version: %s", e.Name(), res.Stderr)
		}
		return nil, err
	}
	return v, nil
}

// Supported reports whether v meets MinimumSDK.
func Supported(v *version.Version) bool {
	return v != nil && v.GreaterThanOrEqual(MinimumSDK)
}
