package version

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinJavaMajor is the oldest runtime tiny-remapper supports.
const MinJavaMajor = 8

// javaVersionRegex matches the quoted version in `java -version` output,
// e.g. `openjdk version "17.0.9" 2023-10-17` or `java version "1.8.0_392"`.
var javaVersionRegex = regexp.MustCompile(`version "([^"]+)"`)

// JavaInfo describes the java runtime used by the exec engine.
type JavaInfo struct {
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Major      int    `json:"major,omitempty" yaml:"major,omitempty"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	Found      bool   `json:"found" yaml:"found"`
	Compatible bool   `json:"compatible" yaml:"compatible"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
}

// DetectJava finds the java executable and reads its version.
func DetectJava(ctx context.Context, java string) JavaInfo {
	if java == "" {
		java = "java"
	}
	path, err := exec.LookPath(java)
	if err != nil {
		return JavaInfo{Message: "java executable not found"}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "-version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return JavaInfo{Path: path, Found: true, Message: "failed to get java version: " + err.Error()}
	}

	v, err := extractJavaVersion(out.String())
	if err != nil {
		return JavaInfo{Path: path, Found: true, Message: err.Error()}
	}
	major := JavaMajor(v)
	info := JavaInfo{Version: v, Major: major, Path: path, Found: true, Compatible: major >= MinJavaMajor}
	if info.Compatible {
		info.Message = "compatible"
	} else {
		info.Message = "java " + strconv.Itoa(MinJavaMajor) + " or newer is required"
	}
	return info
}

// JavaMajor returns the feature release of a java version string. Legacy
// "1.x" versions report x.
func JavaMajor(v string) int {
	v = strings.TrimPrefix(v, "1.")
	end := strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		v = v[:end]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func extractJavaVersion(output string) (string, error) {
	m := javaVersionRegex.FindStringSubmatch(output)
	if m == nil {
		return "", &versionParseError{output: output}
	}
	return m[1], nil
}

// versionParseError indicates failure to parse `java -version` output.
type versionParseError struct {
	output string
}

func (e *versionParseError) Error() string {
	return "failed to parse java version from output: " + strings.TrimSpace(e.output)
}

// String returns a human-readable java info string.
func (j JavaInfo) String() string {
	if !j.Found {
		return "  Java:  not found"
	}
	return "  Java:  " + j.Version + " (" + j.Message + ")\n  Path:  " + j.Path
}
