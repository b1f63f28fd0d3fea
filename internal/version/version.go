// Package version holds build metadata set through -ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// Short returns the bare version, with the abbreviated commit when known.
func Short() string {
	if Commit == "" {
		return Version
	}
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return Version + "+" + commit
}

// Describe renders the full multi-line build description.
func Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "qa %s\n", Short())
	if BuildDate != "" {
		fmt.Fprintf(&b, "built:  %s\n", BuildDate)
	}
	fmt.Fprintf(&b, "go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return b.String()
}
