// Package settings holds build metadata and per-invocation options shared by
// the jlens commands.
package settings

// CliBinaryName is the binary name used in help and paths.
const CliBinaryName = "jlens"

// VersionInformation is set at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"buildTime" yaml:"buildTime"`
}

// Source says where the document came from.
type Source struct {
	Path      string
	FromStdin bool
}

// Name is the label used in logs and the TUI title.
func (s Source) Name() string {
	switch {
	case s.FromStdin:
		return "<stdin>"
	case s.Path != "":
		return s.Path
	default:
		return "<none>"
	}
}

// Run holds the options of one invocation.
type Run struct {
	MinLogLevel int8
	Source      Source
	Interactive bool
	IsQuiet     bool
	NoColor     bool
}

// NewCliParams returns the defaults for a command-line run.
func NewCliParams() *Run {
	return &Run{}
}
