// Package compileinfo reports how a craft binary was built, from the build
// information the Go toolchain embeds.
package compileinfo

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

type CompileInfo struct {
	Binary     string
	Module     string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " (modified)"
	}

	return fmt.Sprintf("%s %s built with %s at commit %s %s%s", c.Binary, c.Version, c.GoVersion, c.Commit, c.CommitTime, mod)
}

// Fields returns the build information as structured log fields.
func (c CompileInfo) Fields() log.Fields {
	return log.Fields{
		"binary":      c.Binary,
		"version":     c.Version,
		"go":          c.GoVersion,
		"commit":      c.Commit,
		"commit_time": c.CommitTime,
		"modified":    c.Modified,
	}
}

// Get reads the embedded build information. Fields are empty for binaries
// built without module support.
func Get() CompileInfo {
	out := CompileInfo{}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		Binary:    info.Path,
		Module:    info.Main.Path,
		Version:   info.Main.Version,
		GoVersion: info.GoVersion,
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Log writes the build information at info level.
func Log() {
	log.WithFields(Get().Fields()).Infoln("Build")
}
