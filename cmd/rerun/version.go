package main

import (
	"fmt"
	"runtime/debug"
)

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	var revision, dirty string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				dirty = " (dirty)"
			}
		}
	}
	if revision == "" {
		return info.Main.Version
	}
	return fmt.Sprintf("%s, revision %s%s", info.Main.Version, revision, dirty)
}
