package config

import (
	"os"
	"path/filepath"
)

// CopyStateScript is the state-relocation script expected inside the
// platform-scripts directory.
const CopyStateScript = "copy_state.sh"

// scriptsSearchPaths returns the well-known locations probed when no scripts
// path is configured. The PLATFORM_SCRIPTS_PATH environment variable wins.
func scriptsSearchPaths() []string {
	paths := []string{os.Getenv("PLATFORM_SCRIPTS_PATH")}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, "repos", "platform-scripts"),
			filepath.Join(home, "source", "repos", "platform-scripts"),
		)
	}
	paths = append(paths,
		"/opt/platform-scripts",
		"/usr/local/platform-scripts",
	)
	return paths
}

// ValidScriptsPath reports whether dir exists and contains the state-copy script.
func ValidScriptsPath(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	script, err := os.Stat(filepath.Join(dir, CopyStateScript))
	return err == nil && script.Mode().IsRegular()
}

// FindPlatformScripts probes the environment variable and well-known locations
// for a usable platform-scripts directory. Returns "" when none is found.
func FindPlatformScripts() string {
	for _, path := range scriptsSearchPaths() {
		if ValidScriptsPath(path) {
			return path
		}
	}
	return ""
}
