// Package dirs locates the per-user directories versereel keeps its config
// and runtime state in.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "versereel"

// xdgDir resolves an XDG base directory on linux: $env/versereel when set,
// otherwise ~/<fallback>/versereel.
func xdgDir(env string, fallback ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// ConfigDir is where config.yaml is looked up.
// Linux honours XDG_CONFIG_HOME; other platforms use os.UserConfigDir.
func ConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, appName), nil
}

// StateDir holds data that survives between batches, such as the estimate.
func StateDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return xdgDir("XDG_STATE_HOME", ".local", "state")
	case "windows":
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			return filepath.Join(la, appName, "state"), nil
		}
	}
	cfg, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "state"), nil
}

// EstimateFile returns the default path of the persisted duration estimate.
func EstimateFile() (string, error) {
	d, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "runtime.json"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll creates the config and state directories.
func EnsureAll() error {
	for _, dir := range []func() (string, error){ConfigDir, StateDir} {
		p, err := dir()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}
