package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the project-local config file name found by walking up from
// the working directory.
const FileName = "etsyscraper.toml"

// Discover resolves the effective configuration. An explicit path must
// exist; otherwise the nearest etsyscraper.toml at or above dir wins, then
// the per-user config file, then built-in defaults. The returned path is
// empty when defaults were used.
func Discover(explicit, dir string) (Config, string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return Config{}, "", fmt.Errorf("config %s: %w", explicit, err)
		}
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}

	if path, ok := locate(dir); ok {
		cfg, err := Load(path)
		return cfg, path, err
	}

	if path, err := UserPath(); err == nil && isFile(path) {
		cfg, err := Load(path)
		return cfg, path, err
	}

	return Default(), "", nil
}

func locate(dir string) (string, bool) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(cur, FileName)
		if isFile(candidate) {
			return candidate, true
		}
		next := filepath.Dir(cur)
		if next == cur {
			return "", false
		}
		cur = next
	}
}

// UserPath is the per-user config location under the OS config dir.
func UserPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "etsyscraper", "config.toml"), nil
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
