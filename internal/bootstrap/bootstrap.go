// Package bootstrap creates the postbot home tree on first run.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/pandausagies/postbot/internal/config"
)

// Initialize creates the expected postbot home tree if missing and writes a
// minimal config.toml when none exists.
func Initialize(cfg *config.Config) error {
	dirs := []string{
		cfg.HomeDir,
		cfg.DataDir(),
		cfg.Images.Dir,
		cfg.Images.GeneratedDir,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	configTOML, err := config.DefaultUserConfigTOML()
	if err != nil {
		return err
	}
	return writeFileIfMissing(cfg.ConfigPath(), configTOML)
}

func writeFileIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %q: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write file %q: %w", path, err)
	}
	return nil
}
