package prefixdata

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// envFileName is the state file written inside an installed environment
// directory (spec.md §6 "Persisted per-environment state").
const envFileName = "pixi-env-state.yaml"

// DirEnvFileStore persists EnvFile as YAML next to the environment it
// describes.
type DirEnvFileStore struct{}

func (DirEnvFileStore) Read(dir string) (EnvFile, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, envFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return EnvFile{}, false, nil
		}

		return EnvFile{}, false, fmt.Errorf("reading env file in %s: %w", dir, err)
	}

	var ef EnvFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return EnvFile{}, false, fmt.Errorf("parsing env file in %s: %w", dir, err)
	}

	return ef, true, nil
}

func (DirEnvFileStore) Write(dir string, ef EnvFile) error {
	data, err := yaml.Marshal(ef)
	if err != nil {
		return fmt.Errorf("encoding env file: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating environment directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, envFileName), data, 0o644); err != nil {
		return fmt.Errorf("writing env file in %s: %w", dir, err)
	}

	return nil
}
