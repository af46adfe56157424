package lockfile

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marshal serializes a lock-file to its YAML on-disk representation.
func Marshal(l LockFile) ([]byte, error) {
	data, err := yaml.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshaling lock-file: %w", err)
	}

	return data, nil
}

// Unmarshal parses a lock-file from its YAML on-disk representation.
func Unmarshal(data []byte) (LockFile, error) {
	var l LockFile

	if err := yaml.Unmarshal(data, &l); err != nil {
		return LockFile{}, fmt.Errorf("parsing lock-file: %w", err)
	}

	return l, nil
}
