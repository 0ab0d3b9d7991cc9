package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// BlacklistFile is the structure of the optional blacklist seed file. It is
// applied idempotently at startup; entries added at runtime through the API
// are never removed by it.
type BlacklistFile struct {
	Companies []BlacklistCompany `yaml:"companies"`
	Keywords  []string           `yaml:"keywords"`
}

// BlacklistCompany is one excluded employer, with an optional reason kept for
// the audit trail.
type BlacklistCompany struct {
	Name   string `yaml:"name"`
	Reason string `yaml:"reason,omitempty"`
}

// LoadBlacklistFile loads the YAML blacklist seed file.
// Path is determined by BLACKLIST_FILE env var, defaulting to "blacklist.yaml".
// Returns nil without error if the file doesn't exist.
func LoadBlacklistFile() (*BlacklistFile, error) {
	path := getEnv("BLACKLIST_FILE", "blacklist.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Seed file is optional
			return nil, nil
		}
		return nil, err
	}

	var bf BlacklistFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, err
	}

	return &bf, nil
}
