package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

// LoadPolicy reads deduction weights and thresholds from an optional YAML
// file. An empty path or a missing file yields the defaults; keys left out
// of the file keep their default values.
func LoadPolicy(path string) (domain.Policy, error) {
	if strings.TrimSpace(path) == "" {
		return domain.DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultPolicy(), nil
		}
		return domain.Policy{}, fmt.Errorf("read policy file: %w", err)
	}

	policy := domain.DefaultPolicy()
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return domain.Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return policy.Normalize(), nil
}
