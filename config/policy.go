package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Aashish23092/travel-document-verification/dto"
)

// LoadPolicy reads a YAML eligibility policy. Keys absent from the file keep
// their default values; unknown keys are rejected. An empty path yields the
// default policy.
func LoadPolicy(path string) (dto.EligibilityPolicy, error) {
	if path == "" {
		return dto.DefaultEligibilityPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return dto.EligibilityPolicy{}, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	policy, err := ParsePolicyYAML(data)
	if err != nil {
		return dto.EligibilityPolicy{}, fmt.Errorf("policy %s: %w", path, err)
	}
	return policy, nil
}

// ParsePolicyYAML decodes a policy document over the default policy
func ParsePolicyYAML(data []byte) (dto.EligibilityPolicy, error) {
	policy := dto.DefaultEligibilityPolicy()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && !errors.Is(err, io.EOF) {
		return dto.EligibilityPolicy{}, errors.Join(dto.ErrInvalidPolicy, err)
	}
	if err := policy.Validate(); err != nil {
		return dto.EligibilityPolicy{}, err
	}
	return policy, nil
}
