package rollout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteReport writes results to path as YAML.
func WriteReport(path string, results *Results) error {
	if results == nil {
		return fmt.Errorf("no results to write")
	}
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results Results
	if err := yaml.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &results, nil
}
