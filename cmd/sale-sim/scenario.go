package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is an ordered list of operations replayed against a fresh sale.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is a single scenario operation. Only the fields relevant to Op are
// read. Expect names the error category (validation, state, dependency,
// authorization) or a fragment of the error message the step must fail
// with; an empty Expect requires success.
type Step struct {
	Op       string `yaml:"op"`
	Caller   string `yaml:"caller"`
	Account  string `yaml:"account"`
	Referrer string `yaml:"referrer"`
	Token    string `yaml:"token"`
	Amount   string `yaml:"amount"`
	Seconds  int64  `yaml:"seconds"`
	At       int64  `yaml:"at"`
	Value    uint64 `yaml:"value"`
	Round    uint64 `yaml:"round"`
	Class    string `yaml:"class"`
	Cliff    uint64 `yaml:"cliff"`
	Duration uint64 `yaml:"duration"`
	Start    uint64 `yaml:"start"`
	End      uint64 `yaml:"end"`
	Decimals *uint8 `yaml:"decimals"`
	FeeBps   uint64 `yaml:"fee_bps"`
	Version  uint64 `yaml:"version"`
	Enabled  bool   `yaml:"enabled"`
	Expect   string `yaml:"expect"`
}

// LoadScenario reads a YAML scenario from path.
func LoadScenario(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeScenario(f)
}

// DecodeScenario parses a YAML scenario, rejecting unknown fields.
func DecodeScenario(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var scenario Scenario
	if err := dec.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenario is empty")
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	for i, step := range scenario.Steps {
		if step.Op == "" {
			return nil, fmt.Errorf("step %d: op required", i+1)
		}
	}
	return &scenario, nil
}
