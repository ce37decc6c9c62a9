package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeScenario(t *testing.T) {
	scenario, err := DecodeScenario(strings.NewReader(`
name: decimals
steps:
  - op: add_instrument
    token: DAI
    decimals: 18
  - op: add_instrument
    token: ODD
`))
	require.NoError(t, err)
	require.Equal(t, "decimals", scenario.Name)
	require.Len(t, scenario.Steps, 2)
	require.NotNil(t, scenario.Steps[0].Decimals)
	require.Equal(t, uint8(18), *scenario.Steps[0].Decimals)
	require.Nil(t, scenario.Steps[1].Decimals)
}

func TestDecodeScenarioRejects(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"empty":         {body: "", want: "scenario is empty"},
		"no steps":      {body: "name: idle\n", want: "has no steps"},
		"missing op":    {body: "steps:\n  - caller: buyer\n", want: "op required"},
		"unknown field": {body: "steps:\n  - op: pause\n    colour: red\n", want: "colour"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeScenario(strings.NewReader(tc.body))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadScenarioExample(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "presale.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, scenario.Steps)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
