package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"message", []string{"message", "Intersection 110.000000 45.000000"}, "71f34691f182a467137b3d37265cb3b6"},
		{"message base58", []string{"message", "--format", "base58", "Intersection 110.000000 45.000000"}, "F585H3jn72yicbJhf4791w"},
		{"intersection", []string{"intersection", "--", "-74.003388", "40.634538"}, "103c2dbe16d28cdcdcd5e5e253eaa026"},
		{"location reference", []string{"location-reference", "--bearing", "208", "--distance", "92.79", "--", "-74.0048213", "40.7416415"}, "749442bfe6fc43f18d646f60040182db"},
		{"location reference point only", []string{"location-reference", "--", "-74.0051265", "40.7408505"}, "13fd78d99a6019397ba58238567850b8"},
		{"reference", []string{"reference", "2", "749442bfe6fc43f18d646f60040182db", "13fd78d99a6019397ba58238567850b8"}, "4b80d64015b124ec31a9520984642f06"},
		{"reference by name", []string{"reference", "MultipleCarriageway", "749442bfe6fc43f18d646f60040182db", "13fd78d99a6019397ba58238567850b8"}, "4b80d64015b124ec31a9520984642f06"},
		{"convert", []string{"convert", "--format", "base58", "71f34691f182a467137b3d37265cb3b6"}, "F585H3jn72yicbJhf4791w"},
		{"convert back", []string{"convert", "--from", "base58", "F585H3jn72yicbJhf4791w"}, "71f34691f182a467137b3d37265cb3b6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestGeometryCommand(t *testing.T) {
	out, err := run(t, "geometry", "110,45", "115,50", "120,55")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "geometry ce9c0ec1472c0a8bab3190ab075e9b21", lines[0])
	assert.Equal(t, "from 71f34691f182a467137b3d37265cb3b6", lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "forward "))
}

func TestYAMLOutput(t *testing.T) {
	out, err := run(t, "intersection", "--output", "yaml", "--format", "base58", "110", "45")
	require.NoError(t, err)

	var res result
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	assert.Equal(t, "F585H3jn72yicbJhf4791w", res.ID)
	assert.Equal(t, "base58", res.Format.String())
	assert.Equal(t, "Intersection 110.000000 45.000000", res.Message)

	out, err = run(t, "geometry", "-o", "yaml", "110,45", "115,50", "120,55")
	require.NoError(t, err)
	var geom map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &geom))
	require.Contains(t, geom, "geometry")
	assert.Equal(t, "ce9c0ec1472c0a8bab3190ab075e9b21", geom["geometry"].(map[string]any)["id"])
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"message", "--format", "base64", "x"}},
		{"bad output", []string{"message", "--output", "json", "x"}},
		{"empty message", []string{"message", ""}},
		{"bad longitude", []string{"intersection", "east", "45"}},
		{"bearing without distance", []string{"location-reference", "--bearing", "90", "1", "2"}},
		{"bad form of way", []string{"reference", "9", "a", "b"}},
		{"bad position", []string{"geometry", "110", "115,50"}},
		{"uppercase hex", []string{"convert", "--format", "base58", "71F34691F182A467137B3D37265CB3B6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
