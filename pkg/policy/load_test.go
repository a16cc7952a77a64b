package policy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsmith/modsmith/pkg/errors"
	"github.com/modsmith/modsmith/pkg/policy"
)

func writePolicy(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writePolicy(t, "policy.json", `{
		"$schema": "https://example.com/policy.schema.json",
		"sodium": {"conflicts": ["optifine"], "sub_mods": ["indium"]},
		"lithium": {}
	}`)

	engine, err := policy.Load(path)
	require.NoError(t, err)

	result := engine.Apply([]string{"sodium", "optifine"})
	assert.Equal(t, []string{"indium", "sodium"}, result)
}

func TestLoadYAML(t *testing.T) {
	path := writePolicy(t, "policy.yaml", `
sodium:
  conflicts: [optifine]
  sub_mods: [indium]
`)

	engine, err := policy.Load(path)
	require.NoError(t, err)

	result := engine.Apply([]string{"sodium"})
	assert.Equal(t, []string{"indium", "sodium"}, result)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := policy.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrPolicyLoad, errors.GetErrorCode(err))
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writePolicy(t, "policy.json", `{"sodium": [`)

	_, err := policy.Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrPolicyValid, errors.GetErrorCode(err))
}

func TestValidateRejectsSelfConflict(t *testing.T) {
	err := policy.Validate(map[string]policy.Rule{
		"sodium": {Conflicts: []string{"sodium"}},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPolicyValid, errors.GetErrorCode(err))
}

func TestValidateRejectsEmptyModName(t *testing.T) {
	err := policy.Validate(map[string]policy.Rule{
		"": {Conflicts: []string{"optifine"}},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPolicyValid, errors.GetErrorCode(err))
}

func TestValidateRejectsEmptyListEntries(t *testing.T) {
	err := policy.Validate(map[string]policy.Rule{
		"sodium": {SubMods: []string{""}},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPolicyValid, errors.GetErrorCode(err))
}

func TestValidateRejectsConflictSubModOverlap(t *testing.T) {
	err := policy.Validate(map[string]policy.Rule{
		"sodium": {Conflicts: []string{"indium"}, SubMods: []string{"indium"}},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrPolicyValid, errors.GetErrorCode(err))
}

func TestValidateAcceptsValidTable(t *testing.T) {
	err := policy.Validate(map[string]policy.Rule{
		"sodium": {Conflicts: []string{"optifine"}, SubMods: []string{"indium"}},
	})
	assert.NoError(t, err)
}
