package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/modsmith/modsmith/pkg/errors"
)

// ruleFile is the on-disk shape of a policy file after the schema
// metadata key has been stripped.
type ruleFile map[string]Rule

// Load reads, validates and normalizes a policy rule file. JSON and
// YAML files are accepted, selected by extension. Any validation
// failure refuses the whole table; resolution must never run against a
// partially valid policy.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPolicyLoad, "failed to read policy file %s", path)
	}

	rules, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if err := Validate(rules); err != nil {
		return nil, err
	}
	return NewEngine(rules), nil
}

// Parse decodes raw policy bytes. ext selects the format (".yaml" or
// ".yml" for YAML, anything else is treated as JSON).
func Parse(data []byte, ext string) (map[string]Rule, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var rules ruleFile
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return nil, errors.Wrap(err, errors.ErrPolicyValid, "malformed policy YAML")
		}
		return rules, nil
	default:
		// Decode loosely first so the $schema metadata key can be
		// stripped without tripping the rule decoder.
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrPolicyValid, "malformed policy JSON")
		}
		delete(raw, "$schema")

		rules := make(map[string]Rule, len(raw))
		for mod, body := range raw {
			var rule Rule
			if err := json.Unmarshal(body, &rule); err != nil {
				return nil, errors.Wrapf(err, errors.ErrPolicyValid, "malformed rule for %q", mod)
			}
			rules[mod] = rule
		}
		return rules, nil
	}
}

// Validate checks a decoded rule table. It fails closed on empty slugs,
// rules that conflict with themselves, and rules that list the same mod
// as both a conflict and a sub-mod.
func Validate(rules map[string]Rule) error {
	v := validator.New()

	for mod, rule := range rules {
		if strings.TrimSpace(mod) == "" {
			return errors.New(errors.ErrPolicyValid, "policy contains a rule with an empty mod name")
		}
		if err := v.Var(rule.Conflicts, "dive,required"); err != nil {
			return errors.Wrapf(err, errors.ErrPolicyValid, "rule %q has an empty conflicts entry", mod)
		}
		if err := v.Var(rule.SubMods, "dive,required"); err != nil {
			return errors.Wrapf(err, errors.ErrPolicyValid, "rule %q has an empty sub_mods entry", mod)
		}

		subs := make(map[string]struct{}, len(rule.SubMods))
		for _, sub := range rule.SubMods {
			subs[sub] = struct{}{}
		}
		for _, conflict := range rule.Conflicts {
			if conflict == mod {
				return errors.Newf(errors.ErrPolicyValid, "rule %q conflicts with itself", mod)
			}
			if _, ok := subs[conflict]; ok {
				return errors.Newf(errors.ErrPolicyValid,
					"rule %q lists %q as both a conflict and a sub-mod", mod, conflict)
			}
		}
	}
	return nil
}
