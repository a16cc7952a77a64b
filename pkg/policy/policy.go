// Package policy applies mod compatibility rules to a requested mod set:
// recommended companion mods are injected and mutually exclusive mods are
// removed before any remote resolution starts.
package policy

import (
	"sort"
)

// Rule describes the compatibility policy for one mod slug.
type Rule struct {
	// Conflicts lists mods that cannot coexist with this one.
	Conflicts []string `json:"conflicts" yaml:"conflicts"`
	// SubMods lists companion mods that are auto-included with this one.
	SubMods []string `json:"sub_mods" yaml:"sub_mods"`
}

// Engine holds a validated, normalized rule table. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	conflicts map[string]map[string]struct{}
	subMods   map[string]map[string]struct{}
}

// Diff is the outcome of applying policy without committing it.
type Diff struct {
	Added   []string
	Removed []string
}

// NewEngine builds an Engine from a rule table. The table must already
// have passed Validate; Load does both.
func NewEngine(rules map[string]Rule) *Engine {
	e := &Engine{
		conflicts: make(map[string]map[string]struct{}, len(rules)),
		subMods:   make(map[string]map[string]struct{}, len(rules)),
	}
	for mod, rule := range rules {
		if len(rule.Conflicts) > 0 {
			set := make(map[string]struct{}, len(rule.Conflicts))
			for _, c := range rule.Conflicts {
				set[c] = struct{}{}
			}
			e.conflicts[mod] = set
		}
		if len(rule.SubMods) > 0 {
			set := make(map[string]struct{}, len(rule.SubMods))
			for _, s := range rule.SubMods {
				set[s] = struct{}{}
			}
			e.subMods[mod] = set
		}
	}
	return e
}

// Apply expands the requested mod set to its policy closure: sub-mods are
// added transitively first, then conflicting mods are removed. The input
// is never mutated; the result comes back as a new sorted slice.
//
// Conflict removal walks the expanded set in descending lexicographic
// order, and a mod that has already been removed no longer applies its
// own rule. When two mods list each other the lexicographically later
// slug therefore survives.
func (e *Engine) Apply(mods []string) []string {
	active := make(map[string]struct{}, len(mods))
	queue := make([]string, 0, len(mods))
	for _, mod := range mods {
		if _, ok := active[mod]; !ok {
			active[mod] = struct{}{}
			queue = append(queue, mod)
		}
	}

	// Expand sub-mods to a fixed point. The active set only grows, so
	// the queue drains in finite time even with sub-mod cycles.
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for sub := range e.subMods[current] {
			if _, ok := active[sub]; !ok {
				active[sub] = struct{}{}
				queue = append(queue, sub)
			}
		}
	}

	// Remove conflicts based on the fully expanded set.
	order := make([]string, 0, len(active))
	for mod := range active {
		order = append(order, mod)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(order)))

	final := make(map[string]struct{}, len(active))
	for mod := range active {
		final[mod] = struct{}{}
	}
	for _, mod := range order {
		if _, ok := final[mod]; !ok {
			continue
		}
		for conflict := range e.conflicts[mod] {
			delete(final, conflict)
		}
	}

	result := make([]string, 0, len(final))
	for mod := range final {
		result = append(result, mod)
	}
	sort.Strings(result)
	return result
}

// ApplyDiff reports what Apply would change without applying it.
// Added and Removed are sorted for stable output.
func (e *Engine) ApplyDiff(mods []string) Diff {
	original := make(map[string]struct{}, len(mods))
	for _, mod := range mods {
		original[mod] = struct{}{}
	}

	final := make(map[string]struct{})
	for _, mod := range e.Apply(mods) {
		final[mod] = struct{}{}
	}

	var diff Diff
	for mod := range final {
		if _, ok := original[mod]; !ok {
			diff.Added = append(diff.Added, mod)
		}
	}
	for mod := range original {
		if _, ok := final[mod]; !ok {
			diff.Removed = append(diff.Removed, mod)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	return diff
}
