package engine

import (
	"fmt"
	"strings"

	"github.com/envgen/envgen/pkg/schema"
	"github.com/envgen/envgen/pkg/template"
)

// resolver computes the evaluation order for a run. Nodes are variable
// names; an edge points from a referencing variable to each name its rule
// templates mention. A variable whose value is already fixed by precedence
// still participates as a node, but its rule is ignored, so it contributes
// no outgoing edges.
type resolver struct {
	sc *schema.Schema

	// deps maps variable name to the declared names its templates reference.
	deps map[string][]string
}

// node colors for the depth-first traversal.
const (
	unvisited = iota
	visiting
	visited
)

// newResolver scans every templated rule field and builds the dependency
// graph. A reference to an undeclared name is fatal here, before any rule
// executes.
func newResolver(sc *schema.Schema, fixed map[string]bool) (*resolver, error) {
	r := &resolver{
		sc:   sc,
		deps: make(map[string][]string, len(sc.Variables)),
	}

	for i := range sc.Variables {
		v := &sc.Variables[i]
		if fixed[v.Name] || v.Generation == nil {
			r.deps[v.Name] = nil
			continue
		}

		seen := make(map[string]bool)
		var refs []string
		for _, tmpl := range v.Generation.Templates() {
			for _, ref := range template.Refs(tmpl) {
				if seen[ref] {
					continue
				}
				seen[ref] = true
				if _, declared := sc.Lookup(ref); !declared {
					return nil, NewError(ErrCodeUnknownReference,
						fmt.Sprintf("template references undeclared variable %q", ref)).
						WithVariable(v.Name)
				}
				refs = append(refs, ref)
			}
		}
		r.deps[v.Name] = refs
	}

	return r, nil
}

// order returns an evaluation order in which every variable appears strictly
// after all names it references. Independent variables keep schema
// declaration order; the traversal is deterministic.
func (r *resolver) order() ([]string, error) {
	state := make(map[string]int, len(r.sc.Variables))
	out := make([]string, 0, len(r.sc.Variables))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visited:
			return nil
		case visiting:
			return NewError(ErrCodeCyclicDependency,
				fmt.Sprintf("circular dependency detected: %s", formatCycle(path, name))).
				WithVariable(name)
		}

		state[name] = visiting
		path = append(path, name)
		for _, dep := range r.deps[name] {
			if err := visit(dep, path); err != nil {
				return err
			}
		}
		state[name] = visited

		out = append(out, name)
		return nil
	}

	for _, name := range r.sc.Names() {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}

	// Every declared name is reachable from the loop above.
	if len(out) != len(r.sc.Variables) {
		return nil, NewError(ErrCodeInternal, "failed to order all variables")
	}

	return out, nil
}

// formatCycle renders the members of a cycle in path order, closing the loop
// on the repeated name.
func formatCycle(path []string, repeat string) string {
	start := 0
	for i, name := range path {
		if name == repeat {
			start = i
			break
		}
	}
	return strings.Join(append(path[start:], repeat), " -> ")
}
