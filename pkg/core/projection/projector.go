// Package projection reshapes the source report into the flat set of
// variables the LaTeX template consumes.
//
// Every variable is produced by one Output of a plan. Outputs are independent
// of each other; the first failing output aborts the whole projection, since a
// partial credit report would be misleading.
package projection

import (
	"fmt"

	"credit_appraisal/pkg/core/document"
	"credit_appraisal/pkg/core/schema"
)

// Variables maps template variable names to projected values.
type Variables map[string]any

type projectFunc func(p *Projector, root scope) (any, error)

// Output produces one template variable.
type Output struct {
	Name    string
	project projectFunc
}

// Projector applies a plan to source documents. It holds no per-document
// state and may be reused.
type Projector struct {
	aliases *schema.Aliases
	plan    []Output
}

// NewProjector creates a projector. A nil aliases table means the embedded
// default; a nil plan means DefaultPlan.
func NewProjector(aliases *schema.Aliases, plan []Output) *Projector {
	if aliases == nil {
		aliases = schema.Default()
	}
	if plan == nil {
		plan = DefaultPlan()
	}
	return &Projector{aliases: aliases, plan: plan}
}

// Names lists the variables the projector emits, in plan order.
func (p *Projector) Names() []string {
	names := make([]string, 0, len(p.plan))
	for _, out := range p.plan {
		names = append(names, out.Name)
	}
	return names
}

// Project runs every output of the plan against doc.
func (p *Projector) Project(doc *document.Object) (Variables, error) {
	if doc == nil {
		return nil, fmt.Errorf("projection: nil document")
	}

	root := scope{obj: doc}
	vars := make(Variables, len(p.plan))
	for _, out := range p.plan {
		v, err := out.project(p, root)
		if err != nil {
			return nil, fmt.Errorf("projecting %s: %w", out.Name, err)
		}
		vars[out.Name] = v
	}
	return vars, nil
}

// SelectPlan returns the default outputs with the given names, in the order given.
func SelectPlan(names ...string) ([]Output, error) {
	byName := make(map[string]Output)
	for _, out := range DefaultPlan() {
		byName[out.Name] = out
	}

	plan := make([]Output, 0, len(names))
	for _, name := range names {
		out, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown output %q", name)
		}
		plan = append(plan, out)
	}
	return plan, nil
}
