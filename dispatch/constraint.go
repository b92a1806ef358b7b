package dispatch

import (
	"fmt"
	"regexp"
)

// Constraint validates a single route parameter value. A constraint
// exposes the regex fragment that is spliced into the route pattern and
// a boolean matcher for standalone validation. Constraints are immutable
// and safe for concurrent use.
type Constraint struct {
	fragment string
	re       *regexp.Regexp
}

// Fragment returns the unanchored regex fragment for the constraint.
func (c *Constraint) Fragment() string {
	return c.fragment
}

// Matches reports whether value satisfies the constraint in full.
func (c *Constraint) Matches(value string) bool {
	return c.re.MatchString(value)
}

// builtinConstraints maps constraint names to their compiled patterns.
// Used in route parameter definitions: {name:constraint}.
var builtinConstraints = func() map[string]*Constraint {
	raw := map[string]string{
		"int":          `[0-9]+`,
		"numeric":      `[0-9]+(?:\.[0-9]+)?`,
		"slug":         `[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*`,
		"uuid":         `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
		"email":        `[^@/\s]+@[^@/\s]+\.[^@/\s]+`,
		"alpha":        `[a-zA-Z]+`,
		"alphanumeric": `[a-zA-Z0-9]+`,
	}

	m := make(map[string]*Constraint, len(raw))
	for name, pattern := range raw {
		m[name] = &Constraint{
			fragment: pattern,
			re:       regexp.MustCompile(fmt.Sprintf("^%s$", pattern)),
		}
	}

	return m
}()

// lookupConstraint resolves a constraint specifier. A specifier matching a
// built-in name returns the built-in; anything else is treated as a literal
// custom regex fragment and compiled. An empty specifier returns nil.
func lookupConstraint(spec string) (*Constraint, error) {
	if spec == "" {
		return nil, nil
	}

	if c, ok := builtinConstraints[spec]; ok {
		return c, nil
	}

	re, err := compileRegexp(fmt.Sprintf("^(?:%s)$", spec))
	if err != nil {
		return nil, fmt.Errorf("dispatch: invalid constraint fragment %q: %w", spec, err)
	}

	return &Constraint{fragment: spec, re: re}, nil
}
