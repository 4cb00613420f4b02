// Package aliases maps public OPTIMADE field names to backend storage
// field names, including the length-alias pairs used to answer LENGTH
// queries from a dedicated count field.
package aliases

import (
	"fmt"
	"strings"
)

// Pair maps one OPTIMADE field name to a backend field name.
type Pair struct {
	From string
	To   string
}

// InvalidAliasError reports an alias that collides with the backend's
// reserved operator prefix.
type InvalidAliasError struct {
	Alias string
}

func (e *InvalidAliasError) Error() string {
	return fmt.Sprintf("invalid alias %q: aliases must not start with the reserved prefix '$'", e.Alias)
}

// Table is an ordered set of field aliases plus length aliases.
// Tables are built once at compiler construction and read-only
// afterward.
type Table struct {
	fields  []Pair
	lengths []Pair
}

// NewTable validates and builds an alias table. Fields maps OPTIMADE
// names to backend names; lengths maps array-valued fields to the
// field tracking their element count.
func NewTable(fields, lengths []Pair) (*Table, error) {
	for _, p := range append(append([]Pair{}, fields...), lengths...) {
		if strings.HasPrefix(p.From, "$") || strings.HasPrefix(p.To, "$") {
			alias := p.From
			if strings.HasPrefix(p.To, "$") {
				alias = p.To
			}
			return nil, &InvalidAliasError{Alias: alias}
		}
	}
	return &Table{
		fields:  append([]Pair{}, fields...),
		lengths: append([]Pair{}, lengths...),
	}, nil
}

// Resolve rewrites an OPTIMADE property path to its backend path. The
// longest matching alias wins; the match must cover whole dotted
// segments. Unaliased properties pass through unchanged.
func (t *Table) Resolve(prop string) string {
	var best *Pair
	for i := range t.fields {
		p := &t.fields[i]
		if prop != p.From && !strings.HasPrefix(prop, p.From+".") {
			continue
		}
		if best == nil || len(p.From) > len(best.From) {
			best = p
		}
	}
	if best == nil {
		return prop
	}
	return best.To + prop[len(best.From):]
}

// LengthAlias returns the field tracking the element count of an
// array-valued field, if one is registered.
func (t *Table) LengthAlias(field string) (string, bool) {
	for _, p := range t.lengths {
		if p.From == field {
			return p.To, true
		}
	}
	return "", false
}

// Fields returns the field alias pairs in registration order.
func (t *Table) Fields() []Pair {
	return append([]Pair{}, t.fields...)
}

// Lengths returns the length alias pairs in registration order.
func (t *Table) Lengths() []Pair {
	return append([]Pair{}, t.lengths...)
}
