package schema

import (
	"fmt"
	"strings"
)

// Validate checks the schema for unknown quantity kinds, dangling
// length references and alias names that collide with the document
// store's operator prefix. The aliases package re-checks the prefix at
// table construction; validating here surfaces the error with file
// context.
func (s *Schema) Validate() error {
	for typeName, e := range s.EntryTypes {
		for from, to := range e.Aliases {
			if strings.HasPrefix(from, "$") || strings.HasPrefix(to, "$") {
				return fmt.Errorf("entry type %q: alias %q -> %q must not start with '$'", typeName, from, to)
			}
		}
		for from, to := range e.Lengths {
			if strings.HasPrefix(from, "$") || strings.HasPrefix(to, "$") {
				return fmt.Errorf("entry type %q: length alias %q -> %q must not start with '$'", typeName, from, to)
			}
		}
		for name, def := range e.Quantities {
			if def == nil {
				return fmt.Errorf("entry type %q: quantity %q has no definition", typeName, name)
			}
			if _, ok := quantityKinds[def.Kind]; !ok {
				return fmt.Errorf("entry type %q: quantity %q has unknown kind %q", typeName, name, def.Kind)
			}
			if def.Length != "" {
				if _, ok := e.Quantities[def.Length]; !ok {
					return fmt.Errorf("entry type %q: quantity %q references undeclared length quantity %q", typeName, name, def.Length)
				}
			}
		}
	}
	return nil
}
