package mongo

import (
	"strconv"
	"strings"

	"github.com/Materials-Consortia/optimade-go/internal/transform"
)

// groupOperators are the boolean group keys a query object may carry.
var groupOperators = map[string]bool{
	"$and": true,
	"$or":  true,
	"$nor": true,
}

// invertedOperators maps each comparison to its logical complement,
// used when repairing a $not-wrapped length comparison.
var invertedOperators = map[string]string{
	"$lt":  "$gte",
	"$lte": "$gt",
	"$gt":  "$lte",
	"$gte": "$lt",
	"$eq":  "$ne",
	"$ne":  "$eq",
}

// Postprocess runs the rewrite passes over a raw query in their fixed
// order. Passes never mutate their input; each returns a fresh query.
//
// The order matters: length aliases must fire before field aliasing so
// the alias table keys match, the relationship rewrite needs aliased
// names, and the length-operator repair must only see $size predicates
// no earlier pass could handle.
func (t *Transformer) Postprocess(q Query) (Query, error) {
	passes := []func(Query) (Query, error){
		t.applyLengthAliases,
		t.applyFieldAliases,
		t.applyRelationships,
		t.applyLengthOperators,
		t.applyKnown,
	}
	out := q
	for _, pass := range passes {
		var err error
		out, err = pass(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// leafFunc rewrites one property predicate into a replacement query
// fragment. Returning {prop: pred} unchanged leaves the leaf alone.
type leafFunc func(prop string, pred any) (Query, error)

// rewriteLeaves walks a query, descending through boolean groups, and
// applies f to every property leaf. Fragments returned by f are merged
// back into the enclosing object; a key collision folds the whole
// object into an $and group.
func rewriteLeaves(q Query, f leafFunc) (Query, error) {
	out := Query{}
	for key, value := range q {
		if groupOperators[key] {
			members, ok := value.([]any)
			if !ok {
				out[key] = value
				continue
			}
			rewritten := make([]any, 0, len(members))
			for _, member := range members {
				mq, ok := member.(Query)
				if !ok {
					rewritten = append(rewritten, member)
					continue
				}
				r, err := rewriteLeaves(mq, f)
				if err != nil {
					return nil, err
				}
				rewritten = append(rewritten, r)
			}
			var err error
			out, err = mergeQueries(out, Query{key: rewritten})
			if err != nil {
				return nil, err
			}
			continue
		}

		fragment, err := f(key, value)
		if err != nil {
			return nil, err
		}
		out, err = mergeQueries(out, fragment)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// mergeQueries combines two query fragments into one object. Disjoint
// keys are unioned; $and groups concatenate; any other collision wraps
// both fragments in an $and group.
func mergeQueries(a, b Query) (Query, error) {
	if len(a) == 0 {
		return b, nil
	}
	if len(b) == 0 {
		return a, nil
	}
	disjoint := true
	for key := range b {
		if _, exists := a[key]; exists {
			disjoint = false
			break
		}
	}
	if disjoint {
		out := Query{}
		for k, v := range a {
			out[k] = v
		}
		for k, v := range b {
			out[k] = v
		}
		return out, nil
	}
	aAnd, aOK := a["$and"].([]any)
	bAnd, bOK := b["$and"].([]any)
	if aOK && bOK && len(a) == 1 && len(b) == 1 {
		merged := make([]any, 0, len(aAnd)+len(bAnd))
		merged = append(merged, aAnd...)
		merged = append(merged, bAnd...)
		return Query{"$and": merged}, nil
	}
	return Query{"$and": []any{a, b}}, nil
}

// applyLengthAliases rewrites $size predicates on fields that carry a
// registered length alias into plain comparisons on the count field.
// This runs before the field-alias and repair passes, so aliased
// lengths support the full operator set.
func (t *Transformer) applyLengthAliases(q Query) (Query, error) {
	return rewriteLeaves(q, func(prop string, pred any) (Query, error) {
		lengthField, ok := t.table.LengthAlias(prop)
		if !ok {
			return Query{prop: pred}, nil
		}
		predMap, ok := pred.(map[string]any)
		if !ok {
			return Query{prop: pred}, nil
		}

		if inner, ok := notWrapped(pred); ok {
			innerMap, ok := inner.(map[string]any)
			if !ok {
				return Query{prop: pred}, nil
			}
			size, hasSize := innerMap["$size"]
			if !hasSize || len(innerMap) != 1 {
				return Query{prop: pred}, nil
			}
			// NOT LENGTH = n reads as count != n; a negated
			// comparison keeps its $not wrapper on the count field.
			if opMap, ok := size.(map[string]any); ok {
				return Query{lengthField: map[string]any{"$not": opMap}}, nil
			}
			return Query{lengthField: map[string]any{"$ne": size}}, nil
		}

		size, hasSize := predMap["$size"]
		if !hasSize {
			return Query{prop: pred}, nil
		}
		out := Query{lengthField: size}
		rest := make(map[string]any, len(predMap)-1)
		for k, v := range predMap {
			if k != "$size" {
				rest[k] = v
			}
		}
		if len(rest) > 0 {
			// HAS ONLY splits: membership stays on the array field,
			// the count moves to the length field.
			return mergeQueries(out, Query{prop: rest})
		}
		return out, nil
	})
}

// applyFieldAliases renames property leaves through the alias table.
func (t *Transformer) applyFieldAliases(q Query) (Query, error) {
	return rewriteLeaves(q, func(prop string, pred any) (Query, error) {
		return Query{t.table.Resolve(prop): pred}, nil
	})
}

// applyRelationships rewrites two-segment properties whose head names
// a relationship target: references.id becomes
// relationships.references.data.id. Only the id sub-field is
// addressable through the linkage array.
func (t *Transformer) applyRelationships(q Query) (Query, error) {
	return rewriteLeaves(q, func(prop string, pred any) (Query, error) {
		head, rest, found := strings.Cut(prop, ".")
		if !found || !t.targets[head] {
			return Query{prop: pred}, nil
		}
		if rest != "id" {
			return nil, &transform.NotImplementedError{
				Feature: "filtering relationships on " + strconv.Quote(rest) + " (only \"id\")",
			}
		}
		base := "relationships." + head + ".data"
		key := base + ".id"

		// HAS ONLY carries a $size next to $all; the count constrains
		// the linkage array itself, not the id sub-field.
		if predMap, ok := pred.(map[string]any); ok {
			size, hasSize := predMap["$size"]
			if _, hasAll := predMap["$all"]; hasSize && hasAll {
				rest := make(map[string]any, len(predMap)-1)
				for k, v := range predMap {
					if k != "$size" {
						rest[k] = v
					}
				}
				return Query{"$and": []any{
					Query{key: rest},
					Query{base: map[string]any{"$size": size}},
				}}, nil
			}
		}
		return Query{key: pred}, nil
	})
}

// applyLengthOperators repairs {$size: {op: n}} predicates, which the
// document store cannot evaluate, into element-existence probes:
// LENGTH > n holds exactly when element n exists (zero-based), and
// LENGTH < n when element n-1 does not.
func (t *Transformer) applyLengthOperators(q Query) (Query, error) {
	return rewriteLeaves(q, func(prop string, pred any) (Query, error) {
		predMap, ok := pred.(map[string]any)
		if !ok {
			return Query{prop: pred}, nil
		}

		sizeVal, hasSize := predMap["$size"]
		negated := false
		if !hasSize {
			inner, wrapped := notWrapped(pred)
			if !wrapped {
				return Query{prop: pred}, nil
			}
			innerMap, ok := inner.(map[string]any)
			if !ok || len(innerMap) != 1 {
				return Query{prop: pred}, nil
			}
			sizeVal, hasSize = innerMap["$size"]
			if !hasSize {
				return Query{prop: pred}, nil
			}
			negated = true
		}

		opMap, isOpMap := sizeVal.(map[string]any)
		if !isOpMap {
			// {$size: n} is directly evaluable; {$not: {$size: n}}
			// likewise.
			return Query{prop: pred}, nil
		}
		if len(opMap) != 1 {
			return nil, malformedChild("length comparison", opMap)
		}

		var op string
		var value any
		for k, v := range opMap {
			op, value = k, v
		}
		if negated {
			op = invertedOperators[op]
		}

		n, ok := asInt(value)
		if !ok {
			return nil, &transform.NotImplementedError{
				Feature: "LENGTH comparison with a non-integer bound",
			}
		}

		var index int64
		var exists bool
		switch op {
		case "$gt":
			index, exists = n, true
		case "$gte":
			index, exists = n-1, true
		case "$lt":
			index, exists = n-1, false
		case "$lte":
			index, exists = n, false
		case "$eq":
			return Query{prop: map[string]any{"$size": value}}, nil
		case "$ne":
			return nil, &transform.NotImplementedError{
				Feature: "LENGTH with operator !=",
			}
		default:
			return nil, &transform.NotImplementedError{
				Feature: "LENGTH with operator " + op,
			}
		}
		if index < 0 {
			return nil, &transform.NotImplementedError{
				Feature: "LENGTH comparisons with a negative element index",
			}
		}
		return Query{prop + "." + strconv.FormatInt(index, 10): map[string]any{"$exists": exists}}, nil
	})
}

// applyKnown expands the internal #known marker. A property is known
// when it exists and is not null; unknown when it is absent or null.
// Negation flips between the two expansions.
func (t *Transformer) applyKnown(q Query) (Query, error) {
	return rewriteLeaves(q, func(prop string, pred any) (Query, error) {
		known, found := knownMarker(pred)
		if !found {
			return Query{prop: pred}, nil
		}
		if known {
			return Query{"$and": []any{
				Query{prop: map[string]any{"$exists": true}},
				Query{prop: map[string]any{"$ne": nil}},
			}}, nil
		}
		return Query{"$or": []any{
			Query{prop: map[string]any{"$exists": false}},
			Query{prop: map[string]any{"$eq": nil}},
		}}, nil
	})
}

func knownMarker(pred any) (known, found bool) {
	predMap, ok := pred.(map[string]any)
	if !ok || len(predMap) != 1 {
		return false, false
	}
	if v, ok := predMap[knownKey]; ok {
		b, ok := v.(bool)
		return b, ok
	}
	if inner, ok := notWrapped(pred); ok {
		b, found := knownMarker(inner)
		return !b, found
	}
	return false, false
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
