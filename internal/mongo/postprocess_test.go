package mongo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Materials-Consortia/optimade-go/internal/aliases"
)

func aliasedTransformer(t *testing.T) *Transformer {
	t.Helper()
	table, err := aliases.NewTable(
		[]aliases.Pair{
			{From: "id", To: "_id"},
			{From: "species", To: "attributes.species"},
			{From: "species.name", To: "attributes.kinds.label"},
		},
		[]aliases.Pair{{From: "elements", To: "nelements"}},
	)
	require.NoError(t, err)
	return NewTransformer(WithAliases(table), WithRelationshipTargets("references"))
}

func TestFieldAliasLongestPrefixWins(t *testing.T) {
	tr := aliasedTransformer(t)
	tests := []struct {
		filter string
		field  string
	}{
		{`id = "x"`, "_id"},
		{`species.mass = 1.5`, "attributes.species.mass"},
		{`species.name = "Si"`, "attributes.kinds.label"},
		// Whole-segment matching: species_at_sites is not a species
		// sub-path.
		{`species_at_sites HAS "Si"`, "species_at_sites"},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			q := compileFilter(t, tr, tt.filter)
			require.Contains(t, q, tt.field)
			require.Len(t, q, 1)
		})
	}
}

func TestPostprocessIsIdempotent(t *testing.T) {
	tr := aliasedTransformer(t)
	for _, filter := range []string{
		`id = "x"`,
		`elements LENGTH > 3`,
		`elements HAS ONLY "Al", "O"`,
		`references.id HAS "dijkstra1968"`,
		`band_gap IS KNOWN`,
		`NOT (species.name = "Si" OR elements HAS "O")`,
	} {
		t.Run(filter, func(t *testing.T) {
			once := compileFilter(t, tr, filter)
			twice, err := tr.Postprocess(once)
			require.NoError(t, err)
			require.Equal(t, once, twice)
		})
	}
}

func TestRewriteLeavesDescendsGroups(t *testing.T) {
	in := Query{"$or": []any{
		Query{"a": int64(1)},
		Query{"$and": []any{
			Query{"b": int64(2)},
			Query{"c": int64(3)},
		}},
	}}
	out, err := rewriteLeaves(in, func(prop string, pred any) (Query, error) {
		return Query{"x_" + prop: pred}, nil
	})
	require.NoError(t, err)
	require.Equal(t, Query{"$or": []any{
		Query{"x_a": int64(1)},
		Query{"$and": []any{
			Query{"x_b": int64(2)},
			Query{"x_c": int64(3)},
		}},
	}}, out)
}

func TestRewriteLeavesDoesNotMutateInput(t *testing.T) {
	in := Query{"elements": map[string]any{"$size": int64(2)}}
	tr := structureTransformer(t)
	out, err := tr.applyLengthAliases(in)
	require.NoError(t, err)
	require.Equal(t, Query{"nelements": int64(2)}, out)
	require.Equal(t, Query{"elements": map[string]any{"$size": int64(2)}}, in)
}

func TestMergeQueries(t *testing.T) {
	a := Query{"a": int64(1)}
	b := Query{"b": int64(2)}
	merged, err := mergeQueries(a, b)
	require.NoError(t, err)
	require.Equal(t, Query{"a": int64(1), "b": int64(2)}, merged)

	// Key collisions fold into an $and group.
	collided, err := mergeQueries(Query{"a": int64(1)}, Query{"a": int64(2)})
	require.NoError(t, err)
	require.Equal(t, Query{"$and": []any{
		Query{"a": int64(1)},
		Query{"a": int64(2)},
	}}, collided)

	// Two $and fragments concatenate instead of nesting.
	left := Query{"$and": []any{Query{"a": int64(1)}}}
	right := Query{"$and": []any{Query{"b": int64(2)}}}
	flat, err := mergeQueries(left, right)
	require.NoError(t, err)
	require.Equal(t, Query{"$and": []any{
		Query{"a": int64(1)},
		Query{"b": int64(2)},
	}}, flat)
}

func TestLengthAliasTakesPrecedenceOverRepair(t *testing.T) {
	tr := structureTransformer(t)

	// With the alias the range never reaches the element-existence
	// repair.
	require.Equal(t,
		Query{"nelements": map[string]any{"$gt": int64(3)}},
		compileFilter(t, tr, `elements LENGTH > 3`))

	// Without it the repair kicks in.
	require.Equal(t,
		Query{"species_at_sites.3": map[string]any{"$exists": true}},
		compileFilter(t, tr, `species_at_sites LENGTH > 3`))
}

func TestLengthAliasWinsOverFieldAlias(t *testing.T) {
	// elements carries both a field alias and a length alias; the
	// length rewrite runs first, so a LENGTH predicate lands on the
	// count field untouched by field aliasing.
	table, err := aliases.NewTable(
		[]aliases.Pair{{From: "elements", To: "attributes.elements"}},
		[]aliases.Pair{{From: "elements", To: "nelements"}},
	)
	require.NoError(t, err)
	tr := NewTransformer(WithAliases(table))

	require.Equal(t,
		Query{"nelements": int64(3)},
		compileFilter(t, tr, `elements LENGTH 3`))
	require.Equal(t,
		Query{"nelements": map[string]any{"$gt": int64(2)}},
		compileFilter(t, tr, `elements LENGTH > 2`))

	// Non-length predicates on the same field still take the field
	// alias.
	require.Equal(t,
		Query{"attributes.elements": map[string]any{"$in": []any{"Si"}}},
		compileFilter(t, tr, `elements HAS "Si"`))
}

func TestNegatedLengthAlias(t *testing.T) {
	tr := structureTransformer(t)

	// NOT LENGTH = n reads as count != n.
	require.Equal(t,
		Query{"nelements": map[string]any{"$ne": int64(3)}},
		compileFilter(t, tr, `NOT elements LENGTH 3`))

	// A negated range keeps its $not wrapper on the count field.
	require.Equal(t,
		Query{"nelements": map[string]any{"$not": map[string]any{"$gt": int64(3)}}},
		compileFilter(t, tr, `NOT elements LENGTH > 3`))
}

func TestNegatedLengthRepairInvertsComparison(t *testing.T) {
	tr := structureTransformer(t)

	// NOT LENGTH > 3 is LENGTH <= 3: element 3 must not exist.
	require.Equal(t,
		Query{"species_at_sites.3": map[string]any{"$exists": false}},
		compileFilter(t, tr, `NOT species_at_sites LENGTH > 3`))

	// NOT LENGTH < 3 is LENGTH >= 3: element 2 must exist.
	require.Equal(t,
		Query{"species_at_sites.2": map[string]any{"$exists": true}},
		compileFilter(t, tr, `NOT species_at_sites LENGTH < 3`))
}

func TestKnownExpansionFlipsUnderNot(t *testing.T) {
	tr := NewTransformer()
	require.Equal(t, Query{"$or": []any{
		Query{"a": map[string]any{"$exists": false}},
		Query{"a": map[string]any{"$eq": nil}},
	}}, compileFilter(t, tr, `NOT a IS KNOWN`))
}
