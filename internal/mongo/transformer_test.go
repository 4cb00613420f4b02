package mongo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Materials-Consortia/optimade-go/internal/aliases"
	"github.com/Materials-Consortia/optimade-go/internal/grammar"
	"github.com/Materials-Consortia/optimade-go/internal/parser"
	"github.com/Materials-Consortia/optimade-go/internal/transform"
)

func parseFilter(t *testing.T, filter string) *parser.Tree {
	t.Helper()
	p, err := parser.New(grammar.MustDefaultRegistry())
	require.NoError(t, err)
	tree, err := p.Parse(filter)
	require.NoError(t, err)
	return tree
}

func compileFilter(t *testing.T, tr *Transformer, filter string) Query {
	t.Helper()
	q, err := tr.Compile(parseFilter(t, filter))
	require.NoError(t, err)
	return q
}

func structureTransformer(t *testing.T) *Transformer {
	t.Helper()
	table, err := aliases.NewTable(nil, []aliases.Pair{{From: "elements", To: "nelements"}})
	require.NoError(t, err)
	return NewTransformer(
		WithAliases(table),
		WithRelationshipTargets("references", "structures"),
	)
}

func TestCompileComparisons(t *testing.T) {
	tr := NewTransformer()
	tests := []struct {
		filter string
		want   Query
	}{
		{`nelements = 3`, Query{"nelements": map[string]any{"$eq": int64(3)}}},
		{`nelements != 3`, Query{"nelements": map[string]any{"$ne": int64(3)}}},
		{`nelements < 3`, Query{"nelements": map[string]any{"$lt": int64(3)}}},
		{`nelements <= 3`, Query{"nelements": map[string]any{"$lte": int64(3)}}},
		{`nelements > 3`, Query{"nelements": map[string]any{"$gt": int64(3)}}},
		{`nelements >= 3`, Query{"nelements": map[string]any{"$gte": int64(3)}}},
		{`chemical_formula_reduced = "O2Si"`, Query{"chemical_formula_reduced": map[string]any{"$eq": "O2Si"}}},
		{`_exmpl_custom = 1.5`, Query{"_exmpl_custom": map[string]any{"$eq": 1.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			require.Equal(t, tt.want, compileFilter(t, tr, tt.filter))
		})
	}
}

func TestCompileConstantFirstReverses(t *testing.T) {
	tr := NewTransformer()
	require.Equal(t,
		Query{"nelements": map[string]any{"$gt": int64(5)}},
		compileFilter(t, tr, `5 < nelements`))
	require.Equal(t,
		Query{"band_gap": map[string]any{"$lte": 1.5}},
		compileFilter(t, tr, `1.5 >= band_gap`))
}

func TestCompileEmptyFilterMatchesAll(t *testing.T) {
	tr := NewTransformer()
	require.Equal(t, Query{}, compileFilter(t, tr, ""))
	require.Equal(t, Query{}, compileFilter(t, tr, "   "))
}

func TestCompileBooleanPrecedence(t *testing.T) {
	tr := NewTransformer()

	// AND binds tighter than OR.
	implicit := compileFilter(t, tr, `a = 1 AND b = 2 OR c = 3`)
	explicit := compileFilter(t, tr, `(a = 1 AND b = 2) OR c = 3`)
	require.Equal(t, explicit, implicit)
	require.Equal(t, Query{"$or": []any{
		Query{"$and": []any{
			Query{"a": map[string]any{"$eq": int64(1)}},
			Query{"b": map[string]any{"$eq": int64(2)}},
		}},
		Query{"c": map[string]any{"$eq": int64(3)}},
	}}, implicit)

	// Parentheses override the default grouping.
	grouped := compileFilter(t, tr, `a = 1 AND (b = 2 OR c = 3)`)
	require.Equal(t, Query{"$and": []any{
		Query{"a": map[string]any{"$eq": int64(1)}},
		Query{"$or": []any{
			Query{"b": map[string]any{"$eq": int64(2)}},
			Query{"c": map[string]any{"$eq": int64(3)}},
		}},
	}}, grouped)
}

func TestCompileNegation(t *testing.T) {
	tr := NewTransformer()

	require.Equal(t,
		Query{"a": map[string]any{"$not": map[string]any{"$eq": int64(1)}}},
		compileFilter(t, tr, `NOT a = 1`))

	require.Equal(t, Query{"$nor": []any{
		Query{"a": map[string]any{"$eq": int64(1)}},
		Query{"b": map[string]any{"$eq": int64(2)}},
	}}, compileFilter(t, tr, `NOT (a = 1 OR b = 2)`))

	// NOT over AND negates each conjunct in place.
	require.Equal(t, Query{"$and": []any{
		Query{"a": map[string]any{"$not": map[string]any{"$eq": int64(1)}}},
		Query{"b": map[string]any{"$not": map[string]any{"$eq": int64(2)}}},
	}}, compileFilter(t, tr, `NOT (a = 1 AND b = 2)`))
}

func TestCompileDoubleNegationIsIdentity(t *testing.T) {
	tr := NewTransformer()
	tests := []struct{ plain, doubled string }{
		{`a > 1`, `NOT (NOT (a > 1))`},
		{`a = 1 OR b = 2`, `NOT (NOT (a = 1 OR b = 2))`},
		{`elements HAS "Al"`, `NOT (NOT (elements HAS "Al"))`},
	}
	for _, tt := range tests {
		t.Run(tt.doubled, func(t *testing.T) {
			require.Equal(t,
				compileFilter(t, tr, tt.plain),
				compileFilter(t, tr, tt.doubled))
		})
	}
}

func TestCompileSetOperations(t *testing.T) {
	tr := NewTransformer()
	tests := []struct {
		filter string
		want   Query
	}{
		{`elements HAS "Al"`,
			Query{"elements": map[string]any{"$in": []any{"Al"}}}},
		{`elements HAS ALL "Al", "O", "Si"`,
			Query{"elements": map[string]any{"$all": []any{"Al", "O", "Si"}}}},
		{`elements HAS ANY "Al", "O"`,
			Query{"elements": map[string]any{"$in": []any{"Al", "O"}}}},
		{`elements HAS ONLY "Al", "O"`,
			Query{"elements": map[string]any{"$all": []any{"Al", "O"}, "$size": int64(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			require.Equal(t, tt.want, compileFilter(t, tr, tt.filter))
		})
	}
}

func TestCompileSetOperatorFormsNotImplemented(t *testing.T) {
	tr := NewTransformer()
	for _, filter := range []string{
		`elements HAS > 2`,
		`elements HAS ALL < 3, > 1`,
		`site_attachments:cartesian_site_positions HAS "a":1`,
	} {
		t.Run(filter, func(t *testing.T) {
			_, err := tr.Compile(parseFilter(t, filter))
			var nie *transform.NotImplementedError
			require.ErrorAs(t, err, &nie)
		})
	}
}

func TestCompileFuzzyStringMatches(t *testing.T) {
	tr := NewTransformer()
	tests := []struct {
		filter string
		want   Query
	}{
		{`chemical_formula_anonymous CONTAINS "C2"`,
			Query{"chemical_formula_anonymous": map[string]any{"$regex": "C2"}}},
		{`chemical_formula_anonymous STARTS WITH "A2"`,
			Query{"chemical_formula_anonymous": map[string]any{"$regex": "^A2"}}},
		{`chemical_formula_anonymous STARTS "A2"`,
			Query{"chemical_formula_anonymous": map[string]any{"$regex": "^A2"}}},
		{`chemical_formula_anonymous ENDS WITH "B3"`,
			Query{"chemical_formula_anonymous": map[string]any{"$regex": "B3$"}}},
		// Regex metacharacters in the literal are escaped.
		{`id CONTAINS "a.b"`,
			Query{"id": map[string]any{"$regex": `a\.b`}}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			require.Equal(t, tt.want, compileFilter(t, tr, tt.filter))
		})
	}
}

func TestCompileKnownUnknown(t *testing.T) {
	tr := NewTransformer()

	require.Equal(t, Query{"$and": []any{
		Query{"band_gap": map[string]any{"$exists": true}},
		Query{"band_gap": map[string]any{"$ne": nil}},
	}}, compileFilter(t, tr, `band_gap IS KNOWN`))

	require.Equal(t, Query{"$or": []any{
		Query{"band_gap": map[string]any{"$exists": false}},
		Query{"band_gap": map[string]any{"$eq": nil}},
	}}, compileFilter(t, tr, `band_gap IS UNKNOWN`))
}

func TestCompileKnownUnknownDuality(t *testing.T) {
	tr := NewTransformer()
	require.Equal(t,
		compileFilter(t, tr, `band_gap IS UNKNOWN`),
		compileFilter(t, tr, `NOT band_gap IS KNOWN`))
	require.Equal(t,
		compileFilter(t, tr, `band_gap IS KNOWN`),
		compileFilter(t, tr, `NOT band_gap IS UNKNOWN`))
}

func TestCompileNumericFidelity(t *testing.T) {
	tr := NewTransformer()

	require.Equal(t,
		Query{"a": map[string]any{"$eq": int64(42)}},
		compileFilter(t, tr, `a = 42`))
	require.Equal(t,
		Query{"a": map[string]any{"$eq": int64(-5)}},
		compileFilter(t, tr, `a = -5`))

	// Leading-dot exponent form.
	require.Equal(t,
		Query{"a": map[string]any{"$eq": 2000000.0}},
		compileFilter(t, tr, `a = .2E7`))

	// Magnitudes beyond float64 compile to +Inf rather than failing.
	q := compileFilter(t, tr, `a > 1000000000.E1000000000`)
	bound, ok := q["a"].(map[string]any)["$gt"].(float64)
	require.True(t, ok)
	require.True(t, math.IsInf(bound, 1))
}

func TestCompileTrailingNumberGarbageIsSyntaxError(t *testing.T) {
	p, err := parser.New(grammar.MustDefaultRegistry())
	require.NoError(t, err)
	_, err = p.Parse(`a = 0.0.1`)
	var syn *parser.SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestCompileLengthOperations(t *testing.T) {
	tr := structureTransformer(t)
	tests := []struct {
		filter string
		want   Query
	}{
		// elements has a length alias, so every operator maps to a
		// plain comparison on the count field.
		{`elements LENGTH 3`, Query{"nelements": int64(3)}},
		{`elements LENGTH = 3`, Query{"nelements": int64(3)}},
		{`elements LENGTH > 3`, Query{"nelements": map[string]any{"$gt": int64(3)}}},
		{`elements LENGTH <= 3`, Query{"nelements": map[string]any{"$lte": int64(3)}}},
		{`elements LENGTH != 3`, Query{"nelements": map[string]any{"$ne": int64(3)}}},
		// Unaliased fields keep $size for equality and fall back to
		// element-existence probes for ranges.
		{`cartesian_site_positions LENGTH 5`,
			Query{"cartesian_site_positions": map[string]any{"$size": int64(5)}}},
		{`cartesian_site_positions LENGTH > 3`,
			Query{"cartesian_site_positions.3": map[string]any{"$exists": true}}},
		{`cartesian_site_positions LENGTH >= 3`,
			Query{"cartesian_site_positions.2": map[string]any{"$exists": true}}},
		{`cartesian_site_positions LENGTH < 3`,
			Query{"cartesian_site_positions.2": map[string]any{"$exists": false}}},
		{`cartesian_site_positions LENGTH <= 3`,
			Query{"cartesian_site_positions.3": map[string]any{"$exists": false}}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			require.Equal(t, tt.want, compileFilter(t, tr, tt.filter))
		})
	}
}

func TestCompileLengthNotImplementedCases(t *testing.T) {
	tr := structureTransformer(t)
	for _, filter := range []string{
		// No length alias, no document-store encoding for !=.
		`cartesian_site_positions LENGTH != 3`,
		// LENGTH < 0 would probe element -1.
		`cartesian_site_positions LENGTH < 0`,
	} {
		t.Run(filter, func(t *testing.T) {
			_, err := tr.Compile(parseFilter(t, filter))
			var nie *transform.NotImplementedError
			require.ErrorAs(t, err, &nie)
		})
	}
}

func TestCompileHasOnlyWithLengthAliasSplits(t *testing.T) {
	tr := structureTransformer(t)
	require.Equal(t, Query{
		"elements":  map[string]any{"$all": []any{"Al", "O"}},
		"nelements": int64(2),
	}, compileFilter(t, tr, `elements HAS ONLY "Al", "O"`))
}

func TestCompileRelationshipRewrite(t *testing.T) {
	tr := structureTransformer(t)

	require.Equal(t,
		Query{"relationships.references.data.id": map[string]any{"$in": []any{"dijkstra1968"}}},
		compileFilter(t, tr, `references.id HAS "dijkstra1968"`))

	require.Equal(t,
		Query{"relationships.structures.data.id": map[string]any{"$eq": "mpf_3803"}},
		compileFilter(t, tr, `structures.id = "mpf_3803"`))

	// HAS ONLY constrains the id sub-field and the linkage array size.
	require.Equal(t, Query{"$and": []any{
		Query{"relationships.references.data.id": map[string]any{"$all": []any{"dijkstra1968"}}},
		Query{"relationships.references.data": map[string]any{"$size": int64(1)}},
	}}, compileFilter(t, tr, `references.id HAS ONLY "dijkstra1968"`))

	// Only the id sub-field is reachable through the linkage array.
	_, err := tr.Compile(parseFilter(t, `references.doi = "10.1000/test"`))
	var nie *transform.NotImplementedError
	require.ErrorAs(t, err, &nie)

	// Dotted properties that do not name a relationship target pass
	// through untouched.
	require.Equal(t,
		Query{"species.name": map[string]any{"$eq": "Si"}},
		compileFilter(t, tr, `species.name = "Si"`))
}

func TestCompileMixedScenario(t *testing.T) {
	tr := structureTransformer(t)
	q := compileFilter(t, tr,
		`elements HAS ALL "Si", "O" AND nelements >= 2 AND NOT chemical_formula_anonymous STARTS WITH "A2"`)
	require.Equal(t, Query{"$and": []any{
		Query{"elements": map[string]any{"$all": []any{"Si", "O"}}},
		Query{"nelements": map[string]any{"$gte": int64(2)}},
		Query{"chemical_formula_anonymous": map[string]any{"$not": map[string]any{"$regex": "^A2"}}},
	}}, q)
}
