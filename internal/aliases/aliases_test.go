package aliases

import (
	"errors"
	"testing"
)

func newStructureTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable(
		[]Pair{
			{From: "id", To: "_id"},
			{From: "species", To: "attributes.species"},
			{From: "species.name", To: "attributes.kinds.label"},
		},
		[]Pair{
			{From: "elements", To: "nelements"},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestResolve(t *testing.T) {
	table := newStructureTable(t)

	tests := []struct {
		prop string
		want string
	}{
		{"id", "_id"},
		{"species", "attributes.species"},
		// The longest alias wins over its prefix.
		{"species.name", "attributes.kinds.label"},
		// A shorter alias still rewrites unmatched subfields.
		{"species.mass", "attributes.species.mass"},
		// Matches cover whole dotted segments only.
		{"species_at_sites", "species_at_sites"},
		{"identifier", "identifier"},
		{"nelements", "nelements"},
	}

	for _, tt := range tests {
		if got := table.Resolve(tt.prop); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.prop, got, tt.want)
		}
	}
}

func TestLengthAlias(t *testing.T) {
	table := newStructureTable(t)

	if to, ok := table.LengthAlias("elements"); !ok || to != "nelements" {
		t.Errorf("LengthAlias(elements) = %q, %v", to, ok)
	}
	if _, ok := table.LengthAlias("species"); ok {
		t.Error("LengthAlias(species) should not resolve")
	}
}

func TestNewTableRejectsReservedPrefix(t *testing.T) {
	cases := [][2][]Pair{
		{{{From: "$bad", To: "x"}}, nil},
		{{{From: "x", To: "$bad"}}, nil},
		{nil, {{From: "elements", To: "$count"}}},
	}
	for _, c := range cases {
		_, err := NewTable(c[0], c[1])
		var invalid *InvalidAliasError
		if !errors.As(err, &invalid) {
			t.Errorf("NewTable(%v, %v): expected InvalidAliasError, got %v", c[0], c[1], err)
		}
	}
}

func TestTableCopiesInput(t *testing.T) {
	fields := []Pair{{From: "id", To: "_id"}}
	table, err := NewTable(fields, nil)
	if err != nil {
		t.Fatal(err)
	}
	fields[0].To = "mutated"
	if got := table.Resolve("id"); got != "_id" {
		t.Errorf("Resolve(id) = %q after caller mutation, want _id", got)
	}
}
