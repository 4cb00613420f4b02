package grammar

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{"0.10.1", Version{0, 10, 1}, false},
		{"v0.9.7", Version{0, 9, 7}, false},
		{"1.0.0", Version{1, 0, 0}, false},
		{"0.10", Version{}, true},
		{"0.10.1.extra", Version{}, true},
		{"0.x.1", Version{}, true},
		{"0.-1.1", Version{}, true},
		{"", Version{}, true},
	}

	for _, tt := range tests {
		got, err := ParseVersion(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseVersion(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVersion(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		a, b Version
		want int
	}{
		{Version{0, 10, 1}, Version{0, 9, 7}, 1},
		{Version{0, 9, 7}, Version{0, 10, 1}, -1},
		{Version{0, 10, 1}, Version{0, 10, 1}, 0},
		{Version{1, 0, 0}, Version{0, 99, 99}, 1},
		{Version{0, 10, 0}, Version{0, 10, 1}, -1},
	}

	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegistryResolveLatest(t *testing.T) {
	reg := MustDefaultRegistry()

	g, err := reg.Resolve(nil, "")
	if err != nil {
		t.Fatalf("Resolve(nil): %v", err)
	}
	if g.Version != (Version{0, 10, 1}) {
		t.Errorf("latest version = %v, want 0.10.1", g.Version)
	}
	if !g.Features.ZippedTuples || !g.Features.LengthOperators {
		t.Errorf("0.10.1 features = %+v, want zipped tuples and length operators", g.Features)
	}
	if g.Text == "" {
		t.Error("resolved grammar has no text")
	}
}

func TestRegistryResolvePinned(t *testing.T) {
	reg := MustDefaultRegistry()

	v := Version{0, 9, 7}
	g, err := reg.Resolve(&v, "")
	if err != nil {
		t.Fatalf("Resolve(0.9.7): %v", err)
	}
	if g.Features.ZippedTuples || g.Features.LengthOperators {
		t.Errorf("0.9.7 features = %+v, want none", g.Features)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := MustDefaultRegistry()

	v := Version{9, 9, 9}
	_, err := reg.Resolve(&v, "")
	var unknown *UnknownVersionError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownVersionError, got %v", err)
	}
	if unknown.Version == nil || *unknown.Version != v {
		t.Errorf("error carries version %v, want %v", unknown.Version, v)
	}

	_, err = reg.Resolve(nil, "nonexistent")
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownVersionError for unknown variant, got %v", err)
	}
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	g := &Grammar{Version: Version{0, 10, 1}, Text: "filter = ;"}
	if err := reg.Register(g); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := reg.Register(g)
	var dup *DuplicateGrammarError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateGrammarError, got %v", err)
	}
}

func TestRegistryVersionsOrder(t *testing.T) {
	reg := MustDefaultRegistry()

	versions := reg.Versions()
	if len(versions) < 2 {
		t.Fatalf("expected at least 2 bundled grammars, got %d", len(versions))
	}
	for i := 1; i < len(versions); i++ {
		if versions[i-1].Version.Compare(versions[i].Version) < 0 {
			t.Errorf("versions not sorted highest first: %v before %v",
				versions[i-1].Version, versions[i].Version)
		}
	}
	if versions[0].Version != (Version{0, 10, 1}) {
		t.Errorf("highest version = %v, want 0.10.1", versions[0].Version)
	}
}

func TestParseGrammarFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion Version
		wantVariant string
		wantErr     bool
	}{
		{"v0.10.1.ebnf", Version{0, 10, 1}, "default", false},
		{"v0.9.7.ebnf", Version{0, 9, 7}, "default", false},
		{"v0.10.1.strict.ebnf", Version{0, 10, 1}, "strict", false},
		{"v0.10.1.txt", Version{}, "", true},
		{"v0.10.ebnf", Version{}, "", true},
	}

	for _, tt := range tests {
		version, variant, err := parseGrammarFilename(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseGrammarFilename(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseGrammarFilename(%q): %v", tt.name, err)
			continue
		}
		if version != tt.wantVersion || variant != tt.wantVariant {
			t.Errorf("parseGrammarFilename(%q) = %v, %q; want %v, %q",
				tt.name, version, variant, tt.wantVersion, tt.wantVariant)
		}
	}
}
