package rdf_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sourcery.dny.nu/shortwave/rdf"
)

func TestTurtleParse(t *testing.T) {
	doc := `@prefix ex: <http://example.com/> .
PREFIX : <http://schema.org/>

# Alice and friends
ex:alice a :Person ;
    :name "Alice"@en ;
    :age 42 ;
    :height 1.75 ;
    :weight 6.5e1 ;
    :active true ;
    :knows [ :name "Bob" ] ;
    :list ( 1 "two" ) .
`

	ds, err := rdf.Turtle{}.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	alice := rdf.NewIRI("http://example.com/alice")
	schema := func(local string) rdf.Term {
		return rdf.NewIRI("http://schema.org/" + local)
	}

	want := []rdf.Triple{
		{Subject: alice, Predicate: rdf.NewIRI(rdf.RDFType), Object: schema("Person")},
		{Subject: alice, Predicate: schema("name"), Object: rdf.NewLangLiteral("Alice", "en")},
		{Subject: alice, Predicate: schema("age"), Object: rdf.NewLiteral("42", rdf.XSDInteger)},
		{Subject: alice, Predicate: schema("height"), Object: rdf.NewLiteral("1.75", rdf.XSDDecimal)},
		{Subject: alice, Predicate: schema("weight"), Object: rdf.NewLiteral("6.5e1", rdf.XSDDouble)},
		{Subject: alice, Predicate: schema("active"), Object: rdf.NewLiteral("true", rdf.XSDBoolean)},
		{Subject: rdf.NewBlankNode("b0"), Predicate: schema("name"), Object: rdf.NewLiteral("Bob", "")},
		{Subject: alice, Predicate: schema("knows"), Object: rdf.NewBlankNode("b0")},
		{Subject: rdf.NewBlankNode("b1"), Predicate: rdf.NewIRI(rdf.RDFFirst), Object: rdf.NewLiteral("1", rdf.XSDInteger)},
		{Subject: rdf.NewBlankNode("b1"), Predicate: rdf.NewIRI(rdf.RDFRest), Object: rdf.NewBlankNode("b2")},
		{Subject: rdf.NewBlankNode("b2"), Predicate: rdf.NewIRI(rdf.RDFFirst), Object: rdf.NewLiteral("two", "")},
		{Subject: rdf.NewBlankNode("b2"), Predicate: rdf.NewIRI(rdf.RDFRest), Object: rdf.NewIRI(rdf.RDFNil)},
		{Subject: alice, Predicate: schema("list"), Object: rdf.NewBlankNode("b1")},
	}

	if diff := cmp.Diff(want, ds.Graphs[rdf.DefaultGraph]); diff != "" {
		t.Errorf("triples mismatch (-want +got):\n%s", diff)
	}

	wantNS := map[string]string{
		"ex": "http://example.com/",
		"":   "http://schema.org/",
	}
	if diff := cmp.Diff(wantNS, ds.Namespaces); diff != "" {
		t.Errorf("namespaces mismatch (-want +got):\n%s", diff)
	}
}

func TestTurtleBase(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		input string
		want  string
	}{
		{
			name:  "from the parser",
			base:  "http://example.com/people/",
			input: `<alice> <http://schema.org/name> "Alice" .`,
			want:  "http://example.com/people/alice",
		},
		{
			name:  "from the document",
			base:  "http://example.com/people/",
			input: "@base <http://example.org/> .\n<alice> <http://schema.org/name> \"Alice\" .",
			want:  "http://example.org/alice",
		},
		{
			name:  "absolute IRIs are untouched",
			base:  "http://example.com/people/",
			input: `<http://example.net/alice> <http://schema.org/name> "Alice" .`,
			want:  "http://example.net/alice",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ds, err := rdf.Turtle{Base: tc.base}.Parse([]byte(tc.input))
			if err != nil {
				t.Fatal(err)
			}

			triples := ds.Graphs[rdf.DefaultGraph]
			if len(triples) != 1 {
				t.Fatalf("expected 1 triple, got: %d", len(triples))
			}
			if got := triples[0].Subject.Value; got != tc.want {
				t.Errorf("expected subject %s, got: %s", tc.want, got)
			}
		})
	}
}

func TestTurtleParseError(t *testing.T) {
	doc := "@prefix ex: <http://example.com/> .\n\nfoo:alice ex:name \"Alice\" .\n"

	_, err := rdf.Turtle{}.Parse([]byte(doc))

	var perr *rdf.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected a parse error, got: %v", err)
	}

	if perr.Format != rdf.MediaTypeTurtle {
		t.Errorf("expected format %s, got: %s", rdf.MediaTypeTurtle, perr.Format)
	}
	if perr.Line != 3 {
		t.Errorf("expected line 3, got: %d", perr.Line)
	}
}

func TestTurtleSerialize(t *testing.T) {
	alice := rdf.NewIRI("http://example.com/alice")

	ds := rdf.NewDataset()
	ds.SetNamespace("schema", "http://schema.org/")
	ds.Add(rdf.DefaultGraph, rdf.Triple{Subject: alice, Predicate: rdf.NewIRI("http://schema.org/name"), Object: rdf.NewLiteral("Alice", "")})
	ds.Add(rdf.DefaultGraph, rdf.Triple{Subject: alice, Predicate: rdf.NewIRI("http://schema.org/knows"), Object: rdf.NewIRI("http://example.com/bob")})
	ds.Add(rdf.DefaultGraph, rdf.Triple{Subject: alice, Predicate: rdf.NewIRI(rdf.RDFType), Object: rdf.NewIRI("http://schema.org/Person")})
	ds.Add(rdf.DefaultGraph, rdf.Triple{Subject: alice, Predicate: rdf.NewIRI("http://schema.org/age"), Object: rdf.NewLiteral("42", rdf.XSDInteger)})

	got, err := rdf.Turtle{}.Serialize(ds)
	if err != nil {
		t.Fatal(err)
	}

	want := `@prefix schema: <http://schema.org/> .

<http://example.com/alice> a schema:Person ;
    schema:age 42 ;
    schema:knows <http://example.com/bob> ;
    schema:name "Alice" .
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("serialization mismatch (-want +got):\n%s", diff)
	}

	again, err := rdf.Turtle{}.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if again.Len() != ds.Len() {
		t.Errorf("expected %d triples after a round-trip, got: %d", ds.Len(), again.Len())
	}
}

func TestTurtleSerializeNamedGraph(t *testing.T) {
	ds := rdf.NewDataset()
	ds.Add("http://example.com/g", rdf.Triple{
		Subject:   rdf.NewIRI("http://example.com/s"),
		Predicate: rdf.NewIRI("http://example.com/p"),
		Object:    rdf.NewIRI("http://example.com/o"),
	})

	_, err := rdf.Turtle{}.Serialize(ds)
	if !errors.Is(err, rdf.ErrUnsupported) {
		t.Fatalf("expected: %s, got: %v", rdf.ErrUnsupported, err)
	}
}
