package rdf_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sourcery.dny.nu/shortwave/rdf"
)

const nquadsDoc = `# a comment
<http://example.com/s> <http://example.com/p> "hello"@en .
<http://example.com/s> <http://example.com/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> <http://example.com/g> .
_:b0 <http://example.com/p> <http://example.com/o> . # trailing
_:b0 <http://example.com/p> "line\nbreak \"quoted\"" .
`

func TestNQuadsParse(t *testing.T) {
	ds, err := rdf.NQuads{}.Parse([]byte(nquadsDoc))
	if err != nil {
		t.Fatal(err)
	}

	if ds.Len() != 4 {
		t.Fatalf("expected 4 quads, got: %d", ds.Len())
	}

	if diff := cmp.Diff([]string{rdf.DefaultGraph, "http://example.com/g"}, ds.GraphNames()); diff != "" {
		t.Errorf("graph names mismatch (-want +got):\n%s", diff)
	}

	want := []rdf.Triple{
		{
			Subject:   rdf.NewIRI("http://example.com/s"),
			Predicate: rdf.NewIRI("http://example.com/p"),
			Object:    rdf.NewLangLiteral("hello", "en"),
		},
		{
			Subject:   rdf.NewBlankNode("b0"),
			Predicate: rdf.NewIRI("http://example.com/p"),
			Object:    rdf.NewIRI("http://example.com/o"),
		},
		{
			Subject:   rdf.NewBlankNode("b0"),
			Predicate: rdf.NewIRI("http://example.com/p"),
			Object:    rdf.NewLiteral("line\nbreak \"quoted\"", ""),
		},
	}
	if diff := cmp.Diff(want, ds.Graphs[rdf.DefaultGraph]); diff != "" {
		t.Errorf("default graph mismatch (-want +got):\n%s", diff)
	}

	named := ds.Graphs["http://example.com/g"]
	if len(named) != 1 {
		t.Fatalf("expected 1 triple in the named graph, got: %d", len(named))
	}
	if obj := named[0].Object; obj.Value != "1" || obj.Datatype != rdf.XSDInteger {
		t.Errorf("unexpected object: %#v", obj)
	}
}

func TestNQuadsSerialize(t *testing.T) {
	ds, err := rdf.NQuads{}.Parse([]byte(nquadsDoc))
	if err != nil {
		t.Fatal(err)
	}

	got, err := rdf.NQuads{}.Serialize(ds)
	if err != nil {
		t.Fatal(err)
	}

	want := `<http://example.com/s> <http://example.com/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> <http://example.com/g> .
<http://example.com/s> <http://example.com/p> "hello"@en .
_:b0 <http://example.com/p> "line\nbreak \"quoted\"" .
_:b0 <http://example.com/p> <http://example.com/o> .
`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("serialization mismatch (-want +got):\n%s", diff)
	}

	again, err := rdf.NQuads{}.Parse(got)
	if err != nil {
		t.Fatal(err)
	}
	if again.Len() != ds.Len() {
		t.Errorf("expected %d quads after a round-trip, got: %d", ds.Len(), again.Len())
	}
}

func TestNQuadsDuplicates(t *testing.T) {
	doc := `<http://example.com/s> <http://example.com/p> "a" .
<http://example.com/s> <http://example.com/p> "a" .
<http://example.com/s> <http://example.com/p> "a"^^<http://www.w3.org/2001/XMLSchema#string> .
`

	ds, err := rdf.NQuads{}.Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	if ds.Len() != 1 {
		t.Errorf("expected duplicates to be dropped, got: %d quads", ds.Len())
	}
}

func TestNQuadsParseError(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{
			name:  "missing object",
			input: "<http://example.com/s> <http://example.com/p> \"o\" .\n<http://example.com/s> <http://example.com/p> .\n",
			line:  2,
		},
		{
			name:  "literal predicate",
			input: "<http://example.com/s> \"p\" <http://example.com/o> .\n",
			line:  1,
		},
		{
			name:  "invalid escape",
			input: "<http://example.com/s> <http://example.com/p> \"\\q\" .\n",
			line:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := rdf.NQuads{}.Parse([]byte(tc.input))

			var perr *rdf.ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected a parse error, got: %v", err)
			}

			if perr.Format != rdf.MediaTypeNQuads {
				t.Errorf("expected format %s, got: %s", rdf.MediaTypeNQuads, perr.Format)
			}
			if perr.Line != tc.line {
				t.Errorf("expected line %d, got: %d", tc.line, perr.Line)
			}
		})
	}
}
