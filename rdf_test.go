package shortwave_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/rdf"
)

func TestToRDF(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		options []ld.ProcessorOption
		want    string
		err     string
	}{
		{
			name:  "values and lists",
			input: `{"@context":{"@vocab":"http://schema.org/","items":{"@id":"http://schema.org/items","@container":"@list"}},"@id":"http://example.com/a","name":{"@value":"Alice","@language":"en"},"height":1.75,"items":["x"]}`,
			want: `<http://example.com/a> <http://schema.org/height> "1.75E0"^^<http://www.w3.org/2001/XMLSchema#double> .
<http://example.com/a> <http://schema.org/items> _:b0 .
<http://example.com/a> <http://schema.org/name> "Alice"@en .
_:b0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> "x" .
_:b0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#rest> <http://www.w3.org/1999/02/22-rdf-syntax-ns#nil> .
`,
		},
		{
			name:  "JSON literal",
			input: `{"@context":{"data":{"@id":"http://example.com/data","@type":"@json"}},"@id":"http://example.com/a","data":{"b":1,"a":true}}`,
			want: `<http://example.com/a> <http://example.com/data> "{\"a\":true,\"b\":1}"^^<http://www.w3.org/1999/02/22-rdf-syntax-ns#JSON> .
`,
		},
		{
			name:  "booleans",
			input: `{"@id":"http://example.com/a","http://example.com/p":true}`,
			want: `<http://example.com/a> <http://example.com/p> "true"^^<http://www.w3.org/2001/XMLSchema#boolean> .
`,
		},
		{
			name:  "negative zero",
			input: `{"@id":"http://example.com/a","http://example.com/p":-0.0}`,
			want: `<http://example.com/a> <http://example.com/p> "0"^^<http://www.w3.org/2001/XMLSchema#integer> .
`,
		},
		{
			name:  "relative IRIs are skipped",
			input: `{"@id":"relative","http://schema.org/name":"Alice"}`,
			want:  ``,
		},
		{
			name:    "turtle with namespaces",
			input:   `{"@context":{"schema":"http://schema.org/"},"@id":"http://example.com/alice","schema:name":"Alice"}`,
			options: []ld.ProcessorOption{ld.WithRDFFormat(ld.FormatTurtle), ld.WithUseNamespaces(true)},
			want: `@prefix schema: <http://schema.org/> .

<http://example.com/alice> schema:name "Alice" .
`,
		},
		{
			name:    "namespaces next to a scalar",
			input:   `[5,{"@context":{"schema":"http://schema.org/"},"@id":"http://example.com/alice","schema:name":"Alice"}]`,
			options: []ld.ProcessorOption{ld.WithRDFFormat(ld.FormatTurtle), ld.WithUseNamespaces(true)},
			want: `@prefix schema: <http://schema.org/> .

<http://example.com/alice> schema:name "Alice" .
`,
		},
		{
			name:    "unknown format",
			input:   `{"@id":"http://example.com/a","http://example.com/p":true}`,
			options: []ld.ProcessorOption{ld.WithRDFFormat("application/rdf+xml")},
			err:     "unknown format",
		},
		{
			name:  "invalid input",
			input: `{"@id":5,"http://example.com/p":true}`,
			err:   "invalid @id value",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			proc := ld.NewProcessor(tc.options...)

			got, err := proc.ToRDFText(context.Background(), json.RawMessage(tc.input), "")
			if !checkErr(t, err, tc.err) {
				return
			}

			if diff := cmp.Diff(tc.want, string(got)); diff != "" {
				t.Errorf("RDF mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToRDFDataset(t *testing.T) {
	ds, err := ld.NewProcessor().ToRDF(
		context.Background(),
		json.RawMessage(`{"@id":"http://example.com/g","@graph":[{"@id":"http://example.com/a","http://example.com/p":"x"}]}`),
		"",
	)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{rdf.DefaultGraph, "http://example.com/g"}, ds.GraphNames()); diff != "" {
		t.Errorf("graph names mismatch (-want +got):\n%s", diff)
	}

	if ds.Len() != 1 {
		t.Errorf("expected 1 quad, got: %d", ds.Len())
	}
}

const listQuads = `<http://example.com/a> <http://example.com/p> _:l0 .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> "1"^^<http://www.w3.org/2001/XMLSchema#integer> .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#rest> _:l1 .
_:l1 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> "2"^^<http://www.w3.org/2001/XMLSchema#integer> .
_:l1 <http://www.w3.org/1999/02/22-rdf-syntax-ns#rest> <http://www.w3.org/1999/02/22-rdf-syntax-ns#nil> .
`

func TestFromRDF(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		options []ld.ProcessorOption
		want    string
		err     string
	}{
		{
			name:    "lists with native types",
			input:   listQuads,
			options: []ld.ProcessorOption{ld.WithUseNativeTypes(true)},
			want:    `[{"@id":"http://example.com/a","http://example.com/p":[{"@list":[{"@value":1},{"@value":2}]}]}]`,
		},
		{
			name:  "lists with typed values",
			input: listQuads,
			want: `[{"@id":"http://example.com/a","http://example.com/p":[{"@list":[
				{"@value":"1","@type":"http://www.w3.org/2001/XMLSchema#integer"},
				{"@value":"2","@type":"http://www.w3.org/2001/XMLSchema#integer"}
			]}]}]`,
		},
		{
			name: "types",
			input: `<http://example.com/a> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Person> .
<http://example.com/a> <http://schema.org/name> "Alice"@en .
`,
			want: `[{"@id":"http://example.com/a","@type":["http://schema.org/Person"],"http://schema.org/name":[{"@value":"Alice","@language":"en"}]}]`,
		},
		{
			name: "use rdf:type",
			input: `<http://example.com/a> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Person> .
`,
			options: []ld.ProcessorOption{ld.WithUseRDFType(true)},
			want:    `[{"@id":"http://example.com/a","http://www.w3.org/1999/02/22-rdf-syntax-ns#type":[{"@id":"http://schema.org/Person"}]}]`,
		},
		{
			name: "named graph",
			input: `<http://example.com/a> <http://example.com/p> "x" <http://example.com/g> .
`,
			want: `[{"@id":"http://example.com/g","@graph":[{"@id":"http://example.com/a","http://example.com/p":[{"@value":"x"}]}]}]`,
		},
		{
			name: "list node label shared between graphs",
			input: `<http://example.com/a> <http://example.com/p> _:l0 .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> "x" .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#rest> <http://www.w3.org/1999/02/22-rdf-syntax-ns#nil> .
<http://example.com/a> <http://example.com/p> _:l0 <http://example.com/g> .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> "x" <http://example.com/g> .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#rest> <http://www.w3.org/1999/02/22-rdf-syntax-ns#nil> <http://example.com/g> .
`,
			want: `[
				{"@id":"http://example.com/a","http://example.com/p":[{"@list":[{"@value":"x"}]}]},
				{"@id":"http://example.com/g","@graph":[
					{"@id":"http://example.com/a","http://example.com/p":[{"@list":[{"@value":"x"}]}]}
				]}
			]`,
		},
		{
			name: "invalid list chain",
			input: `<http://example.com/a> <http://example.com/p> _:l0 .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> "1" .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#first> "2" .
_:l0 <http://www.w3.org/1999/02/22-rdf-syntax-ns#rest> <http://www.w3.org/1999/02/22-rdf-syntax-ns#nil> .
`,
			err: "invalid RDF list chain",
		},
		{
			name:    "unknown output form",
			input:   listQuads,
			options: []ld.ProcessorOption{ld.WithOutputForm("bogus")},
			err:     `output form "bogus"`,
		},
		{
			name:  "unparseable input",
			input: `<http://example.com/a> <http://example.com/p> .`,
			err:   "application/n-quads:1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			proc := ld.NewProcessor(tc.options...)

			got, err := proc.FromRDF(context.Background(), []byte(tc.input))
			if !checkErr(t, err, tc.err) {
				return
			}

			if diff := cmp.Diff(json.RawMessage(tc.want), got, JSONDiff()); diff != "" {
				if *dump {
					t.Logf("converted to: %s", got)
				}
				t.Errorf("conversion mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromRDFCompacted(t *testing.T) {
	proc := ld.NewProcessor(
		ld.WithRDFFormat(ld.FormatTurtle),
		ld.WithOutputForm(ld.OutputCompacted),
	)

	doc := `@prefix schema: <http://schema.org/> .
<http://example.com/alice> a schema:Person ; schema:name "Alice" .
`

	got, err := proc.FromRDF(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	want := json.RawMessage(`{"@context":{"schema":"http://schema.org/"},"@id":"http://example.com/alice","@type":"schema:Person","schema:name":"Alice"}`)
	if diff := cmp.Diff(want, got, JSONDiff()); diff != "" {
		t.Errorf("conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRDFErrors(t *testing.T) {
	_, err := ld.NewProcessor(ld.WithRDFFormat("application/rdf+xml")).FromRDF(context.Background(), nil)
	if !errors.Is(err, ld.ErrUnknownFormat) {
		t.Errorf("expected: %s, got: %v", ld.ErrUnknownFormat, err)
	}

	_, err = ld.NewProcessor(ld.WithOutputForm("bogus")).FromRDF(context.Background(), []byte(listQuads))
	if !errors.Is(err, ld.ErrUnknown) {
		t.Errorf("expected: %s, got: %v", ld.ErrUnknown, err)
	}
}

func TestRegistryOption(t *testing.T) {
	reg := rdf.NewRegistry()
	reg.Register("application/x-count", rdf.Codec{
		Serializer: rdf.SerializerFunc(func(ds *rdf.Dataset) ([]byte, error) {
			return []byte{byte('0' + ds.Len())}, nil
		}),
	})

	proc := ld.NewProcessor(
		ld.WithRegistry(reg),
		ld.WithRDFFormat("application/x-count"),
	)

	got, err := proc.ToRDFText(context.Background(),
		json.RawMessage(`{"@id":"http://example.com/a","http://example.com/p":["x","y"]}`), "")
	if err != nil {
		t.Fatal(err)
	}

	if string(got) != "2" {
		t.Errorf("expected 2, got: %s", got)
	}

	// N-Quads isn't registered with the custom registry.
	_, err = proc.With(ld.WithRDFFormat(ld.FormatNQuads)).ToRDFText(context.Background(),
		json.RawMessage(`{"@id":"http://example.com/a","http://example.com/p":"x"}`), "")
	if !errors.Is(err, ld.ErrUnknownFormat) {
		t.Errorf("expected: %s, got: %v", ld.ErrUnknownFormat, err)
	}
}
