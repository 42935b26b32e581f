package shortwave_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name        string
		input, want string
		base        string
		err         string
	}{
		{
			name:  "term definition",
			input: `{"@context":{"name":"http://schema.org/name"},"@id":"http://example.com/alice","name":"Alice"}`,
			want:  `[{"@id":"http://example.com/alice","http://schema.org/name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "vocabulary mapping",
			input: `{"@context":{"@vocab":"http://schema.org/"},"@type":"Person","name":"Alice"}`,
			want:  `[{"@type":["http://schema.org/Person"],"http://schema.org/name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "compact IRI",
			input: `{"@context":{"schema":"http://schema.org/"},"@id":"http://example.com/alice","schema:name":"Alice"}`,
			want:  `[{"@id":"http://example.com/alice","http://schema.org/name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "type coercion to @id",
			input: `{"@context":{"knows":{"@id":"http://schema.org/knows","@type":"@id"}},"@id":"http://example.com/alice","knows":"http://example.com/bob"}`,
			want:  `[{"@id":"http://example.com/alice","http://schema.org/knows":[{"@id":"http://example.com/bob"}]}]`,
		},
		{
			name:  "typed value",
			input: `{"@context":{"born":{"@id":"http://schema.org/birthDate","@type":"http://www.w3.org/2001/XMLSchema#date"}},"@id":"http://example.com/alice","born":"1990-01-01"}`,
			want:  `[{"@id":"http://example.com/alice","http://schema.org/birthDate":[{"@value":"1990-01-01","@type":"http://www.w3.org/2001/XMLSchema#date"}]}]`,
		},
		{
			name:  "relative @id resolved against document URL",
			input: `{"@id":"alice","http://schema.org/name":"Alice"}`,
			base:  "http://example.com/people/",
			want:  `[{"@id":"http://example.com/people/alice","http://schema.org/name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "default language is lowercased",
			input: `{"@context":{"@language":"EN","name":"http://schema.org/name"},"name":"Alice"}`,
			want:  `[{"http://schema.org/name":[{"@value":"Alice","@language":"en"}]}]`,
		},
		{
			name:  "language map",
			input: `{"@context":{"label":{"@id":"http://example.com/label","@container":"@language"}},"@id":"http://example.com/a","label":{"en":"Hello","de":"Hallo"}}`,
			want:  `[{"@id":"http://example.com/a","http://example.com/label":[{"@value":"Hallo","@language":"de"},{"@value":"Hello","@language":"en"}]}]`,
		},
		{
			name:  "list container",
			input: `{"@context":{"items":{"@id":"http://example.com/items","@container":"@list"}},"@id":"http://example.com/a","items":["x","y"]}`,
			want:  `[{"@id":"http://example.com/a","http://example.com/items":[{"@list":[{"@value":"x"},{"@value":"y"}]}]}]`,
		},
		{
			name:  "reverse property",
			input: `{"@context":{"parent":{"@reverse":"http://example.com/child"}},"@id":"http://example.com/a","parent":{"@id":"http://example.com/b"}}`,
			want:  `[{"@id":"http://example.com/a","@reverse":{"http://example.com/child":[{"@id":"http://example.com/b"}]}}]`,
		},
		{
			name:  "JSON literal",
			input: `{"@context":{"data":{"@id":"http://example.com/data","@type":"@json"}},"@id":"http://example.com/a","data":{"b":1,"a":[true]}}`,
			want:  `[{"@id":"http://example.com/a","http://example.com/data":[{"@value":{"b":1,"a":[true]},"@type":"@json"}]}]`,
		},
		{
			name:  "empty array is kept",
			input: `{"@id":"http://example.com/a","http://example.com/p":[]}`,
			want:  `[{"@id":"http://example.com/a","http://example.com/p":[]}]`,
		},
		{
			name:  "unmapped properties are dropped",
			input: `{"@id":"http://example.com/a","unknown":"x","http://schema.org/name":"Alice"}`,
			want:  `[{"@id":"http://example.com/a","http://schema.org/name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "keyword lookalikes are dropped",
			input: `{"@id":"http://example.com/a","@foo":"bar","http://schema.org/name":"Alice"}`,
			want:  `[{"@id":"http://example.com/a","http://schema.org/name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "free-floating value",
			input: `"just a value"`,
			want:  `[]`,
		},
		{
			name:  "node with only @id",
			input: `{"@id":"http://example.com/a"}`,
			want:  `[]`,
		},
		{
			name:  "top-level @graph",
			input: `{"@context":{"@vocab":"http://schema.org/"},"@graph":[{"@id":"http://example.com/a","name":"A"},{"@id":"http://example.com/b","name":"B"}]}`,
			want:  `[{"@id":"http://example.com/a","http://schema.org/name":[{"@value":"A"}]},{"@id":"http://example.com/b","http://schema.org/name":[{"@value":"B"}]}]`,
		},
		{
			name:  "invalid @id value",
			input: `{"@id":5,"http://schema.org/name":"Alice"}`,
			err:   "invalid @id value",
		},
		{
			name:  "invalid @type value",
			input: `{"@type":5,"http://schema.org/name":"Alice"}`,
			err:   "invalid type value",
		},
		{
			name:  "keyword redefinition",
			input: `{"@context":{"@id":"http://example.com/id"},"http://schema.org/name":"Alice"}`,
			err:   "keyword redefinition: @id",
		},
		{
			name:  "colliding keywords",
			input: `{"@context":{"id":"@id"},"@id":"http://example.com/a","id":"http://example.com/b"}`,
			err:   "colliding keywords",
		},
		{
			name:  "invalid value object",
			input: `{"http://example.com/p":{"@value":"x","http://example.com/q":"y"}}`,
			err:   "invalid value object",
		},
		{
			name:  "language on a number",
			input: `{"http://example.com/p":{"@value":5,"@language":"en"}}`,
			err:   "invalid language-tagged value",
		},
		{
			name:  "blank node datatype",
			input: `{"http://example.com/p":{"@value":"x","@type":"_:b0"}}`,
			err:   "invalid typed value",
		},
		{
			name:  "remote context without a loader",
			input: `{"@context":"https://example.com/context.jsonld","http://schema.org/name":"Alice"}`,
			err:   "loading remote context failed",
		},
		{
			name:  "invalid JSON",
			input: `{"@id":`,
			err:   "invalid input",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			proc := ld.NewProcessor()

			got, err := proc.Expand(context.Background(), json.RawMessage(tc.input), tc.base)
			if !checkErr(t, err, tc.err) {
				return
			}

			data := mustMarshal(t, got)
			if diff := cmp.Diff(json.RawMessage(tc.want), data, JSONDiff()); diff != "" {
				if *dump {
					t.Logf("expanded to: %s", data)
				}
				t.Errorf("expansion mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandRemote(t *testing.T) {
	loader := MapLoader(t, map[string]string{
		"https://example.com/doc.jsonld":     `{"@context":{"@vocab":"https://example.com/vocab#"},"@id":"alice","name":"Alice"}`,
		"https://example.com/context.jsonld": `{"@context":{"name":"http://schema.org/name"}}`,
		"https://example.com/a":              `{"@context":"https://example.com/b"}`,
		"https://example.com/b":              `{"@context":"https://example.com/a"}`,
		"https://example.com/nocontext":      `{"name":"http://schema.org/name"}`,
	})

	tests := []struct {
		name        string
		input, want string
		err         string
	}{
		{
			name:  "remote document",
			input: `"https://example.com/doc.jsonld"`,
			want:  `[{"@id":"https://example.com/alice","https://example.com/vocab#name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "remote context",
			input: `{"@context":"https://example.com/context.jsonld","@id":"https://example.com/a","name":"Alice"}`,
			want:  `[{"@id":"https://example.com/a","http://schema.org/name":[{"@value":"Alice"}]}]`,
		},
		{
			name:  "cyclic remote context",
			input: `{"@context":"https://example.com/a","@id":"https://example.com/a"}`,
			err:   "cyclic context",
		},
		{
			name:  "remote context without @context",
			input: `{"@context":"https://example.com/nocontext","@id":"https://example.com/a"}`,
			err:   "invalid remote context",
		},
		{
			name:  "string without a scheme is not fetched",
			input: `"{bad"`,
			want:  `[]`,
		},
		{
			name:  "unknown remote document",
			input: `"https://example.com/missing"`,
			err:   "loading document failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			proc := ld.NewProcessor(ld.WithDocumentLoader(loader))

			got, err := proc.Expand(context.Background(), json.RawMessage(tc.input), "")
			if !checkErr(t, err, tc.err) {
				return
			}

			if diff := cmp.Diff(json.RawMessage(tc.want), mustMarshal(t, got), JSONDiff()); diff != "" {
				t.Errorf("expansion mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandContext(t *testing.T) {
	proc := ld.NewProcessor(
		ld.WithExpandContext(json.RawMessage(`{"@context":{"@vocab":"http://schema.org/"}}`)),
	)

	got, err := proc.Expand(context.Background(), json.RawMessage(`{"name":"Alice"}`), "")
	if err != nil {
		t.Fatal(err)
	}

	want := json.RawMessage(`[{"http://schema.org/name":[{"@value":"Alice"}]}]`)
	if diff := cmp.Diff(want, mustMarshal(t, got), JSONDiff()); diff != "" {
		t.Errorf("expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandProcessingMode(t *testing.T) {
	input := json.RawMessage(`{"@context":{"@version":1.1,"name":"http://schema.org/name"},"name":"Alice"}`)

	_, err := ld.NewProcessor(ld.With10Processing(true)).Expand(context.Background(), input, "")
	if !errors.Is(err, ld.ErrProcessingMode) {
		t.Fatalf("expected: %s, got: %v", ld.ErrProcessingMode, err)
	}

	if _, err := ld.NewProcessor().Expand(context.Background(), input, ""); err != nil {
		t.Fatalf("expected no error in 1.1 mode, got: %s", err)
	}
}

func TestExpandCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ld.NewProcessor().Expand(ctx, json.RawMessage(`{"http://schema.org/name":"Alice"}`), "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected: %s, got: %v", context.Canceled, err)
	}
}
