package shortwave_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
)

func TestExcludeIRIsFromCompaction(t *testing.T) {
	excl := "https://www.w3.org/ns/activitystreams#Public"

	proc := ld.NewProcessor(
		ld.WithExcludeIRIsFromCompaction(excl),
	)

	graph := ld.Node{
		ID:   "https://example.com",
		Type: []string{"https://www.w3.org/ns/activitystreams#Create"},
		Properties: ld.Properties{
			"https://www.w3.org/ns/activitystreams#to": []ld.Node{
				{ID: excl},
			},
		},
	}

	got, err := proc.CompactNodes(context.Background(),
		json.RawMessage(`{"as": "https://www.w3.org/ns/activitystreams#"}`),
		[]ld.Node{graph},
		"",
	)
	if err != nil {
		t.Fatal(err.Error())
	}

	want := json.RawMessage(`{"@context":{"as": "https://www.w3.org/ns/activitystreams#"},"@id": "https://example.com", "@type": "as:Create", "as:to": {"@id": "https://www.w3.org/ns/activitystreams#Public"}}`)

	if diff := cmp.Diff(want, got, JSONDiff()); diff != "" {
		t.Errorf("compaction mismatch (-want +got):\n%s", diff)
	}
}

func TestRemapPrefixIRIs(t *testing.T) {
	proc := ld.NewProcessor(
		ld.WithRemapPrefixIRIs("http://schema.org#", "http://schema.org/"),
	)

	compacted := json.RawMessage(`{"@context":{"schema":"http://schema.org#"}, "@id":"https://example.com", "schema:name": "Alice"}`)

	nodes, err := proc.Expand(context.Background(), compacted, "")
	if err != nil {
		t.Fatal(err.Error())
	}

	if _, ok := nodes[0].Properties["http://schema.org/name"]; !ok {
		t.Logf("%#v\n", nodes[0])
		t.Fatal("expected IRI to remap.")
	}

	got, err := proc.CompactNodes(context.Background(), json.RawMessage(`{"schema":"http://schema.org#"}`), nodes, "")
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Contains(got, []byte(`schema.org/`)) {
		t.Fatal("remap did not apply to compact")
	}
}

func TestValidateContextFunc(t *testing.T) {
	proc := ld.NewProcessor(
		ld.WithValidateContext(func(ctx *ld.Context) bool {
			if def, ok := ctx.Term("test"); ok {
				return def.IRI == "https://example.com/test"
			}

			return true
		}),
	)

	compacted := json.RawMessage(`{"@context":{"test": "https://example.com/different"}, "test": "value"}`)

	_, err := proc.Expand(context.Background(), compacted, "")
	if !errors.Is(err, ld.ErrInvalidContext) {
		t.Fatalf("expected: %s, got: %s", ld.ErrInvalidContext, err)
	}

	valid := json.RawMessage(`{"@context":{"test": "https://example.com/test"}, "test": "value"}`)
	if _, err := proc.Expand(context.Background(), valid, ""); err != nil {
		t.Fatalf("expected no error, got: %s", err)
	}
}

func TestProcessedContext(t *testing.T) {
	const iri = "https://example.com/context.jsonld"

	loader := MapLoader(t, map[string]string{
		iri: `{"@context":{"name":"http://schema.org/name"}}`,
	})

	pctx, err := ld.NewProcessor(ld.WithDocumentLoader(loader)).Context(
		context.Background(), json.RawMessage(`"`+iri+`"`), "")
	if err != nil {
		t.Fatal(err)
	}

	// Without a loader the context can only come from the processed one.
	proc := ld.NewProcessor(ld.WithProcessedContext(iri, pctx))

	got, err := proc.Expand(context.Background(),
		json.RawMessage(`{"@context":"`+iri+`","@id":"https://example.com/a","name":"Alice"}`), "")
	if err != nil {
		t.Fatal(err)
	}

	want := json.RawMessage(`[{"@id":"https://example.com/a","http://schema.org/name":[{"@value":"Alice"}]}]`)
	if diff := cmp.Diff(want, mustMarshal(t, got), JSONDiff()); diff != "" {
		t.Errorf("expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestContext(t *testing.T) {
	proc := ld.NewProcessor()

	active, err := proc.Context(context.Background(), json.RawMessage(`{
		"@vocab": "http://schema.org/",
		"knows": {"@id": "http://schema.org/knows", "@type": "@id"},
		"ex": "http://example.com/"
	}`), "http://example.com/doc")
	if err != nil {
		t.Fatal(err)
	}

	if got := active.Vocab(); got != "http://schema.org/" {
		t.Errorf("expected vocab http://schema.org/, got: %s", got)
	}

	if got := active.Base(); got != "http://example.com/doc" {
		t.Errorf("expected base http://example.com/doc, got: %s", got)
	}

	knows, ok := active.Term("knows")
	if !ok {
		t.Fatal("expected knows to be defined")
	}
	if knows.IRI != "http://schema.org/knows" || knows.Type != ld.KeywordID {
		t.Errorf("unexpected definition for knows: %#v", knows)
	}

	ex, ok := active.Term("ex")
	if !ok || !ex.Prefix {
		t.Errorf("expected ex to be a prefix, got: %#v", ex)
	}

	var terms []string
	for term := range active.Terms() {
		terms = append(terms, term)
	}
	if diff := cmp.Diff([]string{"ex", "knows"}, terms); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
}

func TestContextSerialize(t *testing.T) {
	proc := ld.NewProcessor()

	local := json.RawMessage(`{"@vocab":"http://schema.org/","knows":{"@id":"http://schema.org/knows","@type":"@id"}}`)

	active, err := proc.Context(context.Background(), local, "")
	if err != nil {
		t.Fatal(err)
	}

	serialized, err := active.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	again, err := proc.Context(context.Background(), serialized, "")
	if err != nil {
		t.Fatal(err)
	}

	if again.Vocab() != active.Vocab() {
		t.Errorf("vocab mismatch: %s != %s", again.Vocab(), active.Vocab())
	}

	want, _ := active.Term("knows")
	got, _ := again.Term("knows")
	if want.IRI != got.IRI || want.Type != got.Type {
		t.Errorf("term mismatch: %#v != %#v", want, got)
	}
}

func TestProcessorWith(t *testing.T) {
	base := ld.NewProcessor()
	derived := base.With(ld.WithBaseIRI("http://example.com/"))

	input := json.RawMessage(`{"@id":"alice","http://schema.org/name":"Alice"}`)

	got, err := derived.Expand(context.Background(), input, "")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "http://example.com/alice" {
		t.Errorf("expected the base IRI to apply, got: %s", got[0].ID)
	}

	got, err = base.Expand(context.Background(), input, "")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "alice" {
		t.Errorf("expected the original processor to be untouched, got: %s", got[0].ID)
	}
}
