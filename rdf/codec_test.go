package rdf_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sourcery.dny.nu/shortwave/rdf"
)

func TestDefaultRegistry(t *testing.T) {
	want := []string{
		rdf.MediaTypeNQuads,
		rdf.MediaTypeNQuadsAlias,
		rdf.MediaTypeTurtle,
	}
	if diff := cmp.Diff(want, rdf.DefaultRegistry.Formats()); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}

	for _, mt := range []string{"text/turtle; charset=utf-8", "Text/Turtle", " application/n-quads "} {
		if _, err := rdf.DefaultRegistry.Lookup(mt); err != nil {
			t.Errorf("expected %q to resolve, got: %s", mt, err)
		}
	}

	if _, err := rdf.DefaultRegistry.Lookup("application/ld+json"); !errors.Is(err, rdf.ErrUnknownFormat) {
		t.Errorf("expected: %s, got: %v", rdf.ErrUnknownFormat, err)
	}
}

func TestRegistry(t *testing.T) {
	reg := rdf.NewRegistry()

	const mt = "application/x-lines"

	calls := 0
	reg.Register(mt, rdf.Codec{
		Parser: rdf.ParserFunc(func(data []byte) (*rdf.Dataset, error) {
			calls++
			return rdf.NewDataset(), nil
		}),
	})

	p, err := reg.Parser(mt)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected the parser to be called once, got: %d", calls)
	}

	if _, err := reg.Serializer(mt); !errors.Is(err, rdf.ErrUnknownFormat) {
		t.Errorf("expected: %s, got: %v", rdf.ErrUnknownFormat, err)
	}

	reg.Unregister(mt)
	if _, err := reg.Lookup(mt); !errors.Is(err, rdf.ErrUnknownFormat) {
		t.Errorf("expected: %s, got: %v", rdf.ErrUnknownFormat, err)
	}

	if len(reg.Formats()) != 0 {
		t.Errorf("expected no formats, got: %v", reg.Formats())
	}
}

func TestSerializerFunc(t *testing.T) {
	s := rdf.SerializerFunc(func(ds *rdf.Dataset) ([]byte, error) {
		return []byte("count"), nil
	})

	got, err := s.Serialize(rdf.NewDataset())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "count" {
		t.Errorf("expected count, got: %s", got)
	}
}
