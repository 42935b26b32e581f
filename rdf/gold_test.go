package rdf_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"sourcery.dny.nu/shortwave/rdf"
)

func TestGoldRoundTrip(t *testing.T) {
	ds, err := rdf.NQuads{}.Parse([]byte(nquadsDoc))
	if err != nil {
		t.Fatal(err)
	}

	back, err := rdf.FromGold(rdf.ToGold(ds))
	if err != nil {
		t.Fatal(err)
	}

	want, _ := rdf.NQuads{}.Serialize(ds)
	got, _ := rdf.NQuads{}.Serialize(back)

	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeURDNA2015(t *testing.T) {
	ds, err := rdf.NQuads{}.Parse([]byte(`_:alice <http://schema.org/name> "Alice" .` + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	ds.SetNamespace("schema", "http://schema.org/")

	res, err := rdf.NormalizeURDNA2015(ds)
	if err != nil {
		t.Fatal(err)
	}

	got, err := rdf.NQuads{}.Serialize(res)
	if err != nil {
		t.Fatal(err)
	}

	want := `_:c14n0 <http://schema.org/name> "Alice" .` + "\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("normalization mismatch (-want +got):\n%s", diff)
	}

	if res.Namespaces["schema"] != "http://schema.org/" {
		t.Errorf("expected namespaces to be kept, got: %v", res.Namespaces)
	}
}
