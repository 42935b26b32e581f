package shortwave_test

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
)

var dump = flag.Bool("dump", false, "dump the produced JSON on test failure")

// MapLoader serves documents from memory. It fails for anything that's not
// in docs.
func MapLoader(tb testing.TB, docs map[string]string) ld.DocumentLoaderFunc {
	tb.Helper()

	return func(_ context.Context, iri string) (ld.Document, error) {
		data, ok := docs[iri]
		if !ok {
			return ld.Document{}, fmt.Errorf("no document for %s", iri)
		}

		return ld.Document{
			URL:      iri,
			Document: json.RawMessage(data),
		}, nil
	}
}

// JSONDiff should be used when diffing JSON documents.
func JSONDiff() cmp.Option {
	return cmp.Options{
		cmp.FilterValues(func(x, y json.RawMessage) bool {
			return json.Valid(x) && json.Valid(y)
		}, cmp.Transformer("ParseJSON", func(in json.RawMessage) (out any) {
			if err := json.Unmarshal(in, &out); err != nil {
				panic(err) // should never occur given previous filter to ensure valid JSON
			}
			return out
		})),
	}
}

// checkErr fails the test if err doesn't match the expectation. It reports
// whether the test should continue to compare results.
func checkErr(t *testing.T, err error, want string) bool {
	t.Helper()

	switch {
	case err == nil && want != "":
		t.Fatalf("expected error: %s, got nil", want)
	case err != nil && want == "":
		t.Fatalf("expected no error, got: %s", err)
	case err != nil:
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error: %s, got: %s", want, err)
		}
		return false
	}

	return true
}

// mustMarshal marshals v or fails the test.
func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal: %s", err)
	}
	return data
}
