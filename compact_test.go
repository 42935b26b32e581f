package shortwave_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
)

// TestCompact expands the input and compacts it again using the context.
//
// Most inputs are already in compacted form, which doubles as a check that
// expansion and compaction round-trip.
func TestCompact(t *testing.T) {
	tests := []struct {
		name                      string
		input, context, want      string
		base                      string
		compactArraysDisabled     bool
		compactToRelativeDisabled bool
		err                       string
	}{
		{
			name:    "term",
			input:   `{"@id":"http://example.com/alice","http://schema.org/name":"Alice"}`,
			context: `{"name":"http://schema.org/name"}`,
			want:    `{"@context":{"name":"http://schema.org/name"},"@id":"http://example.com/alice","name":"Alice"}`,
		},
		{
			name:    "vocabulary mapping",
			input:   `{"@type":"http://schema.org/Person","http://schema.org/name":"Alice"}`,
			context: `{"@vocab":"http://schema.org/"}`,
			want:    `{"@context":{"@vocab":"http://schema.org/"},"@type":"Person","name":"Alice"}`,
		},
		{
			name:    "compact IRIs",
			input:   `{"@type":"http://schema.org/Person","http://schema.org/name":"Alice"}`,
			context: `{"schema":"http://schema.org/"}`,
			want:    `{"@context":{"schema":"http://schema.org/"},"@type":"schema:Person","schema:name":"Alice"}`,
		},
		{
			name:    "context from a document",
			input:   `{"@id":"http://example.com/alice","http://schema.org/name":"Alice"}`,
			context: `{"@context":{"name":"http://schema.org/name"},"name":"ignored"}`,
			want:    `{"@context":{"name":"http://schema.org/name"},"@id":"http://example.com/alice","name":"Alice"}`,
		},
		{
			name:    "keyword aliases",
			input:   `{"@id":"http://example.com/alice","@type":"http://schema.org/Person"}`,
			context: `{"id":"@id","type":"@type"}`,
			want:    `{"@context":{"id":"@id","type":"@type"},"id":"http://example.com/alice","type":"http://schema.org/Person"}`,
		},
		{
			name:    "type coercion to @id",
			input:   `{"@id":"http://example.com/alice","http://schema.org/knows":{"@id":"http://example.com/bob"}}`,
			context: `{"knows":{"@id":"http://schema.org/knows","@type":"@id"}}`,
			want:    `{"@context":{"knows":{"@id":"http://schema.org/knows","@type":"@id"}},"@id":"http://example.com/alice","knows":"http://example.com/bob"}`,
		},
		{
			name:    "default language",
			input:   `{"@id":"http://example.com/alice","http://schema.org/name":{"@value":"Alice","@language":"en"}}`,
			context: `{"@language":"en","name":"http://schema.org/name"}`,
			want:    `{"@context":{"@language":"en","name":"http://schema.org/name"},"@id":"http://example.com/alice","name":"Alice"}`,
		},
		{
			name:    "list container",
			input:   `{"@id":"http://example.com/a","http://example.com/items":{"@list":["x","y"]}}`,
			context: `{"items":{"@id":"http://example.com/items","@container":"@list"}}`,
			want:    `{"@context":{"items":{"@id":"http://example.com/items","@container":"@list"}},"@id":"http://example.com/a","items":["x","y"]}`,
		},
		{
			name:    "multiple nodes use @graph",
			input:   `[{"@id":"http://example.com/a","http://schema.org/name":"A"},{"@id":"http://example.com/b","http://schema.org/name":"B"}]`,
			context: `{"name":"http://schema.org/name"}`,
			want:    `{"@context":{"name":"http://schema.org/name"},"@graph":[{"@id":"http://example.com/a","name":"A"},{"@id":"http://example.com/b","name":"B"}]}`,
		},
		{
			name:                  "without array compaction",
			input:                 `{"@id":"http://example.com/alice","http://schema.org/name":"Alice"}`,
			context:               `{"name":"http://schema.org/name"}`,
			compactArraysDisabled: true,
			want:                  `{"@context":{"name":"http://schema.org/name"},"@graph":[{"@id":"http://example.com/alice","name":["Alice"]}]}`,
		},
		{
			name:    "relative IRIs",
			input:   `{"@id":"http://example.com/people/alice","http://schema.org/name":"Alice"}`,
			context: `{"name":"http://schema.org/name"}`,
			base:    "http://example.com/people/",
			want:    `{"@context":{"name":"http://schema.org/name"},"@id":"alice","name":"Alice"}`,
		},
		{
			name:                      "without relative IRIs",
			input:                     `{"@id":"http://example.com/people/alice","http://schema.org/name":"Alice"}`,
			context:                   `{"name":"http://schema.org/name"}`,
			base:                      "http://example.com/people/",
			compactToRelativeDisabled: true,
			want:                      `{"@context":{"name":"http://schema.org/name"},"@id":"http://example.com/people/alice","name":"Alice"}`,
		},
		{
			name:    "empty context",
			input:   `{"@id":"http://example.com/alice","http://schema.org/name":"Alice"}`,
			context: `{}`,
			want:    `{"@id":"http://example.com/alice","http://schema.org/name":"Alice"}`,
		},
		{
			name:    "empty document",
			input:   `[]`,
			context: `{"name":"http://schema.org/name"}`,
			want:    `{"@context":{"name":"http://schema.org/name"}}`,
		},
		{
			name:    "invalid context",
			input:   `{"@id":"http://example.com/alice","http://schema.org/name":"Alice"}`,
			context: `5`,
			err:     "invalid local context",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			proc := ld.NewProcessor(
				ld.WithCompactArrays(!tc.compactArraysDisabled),
				ld.WithCompactToRelative(!tc.compactToRelativeDisabled),
			)

			got, err := proc.Compact(
				context.Background(),
				json.RawMessage(tc.input),
				json.RawMessage(tc.context),
				tc.base,
			)
			if !checkErr(t, err, tc.err) {
				return
			}

			if diff := cmp.Diff(json.RawMessage(tc.want), got, JSONDiff()); diff != "" {
				if *dump {
					t.Logf("compacted to: %s", got)
				}
				t.Errorf("compaction mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompactNodes(t *testing.T) {
	nodes := []ld.Node{
		{
			ID:   "http://example.com/alice",
			Type: []string{"http://schema.org/Person"},
			Properties: ld.Properties{
				"http://schema.org/name": []ld.Node{{Value: json.RawMessage(`"Alice"`)}},
			},
		},
	}

	got, err := ld.NewProcessor().CompactNodes(
		context.Background(),
		json.RawMessage(`{"@vocab":"http://schema.org/"}`),
		nodes,
		"",
	)
	if err != nil {
		t.Fatal(err)
	}

	want := json.RawMessage(`{"@context":{"@vocab":"http://schema.org/"},"@id":"http://example.com/alice","@type":"Person","name":"Alice"}`)
	if diff := cmp.Diff(want, got, JSONDiff()); diff != "" {
		t.Errorf("compaction mismatch (-want +got):\n%s", diff)
	}
}
