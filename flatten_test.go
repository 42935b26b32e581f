package shortwave_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name                 string
		input, context, want string
		err                  string
	}{
		{
			name:  "nested node is lifted",
			input: `{"@context":{"@vocab":"http://schema.org/"},"@id":"http://example.com/alice","name":"Alice","knows":{"name":"Bob"}}`,
			want: `[
				{"@id":"_:b0","http://schema.org/name":[{"@value":"Bob"}]},
				{"@id":"http://example.com/alice","http://schema.org/knows":[{"@id":"_:b0"}],"http://schema.org/name":[{"@value":"Alice"}]}
			]`,
		},
		{
			name:    "compacted with a context",
			input:   `{"@context":{"@vocab":"http://schema.org/"},"@id":"http://example.com/alice","name":"Alice","knows":{"name":"Bob"}}`,
			context: `{"@vocab":"http://schema.org/"}`,
			want: `{"@context":{"@vocab":"http://schema.org/"},"@graph":[
				{"@id":"_:b0","name":"Bob"},
				{"@id":"http://example.com/alice","knows":{"@id":"_:b0"},"name":"Alice"}
			]}`,
		},
		{
			name:  "bare references are left out",
			input: `{"@id":"http://example.com/a","http://example.com/p":{"@id":"http://example.com/b"}}`,
			want:  `[{"@id":"http://example.com/a","http://example.com/p":[{"@id":"http://example.com/b"}]}]`,
		},
		{
			name:  "blank nodes are relabelled",
			input: `{"@id":"_:foo","http://example.com/p":"x"}`,
			want:  `[{"@id":"_:b0","http://example.com/p":[{"@value":"x"}]}]`,
		},
		{
			name:  "nodes with the same identifier are merged",
			input: `[{"@id":"http://example.com/a","http://example.com/p":"x"},{"@id":"http://example.com/a","http://example.com/p":"y"}]`,
			want:  `[{"@id":"http://example.com/a","http://example.com/p":[{"@value":"x"},{"@value":"y"}]}]`,
		},
		{
			name:  "named graph",
			input: `{"@id":"http://example.com/g","@graph":[{"@id":"http://example.com/a","http://example.com/p":"x"}]}`,
			want:  `[{"@id":"http://example.com/g","@graph":[{"@id":"http://example.com/a","http://example.com/p":[{"@value":"x"}]}]}]`,
		},
		{
			name:  "invalid input",
			input: `{"@id":5,"http://example.com/p":"x"}`,
			err:   "invalid @id value",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var flattenContext json.RawMessage
			if tc.context != "" {
				flattenContext = json.RawMessage(tc.context)
			}

			got, err := ld.NewProcessor().Flatten(
				context.Background(),
				json.RawMessage(tc.input),
				flattenContext,
				"",
			)
			if !checkErr(t, err, tc.err) {
				return
			}

			if diff := cmp.Diff(json.RawMessage(tc.want), got, JSONDiff()); diff != "" {
				if *dump {
					t.Logf("flattened to: %s", got)
				}
				t.Errorf("flattening mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlattenNodes(t *testing.T) {
	nodes := []ld.Node{
		{
			ID: "http://example.com/alice",
			Properties: ld.Properties{
				"http://schema.org/knows": []ld.Node{
					{
						ID: "_:bob",
						Properties: ld.Properties{
							"http://schema.org/name": []ld.Node{{Value: json.RawMessage(`"Bob"`)}},
						},
					},
				},
			},
		},
	}

	got, err := ld.NewProcessor().FlattenNodes(context.Background(), nodes)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 nodes, got: %d", len(got))
	}

	want := json.RawMessage(`[
		{"@id":"_:b0","http://schema.org/name":[{"@value":"Bob"}]},
		{"@id":"http://example.com/alice","http://schema.org/knows":[{"@id":"_:b0"}]}
	]`)
	if diff := cmp.Diff(want, mustMarshal(t, got), JSONDiff()); diff != "" {
		t.Errorf("flattening mismatch (-want +got):\n%s", diff)
	}

	if nodes[0].Properties["http://schema.org/knows"][0].ID != "_:bob" {
		t.Error("expected the input to be untouched")
	}
}
