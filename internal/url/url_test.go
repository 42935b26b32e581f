package url

import (
	"strings"
	"testing"
)

func TestRelative(t *testing.T) {
	tests := []struct {
		name string
		base string
		iri  string
		want string
		err  string
	}{
		{name: "child", base: "http://example.com/people/", iri: "http://example.com/people/alice", want: "alice"},
		{name: "sibling", base: "http://example.com/a/b/c", iri: "http://example.com/a/d", want: "../d"},
		{name: "fragment only", base: "http://example.com/doc", iri: "http://example.com/doc#x", want: "#x"},
		{name: "other host", base: "http://example.com/", iri: "http://example.org/a", err: "host or scheme differ"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Relative(tc.base, tc.iri)
			if tc.err != "" {
				if err == nil || !strings.Contains(err.Error(), tc.err) {
					t.Fatalf("expected error containing %q, got: %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got: %q", tc.want, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("http://example.com/a/b", "../c")
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://example.com/c" {
		t.Errorf("expected http://example.com/c, got: %s", got)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		in                 string
		genDelim, absolute bool
	}{
		{in: "http://schema.org/", genDelim: true, absolute: true},
		{in: "http://schema.org/name", absolute: true},
		{in: "relative", absolute: false},
		{in: ""},
	}

	for _, tc := range tests {
		if got := EndsInGenDelim(tc.in); got != tc.genDelim {
			t.Errorf("EndsInGenDelim(%q): expected %t, got: %t", tc.in, tc.genDelim, got)
		}
		if got := IsAbsolute(tc.in); got != tc.absolute {
			t.Errorf("IsAbsolute(%q): expected %t, got: %t", tc.in, tc.absolute, got)
		}
	}

	if !IsIRI("http://example.com/a#") {
		t.Error("expected an empty fragment to be preserved")
	}
}
