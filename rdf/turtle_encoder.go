package rdf

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// Serialize writes the default graph of the dataset as Turtle.
//
// Triples are grouped by subject, with subjects and predicates in sorted
// order. IRIs are abbreviated with the namespaces of the dataset where the
// local part allows it.
func (Turtle) Serialize(ds *Dataset) ([]byte, error) {
	for name, triples := range ds.Graphs {
		if name != DefaultGraph && len(triples) > 0 {
			return nil, fmt.Errorf("%w: turtle can't hold named graph %s", ErrUnsupported, name)
		}
	}

	var buf bytes.Buffer

	prefixes := slices.Sorted(maps.Keys(ds.Namespaces))
	for _, prefix := range prefixes {
		fmt.Fprintf(&buf, "@prefix %s: <%s> .\n", prefix, ds.Namespaces[prefix])
	}
	if len(prefixes) > 0 {
		buf.WriteByte('\n')
	}

	enc := turtleEncoder{namespaces: ds.Namespaces}

	bySubject := map[string][]Triple{}
	subjects := map[string]Term{}
	for _, t := range ds.Graphs[DefaultGraph] {
		key := t.Subject.String()
		bySubject[key] = append(bySubject[key], t)
		subjects[key] = t.Subject
	}

	for _, key := range slices.Sorted(maps.Keys(bySubject)) {
		triples := bySubject[key]
		slices.SortFunc(triples, func(a, b Triple) int {
			if c := strings.Compare(predicateKey(a.Predicate), predicateKey(b.Predicate)); c != 0 {
				return c
			}
			return strings.Compare(a.Object.String(), b.Object.String())
		})

		buf.WriteString(enc.term(subjects[key]))

		for i, t := range triples {
			switch {
			case i == 0:
				buf.WriteByte(' ')
				buf.WriteString(enc.predicate(t.Predicate))
				buf.WriteByte(' ')
			case t.Predicate == triples[i-1].Predicate:
				buf.WriteString(", ")
			default:
				buf.WriteString(" ;\n    ")
				buf.WriteString(enc.predicate(t.Predicate))
				buf.WriteByte(' ')
			}
			buf.WriteString(enc.term(t.Object))
		}

		buf.WriteString(" .\n")
	}

	return buf.Bytes(), nil
}

// predicateKey sorts rdf:type first.
func predicateKey(t Term) string {
	if t.Value == RDFType {
		return ""
	}
	return t.Value
}

type turtleEncoder struct {
	namespaces map[string]string
}

func (e turtleEncoder) predicate(t Term) string {
	if t.Value == RDFType {
		return "a"
	}
	return e.term(t)
}

func (e turtleEncoder) term(t Term) string {
	switch t.Kind {
	case KindIRI:
		return e.iri(t.Value)
	case KindLiteral:
		switch t.Datatype {
		case XSDBoolean:
			if t.Value == "true" || t.Value == "false" {
				return t.Value
			}
		case XSDInteger:
			if isTurtleInteger(t.Value) {
				return t.Value
			}
		}

		if t.Language != "" || t.Datatype == XSDString || t.Datatype == "" {
			return t.String()
		}
		return `"` + escapeString(t.Value) + `"^^` + e.iri(t.Datatype)
	default:
		return t.String()
	}
}

// iri abbreviates an IRI to a prefixed name using the longest matching
// namespace.
func (e turtleEncoder) iri(iri string) string {
	best := ""
	bestPrefix := ""
	for prefix, ns := range e.namespaces {
		if ns == "" || !strings.HasPrefix(iri, ns) || len(ns) < len(best) {
			continue
		}
		if len(ns) == len(best) && prefix > bestPrefix {
			continue
		}
		if !isLocalName(iri[len(ns):]) {
			continue
		}
		best, bestPrefix = ns, prefix
	}

	if best == "" {
		return "<" + iri + ">"
	}
	return bestPrefix + ":" + iri[len(best):]
}

func isLocalName(s string) bool {
	if s == "" {
		return true
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '_':
		case unicode.IsDigit(r), r == '-':
			if i == 0 && r == '-' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isTurtleInteger(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
