package rdf

import (
	"cmp"
	"iter"
	"maps"
	"slices"
	"strings"

	"sourcery.dny.nu/shortwave/internal/json"
)

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// KindIRI represents an IRI term.
	KindIRI TermKind = iota + 1
	// KindBlankNode represents a blank node term.
	KindBlankNode
	// KindLiteral represents a literal term.
	KindLiteral
)

// DefaultGraph is the name the default graph is stored under in a [Dataset].
const DefaultGraph = "@default"

// Term is a value that can appear in RDF statements.
//
// For IRIs Value holds the IRI, for blank nodes the identifier including the
// _: prefix and for literals the lexical form. Literals always have a
// Datatype, language-tagged strings additionally a Language.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
	Language string
}

// NewIRI returns an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewBlankNode returns a blank node term. The _: prefix is added if missing.
func NewBlankNode(id string) Term {
	if !strings.HasPrefix(id, "_:") {
		id = "_:" + id
	}
	return Term{Kind: KindBlankNode, Value: id}
}

// NewLiteral returns a typed literal. An empty datatype means xsd:string.
func NewLiteral(lexical, datatype string) Term {
	return Term{
		Kind:     KindLiteral,
		Value:    lexical,
		Datatype: cmp.Or(datatype, XSDString),
	}
}

// NewLangLiteral returns a language-tagged string.
func NewLangLiteral(lexical, lang string) Term {
	return Term{
		Kind:     KindLiteral,
		Value:    lexical,
		Datatype: RDFLangString,
		Language: lang,
	}
}

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == KindIRI }

// IsBlankNode reports whether the term is a blank node.
func (t Term) IsBlankNode() bool { return t.Kind == KindBlankNode }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String returns the term in N-Quads syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlankNode:
		return t.Value
	case KindLiteral:
		var b strings.Builder
		b.WriteByte('"')
		b.WriteString(escapeString(t.Value))
		b.WriteByte('"')
		switch {
		case t.Language != "":
			b.WriteByte('@')
			b.WriteString(t.Language)
		case t.Datatype != "" && t.Datatype != XSDString:
			b.WriteString("^^<")
			b.WriteString(t.Datatype)
			b.WriteByte('>')
		}
		return b.String()
	default:
		return ""
	}
}

// Triple is an RDF triple.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// String returns the triple in N-Triples syntax, without the trailing
// newline.
func (t Triple) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String() + " ."
}

// quad returns the statement in N-Quads syntax for the given graph.
func (t Triple) quad(graph string) string {
	if graph == DefaultGraph || graph == "" {
		return t.String()
	}

	return t.Subject.String() + " " + t.Predicate.String() + " " +
		t.Object.String() + " " + graphTerm(graph).String() + " ."
}

// graphTerm returns the term for a graph name.
func graphTerm(name string) Term {
	if strings.HasPrefix(name, "_:") {
		return NewBlankNode(name)
	}
	return NewIRI(name)
}

// Dataset is a set of graphs, each a set of triples.
//
// The default graph is stored under [DefaultGraph]. Named graphs are keyed by
// their IRI or blank node identifier. Namespaces holds prefix hints, mapping a
// prefix to an IRI. The empty prefix is the vocabulary.
type Dataset struct {
	Graphs     map[string][]Triple
	Namespaces map[string]string

	seen map[string]struct{}
}

// NewDataset returns an empty dataset holding an empty default graph.
func NewDataset() *Dataset {
	return &Dataset{
		Graphs:     map[string][]Triple{DefaultGraph: {}},
		Namespaces: map[string]string{},
	}
}

// Add adds a triple to the named graph. Duplicate triples are ignored.
func (d *Dataset) Add(graph string, t Triple) {
	graph = cmp.Or(graph, DefaultGraph)

	if d.Graphs == nil {
		d.Graphs = map[string][]Triple{DefaultGraph: {}}
	}

	if d.seen == nil {
		d.seen = make(map[string]struct{}, 32)
		for name, triples := range d.Graphs {
			for _, tr := range triples {
				d.seen[tr.quad(name)] = struct{}{}
			}
		}
	}

	key := t.quad(graph)
	if _, ok := d.seen[key]; ok {
		return
	}
	d.seen[key] = struct{}{}
	d.Graphs[graph] = append(d.Graphs[graph], t)
}

// GraphNames returns the names of the graphs in the dataset. The default
// graph comes first, the named graphs are sorted.
func (d *Dataset) GraphNames() []string {
	names := slices.Sorted(maps.Keys(d.Graphs))
	if i := slices.Index(names, DefaultGraph); i > 0 {
		names = slices.Delete(names, i, i+1)
		names = slices.Insert(names, 0, DefaultGraph)
	}
	return names
}

// Quads iterates over every triple together with its graph name.
func (d *Dataset) Quads() iter.Seq2[string, Triple] {
	return func(yield func(string, Triple) bool) {
		for _, name := range d.GraphNames() {
			for _, t := range d.Graphs[name] {
				if !yield(name, t) {
					return
				}
			}
		}
	}
}

// Len returns the number of triples across all graphs.
func (d *Dataset) Len() int {
	n := 0
	for _, triples := range d.Graphs {
		n += len(triples)
	}
	return n
}

// SetNamespace records a prefix hint.
func (d *Dataset) SetNamespace(prefix, iri string) {
	if d.Namespaces == nil {
		d.Namespaces = map[string]string{}
	}
	d.Namespaces[prefix] = iri
}

// Context returns a JSON-LD context built from the namespaces of the
// dataset, or nil if there are none.
func (d *Dataset) Context() json.RawMessage {
	if len(d.Namespaces) == 0 {
		return nil
	}

	res := make(map[string]string, len(d.Namespaces))
	for prefix, iri := range d.Namespaces {
		if prefix == "" {
			res["@vocab"] = iri
			continue
		}
		res[prefix] = iri
	}

	data, err := json.Marshal(res)
	if err != nil {
		return nil
	}
	return data
}

// Clone returns a copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	res := &Dataset{
		Graphs:     make(map[string][]Triple, len(d.Graphs)),
		Namespaces: maps.Clone(d.Namespaces),
	}
	for name, triples := range d.Graphs {
		res.Graphs[name] = slices.Clone(triples)
	}
	return res
}
