package rdf

import (
	"fmt"
	"maps"

	ld "github.com/piprate/json-gold/ld"
)

// ToGold converts a dataset to a json-gold dataset.
func ToGold(ds *Dataset) *ld.RDFDataset {
	res := ld.NewRDFDataset()

	for graph, t := range ds.Quads() {
		q := ld.NewQuad(goldNode(t.Subject), goldNode(t.Predicate), goldNode(t.Object), graph)
		res.Graphs[graph] = append(res.Graphs[graph], q)
	}

	return res
}

func goldNode(t Term) ld.Node {
	switch t.Kind {
	case KindBlankNode:
		return ld.NewBlankNode(t.Value)
	case KindLiteral:
		return ld.NewLiteral(t.Value, t.Datatype, t.Language)
	default:
		return ld.NewIRI(t.Value)
	}
}

// FromGold converts a json-gold dataset to a dataset.
func FromGold(gd *ld.RDFDataset) (*Dataset, error) {
	ds := NewDataset()

	for graph, quads := range gd.Graphs {
		for _, q := range quads {
			if q == nil {
				continue
			}

			s, err := fromGoldNode(q.Subject)
			if err != nil {
				return nil, err
			}
			p, err := fromGoldNode(q.Predicate)
			if err != nil {
				return nil, err
			}
			o, err := fromGoldNode(q.Object)
			if err != nil {
				return nil, err
			}

			ds.Add(graph, Triple{Subject: s, Predicate: p, Object: o})
		}
	}

	return ds, nil
}

func fromGoldNode(n ld.Node) (Term, error) {
	switch v := n.(type) {
	case *ld.Literal:
		return goldLiteral(v.Value, v.Datatype, v.Language), nil
	case ld.Literal:
		return goldLiteral(v.Value, v.Datatype, v.Language), nil
	}

	switch {
	case n == nil:
		return Term{}, fmt.Errorf("%w: missing term", ErrUnsupported)
	case ld.IsBlankNode(n):
		return NewBlankNode(n.GetValue()), nil
	case ld.IsIRI(n):
		return NewIRI(n.GetValue()), nil
	default:
		return Term{}, fmt.Errorf("%w: term of type %T", ErrUnsupported, n)
	}
}

func goldLiteral(value, datatype, lang string) Term {
	if lang != "" {
		return NewLangLiteral(value, lang)
	}
	return NewLiteral(value, datatype)
}

// NormalizeURDNA2015 canonicalizes the dataset with the URDNA2015 algorithm
// as implemented by json-gold.
//
// Unlike [Canonicalize] it follows the W3C RDF Dataset Canonicalization
// algorithm, so the labels match other implementations of it.
func NormalizeURDNA2015(ds *Dataset) (*Dataset, error) {
	api := ld.NewJsonLdApi()
	opts := ld.NewJsonLdOptions("")
	opts.Format = MediaTypeNQuads
	opts.Algorithm = ld.AlgorithmURDNA2015

	normalized, err := api.Normalize(ToGold(ds), opts)
	if err != nil {
		return nil, fmt.Errorf("urdna2015: %w", err)
	}

	text, ok := normalized.(string)
	if !ok {
		return nil, fmt.Errorf("urdna2015: unexpected result %T", normalized)
	}

	res, err := NQuads{}.Parse([]byte(text))
	if err != nil {
		return nil, err
	}

	maps.Copy(res.Namespaces, ds.Namespaces)
	return res, nil
}
