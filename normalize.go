package shortwave

import (
	"context"

	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/rdf"
)

// Normalize transforms a JSON document into a canonical RDF dataset.
//
// Isomorphic documents, those that only differ in blank node labels and the
// order of their statements, result in the same dataset. Blank nodes are
// relabelled to _:c14n0, _:c14n1 and so on. See [rdf.Canonicalize].
//
// The RDF format option doesn't apply, use [Processor.NormalizeText] to get
// N-Quads.
func (p *Processor) Normalize(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
) (*rdf.Dataset, error) {
	ds, err := p.With(WithRDFFormat("")).ToRDF(ctx, input, documentURL)
	if err != nil {
		return nil, err
	}

	return rdf.Canonicalize(ds)
}

// NormalizeText is like [Processor.Normalize] but returns the dataset as
// sorted N-Quads.
func (p *Processor) NormalizeText(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
) ([]byte, error) {
	ds, err := p.Normalize(ctx, input, documentURL)
	if err != nil {
		return nil, err
	}

	return rdf.NQuads{}.Serialize(ds)
}
