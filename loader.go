package shortwave

import (
	"context"
	"fmt"

	"sourcery.dny.nu/shortwave/internal/json"
)

// DocumentLoaderFunc is called to retrieve a remote document or context.
//
// It returns a Document, and an error in case retrieval failed.
//
// When building your own loader, please remember that:
//   - [Document.URL] is the URL the document was retrieved from after having
//     followed any redirects.
//   - [Document.Document] is the complete JSON document. For remote contexts
//     the processor extracts the [KeywordContext] entry itself.
//   - Request documents with [ApplicationLDJSON] and, for contexts, profile
//     [ProfileContext]. You can use [mime.FormatMediaType] to build the value
//     for the Accept header.
//   - Have proper timeouts, retry handling and request deduplication.
//   - Make sure to cache the resulting [Document] to avoid unnecessary future
//     requests. Contexts should not change for the lifetime of the
//     application.
//
// See [HTTPLoader] and [FSLoader] for the two loaders shipped with this
// package.
type DocumentLoaderFunc func(context.Context, string) (Document, error)

// Document holds a retrieved document.
//
//   - URL holds the final URL a document was retrieved from, after following
//     redirects.
//   - Document holds the JSON document.
type Document struct {
	URL      string
	Document json.RawMessage
}

// contextValue returns the value of the @context entry of a remote context
// document.
func (d Document) contextValue() (json.RawMessage, error) {
	if !json.IsMap(d.Document) {
		return nil, fmt.Errorf("%w: %s is not a JSON object", ErrInvalidRemoteContext, d.URL)
	}

	var obj json.Object
	if err := json.Unmarshal(d.Document, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRemoteContext, err)
	}

	ctx, ok := obj[KeywordContext]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no @context", ErrInvalidRemoteContext, d.URL)
	}

	return ctx, nil
}

// loadDocument retrieves a remote document through the configured loader.
//
// The returned error always wraps [ErrLoadingDocument] together with the
// cause.
func (p *Processor) loadDocument(ctx context.Context, iri string) (Document, error) {
	if p.loader == nil {
		return Document{}, fmt.Errorf("%w: no document loader configured for %s", ErrLoadingDocument, iri)
	}

	doc, err := p.loader(ctx, iri)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrLoadingDocument, iri, err)
	}

	data, err := json.Normalize(doc.Document)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrLoadingDocument, iri, err)
	}

	doc.Document = data
	if doc.URL == "" {
		doc.URL = iri
	}

	return doc, nil
}
