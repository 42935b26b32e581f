// Package shortwave implements the JSON-LD 1.1 processing algorithms.
//
// All operations hang off a [Processor]. Create one with [NewProcessor] and
// reuse it, it's safe for concurrent use.
//
//   - [Processor.Expand] turns JSON into a list of [Node], JSON-LD expanded
//     document form. Each node has dedicated fields for each JSON-LD keyword,
//     and the catch-all [Node.Properties] for everything else.
//   - [Processor.Compact] shortens an expanded document using a context, to
//     what looks like regular JSON.
//   - [Processor.Flatten] lifts every node to the top level and replaces
//     nested nodes by references.
//   - [Processor.Frame] reshapes a document into the tree described by a
//     frame.
//   - [Processor.ToRDF] and [Processor.FromRDF] convert between JSON-LD and
//     RDF datasets. Serialized RDF is read and written through the codecs of
//     an [rdf.Registry].
//   - [Processor.Normalize] produces a canonical RDF dataset, so that
//     documents that only differ in blank node labels can be compared.
//
// By default a [Processor] cannot load remote documents or contexts. Install a
// [DocumentLoaderFunc] using [WithDocumentLoader]. In order to not depend on
// the network when processing documents, it's strongly recommended to use an
// [FSLoader] with the necessary contexts built-in. [HTTPLoader] retrieves
// documents over HTTP(S).
//
// The only suspension point of any operation is the document loader. It
// receives the context.Context passed to the operation, and cancelling it
// aborts the operation.
//
// # JSON typing
//
// In order to provide a type-safe implementation, JSON scalars (numbers,
// strings, booleans) are not decoded and stored as [json.RawMessage] instead.
// You can use the optionally specified type to decide how to decode the value.
// When the type is unspecified, the following rules can be used:
//   - Numbers with a zero fraction and smaller than 10^21 are int64.
//   - Numbers with a decimal point or a value greater than 10^21 are float64.
//   - Booleans are booleans.
//   - Anything else is a string.
//
// # Constraints
//
// For JSON-LD, there are a few extra constraints on top of JSON:
//   - Do not use keys that look like a JSON-LD keyword: @+alpha characters.
//   - Do not use the empty string for a key.
//   - Keys must be unique.
package shortwave
