package shortwave

import (
	"log/slog"
	"maps"
	"slices"

	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/rdf"
)

// ProcessorOption can be used to customise the behaviour of a [Processor].
type ProcessorOption func(*Processor)

// Processor represents a JSON-LD processor.
//
// Your application should only ever need one of them. Do not create a new one
// for each request you're handling. A Processor is safe for concurrent use,
// all state needed for an operation is scoped to that call.
//
// Create one with [NewProcessor] and pass any [ProcessorOption] to configure
// the processor. Use [Processor.With] to derive a processor with a few
// options changed.
type Processor struct {
	modeLD10                  bool
	baseIRI                   string
	compactArrays             bool
	compactToRelative         bool
	loader                    DocumentLoaderFunc
	logger                    *slog.Logger
	expandContext             json.RawMessage
	excludeIRIsFromCompaction []string
	remapPrefixIRIs           map[string]string
	validateContextFunc       ValidateContextFunc
	processedContext          map[string]*Context

	// RDF
	outputForm     OutputForm
	rdfFormat      string
	useNamespaces  bool
	useNativeTypes bool
	useRDFType     bool
	registry       *rdf.Registry

	// framing
	embed       string
	explicit    bool
	omitDefault bool
	requireAll  bool
	omitGraph   bool
}

// NewProcessor creates a new JSON-LD processor.
//
// By default:
//   - Processing mode is JSON-LD 1.1. This can handle both JSON-LD 1.0 and
//     JSON-LD 1.1 documents. To switch to JSON-LD 1.0 only, configure it with
//     [With10Processing].
//   - No loader is configured. Without one, remote documents, remote contexts
//     as well as @import contexts cannot be processed. Set it with
//     [WithDocumentLoader].
//   - Arrays are compacted. Change it with [WithCompactArrays].
//   - IRIs can compact to relative IRIs. Change it with
//     [WithCompactToRelative].
//   - Logger is [slog.DiscardHandler]. Set it with [WithLogger]. The logger is
//     only used to emit warnings.
//   - RDF is read and written as N-Quads using [rdf.DefaultRegistry]. Change
//     it with [WithRDFFormat] and [WithRegistry].
//   - [Processor.FromRDF] returns expanded documents. Change it with
//     [WithOutputForm].
//   - Framing embeds every node once, see [WithEmbed].
func NewProcessor(options ...ProcessorOption) *Processor {
	p := &Processor{
		compactArrays:     true,
		compactToRelative: true,
		logger:            slog.New(slog.DiscardHandler),
		outputForm:        OutputExpanded,
		registry:          rdf.DefaultRegistry,
		embed:             EmbedOnce,
	}

	for _, opt := range options {
		opt(p)
	}

	if p.expandContext != nil {
		p.processedContext = nil
	}

	return p
}

// With returns a copy of the processor with the additional options applied.
//
// The original processor is left untouched.
func (p *Processor) With(options ...ProcessorOption) *Processor {
	np := *p
	np.excludeIRIsFromCompaction = slices.Clone(p.excludeIRIsFromCompaction)
	np.remapPrefixIRIs = maps.Clone(p.remapPrefixIRIs)
	np.processedContext = maps.Clone(p.processedContext)

	for _, opt := range options {
		opt(&np)
	}

	if np.expandContext != nil {
		np.processedContext = nil
	}

	return &np
}

// With10Processing sets the processing mode to json-ld-1.0.
func With10Processing(b bool) ProcessorOption {
	return func(p *Processor) {
		p.modeLD10 = b
	}
}

// WithDocumentLoader sets the function used to retrieve remote documents and
// contexts.
func WithDocumentLoader(l DocumentLoaderFunc) ProcessorOption {
	return func(p *Processor) {
		p.loader = l
	}
}

// WithLogger sets the logger that'll be used to emit warnings during
// processing.
//
// Without a logger no warnings will be emitted when keyword lookalikes are
// encountered that are ignored.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = l
	}
}

// WithBaseIRI sets an explicit base IRI to use.
//
// It takes precedence over the URL of the document being processed.
func WithBaseIRI(iri string) ProcessorOption {
	return func(p *Processor) {
		p.baseIRI = iri
	}
}

// WithCompactArrays sets whether single-valued arrays should
// be reduced to their value where possible.
func WithCompactArrays(b bool) ProcessorOption {
	return func(p *Processor) {
		p.compactArrays = b
	}
}

// WithCompactToRelative sets whether IRIs can be transformed into
// relative IRIs during IRI compaction.
func WithCompactToRelative(b bool) ProcessorOption {
	return func(p *Processor) {
		p.compactToRelative = b
	}
}

// WithExpandContext provides an additional out-of-band context
// that's used during expansion.
//
// The value can either be a context, or a document with a @context entry.
func WithExpandContext(ctx json.RawMessage) ProcessorOption {
	return func(p *Processor) {
		p.expandContext = ctx
	}
}

// WithExcludeIRIsFromCompaction disables IRI compaction for the specified IRIs.
func WithExcludeIRIsFromCompaction(iri ...string) ProcessorOption {
	return func(p *Processor) {
		p.excludeIRIsFromCompaction = iri
	}
}

// WithRemapPrefixIRIs can remap a prefix IRI during context processing.
//
// Prefixes are only remapped for an exact match.
//
// This is useful to remap the incorrect schema.org# to schema.org/.
func WithRemapPrefixIRIs(old, new string) ProcessorOption {
	return func(p *Processor) {
		if p.remapPrefixIRIs == nil {
			p.remapPrefixIRIs = make(map[string]string, 2)
		}
		p.remapPrefixIRIs[old] = new
	}
}

// ValidateContextFunc is called with every context processed from a
// document. Returning false fails processing with [ErrInvalidContext].
type ValidateContextFunc func(*Context) bool

// WithValidateContext sets the function that will be used to validate the
// context after it's been processed.
//
// This can be used in situations where both JSON-LD aware and JSON-LD unaware
// processors will process the same message. It can be used to protect term
// definitions from an unprotected normative context to avoid semantic confusion
// for JSON-LD unaware processors.
func WithValidateContext(f ValidateContextFunc) ProcessorOption {
	return func(p *Processor) {
		p.validateContextFunc = f
	}
}

// WithProcessedContext stores the processed context for an IRI.
//
// It's used to initiate the context if and only if:
//   - No terms have been defined on the context yet.
//   - The first, or only, entry in the document's @context is a remote context.
//
// This can be used to amortise the cost of the initial context processing when
// handling documents that all share a well-known remote context. Any additional
// contexts will be processed normally.
//
// This has no benefit if [WithExpandContext] is used, as in that case terms are
// already defined on the context before any remote contexts are retrieved.
func WithProcessedContext(iri string, ctx *Context) ProcessorOption {
	return func(p *Processor) {
		if p.processedContext == nil {
			p.processedContext = make(map[string]*Context, 2)
		}
		p.processedContext[iri] = ctx
	}
}

// WithOutputForm sets the form of the document returned by
// [Processor.FromRDF].
//
// Compacted and flattened documents use the namespaces of the dataset as
// their context. Any other form results in [ErrUnknown].
func WithOutputForm(f OutputForm) ProcessorOption {
	return func(p *Processor) {
		p.outputForm = f
	}
}

// WithRDFFormat sets the media type used to parse and serialize RDF.
//
// The format must be registered in the registry, see [WithRegistry]. An
// empty format means N-Quads.
func WithRDFFormat(mediaType string) ProcessorOption {
	return func(p *Processor) {
		p.rdfFormat = mediaType
	}
}

// WithRegistry sets the codec registry used to look up RDF formats.
func WithRegistry(r *rdf.Registry) ProcessorOption {
	return func(p *Processor) {
		p.registry = r
	}
}

// WithUseNamespaces records the prefixes of a document's top-level @context
// as namespaces on the dataset produced by [Processor.ToRDF].
func WithUseNamespaces(b bool) ProcessorOption {
	return func(p *Processor) {
		p.useNamespaces = b
	}
}

// WithUseNativeTypes converts xsd:boolean, xsd:integer and xsd:double literals
// to JSON natives when converting from RDF.
func WithUseNativeTypes(b bool) ProcessorOption {
	return func(p *Processor) {
		p.useNativeTypes = b
	}
}

// WithUseRDFType keeps rdf:type triples as properties instead of turning them
// into @type when converting from RDF.
func WithUseRDFType(b bool) ProcessorOption {
	return func(p *Processor) {
		p.useRDFType = b
	}
}

// WithEmbed sets the default @embed flag for framing. It must be one of
// [EmbedOnce], [EmbedAlways] or [EmbedNever].
func WithEmbed(embed string) ProcessorOption {
	return func(p *Processor) {
		p.embed = embed
	}
}

// WithExplicit sets the default @explicit flag for framing.
func WithExplicit(b bool) ProcessorOption {
	return func(p *Processor) {
		p.explicit = b
	}
}

// WithOmitDefault sets the default @omitDefault flag for framing.
func WithOmitDefault(b bool) ProcessorOption {
	return func(p *Processor) {
		p.omitDefault = b
	}
}

// WithRequireAll sets the default @requireAll flag for framing.
func WithRequireAll(b bool) ProcessorOption {
	return func(p *Processor) {
		p.requireAll = b
	}
}

// WithOmitGraph returns a framed document with a single top-level node as
// that node, instead of wrapping it in @graph.
func WithOmitGraph(b bool) ProcessorOption {
	return func(p *Processor) {
		p.omitGraph = b
	}
}
