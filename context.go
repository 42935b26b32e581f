package shortwave

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"sourcery.dny.nu/shortwave/internal/bnode"
	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/internal/url"
)

// RemoteContextLimit is the recursion limit for resolving remote contexts.
const RemoteContextLimit = 10

// Context represents a processed JSON-LD context.
//
// A Context is never modified once processing returns it. Processing a
// nested @context always results in a new Context.
type Context struct {
	defs            map[string]Term
	protected       map[string]struct{}
	currentBaseIRI  string
	originalBaseIRI string
	explicitBase    bool

	vocabMapping     string
	defaultLang      string
	defaultDirection string
	previousContext  *Context
	inverse          inverseContext
}

// newContext initialises a new context with the specified documentURL set as
// the current and original base IRI.
func newContext(documentURL string) *Context {
	return &Context{
		defs:            make(map[string]Term),
		protected:       make(map[string]struct{}),
		currentBaseIRI:  documentURL,
		originalBaseIRI: documentURL,
	}
}

// Terms returns an iterator over context term definitions, ordered by term.
func (c *Context) Terms() iter.Seq2[string, Term] {
	return func(yield func(string, Term) bool) {
		for _, k := range sortedKeys(c.defs) {
			if !yield(k, c.defs[k]) {
				return
			}
		}
	}
}

// Term returns the definition of a term.
func (c *Context) Term(term string) (Term, bool) {
	def, ok := c.defs[term]
	return def, ok
}

// Base returns the base IRI of the context.
func (c *Context) Base() string {
	return c.currentBaseIRI
}

// Vocab returns the vocabulary mapping of the context.
func (c *Context) Vocab() string {
	return c.vocabMapping
}

func (c *Context) initInverse() {
	if c.inverse == nil {
		c.inverse = workIt(c)
	}
}

func (c *Context) clone() *Context {
	return &Context{
		defs:             maps.Clone(c.defs),
		protected:        maps.Clone(c.protected),
		currentBaseIRI:   c.currentBaseIRI,
		originalBaseIRI:  c.originalBaseIRI,
		explicitBase:     c.explicitBase,
		vocabMapping:     c.vocabMapping,
		defaultLang:      c.defaultLang,
		defaultDirection: c.defaultDirection,
		previousContext:  c.previousContext,
		inverse:          nil,
	}
}

// Serialize returns the context as a JSON-LD context object.
//
// Processing the result against an empty context with the same base results
// in an equivalent context.
func (c *Context) Serialize() (json.RawMessage, error) {
	res := make(map[string]any, len(c.defs)+4)

	if c.explicitBase {
		if c.currentBaseIRI == "" {
			res[KeywordBase] = nil
		} else {
			res[KeywordBase] = c.currentBaseIRI
		}
	}

	if c.vocabMapping != "" {
		res[KeywordVocab] = c.vocabMapping
	}

	if c.defaultLang != "" {
		res[KeywordLanguage] = c.defaultLang
	}

	if c.defaultDirection != "" {
		res[KeywordDirection] = c.defaultDirection
	}

	for term, def := range c.defs {
		res[term] = def.serialize(term)
	}

	return json.Marshal(res)
}

// isEmpty returns if the context would serialize to an empty object.
func (c *Context) isEmpty() bool {
	return len(c.defs) == 0 && !c.explicitBase && c.vocabMapping == "" &&
		c.defaultLang == "" && c.defaultDirection == ""
}

func (t Term) serialize(term string) any {
	if term == KeywordType {
		res := map[string]any{}
		if t.Container != nil {
			res[KeywordContainer] = KeywordSet
		}
		if t.Protected {
			res[KeywordProtected] = true
		}
		return res
	}

	implicitPrefix := url.EndsInGenDelim(t.IRI) || bnode.IsBlank(t.IRI)
	simple := !t.Reverse && !t.Protected && t.Type == "" &&
		t.Container == nil && t.Language == "" && t.Direction == "" &&
		t.Index == "" && t.Nest == "" && t.Context == nil &&
		t.Prefix == implicitPrefix

	if simple {
		if t.IRI == "" {
			return nil
		}
		return t.IRI
	}

	res := map[string]any{}
	switch {
	case t.Reverse:
		res[KeywordReverse] = t.IRI
	case t.IRI == "":
		res[KeywordID] = nil
	default:
		res[KeywordID] = t.IRI
	}

	if t.Type != "" {
		res[KeywordType] = t.Type
	}

	switch len(t.Container) {
	case 0:
	case 1:
		res[KeywordContainer] = t.Container[0]
	default:
		res[KeywordContainer] = t.Container
	}

	switch t.Language {
	case "":
	case KeywordNull:
		res[KeywordLanguage] = nil
	default:
		res[KeywordLanguage] = t.Language
	}

	switch t.Direction {
	case "":
	case KeywordNull:
		res[KeywordDirection] = nil
	default:
		res[KeywordDirection] = t.Direction
	}

	if t.Index != "" {
		res[KeywordIndex] = t.Index
	}

	if t.Nest != "" {
		res[KeywordNest] = t.Nest
	}

	if t.Context != nil {
		res[KeywordContext] = t.Context
	}

	if t.Protected {
		res[KeywordProtected] = true
	}

	if t.Prefix && !implicitPrefix {
		res[KeywordPrefix] = true
	}

	return res
}

// Context takes in JSON and parses it into a [Context].
//
// The localContext can either be a context, or a document with a @context
// entry. A null or empty localContext results in an empty context.
func (p *Processor) Context(ctx context.Context, localContext json.RawMessage, baseURL string) (*Context, error) {
	active := newContext(cmp.Or(p.baseIRI, baseURL))

	if len(localContext) == 0 {
		return active, nil
	}

	localContext, err := json.Normalize(localContext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocalContext, err)
	}

	return p.context(ctx, active, contextEntry(localContext), baseURL, newCtxProcessingOpts())
}

// contextEntry returns the value of the @context entry if doc is a document
// with one, and doc itself otherwise.
func contextEntry(doc json.RawMessage) json.RawMessage {
	if !json.IsMap(doc) {
		return doc
	}

	var obj json.Object
	if err := json.Unmarshal(doc, &obj); err != nil {
		return doc
	}

	if v, ok := obj[KeywordContext]; ok {
		return v
	}

	return doc
}

type ctxProcessingOpts struct {
	remotes   []string
	override  bool
	propagate bool
	validate  bool
}

func newCtxProcessingOpts() ctxProcessingOpts {
	return ctxProcessingOpts{
		propagate: true,
		validate:  true,
	}
}

func (p *Processor) context(
	ctx context.Context,
	activeContext *Context,
	localContext json.RawMessage,
	baseURL string,
	opts ctxProcessingOpts,
) (*Context, error) {
	if activeContext == nil {
		activeContext = newContext(baseURL)
	}

	// 1)
	result := activeContext.clone()

	// 2)
	if json.IsMap(localContext) {
		var obj json.Object
		if err := json.Unmarshal(localContext, &obj); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLocalContext, err)
		}
		if prop, ok := obj[KeywordPropagate]; ok {
			b, ok := json.Bool(prop)
			if !ok {
				return nil, ErrInvalidPropagateValue
			}
			opts.propagate = b
		}
	}

	// 3)
	if !opts.propagate && result.previousContext == nil {
		result.previousContext = activeContext
	}

	// 4)
	var contexts []json.RawMessage
	if err := json.Unmarshal(json.MakeArray(localContext), &contexts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocalContext, err)
	}

	// 5)
	for _, context := range contexts {
		switch json.KindOf(context) {
		case json.KindNull:
			// 5.1.1)
			if !opts.override && len(result.protected) != 0 {
				return nil, ErrInvalidContextNullificaton
			}

			// 5.1.2)
			previous := result
			result = newContext(activeContext.originalBaseIRI)
			if !opts.propagate {
				result.previousContext = previous
			}

			// 5.1.3)
			continue
		case json.KindString:
			res, err := p.remoteContext(ctx, result, context, baseURL, opts)
			if err != nil {
				return nil, err
			}
			result = res
			continue
		case json.KindObject:
			// 5.3 onwards
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidLocalContext, json.KindOf(context))
		}

		var ctxObj json.Object
		if err := json.Unmarshal(context, &ctxObj); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLocalContext, err)
		}

		// 5.5)
		if version, ok := ctxObj[KeywordVersion]; ok {
			if err := p.handleVersion(version); err != nil {
				return nil, err
			}
		}

		// 5.6)
		if imp, ok := ctxObj[KeywordImport]; ok {
			res, err := p.handleImport(ctx, baseURL, imp, ctxObj)
			if err != nil {
				return nil, err
			}
			ctxObj = res
		}

		// 5.7)
		if base, ok := ctxObj[KeywordBase]; ok && len(opts.remotes) == 0 {
			if err := p.handleBase(result, base); err != nil {
				return nil, err
			}
		}

		// 5.8)
		if vocab, ok := ctxObj[KeywordVocab]; ok {
			if err := p.handleVocab(result, vocab); err != nil {
				return nil, err
			}
		}

		// 5.9)
		if lang, ok := ctxObj[KeywordLanguage]; ok {
			if err := p.handleLanguage(result, lang); err != nil {
				return nil, err
			}
		}

		// 5.10)
		if dir, ok := ctxObj[KeywordDirection]; ok {
			if err := p.handleDirection(result, dir); err != nil {
				return nil, err
			}
		}

		// 5.11)
		if prop, ok := ctxObj[KeywordPropagate]; ok {
			if err := p.handlePropagate(prop); err != nil {
				return nil, err
			}
		}

		protected := false
		if prot, ok := ctxObj[KeywordProtected]; ok {
			b, ok := json.Bool(prot)
			if !ok {
				return nil, ErrInvalidProtectedValue
			}
			if p.modeLD10 {
				return nil, ErrInvalidContextEntry
			}
			protected = b
		}

		terms := make(map[string]term, len(ctxObj))
		for k, v := range ctxObj {
			if isContextKeyword(k) {
				continue
			}
			var t term
			if err := t.UnmarshalJSON(v); err != nil {
				return nil, fmt.Errorf("%w: %s", err, k)
			}
			terms[k] = t
		}

		// 5.12)
		defined := make(map[string]termState, len(terms))

		// 5.13)
		newOpts := newCreateTermOptions()
		newOpts.baseURL = baseURL
		newOpts.protected = protected
		newOpts.override = opts.override
		newOpts.remotes = slices.Clone(opts.remotes)
		for _, k := range sortedKeys(terms) {
			if err := p.createTerm(
				ctx,
				result,
				terms,
				k,
				defined,
				newOpts,
			); err != nil {
				return nil, err
			}
		}
	}

	if opts.validate && p.validateContextFunc != nil && !p.validateContextFunc(result) {
		return nil, ErrInvalidContext
	}

	return result, nil
}

func isContextKeyword(k string) bool {
	switch k {
	case KeywordBase, KeywordDirection, KeywordImport,
		KeywordLanguage, KeywordPropagate, KeywordProtected,
		KeywordVersion, KeywordVocab:
		return true
	default:
		return false
	}
}

// remoteContext processes a string entry in a local context.
func (p *Processor) remoteContext(
	ctx context.Context,
	result *Context,
	context json.RawMessage,
	baseURL string,
	opts ctxProcessingOpts,
) (*Context, error) {
	s, _ := json.String(context)

	// 5.2.1)
	iri, err := url.Resolve(baseURL, s)
	if err != nil || !url.IsAbsolute(iri) {
		return nil, fmt.Errorf("%w: cannot resolve %q", ErrLoadingRemoteContext, s)
	}

	// 5.2.2)
	if slices.Contains(opts.remotes, iri) {
		if !opts.validate {
			return result, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrCyclicContext, iri)
	}

	// 5.2.3)
	if len(opts.remotes) >= RemoteContextLimit {
		if p.modeLD10 {
			return nil, ErrRecursiveContextInclusion
		}
		return nil, ErrContextOverflow
	}

	if pc, ok := p.processedContext[iri]; ok && pc != nil && len(result.defs) == 0 {
		nc := pc.clone()
		nc.currentBaseIRI = result.currentBaseIRI
		nc.originalBaseIRI = result.originalBaseIRI
		nc.explicitBase = result.explicitBase
		nc.previousContext = result.previousContext
		return nc, nil
	}

	// 5.2.4) 5.2.5)
	doc, err := p.retrieveRemoteContext(ctx, iri)
	if err != nil {
		return nil, err
	}

	loaded, err := doc.contextValue()
	if err != nil {
		return nil, err
	}

	// 5.2.6)
	newOpts := newCtxProcessingOpts()
	newOpts.remotes = append(slices.Clone(opts.remotes), iri)
	newOpts.validate = opts.validate
	return p.context(
		ctx,
		result,
		loaded,
		doc.URL,
		newOpts,
	)
}

func (p *Processor) handlePropagate(prop json.RawMessage) error {
	if p.modeLD10 {
		return ErrInvalidContextEntry
	}

	if _, ok := json.Bool(prop); !ok {
		return ErrInvalidPropagateValue
	}

	return nil
}

func (p *Processor) handleDirection(result *Context, dir json.RawMessage) error {
	if p.modeLD10 {
		return ErrInvalidContextEntry
	}

	if json.IsNull(dir) {
		result.defaultDirection = ""
		return nil
	}

	d, ok := json.String(dir)
	if !ok {
		return ErrInvalidBaseDirection
	}

	switch d {
	case DirectionLTR, DirectionRTL:
	default:
		return ErrInvalidBaseDirection
	}

	result.defaultDirection = d
	return nil
}

func (p *Processor) handleLanguage(result *Context, lang json.RawMessage) error {
	if json.IsNull(lang) {
		result.defaultLang = ""
		return nil
	}

	l, ok := json.String(lang)
	if !ok {
		return ErrInvalidDefaultLanguage
	}

	result.defaultLang = strings.ToLower(l)
	return nil
}

func (p *Processor) handleVocab(result *Context, vocab json.RawMessage) error {
	// 5.8.2)
	if json.IsNull(vocab) {
		result.vocabMapping = ""
		return nil
	}

	s, ok := json.String(vocab)
	if !ok {
		return ErrInvalidVocabMapping
	}

	// 5.8.3)
	if !(url.IsIRI(s) || url.IsRelative(s) || bnode.IsBlank(s)) {
		return ErrInvalidVocabMapping
	}

	if p.modeLD10 && !url.IsAbsolute(s) && !bnode.IsBlank(s) {
		return ErrInvalidVocabMapping
	}

	u, err := p.expandIRI(result, s, true, true, nil)
	if err != nil {
		return err
	}

	result.vocabMapping = u
	return nil
}

func (p *Processor) handleBase(result *Context, base json.RawMessage) error {
	result.explicitBase = true

	// 5.7.2)
	if json.IsNull(base) {
		result.currentBaseIRI = ""
		return nil
	}

	iri, ok := json.String(base)
	if !ok {
		return ErrInvalidBaseIRI
	}

	// 5.7.3)
	if url.IsIRI(iri) {
		result.currentBaseIRI = iri
		return nil
	}

	// 5.7.4)
	if url.IsRelative(iri) {
		if result.currentBaseIRI == "" {
			return fmt.Errorf("%w: relative %q without a base", ErrInvalidBaseIRI, iri)
		}
		u, err := url.Resolve(result.currentBaseIRI, iri)
		if err != nil {
			return ErrInvalidBaseIRI
		}
		result.currentBaseIRI = u
		return nil
	}

	// 5.7.5)
	return ErrInvalidBaseIRI
}

func (p *Processor) handleImport(
	ctx context.Context,
	baseURL string,
	data json.RawMessage,
	context json.Object,
) (json.Object, error) {
	// 5.6.1)
	if p.modeLD10 {
		return nil, ErrInvalidContextEntry
	}

	// 5.6.2)
	val, ok := json.String(data)
	if !ok {
		return nil, ErrInvalidImportValue
	}

	// 5.6.3)
	iri, err := url.Resolve(baseURL, val)
	if err != nil {
		return nil, ErrInvalidRemoteContext
	}

	// 5.6.4) 5.6.5)
	res, err := p.retrieveRemoteContext(ctx, iri)
	if err != nil {
		return nil, err
	}

	imported, err := res.contextValue()
	if err != nil {
		return nil, err
	}

	// 5.6.6)
	var ctxObj json.Object
	if !json.IsMap(imported) {
		return nil, ErrInvalidRemoteContext
	}
	if err := json.Unmarshal(imported, &ctxObj); err != nil {
		return nil, ErrInvalidRemoteContext
	}

	// 5.6.7)
	if _, ok := ctxObj[KeywordImport]; ok {
		return nil, ErrInvalidContextEntry
	}

	maps.Copy(ctxObj, context)
	delete(ctxObj, KeywordImport)
	return ctxObj, nil
}

func (p *Processor) handleVersion(data json.RawMessage) error {
	if string(data) != "1.1" {
		return ErrInvalidVersionValue
	}
	if p.modeLD10 {
		return ErrProcessingMode
	}
	return nil
}

func (p *Processor) retrieveRemoteContext(
	ctx context.Context,
	iri string,
) (Document, error) {
	// 5.2.4) 5.2.5) the document loader is expected to do the caching
	if p.loader == nil {
		return Document{}, fmt.Errorf("%w: no loader for %s", ErrLoadingRemoteContext, iri)
	}

	doc, err := p.loader(ctx, iri)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrLoadingRemoteContext, iri, err)
	}

	data, err := json.Normalize(doc.Document)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %w", ErrInvalidRemoteContext, iri, err)
	}
	doc.Document = data

	if doc.URL == "" {
		doc.URL = iri
	}

	return doc, nil
}

type inverseContext map[string]map[string]mapping

type mapping struct {
	Language map[string]string
	Type     map[string]string
	Any      map[string]string
}

// workIt flips a context and reverses it
//
// ​ti esrever dna ti pilf ,nwod gniht ym tuP
func workIt(activeContext *Context) inverseContext {
	// 1)
	result := inverseContext{}

	// 2)
	defaultLang := KeywordNone
	if activeContext.defaultLang != "" {
		defaultLang = strings.ToLower(activeContext.defaultLang)
	}

	// 3)
	terms := slices.Collect(maps.Keys(activeContext.defs))
	slices.SortFunc(terms, sortedLeast)

	for _, key := range terms {
		def := activeContext.defs[key]
		// 3.1)
		if def.IRI == "" {
			continue
		}

		// 3.2)
		container := KeywordNone
		if def.Container != nil {
			dc := slices.Clone(def.Container)
			slices.Sort(dc)
			container = strings.Join(dc, "")
		}

		// 3.3)
		vvar := def.IRI

		// 3.4)
		if _, ok := result[vvar]; !ok {
			result[vvar] = map[string]mapping{}
		}

		// 3.5)
		containerMap := result[vvar]

		// 3.6)
		if _, ok := containerMap[container]; !ok {
			containerMap[container] = mapping{
				Language: map[string]string{},
				Type:     map[string]string{},
				Any: map[string]string{
					KeywordNone: key,
				},
			}
		}

		// 3.7)
		typeLanguage := containerMap[container]

		// 3.8)
		typeMap := typeLanguage.Type

		// 3.9)
		langMap := typeLanguage.Language

		if def.Reverse {
			// 3.10)
			if _, ok := typeMap[KeywordReverse]; !ok {
				typeMap[KeywordReverse] = key
			}
		} else if def.Type != "" {
			if def.Type == KeywordNone {
				// 3.11)
				if _, ok := langMap[KeywordAny]; !ok {
					// 3.11.1)
					langMap[KeywordAny] = key
				}
				if _, ok := typeMap[KeywordAny]; !ok {
					// 3.11.2)
					typeMap[KeywordAny] = key
				}
			} else {
				// 3.12)
				if _, ok := typeMap[def.Type]; !ok {
					// 3.12.1
					typeMap[def.Type] = key
				}
			}
		} else if def.Language != "" || def.Direction != "" {
			if def.Language != "" && def.Direction != "" {
				// 3.13)
				// 3.13.1) + 3.13.5)
				langDir := KeywordNone
				if def.Language != KeywordNull && def.Direction != KeywordNull {
					// 3.13.2)
					langDir = strings.ToLower(def.Language) + "_" + def.Direction
				} else if def.Language != KeywordNull {
					// 3.13.3)
					langDir = strings.ToLower(def.Language)
				} else if def.Direction != KeywordNull {
					// 3.13.4)
					langDir = "_" + def.Direction
				}
				// 3.13.6)
				if _, ok := langMap[langDir]; !ok {
					langMap[langDir] = key
				}
			} else if def.Language != "" {
				// 3.14)
				lang := KeywordNull
				if def.Language != KeywordNull {
					lang = strings.ToLower(def.Language)
				}
				if _, ok := langMap[lang]; !ok {
					langMap[lang] = key
				}
			} else if def.Direction != "" {
				// 3.15)
				dir := KeywordNone
				if def.Direction != KeywordNull {
					dir = "_" + def.Direction
				}
				if _, ok := langMap[dir]; !ok {
					langMap[dir] = key
				}
			}
		} else if activeContext.defaultDirection != "" {
			// 3.16)
			langDir := strings.ToLower(defaultLang) + "_" + activeContext.defaultDirection
			if _, ok := langMap[langDir]; !ok {
				langMap[langDir] = key
			}
			if _, ok := langMap[KeywordNone]; !ok {
				langMap[KeywordNone] = key
			}
			if _, ok := typeMap[KeywordNone]; !ok {
				typeMap[KeywordNone] = key
			}
		} else {
			// 3.17)

			// 3.17.1)
			if _, ok := langMap[defaultLang]; !ok {
				langMap[defaultLang] = key
			}

			// 3.17.2)
			if _, ok := langMap[KeywordNone]; !ok {
				langMap[KeywordNone] = key
			}

			// 3.17.3)
			if _, ok := typeMap[KeywordNone]; !ok {
				typeMap[KeywordNone] = key
			}
		}
	}

	return result
}
