package shortwave

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"sourcery.dny.nu/shortwave/internal/bnode"
	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/internal/url"
)

// termState tracks the definition state of a term during context processing.
type termState uint8

const (
	termUndefined termState = iota // Term not yet processed
	termDefining                   // Term is being defined (for cycle detection)
	termDefined                    // Term definition is complete
)

// Term represents a term definition in a JSON-LD context.
//
// A Term with an empty IRI is a term that was explicitly mapped to null.
type Term struct {
	IRI       string
	Prefix    bool
	Protected bool
	Reverse   bool

	BaseIRI   string
	Context   json.RawMessage
	Container []string
	Direction string
	Index     string
	Language  string
	Nest      string
	Type      string
}

func (t *Term) equalWithoutProtected(ot *Term) bool {
	if t == nil && ot == nil {
		return true
	}
	if t == nil || ot == nil {
		return false
	}
	if t.IRI != ot.IRI {
		return false
	}
	if t.Prefix != ot.Prefix {
		return false
	}
	if t.Reverse != ot.Reverse {
		return false
	}
	if t.BaseIRI != ot.BaseIRI {
		return false
	}
	if !bytes.Equal(t.Context, ot.Context) {
		return false
	}
	if !slices.Equal(t.Container, ot.Container) {
		return false
	}
	if t.Direction != ot.Direction {
		return false
	}
	if t.Index != ot.Index {
		return false
	}
	if t.Language != ot.Language {
		return false
	}
	if t.Nest != ot.Nest {
		return false
	}
	if t.Type != ot.Type {
		return false
	}
	return true
}

func (t *Term) IsZero() bool {
	if t == nil {
		return true
	}
	return t.IRI == "" && !t.Prefix && !t.Protected &&
		!t.Reverse && t.BaseIRI == "" && t.Context == nil &&
		t.Container == nil && t.Direction == "" &&
		t.Index == "" && t.Language == "" && t.Nest == "" &&
		t.Type == ""
}

type createTermOptions struct {
	baseURL   string
	protected bool
	override  bool
	remotes   []string
	validate  bool
}

func newCreateTermOptions() createTermOptions {
	return createTermOptions{
		validate: true,
	}
}

// term is a term definition as it appears in a local context.
type term struct {
	Null           bool
	Simple         bool
	ID             null[string]
	Type           string
	Reverse        string
	Container      null[array[string]]
	ContainerArray bool
	Index          string
	Context        json.RawMessage
	Language       null[string]
	Direction      null[string]
	Nest           string
	Prefix         null[bool]
	Protected      null[bool]
	HasUnknownKeys bool
}

func (t *term) UnmarshalJSON(data []byte) error {
	switch json.KindOf(data) {
	case json.KindNull:
		t.Null = true
		t.ID = null[string]{Set: true}
		return nil
	case json.KindString:
		t.Simple = true
		return t.ID.UnmarshalJSON(data)
	case json.KindObject:
	default:
		return ErrInvalidTermDefinition
	}

	var obj json.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTermDefinition, err)
	}

	for key, val := range obj {
		switch key {
		case KeywordID:
			if !json.IsNull(val) && !json.IsString(val) {
				return ErrInvalidIRIMapping
			}
			if err := t.ID.UnmarshalJSON(val); err != nil {
				return ErrInvalidIRIMapping
			}
		case KeywordType:
			s, ok := json.String(val)
			if !ok || s == "" {
				return ErrInvalidTypeMapping
			}
			t.Type = s
		case KeywordReverse:
			s, ok := json.String(val)
			if !ok || s == "" {
				return ErrInvalidIRIMapping
			}
			t.Reverse = s
		case KeywordContainer:
			switch json.KindOf(val) {
			case json.KindNull, json.KindString:
			case json.KindArray:
				t.ContainerArray = true
			default:
				return ErrInvalidContainerMapping
			}
			if err := t.Container.UnmarshalJSON(val); err != nil {
				return ErrInvalidContainerMapping
			}
		case KeywordIndex:
			s, ok := json.String(val)
			if !ok {
				return ErrInvalidTermDefinition
			}
			t.Index = s
		case KeywordContext:
			t.Context = val
		case KeywordLanguage:
			if !json.IsNull(val) && !json.IsString(val) {
				return ErrInvalidLanguageMapping
			}
			if err := t.Language.UnmarshalJSON(val); err != nil {
				return ErrInvalidLanguageMapping
			}
		case KeywordDirection:
			if !json.IsNull(val) && !json.IsString(val) {
				return ErrInvalidBaseDirection
			}
			if err := t.Direction.UnmarshalJSON(val); err != nil {
				return ErrInvalidBaseDirection
			}
		case KeywordNest:
			s, ok := json.String(val)
			if !ok {
				return ErrInvalidNestValue
			}
			t.Nest = s
		case KeywordPrefix:
			if _, ok := json.Bool(val); !ok {
				return ErrInvalidPrefixValue
			}
			if err := t.Prefix.UnmarshalJSON(val); err != nil {
				return ErrInvalidPrefixValue
			}
		case KeywordProtected:
			if _, ok := json.Bool(val); !ok {
				return ErrInvalidProtectedValue
			}
			if err := t.Protected.UnmarshalJSON(val); err != nil {
				return ErrInvalidProtectedValue
			}
		default:
			t.HasUnknownKeys = true
		}
	}

	return nil
}

// definer returns the callback IRI expansion uses to define terms from the
// local context it depends on.
func (p *Processor) definer(
	ctx context.Context,
	activeCtx *Context,
	localCtx map[string]term,
	defined map[string]termState,
	opts createTermOptions,
) func(string) error {
	return func(t string) error {
		if _, ok := localCtx[t]; !ok {
			return nil
		}
		if defined[t] == termDefined {
			return nil
		}
		return p.createTerm(ctx, activeCtx, localCtx, t, defined, opts)
	}
}

func (p *Processor) createTerm(
	ctx context.Context,
	activeCtx *Context,
	localCtx map[string]term,
	term string,
	defined map[string]termState,
	opts createTermOptions,
) error {
	// 1)
	if state := defined[term]; state != termUndefined {
		if state == termDefined {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrCyclicIRIMapping, term)
	}

	// 2)
	if term == "" {
		return ErrInvalidTermDefinition
	}
	defined[term] = termDefining

	// 3)
	input := localCtx[term]
	define := p.definer(ctx, activeCtx, localCtx, defined, opts)

	// 4)
	if term == KeywordType {
		if p.modeLD10 {
			return ErrKeywordRedefinition
		}

		if oldDef, ok := activeCtx.defs[term]; ok && oldDef.Protected && !opts.override {
			return ErrProtectedTermRedefinition
		}

		// Only @container and @protected are allowed
		if input.Null || input.Simple ||
			input.ID.Set || input.Type != "" || input.Reverse != "" ||
			input.Index != "" || input.Context != nil || input.Language.Set ||
			input.Direction.Set || input.Nest != "" || input.Prefix.Set ||
			input.HasUnknownKeys {
			return ErrKeywordRedefinition
		}

		if input.Container.Set {
			if !input.Container.Valid ||
				!slices.Equal(input.Container.Value, array[string]{KeywordSet}) {
				return ErrKeywordRedefinition
			}
		}
	} else {
		// 5)
		if isKeyword(term) {
			return fmt.Errorf("%w: %s", ErrKeywordRedefinition, term)
		}

		if looksLikeKeyword(term) {
			p.logger.Warn("keyword lookalike term encountered", slog.String("term", term))
			defined[term] = termDefined
			return nil
		}
	}

	// 6)
	oldDef, oldDefOK := activeCtx.defs[term]
	delete(activeCtx.defs, term)
	delete(activeCtx.protected, term)

	// 10)
	termDef := Term{
		Protected: opts.protected,
	}

	// 11)
	if input.Protected.Set {
		if p.modeLD10 {
			return ErrInvalidTermDefinition
		}
		termDef.Protected = input.Protected.Value
	}

	// 12)
	if input.Type != "" {
		// 12.2)
		u, err := p.expandIRI(activeCtx, input.Type, false, true, define)
		if err != nil {
			return err
		}

		// 12.3
		if p.modeLD10 {
			if u == KeywordNone || u == KeywordJSON {
				return ErrInvalidTypeMapping
			}
		}

		// 12.4)
		switch u {
		case KeywordID, KeywordJSON, KeywordNone, KeywordVocab:
		default:
			if !url.IsAbsolute(u) {
				return fmt.Errorf("%w: %s", ErrInvalidTypeMapping, input.Type)
			}
		}

		// 12.5)
		termDef.Type = u
	}

	// 13)
	if input.Reverse != "" {
		// 13.1)
		if input.ID.Set || input.Nest != "" {
			return ErrInvalidReverseProperty
		}

		// 13.3)
		if looksLikeKeyword(input.Reverse) {
			p.logger.Warn("keyword lookalike value encountered",
				slog.String("value", input.Reverse))
			defined[term] = termDefined
			return nil
		}

		// 13.4)
		u, err := p.expandIRI(activeCtx, input.Reverse, false, true, define)
		if err != nil {
			return err
		}

		if !url.IsAbsolute(u) && !bnode.IsBlank(u) {
			return fmt.Errorf("%w: %s", ErrInvalidIRIMapping, input.Reverse)
		}

		termDef.IRI = u

		// 13.5)
		if input.Container.Set && input.Container.Valid {
			for _, c := range input.Container.Value {
				if c != KeywordSet && c != KeywordIndex {
					return ErrInvalidReverseProperty
				}
			}
			termDef.Container = input.Container.Value
		}

		// 13.6)
		termDef.Reverse = true

		if slices.Contains(termDef.Container, KeywordIndex) && input.Index != "" {
			termDef.Index = input.Index
		}

		// 13.7
		p.storeTerm(activeCtx, term, termDef)
		defined[term] = termDefined
		return nil
	} else if input.ID.Set && input.ID.Valid && term != input.ID.Value {
		// 14.2)
		if !isKeyword(input.ID.Value) && looksLikeKeyword(input.ID.Value) {
			// 14.2.2)
			p.logger.Warn("keyword lookalike value encountered",
				slog.String("value", input.ID.Value))
			defined[term] = termDefined
			return nil
		}

		// 14.2.3)
		u, err := p.expandIRI(activeCtx, input.ID.Value, false, true, define)
		if err != nil {
			return err
		}

		if !isKeyword(u) && !url.IsAbsolute(u) && !bnode.IsBlank(u) {
			return fmt.Errorf("%w: %s", ErrInvalidIRIMapping, input.ID.Value)
		}

		if u == KeywordContext {
			return ErrInvalidKeywordAlias
		}

		termDef.IRI = u

		// 14.2.4)
		if strings.Contains(term, "/") || (!strings.HasPrefix(term, ":") && !strings.HasSuffix(term, ":") && strings.Contains(term, ":")) {
			// 14.2.4.1)
			defined[term] = termDefined

			// 14.2.4.2)
			tu, err := p.expandIRI(activeCtx, term, false, true, define)
			if err != nil {
				return err
			}

			if tu != u {
				return fmt.Errorf("%w: %s does not expand to %s", ErrInvalidIRIMapping, term, u)
			}
		} else if input.Simple && (url.EndsInGenDelim(u) || bnode.IsBlank(u)) {
			// 14.2.5)
			if v, ok := p.remapPrefixIRIs[u]; ok {
				termDef.IRI = v
			}
			termDef.Prefix = true
		}
	} else if input.ID.Set && !input.ID.Valid {
		// 14.1) @id was explicitly null, keep the term around so it can't be
		// expanded any more
	} else if strings.Contains(term[1:], ":") {
		// 15)
		prefix, suffix, _ := strings.Cut(term, ":")

		// 15.1)
		if !strings.HasPrefix(suffix, "//") {
			if err := define(prefix); err != nil {
				return err
			}
		}

		// 15.2)
		if def, ok := activeCtx.defs[prefix]; ok && def.IRI != "" {
			termDef.IRI = def.IRI + suffix
		} else {
			// 15.3)
			termDef.IRI = term
		}
	} else if strings.Contains(term, "/") {
		// 16)
		// 16.2)
		u, err := p.expandIRI(activeCtx, term, false, true, nil)
		if err != nil {
			return err
		}
		if !url.IsAbsolute(u) {
			return fmt.Errorf("%w: %s", ErrInvalidIRIMapping, term)
		}
		termDef.IRI = u
	} else if term == KeywordType {
		// 17)
		termDef.IRI = KeywordType
	} else if activeCtx.vocabMapping != "" {
		// 18)
		termDef.IRI = activeCtx.vocabMapping + term
	} else {
		return fmt.Errorf("%w: %s", ErrInvalidIRIMapping, term)
	}

	// 19)
	if input.Container.Set {
		if !input.Container.Valid {
			return ErrInvalidContainerMapping
		}

		// 19.1)
		values := []string(input.Container.Value)
		for _, vl := range values {
			switch vl {
			case KeywordGraph, KeywordID, KeywordIndex,
				KeywordLanguage, KeywordList, KeywordSet,
				KeywordType:
			default:
				return ErrInvalidContainerMapping
			}
		}

		switch {
		case slices.Contains(values, KeywordGraph) &&
			(slices.Contains(values, KeywordID) || slices.Contains(values, KeywordIndex)):
			for _, vl := range values {
				switch vl {
				case KeywordGraph, KeywordID, KeywordIndex, KeywordSet:
				default:
					return ErrInvalidContainerMapping
				}
			}
		case slices.Contains(values, KeywordSet):
			for _, vl := range values {
				if vl == KeywordList {
					return ErrInvalidContainerMapping
				}
			}
		case len(values) > 1:
			return ErrInvalidContainerMapping
		}

		// 19.2)
		if p.modeLD10 {
			if input.ContainerArray {
				return ErrInvalidContainerMapping
			}
			switch values[0] {
			case KeywordID, KeywordGraph, KeywordType:
				return ErrInvalidContainerMapping
			}
		}

		// 19.3)
		termDef.Container = values

		// 19.4)
		if slices.Contains(values, KeywordType) {
			// 19.4.1)
			termDef.Type = cmp.Or(
				termDef.Type,
				KeywordID,
			)

			// 19.4.2)
			switch termDef.Type {
			case KeywordID, KeywordVocab:
			default:
				return ErrInvalidTypeMapping
			}
		}
	}

	// 20)
	if input.Index != "" {
		// 20.1)
		if p.modeLD10 {
			return ErrInvalidTermDefinition
		}
		if !slices.Contains(termDef.Container, KeywordIndex) {
			return ErrInvalidTermDefinition
		}

		// 20.2)
		u, err := p.expandIRI(activeCtx, input.Index, false, true, define)
		if err != nil {
			return err
		}
		if !url.IsAbsolute(u) {
			return ErrInvalidTermDefinition
		}

		// 20.3)
		termDef.Index = input.Index
	}

	// 21)
	if input.Context != nil {
		// 21.1)
		if p.modeLD10 {
			return ErrInvalidTermDefinition
		}

		// 21.3)
		resolvOpts := newCtxProcessingOpts()
		resolvOpts.override = true
		resolvOpts.remotes = slices.Clone(opts.remotes)
		resolvOpts.validate = false
		if _, err := p.context(
			ctx,
			activeCtx,
			input.Context,
			opts.baseURL,
			resolvOpts,
		); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidScopedContext, term, err)
		}

		// 21.4
		termDef.Context = input.Context
		termDef.BaseIRI = opts.baseURL
	}

	// 22)
	if input.Language.Set && input.Type == "" {
		if !input.Language.Valid {
			termDef.Language = KeywordNull
		} else {
			termDef.Language = strings.ToLower(input.Language.Value)
		}
	}

	// 23)
	if input.Direction.Set && input.Type == "" {
		if !input.Direction.Valid {
			termDef.Direction = KeywordNull
		} else {
			switch input.Direction.Value {
			case DirectionLTR, DirectionRTL:
			default:
				return ErrInvalidBaseDirection
			}
			termDef.Direction = input.Direction.Value
		}
	}

	// 24)
	if input.Nest != "" {
		// 24.1)
		if p.modeLD10 {
			return ErrInvalidTermDefinition
		}

		if isKeyword(input.Nest) && input.Nest != KeywordNest {
			return ErrInvalidNestValue
		}
		termDef.Nest = input.Nest
	}

	// 25)
	if input.Prefix.Set {
		// 25.1)
		if p.modeLD10 {
			return ErrInvalidTermDefinition
		}

		if strings.Contains(term, ":") || strings.Contains(term, "/") {
			return ErrInvalidTermDefinition
		}

		// 25.3)
		if input.Prefix.Value && isKeyword(termDef.IRI) {
			return ErrInvalidTermDefinition
		}

		termDef.Prefix = input.Prefix.Value
	}

	// 26)
	if input.HasUnknownKeys {
		return ErrInvalidTermDefinition
	}

	// 27)
	if oldDefOK && oldDef.Protected && !opts.override {
		// 27.1)
		if !oldDef.equalWithoutProtected(&termDef) {
			return fmt.Errorf("%w: %s", ErrProtectedTermRedefinition, term)
		}
		// 27.2)
		termDef = oldDef
	}

	// 28)
	p.storeTerm(activeCtx, term, termDef)
	defined[term] = termDefined
	return nil
}

func (p *Processor) storeTerm(activeCtx *Context, term string, def Term) {
	activeCtx.defs[term] = def
	if def.Protected {
		activeCtx.protected[term] = struct{}{}
	}
}

func selectTerm(
	activeContext *Context,
	keyIriVar string,
	containers []string,
	typeLanguage string,
	preferredValues []string,
) string {
	// 1)
	activeContext.initInverse()

	// 2)
	inverse := activeContext.inverse

	// 3)
	containerMap := inverse[keyIriVar]

	for _, container := range containers {
		// 4.1)
		// 4.2)
		typeLanguageMap, ok := containerMap[container]
		if !ok {
			continue
		}

		// 4.3)
		var valMap map[string]string
		switch typeLanguage {
		case KeywordLanguage:
			valMap = typeLanguageMap.Language
		case KeywordType:
			valMap = typeLanguageMap.Type
		case KeywordAny:
			valMap = typeLanguageMap.Any
		}

		// 4.4)
		for _, pval := range preferredValues {
			if v, ok := valMap[pval]; ok {
				// 4.4.2)
				return v
			}
			// 4.4.1)
		}
	}

	// 5)
	return ""
}
