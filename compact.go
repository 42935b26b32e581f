package shortwave

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"sourcery.dny.nu/shortwave/internal/bnode"
	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/internal/url"
)

// compactIRI compacts an IRI or keyword using the active context.
//
// The value is the expanded value the IRI is used for, if any. It's used to
// select a term with matching type, language and container mappings.
func (p *Processor) compactIRI(
	activeContext *Context,
	key string,
	value *Node,
	vocab bool,
	reverse bool,
) (string, error) {
	// 1)
	if key == "" {
		return "", nil
	}

	// this should be done as the first thing in step 10
	// but we can avoid a ton of work by doing it early here
	if !vocab && bnode.IsBlank(key) {
		return key, nil
	}

	if slices.Contains(p.excludeIRIsFromCompaction, key) {
		return key, nil
	}

	// 2)
	activeContext.initInverse()

	// 3)
	inverse := activeContext.inverse

	// 4)
	if _, ok := inverse[key]; ok && vocab {
		// 4.1)
		defaultLanguage := KeywordNone
		if activeContext.defaultDirection != "" {
			defaultLanguage = strings.ToLower(activeContext.defaultLang + "_" + activeContext.defaultDirection)
		} else if activeContext.defaultLang != "" {
			defaultLanguage = strings.ToLower(activeContext.defaultLang)
		}

		// 4.2)
		if value != nil && len(value.Preserve) > 0 {
			value = &value.Preserve[0]
		}

		// 4.3)
		containers := make([]string, 0, 8)

		// 4.4)
		typeLanguage := KeywordLanguage
		typeLanguageValue := KeywordNull

		// 4.5)
		if value.Has(KeywordIndex) && !value.IsGraph() {
			containers = append(containers,
				KeywordIndex,
				KeywordIndex+KeywordSet,
			)
		}

		if reverse {
			// 4.6)
			typeLanguage = KeywordType
			typeLanguageValue = KeywordReverse
			containers = append(containers, KeywordSet)
		} else if value.IsList() {
			// 4.7)

			// 4.7.1)
			if !value.Has(KeywordIndex) {
				containers = append(containers, KeywordList)
			}

			// 4.7.2) 4.7.3)
			commonLanguage := ""
			commonType := ""

			if len(value.List) == 0 {
				commonLanguage = defaultLanguage
			}

			// 4.7.4)
			for _, item := range value.List {
				// 4.7.4.1)
				itemLanguage := KeywordNone
				itemType := KeywordNone

				if item.Has(KeywordValue) {
					// 4.7.4.2)
					switch {
					case item.Has(KeywordDirection):
						itemLanguage = strings.ToLower(item.Language + "_" + item.Direction)
					case item.Has(KeywordLanguage):
						itemLanguage = strings.ToLower(item.Language)
					case item.Has(KeywordType):
						itemType = item.Type[0]
					default:
						itemLanguage = KeywordNull
					}
				} else {
					// 4.7.4.3)
					itemType = KeywordID
				}

				if commonLanguage == "" {
					// 4.7.4.4)
					commonLanguage = itemLanguage
				} else if itemLanguage != commonLanguage && item.Has(KeywordValue) {
					// 4.7.4.5)
					commonLanguage = KeywordNone
				}

				if commonType == "" {
					// 4.7.4.6)
					commonType = itemType
				} else if itemType != commonType {
					// 4.7.4.7)
					commonType = KeywordNone
				}

				// 4.7.4.8)
				if commonLanguage == KeywordNone && commonType == KeywordNone {
					break
				}
			}

			// 4.7.5)
			commonLanguage = cmp.Or(commonLanguage, KeywordNone)

			// 4.7.6)
			commonType = cmp.Or(commonType, KeywordNone)

			if commonType != KeywordNone {
				// 4.7.7)
				typeLanguage = KeywordType
				typeLanguageValue = commonType
			} else {
				// 4.7.8)
				typeLanguageValue = commonLanguage
			}
		} else if value.IsGraph() {
			// 4.8)
			if value.Has(KeywordIndex) {
				// 4.8.1)
				containers = append(containers,
					KeywordGraph+KeywordIndex,
					KeywordGraph+KeywordIndex+KeywordSet,
				)
			}

			if value.Has(KeywordID) {
				// 4.8.2)
				containers = append(containers,
					KeywordGraph+KeywordID,
					KeywordGraph+KeywordID+KeywordSet,
				)
			}

			// 4.8.3)
			containers = append(containers,
				KeywordGraph,
				KeywordGraph+KeywordSet,
				KeywordSet,
			)

			if !value.Has(KeywordIndex) {
				// 4.8.4)
				containers = append(containers,
					KeywordGraph+KeywordIndex,
					KeywordGraph+KeywordIndex+KeywordSet,
				)
			}

			if !value.Has(KeywordID) {
				// 4.8.5)
				containers = append(containers,
					KeywordGraph+KeywordID,
					KeywordGraph+KeywordID+KeywordSet,
				)
			}

			// 4.8.6)
			containers = append(containers,
				KeywordIndex,
				KeywordIndex+KeywordSet,
			)

			// 4.8.7)
			typeLanguage = KeywordType
			typeLanguageValue = KeywordID
		} else {
			// 4.9)
			if value.Has(KeywordValue) {
				// 4.9.1)
				if value.Has(KeywordDirection) && !value.Has(KeywordIndex) {
					typeLanguageValue = strings.ToLower(value.Language + "_" + value.Direction)
					containers = append(containers,
						KeywordLanguage,
						KeywordLanguage+KeywordSet)
				} else if value.Has(KeywordLanguage) && !value.Has(KeywordIndex) {
					typeLanguageValue = strings.ToLower(value.Language)
					containers = append(containers,
						KeywordLanguage,
						KeywordLanguage+KeywordSet)
				} else if value.Has(KeywordType) {
					typeLanguage = KeywordType
					typeLanguageValue = value.Type[0]
				}
			} else {
				// 4.9.2)
				typeLanguage = KeywordType
				typeLanguageValue = KeywordID
				containers = append(containers,
					KeywordID,
					KeywordID+KeywordSet,
					KeywordType,
					KeywordSet+KeywordType,
				)
			}
			// 4.9.3)
			containers = append(containers, KeywordSet)
		}

		// 4.10)
		containers = append(containers, KeywordNone)

		if !p.modeLD10 {
			// 4.11)
			if !value.Has(KeywordIndex) {
				containers = append(containers,
					KeywordIndex,
					KeywordIndex+KeywordSet)
			}

			// 4.12)
			if value.Has(KeywordValue) && len(value.PropertySet()) == 1 {
				containers = append(containers,
					KeywordLanguage,
					KeywordLanguage+KeywordSet)
			}
		}

		// 4.13)
		if typeLanguageValue == "" {
			typeLanguageValue = KeywordNull
		}

		// 4.14)
		preferredValues := make([]string, 0, 8)

		// 4.15)
		if typeLanguageValue == KeywordReverse {
			preferredValues = append(preferredValues, KeywordReverse)
		}

		if value.Has(KeywordID) &&
			(typeLanguageValue == KeywordID || typeLanguageValue == KeywordReverse) {
			// 4.16)
			c, err := p.compactIRI(activeContext, value.ID, nil, true, false)
			if err != nil {
				return "", err
			}

			if cdef, cok := activeContext.defs[c]; cok && cdef.IRI == value.ID {
				// 4.16.1)
				preferredValues = append(preferredValues,
					KeywordVocab,
					KeywordID,
					KeywordNone)
			} else {
				// 4.16.2)
				preferredValues = append(preferredValues,
					KeywordID,
					KeywordVocab,
					KeywordNone)
			}
		} else {
			// 4.17)
			preferredValues = append(preferredValues,
				typeLanguageValue,
				KeywordNone)
			if value.IsList() && len(value.List) == 0 {
				typeLanguage = KeywordAny
			}
		}

		// 4.18)
		preferredValues = append(preferredValues, KeywordAny)

		// 4.19)
		for _, pv := range slices.Clone(preferredValues) {
			if idx := strings.Index(pv, "_"); idx != -1 {
				preferredValues = append(preferredValues, pv[idx:])
			}
		}

		// 4.20)
		term := selectTerm(
			activeContext,
			key,
			containers,
			typeLanguage,
			preferredValues,
		)

		// 4.21)
		if term != "" {
			return term, nil
		}
	}

	// 5)
	vocabMapping := activeContext.vocabMapping
	if vocab && vocabMapping != "" {
		if strings.HasPrefix(key, vocabMapping) && len(key) > len(vocabMapping) {
			// 5.1)
			suffix := strings.TrimPrefix(key, vocabMapping)
			if _, ok := activeContext.defs[suffix]; !ok {
				return suffix, nil
			}
		}
	}

	// 6)
	compactIRI := ""

	// 7)
	for term, def := range activeContext.Terms() {
		// 7.1)
		if def.IRI == "" || def.IRI == key ||
			!strings.HasPrefix(key, def.IRI) || !def.Prefix {
			continue
		}

		// 7.2)
		candidate := term + ":" + strings.TrimPrefix(key, def.IRI)

		// 7.3)
		cdef, cok := activeContext.defs[candidate]
		if (compactIRI == "" || sortedLeast(candidate, compactIRI) < 0) &&
			(!cok || (cdef.IRI == key && value == nil)) {
			compactIRI = candidate
		}
	}

	// 8)
	if compactIRI != "" {
		return compactIRI, nil
	}

	// 9)
	if u, err := url.Parse(key); err == nil && u.Scheme != "" && !strings.HasPrefix(u.Opaque, "//") && u.Host == "" {
		if def, ok := activeContext.defs[u.Scheme]; ok && def.Prefix && !strings.Contains(key, "://") {
			return "", ErrIRIConfusedWithPrefix
		}
	}

	// 10)
	if !vocab && p.compactToRelative && activeContext.currentBaseIRI != "" {
		res, err := url.Relative(activeContext.currentBaseIRI, key)
		if err == nil {
			if looksLikeKeyword(res) {
				res = "./" + res
			}
			key = res
		}
	}

	// 11)
	return key, nil
}

// alias returns the compacted form of a keyword.
func (p *Processor) alias(activeContext *Context, keyword string) (string, error) {
	return p.compactIRI(activeContext, keyword, nil, true, false)
}

// compactValue compacts a value object or node reference to a scalar.
//
// It returns nil if the value can't be represented as a scalar, in which case
// it needs to be compacted as a map.
func (p *Processor) compactValue(
	activeContext *Context,
	prop string,
	value *Node,
) (any, error) {
	// 1) 2) and 3) aren't needed
	def := activeContext.defs[prop]

	// 4)
	language := cmp.Or(def.Language, activeContext.defaultLang)
	if language == KeywordNull {
		language = ""
	}

	// 5)
	direction := cmp.Or(def.Direction, activeContext.defaultDirection)
	if direction == KeywordNull {
		direction = ""
	}

	if value.Has(KeywordID) && len(value.propsWithout(KeywordID, KeywordIndex)) == 0 {
		// 6)
		if value.Has(KeywordIndex) && !slices.Contains(def.Container, KeywordIndex) {
			return nil, nil
		}

		switch def.Type {
		case KeywordID:
			// 6.1)
			return p.compactIRI(activeContext, value.ID, nil, false, false)
		case KeywordVocab:
			// 6.2)
			return p.compactIRI(activeContext, value.ID, nil, true, false)
		default:
			return nil, nil
		}
	}

	if !value.Has(KeywordValue) {
		return nil, nil
	}

	indexOK := !value.Has(KeywordIndex) || slices.Contains(def.Container, KeywordIndex)

	switch {
	case value.Has(KeywordType) && def.Type != "" && slices.Equal(value.Type, []string{def.Type}):
		// 7)
		if !indexOK {
			return nil, nil
		}
		return value.Value, nil
	case def.Type == KeywordNone || value.Has(KeywordType):
		// 8)
		return nil, nil
	case !json.IsString(value.Value):
		// 9)
		if indexOK && !value.Has(KeywordLanguage) && !value.Has(KeywordDirection) {
			// 9.1)
			return value.Value, nil
		}
	case strings.EqualFold(value.Language, language) &&
		strings.EqualFold(value.Direction, direction):
		// 10)
		if indexOK {
			// 10.1)
			return value.Value, nil
		}
	}

	// 11) maps are handled by the caller
	return nil, nil
}

// Compact transforms a JSON document into JSON-LD compacted document form.
//
// The document is expanded first. The compactionContext can either be a
// context, or a document with an @context entry. It's reattached to the result
// unless it's empty.
func (p *Processor) Compact(
	ctx context.Context,
	input json.RawMessage,
	compactionContext json.RawMessage,
	documentURL string,
) (json.RawMessage, error) {
	expanded, documentURL, err := p.expandInput(ctx, input, documentURL)
	if err != nil {
		return nil, err
	}

	return p.CompactNodes(ctx, compactionContext, expanded, documentURL)
}

// CompactNodes compacts a document in expanded document form.
//
// See [Processor.Compact].
func (p *Processor) CompactNodes(
	ctx context.Context,
	compactionContext json.RawMessage,
	document []Node,
	documentURL string,
) (json.RawMessage, error) {
	local, err := p.compactionContext(compactionContext)
	if err != nil {
		return nil, err
	}

	activeCtx, err := p.Context(ctx, local, documentURL)
	if err != nil {
		return nil, err
	}

	res, err := p.compactDocument(ctx, activeCtx, document)
	if err != nil {
		return nil, err
	}

	if !json.IsNull(local) && !json.IsEmptyObject(local) &&
		!json.IsEmptyArray(local) && len(local) != 0 {
		res[KeywordContext] = local
	}

	return json.Marshal(res)
}

// compactionContext normalises the context passed to compaction, unwrapping
// a document with an @context entry.
func (p *Processor) compactionContext(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	local, err := json.Normalize(raw)
	if err != nil {
		return nil, err
	}

	return contextEntry(local), nil
}

// compactDocument compacts the expanded document and shapes the result into
// a top-level object.
func (p *Processor) compactDocument(
	ctx context.Context,
	activeCtx *Context,
	document []Node,
) (map[string]any, error) {
	res, err := p.compact(ctx, activeCtx, "", document, p.compactArrays)
	if err != nil {
		return nil, err
	}

	switch v := res.(type) {
	case map[string]any:
		return v, nil
	case []any:
		if len(v) == 0 {
			return map[string]any{}, nil
		}

		alias, err := p.alias(activeCtx, KeywordGraph)
		if err != nil {
			return nil, err
		}
		return map[string]any{alias: v}, nil
	default:
		return map[string]any{}, nil
	}
}

func (p *Processor) compact(
	ctx context.Context,
	activeContext *Context,
	activeProperty string,
	element any,
	compactArrays bool,
) (any, error) {
	// 1)
	typeScopedContext := activeContext

	var object Node

	// 2)
	switch elem := element.(type) {
	case []Node:
		// 3)
		activeTermDefinition := activeContext.defs[activeProperty]

		// 3.1)
		result := make([]any, 0, len(elem))

		// 3.2)
		for _, item := range elem {
			// 3.2.1)
			compactedItem, err := p.compact(ctx, activeContext, activeProperty, item, compactArrays)
			if err != nil {
				return nil, err
			}
			// 3.2.2)
			if compactedItem != nil {
				result = append(result, compactedItem)
			}
		}

		// 3.3)
		if len(result) != 1 || !compactArrays ||
			activeProperty == KeywordGraph || activeProperty == KeywordSet ||
			slices.Contains(activeTermDefinition.Container, KeywordList) ||
			slices.Contains(activeTermDefinition.Container, KeywordSet) {
			return result, nil
		}

		// 3.4)
		return result[0], nil
	case Node:
		object = elem
	default:
		return element, nil
	}

	// 4)

	// 5)
	if activeContext.previousContext != nil {
		if !object.Has(KeywordValue) && !object.isReference() {
			activeContext = activeContext.previousContext
		}
	}

	// 6)
	activeTermDefinition := activeContext.defs[activeProperty]
	if activeTermDefinition.Context != nil {
		opts := newCtxProcessingOpts()
		opts.override = true
		nctx, err := p.context(ctx, activeContext,
			activeTermDefinition.Context, activeTermDefinition.BaseIRI, opts)
		if err != nil {
			return nil, err
		}
		activeContext = nctx
		activeTermDefinition = activeContext.defs[activeProperty]
	}

	// 7)
	if object.Has(KeywordValue) || object.Has(KeywordID) {
		value, err := p.compactValue(activeContext, activeProperty, &object)
		if err != nil {
			return nil, err
		}

		if value != nil {
			return value, nil
		}
	}

	// 8)
	if object.IsList() &&
		slices.Contains(activeTermDefinition.Container, KeywordList) {
		return p.compact(ctx,
			activeContext,
			activeProperty,
			object.List,
			compactArrays,
		)
	}

	// 9)
	insideReverse := activeProperty == KeywordReverse

	// 10)
	result := map[string]any{}

	// 11)
	if object.Has(KeywordType) {
		compactedTypes := make([]string, 0, len(object.Type))
		for _, t := range object.Type {
			res, err := p.compactIRI(activeContext, t, nil, true, false)
			if err != nil {
				return nil, err
			}
			compactedTypes = append(compactedTypes, res)
		}

		slices.Sort(compactedTypes)

		// 11.1)
		for _, t := range compactedTypes {
			if cdef, cok := typeScopedContext.defs[t]; cok && cdef.Context != nil {
				opts := newCtxProcessingOpts()
				opts.propagate = false
				nctx, err := p.context(
					ctx,
					activeContext,
					cdef.Context,
					cdef.BaseIRI,
					opts,
				)
				if err != nil {
					return nil, err
				}
				activeContext = nctx
			}
		}
	}

	// 12)
	for _, expandedProperty := range sortedKeys(object.PropertySet()) {
		switch expandedProperty {
		case KeywordID:
			// 12.1)

			// 12.1.1)
			cv, err := p.compactIRI(activeContext, object.ID, nil, false, false)
			if err != nil {
				return nil, err
			}

			// 12.1.2)
			alias, err := p.alias(activeContext, KeywordID)
			if err != nil {
				return nil, err
			}

			// 12.1.3)
			result[alias] = cv
			continue
		case KeywordType:
			// 12.2)

			// 12.2.1) 12.2.2)
			vt := make([]any, 0, len(object.Type))
			for _, t := range object.Type {
				res, err := p.compactIRI(typeScopedContext, t, nil, true, false)
				if err != nil {
					return nil, err
				}
				vt = append(vt, res)
			}

			// 12.2.3)
			alias, err := p.alias(activeContext, KeywordType)
			if err != nil {
				return nil, err
			}

			// 12.2.4)
			asArray := !compactArrays
			if tdef, tok := activeContext.defs[alias]; tok &&
				slices.Contains(tdef.Container, KeywordSet) && !p.modeLD10 {
				asArray = true
			}

			// 12.2.5)
			addValue(result, alias, vt, asArray)

			// 12.2.6)
			continue
		case KeywordReverse:
			// 12.3)

			// 12.3.1)
			compactedValue, err := p.compact(ctx,
				activeContext,
				KeywordReverse,
				Node{Properties: object.Reverse},
				compactArrays,
			)
			if err != nil {
				return nil, err
			}

			obj, ok := compactedValue.(map[string]any)
			if !ok {
				continue
			}

			// 12.3.2)
			for _, prop := range sortedKeys(obj) {
				rdef, rok := activeContext.defs[prop]
				if !rok || !rdef.Reverse {
					continue
				}

				// 12.3.2.1)
				asArray := !compactArrays || slices.Contains(rdef.Container, KeywordSet)

				// 12.3.2.2)
				addValue(result, prop, obj[prop], asArray)

				// 12.3.2.3)
				delete(obj, prop)
			}

			// 12.3.3)
			if len(obj) != 0 {
				alias, err := p.alias(activeContext, KeywordReverse)
				if err != nil {
					return nil, err
				}
				result[alias] = obj
			}

			// 12.3.4)
			continue
		case KeywordPreserve:
			// 12.4)
			compactedValue, err := p.compact(ctx,
				activeContext,
				activeProperty,
				object.Preserve,
				compactArrays,
			)
			if err != nil {
				return nil, err
			}

			if arr, ok := compactedValue.([]any); !ok || len(arr) != 0 {
				result[KeywordPreserve] = compactedValue
			}
			continue
		case KeywordIndex:
			// 12.5)
			if slices.Contains(activeTermDefinition.Container, KeywordIndex) {
				continue
			}
			fallthrough
		case KeywordDirection, KeywordLanguage, KeywordValue:
			// 12.6)

			// 12.6.1)
			alias, err := p.alias(activeContext, expandedProperty)
			if err != nil {
				return nil, err
			}

			// 12.6.2)
			var value any
			switch expandedProperty {
			case KeywordDirection:
				value = object.Direction
			case KeywordIndex:
				value = object.Index
			case KeywordLanguage:
				value = object.Language
			case KeywordValue:
				value = object.Value
			}
			result[alias] = value
			continue
		}

		var expandedValue []Node
		switch expandedProperty {
		case KeywordList:
			expandedValue = object.List
		case KeywordGraph:
			expandedValue = object.Graph
		case KeywordIncluded:
			expandedValue = object.Included
		case KeywordSet:
			expandedValue = object.Set
		default:
			expandedValue = object.Properties[expandedProperty]
		}

		// 12.7)
		if len(expandedValue) == 0 {
			// 12.7.1)
			itemActiveProperty, err := p.compactIRI(
				activeContext,
				expandedProperty,
				&Node{},
				true, insideReverse,
			)
			if err != nil {
				return nil, err
			}

			// 12.7.2) 12.7.3)
			nestResult, err := p.nestResult(activeContext, result, itemActiveProperty)
			if err != nil {
				return nil, err
			}

			// 12.7.4)
			addValue(nestResult, itemActiveProperty, []any{}, true)
		}

		// 12.8)
		for _, expandedItem := range expandedValue {
			if err := p.compactItem(ctx,
				activeContext,
				result,
				expandedProperty,
				expandedItem,
				compactArrays,
				insideReverse,
			); err != nil {
				return nil, err
			}
		}
	}

	// 13)
	return result, nil
}

// nestResult returns the map compacted values of property should be added
// to, taking @nest into account.
func (p *Processor) nestResult(
	activeContext *Context,
	result map[string]any,
	property string,
) (map[string]any, error) {
	def, ok := activeContext.defs[property]
	if !ok || def.Nest == "" {
		// 12.8.3)
		return result, nil
	}

	// 12.8.2.1)
	term, err := p.expandIRI(activeContext, def.Nest, false, true, nil)
	if err != nil {
		return nil, err
	}

	if term != KeywordNest {
		return nil, ErrInvalidNestValue
	}

	// 12.8.2.2)
	nest, ok := result[def.Nest].(map[string]any)
	if !ok {
		nest = map[string]any{}
		result[def.Nest] = nest
	}

	// 12.8.2.3)
	return nest, nil
}

// compactItem compacts a single value of an expanded property and adds it
// to result.
func (p *Processor) compactItem(
	ctx context.Context,
	activeContext *Context,
	result map[string]any,
	expandedProperty string,
	expandedItem Node,
	compactArrays bool,
	insideReverse bool,
) error {
	// 12.8.1)
	itemActiveProperty, err := p.compactIRI(
		activeContext,
		expandedProperty,
		&expandedItem,
		true, insideReverse,
	)
	if err != nil {
		return err
	}

	// 12.8.2) 12.8.3)
	nestResult, err := p.nestResult(activeContext, result, itemActiveProperty)
	if err != nil {
		return err
	}

	itemDef := activeContext.defs[itemActiveProperty]

	// 12.8.4)
	container := itemDef.Container

	// 12.8.5)
	asArray := !compactArrays ||
		itemActiveProperty == KeywordList ||
		itemActiveProperty == KeywordGraph ||
		slices.Contains(container, KeywordSet)

	// 12.8.6)
	var itemToCompact any = expandedItem
	if expandedItem.IsList() {
		itemToCompact = expandedItem.List
	} else if expandedItem.IsGraph() {
		itemToCompact = expandedItem.Graph
	}

	compactedItem, err := p.compact(ctx,
		activeContext,
		itemActiveProperty,
		itemToCompact,
		compactArrays,
	)
	if err != nil {
		return err
	}

	switch {
	case expandedItem.IsList():
		// 12.8.7)

		// 12.8.7.1)
		if _, isArray := compactedItem.([]any); !isArray {
			compactedItem = []any{compactedItem}
		}

		// 12.8.7.2)
		if !slices.Contains(container, KeywordList) {
			// 12.8.7.2.1)
			alias, err := p.alias(activeContext, KeywordList)
			if err != nil {
				return err
			}
			compactedMap := map[string]any{alias: compactedItem}

			// 12.8.7.2.2)
			if expandedItem.Has(KeywordIndex) {
				iAlias, err := p.alias(activeContext, KeywordIndex)
				if err != nil {
					return err
				}
				compactedMap[iAlias] = expandedItem.Index
			}

			// 12.8.7.2.3)
			addValue(nestResult, itemActiveProperty, compactedMap, asArray)
		} else {
			// 12.8.7.3)
			nestResult[itemActiveProperty] = compactedItem
		}
	case expandedItem.IsGraph():
		// 12.8.8)
		return p.compactGraphItem(
			activeContext,
			nestResult,
			itemActiveProperty,
			container,
			expandedItem,
			compactedItem,
			asArray,
		)
	case !slices.Contains(container, KeywordGraph) &&
		(slices.Contains(container, KeywordLanguage) ||
			slices.Contains(container, KeywordIndex) ||
			slices.Contains(container, KeywordID) ||
			slices.Contains(container, KeywordType)):
		// 12.8.9)
		return p.compactMapItem(ctx,
			activeContext,
			nestResult,
			itemActiveProperty,
			itemDef,
			expandedItem,
			compactedItem,
			asArray,
		)
	default:
		// 12.8.10)
		addValue(nestResult, itemActiveProperty, compactedItem, asArray)
	}

	return nil
}

func (p *Processor) compactGraphItem(
	activeContext *Context,
	nestResult map[string]any,
	itemActiveProperty string,
	container []string,
	expandedItem Node,
	compactedItem any,
	asArray bool,
) error {
	switch {
	case slices.Contains(container, KeywordGraph) &&
		slices.Contains(container, KeywordID):
		// 12.8.8.1)

		// 12.8.8.1.1)
		mapObject, ok := nestResult[itemActiveProperty].(map[string]any)
		if !ok {
			mapObject = map[string]any{}
		}

		// 12.8.8.1.2)
		key := cmp.Or(expandedItem.ID, KeywordNone)
		mapKey, err := p.compactIRI(activeContext, key, nil, !expandedItem.Has(KeywordID), false)
		if err != nil {
			return err
		}

		// 12.8.8.1.3)
		addValue(mapObject, mapKey, compactedItem, asArray)
		nestResult[itemActiveProperty] = mapObject
	case slices.Contains(container, KeywordGraph) &&
		slices.Contains(container, KeywordIndex) &&
		expandedItem.IsSimpleGraph():
		// 12.8.8.2)

		// 12.8.8.2.1)
		mapObject, ok := nestResult[itemActiveProperty].(map[string]any)
		if !ok {
			mapObject = map[string]any{}
		}

		// 12.8.8.2.2)
		mapKey := cmp.Or(expandedItem.Index, KeywordNone)

		// 12.8.8.2.3)
		addValue(mapObject, mapKey, compactedItem, asArray)
		nestResult[itemActiveProperty] = mapObject
	case slices.Contains(container, KeywordGraph) && expandedItem.IsSimpleGraph():
		// 12.8.8.3)

		// 12.8.8.3.1)
		if clist, ok := compactedItem.([]any); ok && len(clist) > 1 {
			alias, err := p.alias(activeContext, KeywordIncluded)
			if err != nil {
				return err
			}
			compactedItem = map[string]any{alias: compactedItem}
		}

		// 12.8.8.3.2)
		addValue(nestResult, itemActiveProperty, compactedItem, asArray)
	default:
		// 12.8.8.4)
		alias, err := p.alias(activeContext, KeywordGraph)
		if err != nil {
			return err
		}

		// 12.8.8.4.1)
		wrapped := map[string]any{alias: compactedItem}

		// 12.8.8.4.2)
		if expandedItem.Has(KeywordID) {
			idAlias, err := p.alias(activeContext, KeywordID)
			if err != nil {
				return err
			}
			val, err := p.compactIRI(activeContext, expandedItem.ID, nil, false, false)
			if err != nil {
				return err
			}
			wrapped[idAlias] = val
		}

		// 12.8.8.4.3)
		if expandedItem.Has(KeywordIndex) {
			idxAlias, err := p.alias(activeContext, KeywordIndex)
			if err != nil {
				return err
			}
			wrapped[idxAlias] = expandedItem.Index
		}

		// 12.8.8.4.4)
		addValue(nestResult, itemActiveProperty, wrapped, asArray)
	}

	return nil
}

func (p *Processor) compactMapItem(
	ctx context.Context,
	activeContext *Context,
	nestResult map[string]any,
	itemActiveProperty string,
	itemDef Term,
	expandedItem Node,
	compactedItem any,
	asArray bool,
) error {
	container := itemDef.Container

	// 12.8.9.1)
	mapObject, ok := nestResult[itemActiveProperty].(map[string]any)
	if !ok {
		mapObject = map[string]any{}
	}

	var key string
	switch {
	case slices.Contains(container, KeywordLanguage):
		key = KeywordLanguage
	case slices.Contains(container, KeywordIndex):
		key = KeywordIndex
	case slices.Contains(container, KeywordID):
		key = KeywordID
	default:
		key = KeywordType
	}

	// 12.8.9.2)
	containerKey, err := p.alias(activeContext, key)
	if err != nil {
		return err
	}

	// 12.8.9.3)
	indexKey := cmp.Or(itemDef.Index, KeywordIndex)

	mapKey := ""

	switch {
	case slices.Contains(container, KeywordLanguage) && expandedItem.Has(KeywordValue):
		// 12.8.9.4)
		compactedItem = expandedItem.Value
		mapKey = expandedItem.Language
	case slices.Contains(container, KeywordIndex) && indexKey == KeywordIndex:
		// 12.8.9.5)
		mapKey = expandedItem.Index
	case slices.Contains(container, KeywordIndex):
		// 12.8.9.6)

		// 12.8.9.6.1)
		expIdx, err := p.expandIRI(activeContext, indexKey, false, true, nil)
		if err != nil {
			return err
		}
		containerKey, err = p.compactIRI(activeContext, expIdx, nil, true, false)
		if err != nil {
			return err
		}

		// 12.8.9.6.2) 12.8.9.6.3)
		if obj, ok := compactedItem.(map[string]any); ok {
			mapKey = takeFirstString(obj, containerKey)
		}
	case slices.Contains(container, KeywordID):
		// 12.8.9.7)
		if obj, ok := compactedItem.(map[string]any); ok {
			if s, ok := obj[containerKey].(string); ok {
				mapKey = s
				delete(obj, containerKey)
			}
		}
	case slices.Contains(container, KeywordType):
		// 12.8.9.8)
		if obj, ok := compactedItem.(map[string]any); ok {
			// 12.8.9.8.1) 12.8.9.8.2) 12.8.9.8.3)
			mapKey = takeFirstString(obj, containerKey)

			// 12.8.9.8.4)
			if len(obj) == 1 && expandedItem.Has(KeywordID) {
				for k := range obj {
					expIRI, err := p.expandIRI(activeContext, k, false, true, nil)
					if err != nil {
						return err
					}

					if expIRI == KeywordID {
						res, err := p.compact(ctx,
							activeContext,
							itemActiveProperty,
							Node{ID: expandedItem.ID},
							p.compactArrays,
						)
						if err != nil {
							return err
						}
						compactedItem = res
					}
				}
			}
		}
	}

	// 12.8.9.9)
	if mapKey == "" {
		alias, err := p.alias(activeContext, KeywordNone)
		if err != nil {
			return err
		}
		mapKey = alias
	}

	// 12.8.9.10)
	addValue(mapObject, mapKey, compactedItem, asArray)
	nestResult[itemActiveProperty] = mapObject
	return nil
}

// takeFirstString removes the first value of key from obj and returns it if
// it's a string. Any remaining values are left in place.
func takeFirstString(obj map[string]any, key string) string {
	val, ok := obj[key]
	if !ok {
		return ""
	}

	vals, isArray := val.([]any)
	if !isArray {
		vals = []any{val}
	}

	if len(vals) == 0 {
		return ""
	}

	first, ok := stringValue(vals[0])
	if !ok {
		return ""
	}

	switch rest := vals[1:]; len(rest) {
	case 0:
		delete(obj, key)
	case 1:
		obj[key] = rest[0]
	default:
		obj[key] = rest
	}

	return first
}

// stringValue returns the string held by a compacted value.
func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.RawMessage:
		return json.String(val)
	default:
		return "", false
	}
}

// addValue adds value to the entry key of obj.
//
// Arrays are added item by item. With asArray the entry is always an array.
func addValue(obj map[string]any, key string, value any, asArray bool) {
	if asArray {
		switch v := obj[key].(type) {
		case []any:
		case nil:
			if _, ok := obj[key]; ok {
				obj[key] = []any{v}
			} else {
				obj[key] = []any{}
			}
		default:
			obj[key] = []any{v}
		}
	}

	if vals, ok := value.([]any); ok {
		for _, v := range vals {
			addValue(obj, key, v, false)
		}
		return
	}

	existing, ok := obj[key]
	if !ok {
		obj[key] = value
		return
	}

	arr, isArray := existing.([]any)
	if !isArray {
		arr = []any{existing}
	}
	obj[key] = append(arr, value)
}

// sortedLeast sorts strings based on smallest first and if they're
// equal, then by string comparison.
func sortedLeast(a, b string) int {
	if len(a) < len(b) {
		return -1
	}
	if len(a) > len(b) {
		return 1
	}
	return strings.Compare(a, b)
}
