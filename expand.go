package shortwave

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"sourcery.dny.nu/shortwave/internal/bnode"
	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/internal/url"
)

type expandOptions struct {
	fromMap    bool
	insideList bool
}

// Expand transforms a JSON document into JSON-LD expanded document form.
//
// If the document was retrieved from a URL, pass it as documentURL.
// Otherwise an empty string.
//
// The input can also be a JSON string, or plain text, holding the IRI of a
// remote document. It's then retrieved with the document loader. If no base
// IRI is configured, the URL of the retrieved document is used as the base.
func (p *Processor) Expand(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
) ([]Node, error) {
	res, _, err := p.expandInput(ctx, input, documentURL)
	return res, err
}

// expandInput expands the input and returns the document URL that was
// effectively used for it.
func (p *Processor) expandInput(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
) ([]Node, string, error) {
	doc, documentURL, err := p.resolveInput(ctx, input, documentURL)
	if err != nil {
		return nil, "", err
	}

	baseIRI := cmp.Or(p.baseIRI, documentURL)

	activeCtx, err := p.initialContext(ctx, baseIRI)
	if err != nil {
		return nil, "", err
	}

	res, _, err := p.expand(ctx, activeCtx, "", doc, baseIRI, expandOptions{})
	if err != nil {
		return nil, "", err
	}

	// 19)
	if len(res) == 1 && !json.IsArray(doc) &&
		res[0].Has(KeywordGraph) && len(res[0].PropertySet()) == 1 {
		res = res[0].Graph
	}

	if res == nil {
		res = []Node{}
	}

	return res, documentURL, nil
}

// resolveInput returns the JSON document to process. Remote documents are
// retrieved with the document loader.
func (p *Processor) resolveInput(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
) (json.RawMessage, string, error) {
	if iri, ok := remoteIRI(input); ok {
		doc, err := p.loadDocument(ctx, iri)
		if err != nil {
			return nil, "", err
		}

		if p.baseIRI == "" {
			documentURL = doc.URL
		}

		return doc.Document, documentURL, nil
	}

	doc, err := json.Normalize(input)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return doc, documentURL, nil
}

// remoteIRI reports if the input refers to a remote document instead of
// being one.
//
// The input is either a JSON string or bare text. It's considered an IRI if
// it has a colon that's not preceded by any { or [.
func remoteIRI(input json.RawMessage) (string, bool) {
	input = bytes.TrimSpace(input)

	var s string
	switch {
	case json.IsString(input):
		v, ok := json.String(input)
		if !ok {
			return "", false
		}
		s = v
	case json.Valid(input):
		return "", false
	default:
		s = string(input)
	}

	s = strings.TrimSpace(s)
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return "", false
	}

	if strings.ContainsAny(s[:colon], "{[") {
		return "", false
	}

	return s, true
}

// initialContext returns the context expansion starts with, including the
// expand context if one is configured.
func (p *Processor) initialContext(ctx context.Context, baseIRI string) (*Context, error) {
	activeCtx := newContext(baseIRI)

	if p.expandContext == nil {
		return activeCtx, nil
	}

	local, err := json.Normalize(p.expandContext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLocalContext, err)
	}

	return p.context(ctx, activeCtx, contextEntry(local), baseIRI, newCtxProcessingOpts())
}

// expand runs the expansion algorithm on element.
//
// A nil result means the element was dropped. The boolean reports if the
// expanded result is an array, as opposed to a single object.
func (p *Processor) expand(
	ctx context.Context,
	activeCtx *Context,
	activeProp string,
	element json.RawMessage,
	baseURL string,
	opts expandOptions,
) ([]Node, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	termDef := activeCtx.defs[activeProp]

	switch json.KindOf(element) {
	case json.KindNull, json.KindInvalid:
		// 1)
		return nil, false, nil
	case json.KindArray:
		// 5)
		res, err := p.expandArray(ctx, activeCtx, activeProp, element, baseURL, opts, termDef)
		return res, true, err
	case json.KindObject:
		return p.expandObject(ctx, activeCtx, activeProp, element, baseURL, opts, termDef)
	default:
		// 4.1)
		if activeProp == "" || activeProp == KeywordGraph {
			p.logger.Warn("dropping free-floating value",
				slog.String("value", string(element)))
			return nil, false, nil
		}

		// 4.2)
		if termDef.Context != nil {
			ropts := newCtxProcessingOpts()
			ropts.override = true
			nctx, err := p.context(ctx, activeCtx, termDef.Context, termDef.BaseIRI, ropts)
			if err != nil {
				return nil, false, err
			}
			activeCtx = nctx
		}

		// 4.3)
		res, err := p.expandValue(activeCtx, activeProp, element)
		if err != nil {
			return nil, false, err
		}
		return []Node{res}, false, nil
	}
}

func (p *Processor) expandArray(
	ctx context.Context,
	activeCtx *Context,
	activeProp string,
	element json.RawMessage,
	baseURL string,
	opts expandOptions,
	termDef Term,
) ([]Node, error) {
	var items json.Array
	if err := json.Unmarshal(element, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	asList := opts.insideList || slices.Contains(termDef.Container, KeywordList)

	// 5.1)
	result := make([]Node, 0, len(items))

	// 5.2)
	for _, item := range items {
		// 5.2.1)
		res, isArray, err := p.expand(ctx, activeCtx, activeProp, item, baseURL, opts)
		if err != nil {
			return nil, err
		}

		// 5.2.2)
		if asList && isArray {
			if res == nil {
				res = []Node{}
			}
			res = []Node{{List: res}}
		}

		// 5.2.3)
		result = append(result, res...)
	}

	// 5.3)
	return result, nil
}

func (p *Processor) expandObject(
	ctx context.Context,
	activeCtx *Context,
	activeProp string,
	element json.RawMessage,
	baseURL string,
	opts expandOptions,
	termDef Term,
) ([]Node, bool, error) {
	var obj json.Object
	if err := json.Unmarshal(element, &obj); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	// 7)
	if activeCtx.previousContext != nil && !opts.fromMap {
		hasValue := p.expandsToKeyword(activeCtx, KeywordValue, maps.Keys(obj))
		hasID := p.expandsToKeyword(activeCtx, KeywordID, maps.Keys(obj))
		if !hasValue && !(len(obj) == 1 && hasID) {
			activeCtx = activeCtx.previousContext
		}
	}

	// 8)
	if termDef.Context != nil {
		ropts := newCtxProcessingOpts()
		ropts.override = true
		nctx, err := p.context(ctx, activeCtx, termDef.Context, termDef.BaseIRI, ropts)
		if err != nil {
			return nil, false, err
		}
		activeCtx = nctx
	}

	// 9)
	if rawCtx, ok := obj[KeywordContext]; ok {
		nctx, err := p.context(ctx, activeCtx, rawCtx, baseURL, newCtxProcessingOpts())
		if err != nil {
			return nil, false, err
		}
		activeCtx = nctx
	}

	// 10)
	typContext := activeCtx

	// 11)
	keys := sortedKeys(obj)
	var inputTypeTerm string
	firstType := true
	for _, k := range keys {
		u, err := p.expandIRI(activeCtx, k, false, true, nil)
		if err != nil || u != KeywordType {
			continue
		}

		var vals json.Array
		if err := json.Unmarshal(json.MakeArray(obj[k]), &vals); err != nil {
			return nil, false, ErrInvalidTypeValue
		}

		terms := make([]string, 0, len(vals))
		for _, v := range vals {
			if s, ok := json.String(v); ok {
				terms = append(terms, s)
			}
		}

		if firstType && len(vals) > 0 {
			if s, ok := json.String(vals[len(vals)-1]); ok {
				inputTypeTerm = s
			}
		}
		firstType = false

		// 11.2)
		slices.Sort(terms)
		for _, term := range terms {
			tdef, ok := typContext.defs[term]
			if !ok || tdef.Context == nil {
				continue
			}

			ropts := newCtxProcessingOpts()
			ropts.propagate = false
			nctx, err := p.context(ctx, activeCtx, tdef.Context, tdef.BaseIRI, ropts)
			if err != nil {
				return nil, false, err
			}
			activeCtx = nctx
		}
	}

	// 12)
	result := &Node{}

	var inputType string
	if inputTypeTerm != "" {
		u, err := p.expandIRI(activeCtx, inputTypeTerm, true, true, nil)
		if err != nil {
			return nil, false, err
		}
		inputType = u
	}

	// 13) and 14)
	if err := p.expandObjectKeys(
		ctx,
		result,
		activeCtx,
		typContext,
		activeProp,
		inputType,
		baseURL,
		obj,
	); err != nil {
		return nil, false, err
	}

	// 15)
	if result.Has(KeywordValue) {
		// 15.1)
		if !result.IsValue() {
			return nil, false, ErrInvalidValueObject
		}

		if result.Has(KeywordType) && (result.Has(KeywordLanguage) || result.Has(KeywordDirection)) {
			return nil, false, ErrInvalidValueObject
		}

		// 15.2)
		if !slices.Equal(result.Type, []string{KeywordJSON}) {
			// 15.3)
			if json.IsNull(result.Value) {
				return nil, false, nil
			}

			// 15.4)
			if result.Has(KeywordLanguage) && !json.IsString(result.Value) {
				return nil, false, ErrInvalidLanguageTaggedValue
			}

			// 15.5)
			if len(result.Type) > 1 ||
				(len(result.Type) == 1 &&
					(!url.IsAbsolute(result.Type[0]) || bnode.IsBlank(result.Type[0]))) {
				return nil, false, fmt.Errorf("%w: %v", ErrInvalidTypedValue, result.Type)
			}
		}
	}

	// 17)
	if result.Has(KeywordSet) || result.Has(KeywordList) {
		// 17.1)
		if len(result.propsWithout(KeywordIndex, KeywordList, KeywordSet)) != 0 ||
			(result.Has(KeywordSet) && result.Has(KeywordList)) {
			return nil, false, ErrInvalidSetOrListObject
		}

		// 17.2)
		if result.Has(KeywordSet) {
			return result.Set, true, nil
		}
	}

	props := result.PropertySet()

	// 18)
	if _, ok := props[KeywordLanguage]; ok && len(props) == 1 {
		return nil, false, nil
	}

	// 19)
	if activeProp == "" || activeProp == KeywordGraph {
		switch {
		case len(props) == 0:
			return nil, false, nil
		case result.Has(KeywordValue) || result.Has(KeywordList):
			p.logger.Warn("dropping free-floating value",
				slog.String("value", string(element)))
			return nil, false, nil
		case len(props) == 1 && result.Has(KeywordID):
			return nil, false, nil
		}
	}

	return []Node{*result}, false, nil
}

func (p *Processor) expandObjectKeys(
	ctx context.Context,
	result *Node,
	activeCtx *Context,
	typContext *Context,
	activeProp string,
	inputType string,
	baseURL string,
	obj json.Object,
) error {
	nests := map[string]struct{}{}

	// 13)
mainLoop:
	for _, key := range sortedKeys(obj) {
		value := obj[key]

		// 13.1)
		if key == KeywordContext {
			continue
		}

		// 13.2)
		expProp, err := p.expandIRI(activeCtx, key, false, true, nil)
		if err != nil {
			return err
		}

		// 13.3)
		if expProp == "" {
			continue
		}

		if !isKeyword(expProp) && !strings.Contains(expProp, ":") {
			continue
		}

		// 13.4)
		if isKeyword(expProp) {
			// 13.4.1)
			if activeProp == KeywordReverse {
				return ErrInvalidReversePropertyMap
			}

			// 13.4.2)
			if result.Has(expProp) &&
				(p.modeLD10 || (expProp != KeywordIncluded && expProp != KeywordType)) {
				return fmt.Errorf("%w: %s", ErrCollidingKeywords, expProp)
			}

			switch expProp {
			case KeywordID:
				// 13.4.3)
				s, ok := json.String(value)
				if !ok {
					// 13.4.3.1)
					return ErrInvalidIDValue
				}

				// 13.4.3.2)
				u, err := p.expandIRI(activeCtx, s, true, false, nil)
				if err != nil {
					return err
				}

				result.ID = u
			case KeywordType:
				// 13.4.4)
				var vals json.Array
				if err := json.Unmarshal(json.MakeArray(value), &vals); err != nil {
					// 13.4.4.1)
					return ErrInvalidTypeValue
				}

				// 13.4.4.4)
				iris := make([]string, 0, len(vals))
				for _, v := range vals {
					s, ok := json.String(v)
					if !ok {
						return ErrInvalidTypeValue
					}

					u, err := p.expandIRI(typContext, s, true, true, nil)
					if err != nil {
						return err
					}

					if u != "" {
						iris = append(iris, u)
					}
				}

				// 13.4.4.5)
				if result.Type == nil {
					result.Type = make([]string, 0, len(iris))
				}
				result.Type = append(result.Type, iris...)
			case KeywordGraph:
				// 13.4.5)
				res, _, err := p.expand(ctx, activeCtx, KeywordGraph, value, baseURL, expandOptions{})
				if err != nil {
					return err
				}

				if res == nil {
					res = []Node{}
				}
				result.Graph = res
			case KeywordIncluded:
				// 13.4.6)
				if p.modeLD10 {
					// 13.4.6.1)
					continue mainLoop
				}

				if !json.IsMap(value) && !json.IsArray(value) {
					return ErrInvalidIncludedValue
				}

				// 13.4.6.2)
				res, _, err := p.expand(ctx, activeCtx, "", value, baseURL, expandOptions{})
				if err != nil {
					return err
				}

				// 13.4.6.3)
				if res == nil && json.IsMap(value) {
					return ErrInvalidIncludedValue
				}

				for _, elem := range res {
					if !elem.isNode() {
						return ErrInvalidIncludedValue
					}
				}

				// 13.4.6.4)
				if result.Included == nil {
					result.Included = make([]Node, 0, len(res))
				}
				result.Included = append(result.Included, res...)
			case KeywordValue:
				// 13.4.7)
				if inputType == KeywordJSON {
					// 13.4.7.1)
					if p.modeLD10 {
						return ErrInvalidValueObjectValue
					}
					result.Value = value
					continue mainLoop
				}

				// 13.4.7.2)
				if !json.IsScalar(value) && !json.IsNull(value) {
					return ErrInvalidValueObjectValue
				}

				// 13.4.7.3) 13.4.7.4)
				result.Value = value
			case KeywordLanguage:
				// 13.4.8)
				l, ok := json.String(value)
				if !ok {
					// 13.4.8.1)
					return ErrInvalidLanguageTaggedString
				}

				// 13.4.8.2)
				result.Language = strings.ToLower(l)
			case KeywordDirection:
				// 13.4.9)
				if p.modeLD10 {
					// 13.4.9.1)
					continue mainLoop
				}

				d, ok := json.String(value)
				if !ok {
					return ErrInvalidBaseDirection
				}

				// 13.4.9.2)
				switch d {
				case DirectionLTR, DirectionRTL:
				default:
					return ErrInvalidBaseDirection
				}

				// 13.4.9.3)
				result.Direction = d
			case KeywordIndex:
				// 13.4.10)
				i, ok := json.String(value)
				if !ok {
					// 13.4.10.1)
					return ErrInvalidIndexValue
				}

				// 13.4.10.2)
				result.Index = i
			case KeywordList:
				// 13.4.11)
				if activeProp == "" || activeProp == KeywordGraph {
					// 13.4.11.1)
					continue mainLoop
				}

				// 13.4.11.2)
				res, _, err := p.expand(ctx, activeCtx, activeProp, value, baseURL,
					expandOptions{insideList: true})
				if err != nil {
					return err
				}

				if res == nil {
					res = []Node{}
				}
				result.List = res
			case KeywordSet:
				// 13.4.12)
				res, _, err := p.expand(ctx, activeCtx, activeProp, value, baseURL, expandOptions{})
				if err != nil {
					return err
				}

				if res == nil {
					res = []Node{}
				}
				result.Set = res
			case KeywordReverse:
				// 13.4.13)
				if !json.IsMap(value) {
					// 13.4.13.1)
					return ErrInvalidReverseValue
				}

				// 13.4.13.2)
				res, _, err := p.expand(ctx, activeCtx, KeywordReverse, value, baseURL, expandOptions{})
				if err != nil {
					return err
				}

				for _, obj := range res {
					// 13.4.13.3)
					for _, k := range sortedKeys(obj.Reverse) {
						result.AddNodes(k, obj.Reverse[k]...)
					}

					// 13.4.13.4)
					for _, k := range sortedKeys(obj.Properties) {
						if result.Reverse == nil {
							result.Reverse = make(Properties, len(obj.Properties))
						}

						// 13.4.13.4.2)
						for _, item := range obj.Properties[k] {
							// 13.4.13.4.2.1)
							if item.Has(KeywordValue) || item.Has(KeywordList) {
								return ErrInvalidReversePropertyValue
							}

							// 13.4.13.4.2.2)
							result.Reverse[k] = append(result.Reverse[k], item)
						}
					}
				}

				// 13.4.13.5)
				continue mainLoop
			case KeywordNest:
				// 13.4.14)
				nests[key] = struct{}{}
				continue mainLoop
			default:
				// 13.4.15) framing keywords are only meaningful in frames
			}

			// 13.4.16) 13.4.17) already stored on result by each case
			continue mainLoop
		}

		// 13.5)
		termDef := activeCtx.defs[key]
		cnt := termDef.Container

		var expVal []Node
		isArray := true

		if termDef.Type == KeywordJSON {
			// 13.6)
			expVal = []Node{{Value: value, Type: []string{KeywordJSON}}}
			isArray = false
		} else if slices.Contains(cnt, KeywordLanguage) && json.IsMap(value) {
			// 13.7)
			res, err := p.expandLanguageMap(activeCtx, termDef, value)
			if err != nil {
				return err
			}
			expVal = res
		} else if (slices.Contains(cnt, KeywordIndex) ||
			slices.Contains(cnt, KeywordType) ||
			slices.Contains(cnt, KeywordID)) &&
			json.IsMap(value) {
			// 13.8)
			res, err := p.expandIndexMap(ctx, activeCtx, key, termDef, value, baseURL)
			if err != nil {
				return err
			}
			expVal = res
		} else {
			// 13.9)
			res, resArray, err := p.expand(ctx, activeCtx, key, value, baseURL, expandOptions{})
			if err != nil {
				return err
			}
			expVal = res
			isArray = resArray
		}

		// 13.10)
		// A nil result means the value should be dropped. An empty slice
		// still needs to be retained, it's the result of an empty array.
		if expVal == nil {
			continue mainLoop
		}

		// 13.11)
		if slices.Contains(cnt, KeywordList) {
			if isArray || len(expVal) != 1 || !expVal[0].IsList() {
				expVal = []Node{{List: expVal}}
			}
		}

		// 13.12)
		if slices.Contains(cnt, KeywordGraph) &&
			!slices.Contains(cnt, KeywordID) &&
			!slices.Contains(cnt, KeywordIndex) {
			res := make([]Node, 0, len(expVal))
			for _, obj := range expVal {
				res = append(res, Node{Graph: []Node{obj}})
			}
			expVal = res
		}

		// 13.13)
		if termDef.Reverse {
			// 13.13.1)
			if result.Reverse == nil {
				result.Reverse = make(Properties, len(expVal))
			}

			// 13.13.4)
			for _, obj := range expVal {
				// 13.13.4.1)
				if obj.Has(KeywordValue) || obj.Has(KeywordList) {
					return ErrInvalidReversePropertyValue
				}

				// 13.13.4.3)
				if result.Reverse[expProp] == nil {
					result.Reverse[expProp] = make([]Node, 0, len(expVal))
				}
				result.Reverse[expProp] = append(result.Reverse[expProp], obj)
			}
			continue mainLoop
		}

		// 13.14)
		// Initialise the property explicitly so an empty array is retained.
		if !result.Has(expProp) {
			result.SetNodes(expProp, expVal...)
		} else {
			result.AddNodes(expProp, expVal...)
		}
	}

	// 14)
	for _, k := range sortedKeys(nests) {
		// 14.1)
		var nestValues json.Array
		if err := json.Unmarshal(json.MakeArray(obj[k]), &nestValues); err != nil {
			return ErrInvalidNestValue
		}

		// 14.2)
		for _, nestValue := range nestValues {
			if !json.IsMap(nestValue) {
				return ErrInvalidNestValue
			}

			var nestObj json.Object
			if err := json.Unmarshal(nestValue, &nestObj); err != nil {
				return ErrInvalidNestValue
			}

			// 14.2.1)
			if p.expandsToKeyword(activeCtx, KeywordValue, maps.Keys(nestObj)) {
				return ErrInvalidNestValue
			}

			// 14.2.2)
			nestCtx := activeCtx
			if termDef := activeCtx.defs[k]; termDef.Context != nil {
				ropts := newCtxProcessingOpts()
				ropts.override = true

				nctx, err := p.context(ctx, activeCtx, termDef.Context, termDef.BaseIRI, ropts)
				if err != nil {
					return err
				}
				nestCtx = nctx
			}

			if err := p.expandObjectKeys(
				ctx,
				result,
				nestCtx,
				typContext,
				activeProp,
				inputType,
				baseURL,
				nestObj,
			); err != nil {
				return err
			}
		}
	}

	return nil
}

// expandLanguageMap expands the value of a property with an @language
// container.
func (p *Processor) expandLanguageMap(
	activeCtx *Context,
	termDef Term,
	value json.RawMessage,
) ([]Node, error) {
	var langMap json.Object
	if err := json.Unmarshal(value, &langMap); err != nil {
		return nil, ErrInvalidLanguageMapValue
	}

	// 13.7.1)
	res := make([]Node, 0, len(langMap))

	// 13.7.2) 13.7.3)
	dir := cmp.Or(termDef.Direction, activeCtx.defaultDirection)

	// 13.7.4)
	for _, langKey := range sortedKeys(langMap) {
		// 13.7.4.1)
		var langValues json.Array
		if err := json.Unmarshal(json.MakeArray(langMap[langKey]), &langValues); err != nil {
			return nil, ErrInvalidLanguageMapValue
		}

		expKey, err := p.expandIRI(activeCtx, langKey, false, true, nil)
		if err != nil {
			return nil, err
		}

		// 13.7.4.2)
		for _, item := range langValues {
			// 13.7.4.2.1)
			if json.IsNull(item) {
				continue
			}

			// 13.7.4.2.2)
			if !json.IsString(item) {
				return nil, ErrInvalidLanguageMapValue
			}

			// 13.7.4.2.3)
			obj := Node{Value: item}

			// 13.7.4.2.4)
			if langKey != KeywordNone && expKey != KeywordNone {
				obj.Language = strings.ToLower(langKey)
			}

			// 13.7.4.2.5)
			if dir != "" && dir != KeywordNull {
				obj.Direction = dir
			}

			// 13.7.4.2.6)
			res = append(res, obj)
		}
	}

	return res, nil
}

// expandIndexMap expands the value of a property with an @index, @id or
// @type container.
func (p *Processor) expandIndexMap(
	ctx context.Context,
	activeCtx *Context,
	key string,
	termDef Term,
	value json.RawMessage,
	baseURL string,
) ([]Node, error) {
	cnt := termDef.Container

	var objVal json.Object
	if err := json.Unmarshal(value, &objVal); err != nil {
		return nil, err
	}

	// 13.8.1)
	res := make([]Node, 0, len(objVal))

	// 13.8.2)
	idxKey := cmp.Or(termDef.Index, KeywordIndex)

	// 13.8.3)
	for _, idx := range sortedKeys(objVal) {
		// 13.8.3.1)
		mapCtx := activeCtx
		if (slices.Contains(cnt, KeywordID) || slices.Contains(cnt, KeywordType)) &&
			activeCtx.previousContext != nil {
			mapCtx = activeCtx.previousContext
		}

		// 13.8.3.2)
		if slices.Contains(cnt, KeywordType) {
			if def, ok := mapCtx.defs[idx]; ok && def.Context != nil {
				nctx, err := p.context(ctx, mapCtx, def.Context, def.BaseIRI, newCtxProcessingOpts())
				if err != nil {
					return nil, err
				}
				mapCtx = nctx
			}
		}

		// 13.8.3.4)
		expIdx, err := p.expandIRI(activeCtx, idx, false, true, nil)
		if err != nil {
			return nil, err
		}

		// 13.8.3.5) 13.8.3.6)
		expIdxVals, _, err := p.expand(
			ctx,
			mapCtx,
			key,
			json.MakeArray(objVal[idx]),
			baseURL,
			expandOptions{fromMap: true},
		)
		if err != nil {
			return nil, err
		}

		// 13.8.3.7)
		for _, item := range expIdxVals {
			// 13.8.3.7.1)
			if slices.Contains(cnt, KeywordGraph) && !item.IsGraph() {
				item = Node{Graph: []Node{item}}
			}

			if expIdx == KeywordNone {
				res = append(res, item)
				continue
			}

			switch {
			case slices.Contains(cnt, KeywordIndex) && idxKey != KeywordIndex:
				// 13.8.3.7.2)

				// 13.8.3.7.2.1)
				rexpIdx, err := p.expandValue(activeCtx, idxKey, json.Quote(idx))
				if err != nil {
					return nil, err
				}

				// 13.8.3.7.2.2)
				expIdxKey, err := p.expandIRI(activeCtx, idxKey, false, true, nil)
				if err != nil {
					return nil, err
				}

				// 13.8.3.7.2.3) 13.8.3.7.2.4)
				item.SetNodes(expIdxKey, append([]Node{rexpIdx}, item.Properties[expIdxKey]...)...)

				// 13.8.3.7.2.5)
				if item.Has(KeywordValue) {
					return nil, ErrInvalidValueObject
				}
			case slices.Contains(cnt, KeywordIndex) && !item.Has(KeywordIndex):
				// 13.8.3.7.3)
				item.Index = idx
			case slices.Contains(cnt, KeywordID) && !item.Has(KeywordID):
				// 13.8.3.7.4)
				u, err := p.expandIRI(activeCtx, idx, true, false, nil)
				if err != nil {
					return nil, err
				}
				item.ID = u
			case slices.Contains(cnt, KeywordType):
				// 13.8.3.7.5)
				item.Type = append([]string{expIdx}, item.Type...)
			}

			// 13.8.3.7.6)
			res = append(res, item)
		}
	}

	return res, nil
}

func (p *Processor) expandsToKeyword(
	activeContext *Context,
	keyword string,
	elems iter.Seq[string],
) bool {
	for k := range elems {
		res, err := p.expandIRI(activeContext, k, false, true, nil)
		if err != nil {
			continue
		}

		if res == keyword {
			return true
		}
	}

	return false
}

// expandValue expands a scalar into a value object or node reference.
func (p *Processor) expandValue(
	activeCtx *Context,
	property string,
	value json.RawMessage,
) (Node, error) {
	def := activeCtx.defs[property]
	result := Node{}

	if s, ok := json.String(value); ok {
		switch def.Type {
		case KeywordID:
			// 1)
			u, err := p.expandIRI(activeCtx, s, true, false, nil)
			if err != nil {
				return result, err
			}
			result.ID = u
			return result, nil
		case KeywordVocab:
			// 2)
			u, err := p.expandIRI(activeCtx, s, true, true, nil)
			if err != nil {
				return result, err
			}
			result.ID = u
			return result, nil
		}
	}

	// 3)
	result.Value = value

	switch def.Type {
	case KeywordID, KeywordVocab, KeywordNone:
	case "":
	default:
		// 4)
		result.Type = []string{def.Type}
		return result, nil
	}

	// 5)
	if json.IsString(value) {
		// 5.1)
		lang := cmp.Or(def.Language, activeCtx.defaultLang)

		// 5.2)
		dir := cmp.Or(def.Direction, activeCtx.defaultDirection)

		// 5.3)
		if lang != KeywordNull {
			result.Language = lang
		}

		// 5.4)
		if dir != KeywordNull {
			result.Direction = dir
		}
	}

	return result, nil
}
