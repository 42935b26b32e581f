package shortwave

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"sourcery.dny.nu/shortwave/internal/bnode"
	"sourcery.dny.nu/shortwave/internal/json"
)

// frame is a parsed frame object.
//
// All keys have been expanded using the context of the frame document.
type frame struct {
	// @id matching. A nil ids with idWildcard unset means @id wasn't
	// present in the frame.
	hasID      bool
	ids        []string
	idWildcard bool

	// @type matching. An empty non-nil types is a match none.
	hasType      bool
	types        []string
	typeWildcard bool
	typeDefault  string

	embed       string
	explicit    *bool
	omitDefault *bool
	requireAll  *bool

	properties map[string]*propertyFrame
	reverse    map[string]*propertyFrame
}

// propertyFrame constrains the values of a single property.
type propertyFrame struct {
	// matchNone is set for an empty array, requiring the property to be
	// absent.
	matchNone bool

	// node is set for node patterns, including the wildcard {}.
	node *frame

	// value is set for value patterns.
	value *valuePattern

	// list is set for @list patterns.
	list *propertyFrame

	hasDefault bool
	defaults   []Node
}

// valuePattern matches value objects. A nil entry matches values without the
// attribute, a wildcard entry matches any value with it.
type valuePattern struct {
	values        []json.RawMessage
	valueWildcard bool
	types         []string
	typeWildcard  bool
	langs         []string
	langWildcard  bool
}

// frameFlags are the effective flags while framing a node.
type frameFlags struct {
	embed      string
	explicit   bool
	requireAll bool
}

func (p *Processor) flags(f *frame) frameFlags {
	res := frameFlags{
		embed:      p.embed,
		explicit:   p.explicit,
		requireAll: p.requireAll,
	}

	if f == nil {
		return res
	}

	if f.embed != "" {
		res.embed = f.embed
	}
	if f.explicit != nil {
		res.explicit = *f.explicit
	}
	if f.requireAll != nil {
		res.requireAll = *f.requireAll
	}

	return res
}

func (p *Processor) omitDefaultFor(f *propertyFrame) bool {
	if f != nil && f.node != nil && f.node.omitDefault != nil {
		return *f.node.omitDefault
	}
	return p.omitDefault
}

// implicitFrame is used for properties the frame doesn't mention. It carries
// over the flags of the current frame.
func implicitFrame(flags frameFlags) *propertyFrame {
	return &propertyFrame{node: &frame{
		embed:      flags.embed,
		explicit:   &flags.explicit,
		requireAll: &flags.requireAll,
	}}
}

func isWildcard(raw json.RawMessage) bool {
	return json.IsEmptyObject(raw)
}

func parseEmbed(raw json.RawMessage) (string, error) {
	if b, ok := json.Bool(raw); ok {
		if b {
			return EmbedOnce, nil
		}
		return EmbedNever, nil
	}

	s, ok := json.String(raw)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidEmbedValue, raw)
	}

	return validEmbed(s)
}

func validEmbed(s string) (string, error) {
	switch s {
	case EmbedOnce, EmbedAlways, EmbedNever:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidEmbedValue, s)
	}
}

func parseFlag(kw string, raw json.RawMessage) (*bool, error) {
	b, ok := json.Bool(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a boolean", ErrInvalidFrame, kw)
	}
	return &b, nil
}

// parseFrame parses a frame object using the active context.
func (p *Processor) parseFrame(
	ctx context.Context,
	activeCtx *Context,
	raw json.RawMessage,
	baseURL string,
) (*frame, error) {
	if json.IsArray(raw) {
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		}

		switch len(arr) {
		case 0:
			return &frame{}, nil
		case 1:
			raw = arr[0]
		default:
			return nil, fmt.Errorf("%w: expected a single frame object", ErrInvalidFrame)
		}
	}

	if !json.IsMap(raw) {
		return nil, fmt.Errorf("%w: frame must be an object", ErrInvalidFrame)
	}

	var obj json.Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}

	if local, ok := obj[KeywordContext]; ok {
		nctx, err := p.context(ctx, activeCtx, local, baseURL, newCtxProcessingOpts())
		if err != nil {
			return nil, err
		}
		activeCtx = nctx
	}

	result := &frame{}

	for _, key := range sortedKeys(obj) {
		value := obj[key]

		if key == KeywordContext {
			continue
		}

		expanded, err := p.expandIRI(activeCtx, key, false, true, nil)
		if err != nil {
			return nil, err
		}

		switch expanded {
		case "":
			p.logger.Warn("dropping frame entry that doesn't expand to an IRI",
				slog.String("key", key))
		case KeywordID:
			if err := p.parseFrameID(activeCtx, result, value); err != nil {
				return nil, err
			}
		case KeywordType:
			if err := p.parseFrameType(activeCtx, result, value); err != nil {
				return nil, err
			}
		case KeywordEmbed:
			embed, err := parseEmbed(value)
			if err != nil {
				return nil, err
			}
			result.embed = embed
		case KeywordExplicit:
			if result.explicit, err = parseFlag(key, value); err != nil {
				return nil, err
			}
		case KeywordOmitDefault:
			if result.omitDefault, err = parseFlag(key, value); err != nil {
				return nil, err
			}
		case KeywordRequireAll:
			if result.requireAll, err = parseFlag(key, value); err != nil {
				return nil, err
			}
		case KeywordReverse:
			if !json.IsMap(value) {
				return nil, fmt.Errorf("%w: @reverse must be an object", ErrInvalidFrame)
			}

			var rev json.Object
			if err := json.Unmarshal(value, &rev); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
			}

			result.reverse = make(map[string]*propertyFrame, len(rev))
			for _, rkey := range sortedKeys(rev) {
				prop, err := p.expandIRI(activeCtx, rkey, false, true, nil)
				if err != nil {
					return nil, err
				}
				if prop == "" || isKeyword(prop) {
					continue
				}

				pf, err := p.parsePropertyFrame(ctx, activeCtx, rkey, rev[rkey], baseURL)
				if err != nil {
					return nil, err
				}
				result.reverse[prop] = pf
			}
		default:
			if isKeyword(expanded) {
				p.logger.Warn("ignoring unsupported keyword in frame",
					slog.String("keyword", expanded))
				continue
			}

			pf, err := p.parsePropertyFrame(ctx, activeCtx, key, value, baseURL)
			if err != nil {
				return nil, err
			}

			if result.properties == nil {
				result.properties = make(map[string]*propertyFrame, len(obj))
			}
			result.properties[expanded] = pf
		}
	}

	return result, nil
}

func (p *Processor) parseFrameID(activeCtx *Context, result *frame, value json.RawMessage) error {
	result.hasID = true
	result.ids = []string{}

	var items []json.RawMessage
	if err := json.Unmarshal(json.MakeArray(value), &items); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}

	for _, item := range items {
		if isWildcard(item) {
			result.idWildcard = true
			continue
		}

		s, ok := json.String(item)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidIDValue, item)
		}

		id, err := p.expandIRI(activeCtx, s, true, false, nil)
		if err != nil {
			return err
		}
		result.ids = append(result.ids, id)
	}

	return nil
}

func (p *Processor) parseFrameType(activeCtx *Context, result *frame, value json.RawMessage) error {
	result.hasType = true
	result.types = []string{}

	var items []json.RawMessage
	if err := json.Unmarshal(json.MakeArray(value), &items); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}

	for _, item := range items {
		if isWildcard(item) {
			result.typeWildcard = true
			continue
		}

		if json.IsMap(item) {
			var obj json.Object
			if err := json.Unmarshal(item, &obj); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidFrame, err)
			}

			def, ok := obj[KeywordDefault]
			s, isString := json.String(def)
			if !ok || !isString {
				return fmt.Errorf("%w: %s", ErrInvalidTypeValue, item)
			}

			t, err := p.expandIRI(activeCtx, s, true, true, nil)
			if err != nil {
				return err
			}
			result.typeDefault = t
			continue
		}

		s, ok := json.String(item)
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidTypeValue, item)
		}

		t, err := p.expandIRI(activeCtx, s, true, true, nil)
		if err != nil {
			return err
		}
		result.types = append(result.types, t)
	}

	return nil
}

// parsePropertyFrame parses the value of a property in a frame. Only the
// first entry of an array is used, as with any frame.
func (p *Processor) parsePropertyFrame(
	ctx context.Context,
	activeCtx *Context,
	term string,
	value json.RawMessage,
	baseURL string,
) (*propertyFrame, error) {
	if json.IsNull(value) {
		return &propertyFrame{node: &frame{}}, nil
	}

	if json.IsArray(value) {
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		}

		if len(items) == 0 {
			return &propertyFrame{matchNone: true}, nil
		}
		value = items[0]
	}

	result := &propertyFrame{}

	if !json.IsMap(value) {
		v, err := p.expandValue(activeCtx, term, value)
		if err != nil {
			return nil, err
		}
		if v.Has(KeywordID) {
			result.node = &frame{hasID: true, ids: []string{v.ID}}
			return result, nil
		}
		result.value = exactPattern(v)
		return result, nil
	}

	var obj json.Object
	if err := json.Unmarshal(value, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}

	keys := make(map[string]string, len(obj))
	for k := range obj {
		exp, err := p.expandIRI(activeCtx, k, false, true, nil)
		if err != nil {
			return nil, err
		}
		keys[exp] = k
	}

	if k, ok := keys[KeywordDefault]; ok {
		result.hasDefault = true
		def, err := p.frameDefault(ctx, activeCtx, term, obj[k], baseURL)
		if err != nil {
			return nil, err
		}
		result.defaults = def
	}

	if k, ok := keys[KeywordList]; ok {
		list, err := p.parsePropertyFrame(ctx, activeCtx, term, obj[k], baseURL)
		if err != nil {
			return nil, err
		}
		result.list = list
		return result, nil
	}

	_, hasValue := keys[KeywordValue]
	_, hasLanguage := keys[KeywordLanguage]
	if hasValue || hasLanguage {
		pattern, err := p.parseValuePattern(activeCtx, obj, keys)
		if err != nil {
			return nil, err
		}
		result.value = pattern
		return result, nil
	}

	node, err := p.parseFrame(ctx, activeCtx, value, baseURL)
	if err != nil {
		return nil, err
	}
	result.node = node

	return result, nil
}

// frameDefault expands the @default value of a property frame.
func (p *Processor) frameDefault(
	ctx context.Context,
	activeCtx *Context,
	term string,
	value json.RawMessage,
	baseURL string,
) ([]Node, error) {
	if s, ok := json.String(value); ok && s == KeywordNull {
		return []Node{{Value: json.Quote(KeywordNull)}}, nil
	}

	res, _, err := p.expand(ctx, activeCtx, term, value, baseURL, expandOptions{})
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return []Node{{Value: json.Quote(KeywordNull)}}, nil
	}

	return res, nil
}

func (p *Processor) parseValuePattern(
	activeCtx *Context,
	obj json.Object,
	keys map[string]string,
) (*valuePattern, error) {
	res := &valuePattern{}

	if k, ok := keys[KeywordValue]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(json.MakeArray(obj[k]), &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		}
		for _, item := range items {
			if isWildcard(item) {
				res.valueWildcard = true
				continue
			}
			res.values = append(res.values, item)
		}
	}

	if k, ok := keys[KeywordType]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(json.MakeArray(obj[k]), &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		}
		for _, item := range items {
			if isWildcard(item) {
				res.typeWildcard = true
				continue
			}
			s, ok := json.String(item)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrInvalidTypedValue, item)
			}
			t, err := p.expandIRI(activeCtx, s, true, true, nil)
			if err != nil {
				return nil, err
			}
			res.types = append(res.types, t)
		}
	}

	if k, ok := keys[KeywordLanguage]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(json.MakeArray(obj[k]), &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		}
		for _, item := range items {
			if isWildcard(item) {
				res.langWildcard = true
				continue
			}
			s, ok := json.String(item)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrInvalidLanguageTaggedString, item)
			}
			res.langs = append(res.langs, strings.ToLower(s))
		}
	}

	return res, nil
}

// exactPattern returns a pattern matching only the given value.
func exactPattern(v Node) *valuePattern {
	res := &valuePattern{values: []json.RawMessage{v.Value}}
	if v.Has(KeywordType) {
		res.types = v.Type
	}
	if v.Has(KeywordLanguage) {
		res.langs = []string{strings.ToLower(v.Language)}
	}
	return res
}

// matches reports if the value object matches the pattern.
func (vp *valuePattern) matches(v Node) bool {
	if vp == nil {
		return true
	}

	if len(vp.values) == 0 && !vp.valueWildcard &&
		len(vp.types) == 0 && !vp.typeWildcard &&
		len(vp.langs) == 0 && !vp.langWildcard {
		return true
	}

	if !v.Has(KeywordValue) {
		return false
	}

	if !vp.valueWildcard && !slices.ContainsFunc(vp.values, func(r json.RawMessage) bool {
		return bytes.Equal(r, v.Value)
	}) {
		return false
	}

	switch {
	case !v.Has(KeywordType) && len(vp.types) == 0 && !vp.typeWildcard:
	case v.Has(KeywordType) && vp.typeWildcard:
	case v.Has(KeywordType) && slices.Contains(vp.types, v.Type[0]):
	default:
		return false
	}

	lang := strings.ToLower(v.Language)
	switch {
	case lang == "" && len(vp.langs) == 0 && !vp.langWildcard:
	case lang != "" && vp.langWildcard:
	case lang != "" && slices.Contains(vp.langs, lang):
	default:
		return false
	}

	return true
}

// frameState is the state of a single framing operation.
type frameState struct {
	subjects map[string]*Node
	embedded map[string]struct{}
	stack    []string
	bnodes   map[string]int
}

// Frame transforms a JSON document into a tree shaped by the frame.
//
// Matching uses the merged graph of the input. The result is compacted using
// the context of the frame and returned with the matches under @graph, unless
// [WithOmitGraph] is set and there's only a single match.
//
// The frame is not modified, so the same frame can be used repeatedly.
func (p *Processor) Frame(
	ctx context.Context,
	input json.RawMessage,
	frameDoc json.RawMessage,
	documentURL string,
) (json.RawMessage, error) {
	if _, err := validEmbed(p.embed); err != nil {
		return nil, err
	}

	expanded, documentURL, err := p.expandInput(ctx, input, documentURL)
	if err != nil {
		return nil, err
	}

	frameDoc, _, err = p.resolveInput(ctx, bytes.Clone(frameDoc), documentURL)
	if err != nil {
		return nil, err
	}

	frameCtx := frameContext(frameDoc)

	baseIRI := p.baseIRI
	if baseIRI == "" {
		baseIRI = documentURL
	}

	activeCtx, err := p.initialContext(ctx, baseIRI)
	if err != nil {
		return nil, err
	}

	parsed, err := p.parseFrame(ctx, activeCtx, frameDoc, baseIRI)
	if err != nil {
		return nil, err
	}

	framed, err := p.frameNodes(ctx, expanded, parsed)
	if err != nil {
		return nil, err
	}

	compactCtx, err := p.Context(ctx, frameCtx, documentURL)
	if err != nil {
		return nil, err
	}

	res, err := p.wrapGraph(ctx, compactCtx, framed)
	if err != nil {
		return nil, err
	}

	alias, err := p.alias(compactCtx, KeywordGraph)
	if err != nil {
		return nil, err
	}

	var out any = res
	if graph, ok := res[alias].([]any); ok && p.omitGraph && len(graph) == 1 {
		if node, ok := graph[0].(map[string]any); ok {
			if c, ok := res[KeywordContext]; ok {
				node[KeywordContext] = c
			}
			out = node
		}
	}

	return json.Marshal(removePreserve(out))
}

// frameContext returns the @context entry of a frame document.
func frameContext(frameDoc json.RawMessage) json.RawMessage {
	if json.IsArray(frameDoc) {
		var arr []json.RawMessage
		if err := json.Unmarshal(frameDoc, &arr); err != nil || len(arr) != 1 {
			return nil
		}
		frameDoc = arr[0]
	}

	if !json.IsMap(frameDoc) {
		return nil
	}

	var obj json.Object
	if err := json.Unmarshal(frameDoc, &obj); err != nil {
		return nil
	}

	return obj[KeywordContext]
}

// frameNodes frames a document in expanded document form. The result is in
// expanded form and may contain @preserve entries for defaulted properties.
func (p *Processor) frameNodes(
	ctx context.Context,
	document []Node,
	f *frame,
) ([]Node, error) {
	mapper := newNodeMapper(bnode.NewIssuer("_:b"))
	if err := mapper.generate(ctx, document, KeywordDefault, nil, "", nil); err != nil {
		return nil, err
	}

	state := &frameState{
		subjects: mapper.nodes.merged(),
		bnodes:   make(map[string]int, 8),
	}

	framed := []Node{}
	add := func(n Node) { framed = append(framed, n) }

	if err := p.frame(ctx, state, sortedKeys(state.subjects), f, add, true); err != nil {
		return nil, err
	}

	if !p.modeLD10 {
		pruneBlankNodes(framed, state.bnodes)
	}

	return framed, nil
}

// frame frames the subjects with the given ids, passing each result to add.
func (p *Processor) frame(
	ctx context.Context,
	state *frameState,
	ids []string,
	f *frame,
	add func(Node),
	topLevel bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// 1)
	flags := p.flags(f)

	// 2) 3)
	for _, id := range ids {
		subject, ok := state.subjects[id]
		if !ok || !p.filterSubject(state, subject, f, flags) {
			continue
		}

		// 4.1)
		if topLevel {
			state.embedded = make(map[string]struct{}, 8)
		}

		output := Node{ID: id}
		if bnode.IsBlank(id) {
			state.bnodes[id]++
		}

		// 4.2) 4.3)
		if flags.embed == EmbedNever || slices.Contains(state.stack, id) {
			add(output)
			continue
		}

		// 4.4)
		if _, ok := state.embedded[id]; ok && flags.embed == EmbedOnce {
			add(output)
			continue
		}

		state.embedded[id] = struct{}{}
		state.stack = append(state.stack, id)

		// 4.5)
		output.Type = slices.Clone(subject.Type)
		output.Index = subject.Index

		// 4.6)
		for _, prop := range sortedKeys(subject.Properties) {
			pf, inFrame := f.properties[prop]

			// 4.6.1)
			if flags.explicit && !inFrame {
				continue
			}

			if !inFrame {
				pf = implicitFrame(flags)
			}

			// 4.6.2)
			for _, o := range subject.Properties[prop] {
				if err := p.frameValue(ctx, state, &output, prop, o, pf, flags); err != nil {
					return err
				}
			}
		}

		// 4.7)
		if len(output.Type) == 0 && f.typeDefault != "" {
			output.Type = []string{f.typeDefault}
		}

		for _, prop := range sortedKeys(f.properties) {
			pf := f.properties[prop]
			if pf.matchNone || output.Has(prop) || p.omitDefaultFor(pf) {
				continue
			}

			preserve := []Node{{Value: json.Quote(KeywordNull)}}
			if pf.hasDefault {
				preserve = cloneNodes(pf.defaults)
			}
			output.AddNodes(prop, Node{Preserve: preserve})
		}

		// 4.8)
		for _, prop := range sortedKeys(f.reverse) {
			subframe := f.reverse[prop]
			for _, sid := range sortedKeys(state.subjects) {
				referencing := slices.ContainsFunc(
					state.subjects[sid].Properties[prop],
					func(n Node) bool { return n.ID == id && !n.Has(KeywordValue) },
				)
				if !referencing {
					continue
				}

				if output.Reverse == nil {
					output.Reverse = make(Properties, 1)
				}
				if output.Reverse[prop] == nil {
					output.Reverse[prop] = []Node{}
				}

				sub := subframe.node
				if sub == nil {
					sub = implicitFrame(flags).node
				}

				addReverse := func(n Node) {
					output.Reverse[prop] = append(output.Reverse[prop], n)
				}
				if err := p.frame(ctx, state, []string{sid}, sub, addReverse, false); err != nil {
					return err
				}
			}
		}

		// 4.9)
		add(output)
		state.stack = state.stack[:len(state.stack)-1]
	}

	return nil
}

// frameValue adds a single value of a subject's property to the output.
func (p *Processor) frameValue(
	ctx context.Context,
	state *frameState,
	output *Node,
	prop string,
	o Node,
	pf *propertyFrame,
	flags frameFlags,
) error {
	switch {
	case o.IsList():
		sub := pf
		if pf.list != nil {
			sub = pf.list
		}

		list := Node{List: []Node{}}
		addItem := func(n Node) { list.List = append(list.List, n) }

		for _, item := range o.List {
			if item.isReference() {
				if err := p.frame(ctx, state, []string{item.ID}, subframeOf(sub, flags), addItem, false); err != nil {
					return err
				}
				continue
			}
			addItem(item.Clone())
		}

		output.AddNodes(prop, list)
	case o.isReference():
		addProp := func(n Node) { output.AddNodes(prop, n) }
		return p.frame(ctx, state, []string{o.ID}, subframeOf(pf, flags), addProp, false)
	case pf.value.matches(o):
		output.AddNodes(prop, o.Clone())
	}

	return nil
}

// subframeOf returns the node frame to use for embedding values matched by
// a property frame.
func subframeOf(pf *propertyFrame, flags frameFlags) *frame {
	if pf != nil && pf.node != nil {
		return pf.node
	}
	return implicitFrame(flags).node
}

// filterSubject reports if the subject matches the frame.
func (p *Processor) filterSubject(
	state *frameState,
	subject *Node,
	f *frame,
	flags frameFlags,
) bool {
	if f == nil {
		return true
	}

	wildcard := true
	matchesSome := false

	check := func(matchThis bool) (done, result bool) {
		if !matchThis && flags.requireAll {
			return true, false
		}
		matchesSome = matchesSome || matchThis
		return false, false
	}

	if f.hasID {
		matchThis := f.idWildcard || slices.Contains(f.ids, subject.ID)
		if !flags.requireAll {
			return matchThis
		}
		if done, res := check(matchThis); done {
			return res
		}
	}

	if f.hasType {
		wildcard = false
		var matchThis bool

		switch {
		case len(f.types) == 0 && !f.typeWildcard && f.typeDefault == "":
			if len(subject.Type) > 0 {
				return false
			}
			matchThis = true
		case f.typeWildcard && len(f.types) == 0:
			matchThis = len(subject.Type) > 0
		default:
			matchThis = f.typeDefault != "" ||
				slices.ContainsFunc(f.types, func(t string) bool {
					return slices.Contains(subject.Type, t)
				})
			if !flags.requireAll {
				return matchThis
			}
		}

		if done, res := check(matchThis); done {
			return res
		}
	}

	for _, prop := range sortedKeys(f.properties) {
		pf := f.properties[prop]
		nodeValues := subject.Properties[prop]

		wildcard = false

		if len(nodeValues) == 0 && pf.hasDefault {
			continue
		}

		var matchThis bool

		switch {
		case pf.matchNone:
			if len(nodeValues) > 0 {
				return false
			}
			matchThis = true
		case pf.list != nil:
			if len(nodeValues) > 0 && nodeValues[0].IsList() {
				items := nodeValues[0].List
				switch {
				case pf.list.value != nil:
					matchThis = slices.ContainsFunc(items, pf.list.value.matches)
				case pf.list.node != nil && pf.list.node.isReferencePattern():
					matchThis = slices.ContainsFunc(items, func(n Node) bool {
						return p.nodeMatch(state, pf.list.node, n, flags)
					})
				}
			}
		case pf.value != nil:
			matchThis = slices.ContainsFunc(nodeValues, pf.value.matches)
		case pf.node != nil && pf.node.isReferencePattern():
			matchThis = slices.ContainsFunc(nodeValues, func(n Node) bool {
				return p.nodeMatch(state, pf.node, n, flags)
			})
		default:
			matchThis = len(nodeValues) > 0
		}

		if done, res := check(matchThis); done {
			return res
		}
	}

	return wildcard || matchesSome
}

// isReferencePattern reports if the frame only constrains @id.
func (f *frame) isReferencePattern() bool {
	return f.hasID && !f.hasType && len(f.properties) == 0 && len(f.reverse) == 0
}

func (p *Processor) nodeMatch(state *frameState, f *frame, value Node, flags frameFlags) bool {
	if !value.Has(KeywordID) {
		return false
	}

	node, ok := state.subjects[value.ID]
	if !ok {
		return false
	}

	return p.filterSubject(state, node, f, flags)
}

// pruneBlankNodes removes the @id of blank nodes that only occur once in the
// framed output.
func pruneBlankNodes(nodes []Node, counts map[string]int) {
	for i := range nodes {
		n := &nodes[i]
		if bnode.IsBlank(n.ID) && counts[n.ID] == 1 && !n.isReference() {
			n.ID = ""
		}

		pruneBlankNodes(n.List, counts)
		pruneBlankNodes(n.Graph, counts)
		pruneBlankNodes(n.Included, counts)
		pruneBlankNodes(n.Preserve, counts)
		for _, v := range n.Properties {
			pruneBlankNodes(v, counts)
		}
		for _, v := range n.Reverse {
			pruneBlankNodes(v, counts)
		}
	}
}

// removePreserve replaces @preserve entries with their value and turns the
// @null marker into JSON null.
func removePreserve(v any) any {
	switch val := v.(type) {
	case []any:
		res := make([]any, 0, len(val))
		for _, item := range val {
			item = removePreserve(item)
			if item == nil {
				continue
			}
			res = append(res, item)
		}
		return res
	case map[string]any:
		if preserved, ok := val[KeywordPreserve]; ok {
			return removePreserve(preserved)
		}

		for k, item := range val {
			if k == KeywordContext {
				continue
			}
			val[k] = removePreserve(item)
		}
		return val
	case string:
		if val == KeywordNull {
			return nil
		}
		return val
	case json.RawMessage:
		if s, ok := json.String(val); ok && s == KeywordNull {
			return nil
		}
		return val
	default:
		return val
	}
}
