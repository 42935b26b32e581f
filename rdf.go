package shortwave

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"sourcery.dny.nu/shortwave/internal/bnode"
	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/internal/url"
	"sourcery.dny.nu/shortwave/rdf"
)

// codecs returns the registry formats are looked up in.
func (p *Processor) codecs() *rdf.Registry {
	if p.registry == nil {
		return rdf.DefaultRegistry
	}
	return p.registry
}

// ToRDF transforms a JSON document into an RDF dataset.
//
// The document is expanded and flattened into a node map first. Triples with
// a relative IRI in any position are skipped, as are properties that are
// blank nodes.
//
// With [WithUseNamespaces] the prefixes in the top-level @context of the
// document are recorded on the dataset.
func (p *Processor) ToRDF(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
) (*rdf.Dataset, error) {
	doc, documentURL, err := p.resolveInput(ctx, input, documentURL)
	if err != nil {
		return nil, err
	}

	expanded, _, err := p.expandInput(ctx, doc, documentURL)
	if err != nil {
		return nil, err
	}

	ds, err := p.toDataset(ctx, expanded)
	if err != nil {
		return nil, err
	}

	if p.useNamespaces {
		namespacesFrom(doc, ds)
	}

	return ds, nil
}

// ToRDFText transforms a JSON document into serialized RDF, in the format
// set with [WithRDFFormat].
//
// It fails with [ErrUnknownFormat] before doing any work if the format isn't
// registered.
func (p *Processor) ToRDFText(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
) ([]byte, error) {
	s, err := p.codecs().Serializer(cmp.Or(p.rdfFormat, FormatNQuads))
	if err != nil {
		return nil, err
	}

	return p.ToRDFWith(ctx, input, documentURL, s)
}

// ToRDFWith transforms a JSON document into RDF and hands the dataset to s.
func (p *Processor) ToRDFWith(
	ctx context.Context,
	input json.RawMessage,
	documentURL string,
	s rdf.Serializer,
) ([]byte, error) {
	ds, err := p.ToRDF(ctx, input, documentURL)
	if err != nil {
		return nil, err
	}

	return s.Serialize(ds)
}

// namespacesFrom records the prefix definitions of the top-level @context of
// doc on the dataset.
func namespacesFrom(doc json.RawMessage, ds *rdf.Dataset) {
	elems := []json.RawMessage{doc}
	if json.IsArray(doc) {
		if err := json.Unmarshal(doc, &elems); err != nil {
			return
		}
	}

	for _, elem := range elems {
		var obj json.Object
		if err := json.Unmarshal(elem, &obj); err != nil {
			continue
		}

		var local json.Object
		if err := json.Unmarshal(obj[KeywordContext], &local); err != nil {
			continue
		}

		for key, val := range local {
			if key == KeywordVocab {
				if s, ok := json.String(val); ok {
					ds.SetNamespace("", s)
				}
				continue
			}

			if isKeyword(key) || strings.Contains(key, ":") {
				continue
			}

			if s, ok := json.String(val); ok {
				ds.SetNamespace(key, s)
				continue
			}

			var def json.Object
			if err := json.Unmarshal(val, &def); err != nil {
				continue
			}
			if s, ok := json.String(def[KeywordID]); ok && !isKeyword(s) {
				ds.SetNamespace(key, s)
			}
		}
	}
}

// wellFormed reports if id can be used as an RDF subject, predicate, object
// or graph name.
func wellFormed(id string) bool {
	return bnode.IsBlank(id) || url.IsAbsolute(id)
}

func termFor(id string) rdf.Term {
	if bnode.IsBlank(id) {
		return rdf.NewBlankNode(id)
	}
	return rdf.NewIRI(id)
}

// toDataset runs the deserialize JSON-LD to RDF algorithm.
func (p *Processor) toDataset(ctx context.Context, document []Node) (*rdf.Dataset, error) {
	mapper := newNodeMapper(bnode.NewIssuer("_:b"))
	if err := mapper.generate(ctx, document, KeywordDefault, nil, "", nil); err != nil {
		return nil, err
	}

	ds := rdf.NewDataset()
	w := rdfWriter{issuer: mapper.issuer}

	// 1)
	for _, name := range sortedKeys(mapper.nodes) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		graph := mapper.nodes[name]

		// 1.1)
		if name != KeywordDefault && !wellFormed(name) {
			p.logger.Warn("skipping graph with a relative name", slog.String("graph", name))
			continue
		}

		// 1.2) 1.3)
		for _, id := range sortedKeys(graph) {
			node := graph[id]

			// 1.3.1)
			if !wellFormed(id) {
				continue
			}
			subj := termFor(id)

			// 1.3.2)
			for _, t := range node.Type {
				if !wellFormed(t) {
					continue
				}
				ds.Add(name, rdf.Triple{
					Subject:   subj,
					Predicate: rdf.NewIRI(rdf.RDFType),
					Object:    termFor(t),
				})
			}

			for _, property := range sortedKeys(node.Properties) {
				// 1.3.2.3) 1.3.2.4) 1.3.2.5)
				if isKeyword(property) || bnode.IsBlank(property) || !wellFormed(property) {
					continue
				}

				pred := rdf.NewIRI(property)

				// 1.3.2.5)
				for _, item := range node.Properties[property] {
					var listTriples []rdf.Triple

					obj, ok, err := w.object(&item, &listTriples)
					if err != nil {
						return nil, err
					}

					if ok {
						ds.Add(name, rdf.Triple{Subject: subj, Predicate: pred, Object: obj})
					}

					for _, t := range listTriples {
						ds.Add(name, t)
					}
				}
			}
		}
	}

	return ds, nil
}

type rdfWriter struct {
	issuer *bnode.Issuer
}

// object converts an item to an RDF term. It reports false if the item can't
// be represented, for example because it's a relative IRI.
func (w rdfWriter) object(item *Node, triples *[]rdf.Triple) (rdf.Term, bool, error) {
	switch {
	case item.Has(KeywordList):
		return w.list(item.List, triples)
	case item.Has(KeywordValue):
		return w.literal(item)
	default:
		// 1)
		if !wellFormed(item.ID) {
			return rdf.Term{}, false, nil
		}
		return termFor(item.ID), true, nil
	}
}

// literal converts a value object to an RDF literal.
func (w rdfWriter) literal(item *Node) (rdf.Term, bool, error) {
	// 4)
	value := item.Value

	// 5)
	var datatype string
	if len(item.Type) > 0 {
		datatype = item.Type[0]
	}

	// 6)
	if datatype != "" && datatype != KeywordJSON && !wellFormed(datatype) {
		return rdf.Term{}, false, nil
	}

	switch kind := json.KindOf(value); {
	case datatype == KeywordJSON:
		// 8)
		canonical, err := json.Canonical(value)
		if err != nil {
			return rdf.Term{}, false, fmt.Errorf("%w: %w", ErrInvalidJSONLiteral, err)
		}
		return rdf.NewLiteral(string(canonical), rdf.RDFJSON), true, nil

	case kind == json.KindBool:
		// 9)
		return rdf.NewLiteral(string(value), cmp.Or(datatype, rdf.XSDBoolean)), true, nil

	case kind == json.KindNumber:
		f, err := strconv.ParseFloat(string(value), 64)
		if err != nil {
			return rdf.Term{}, false, fmt.Errorf("%w: %s", ErrInvalidValueObjectValue, value)
		}

		// 10)
		if datatype == rdf.XSDDouble || f != math.Trunc(f) || math.Abs(f) >= 1e21 {
			return rdf.NewLiteral(canonicalDouble(f), cmp.Or(datatype, rdf.XSDDouble)), true, nil
		}

		// 11)
		lexical := string(value)
		switch {
		case f == 0:
			lexical = "0"
		case strings.ContainsAny(lexical, ".eE"):
			lexical = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return rdf.NewLiteral(lexical, cmp.Or(datatype, rdf.XSDInteger)), true, nil

	case kind == json.KindString:
		s, _ := json.String(value)

		// 12) 13)
		if item.Language != "" {
			return rdf.NewLangLiteral(s, item.Language), true, nil
		}
		return rdf.NewLiteral(s, cmp.Or(datatype, rdf.XSDString)), true, nil

	default:
		return rdf.Term{}, false, nil
	}
}

// canonicalDouble formats f in the canonical lexical form of xsd:double.
func canonicalDouble(f float64) string {
	s := strconv.FormatFloat(f, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")

	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}

	e, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(e)
}

// list converts a list to an rdf:first/rdf:rest chain, returning its head.
func (w rdfWriter) list(items []Node, triples *[]rdf.Triple) (rdf.Term, bool, error) {
	// 1)
	if len(items) == 0 {
		return rdf.NewIRI(rdf.RDFNil), true, nil
	}

	// 2)
	nodes := make([]rdf.Term, len(items))
	for i := range items {
		nodes[i] = rdf.NewBlankNode(w.issuer.Issue(""))
	}

	// 3)
	for i, item := range items {
		subj := nodes[i]

		// 3.1) 3.2)
		obj, ok, err := w.object(&item, triples)
		if err != nil {
			return rdf.Term{}, false, err
		}

		// 3.3)
		if ok {
			*triples = append(*triples, rdf.Triple{
				Subject:   subj,
				Predicate: rdf.NewIRI(rdf.RDFFirst),
				Object:    obj,
			})
		}

		// 3.4)
		rest := rdf.NewIRI(rdf.RDFNil)
		if i+1 < len(nodes) {
			rest = nodes[i+1]
		}

		*triples = append(*triples, rdf.Triple{
			Subject:   subj,
			Predicate: rdf.NewIRI(rdf.RDFRest),
			Object:    rest,
		})
	}

	// 4)
	return nodes[0], true, nil
}

// FromRDF transforms serialized RDF into a JSON-LD document.
//
// The format is set with [WithRDFFormat] and defaults to N-Quads. The shape
// of the result is set with [WithOutputForm].
func (p *Processor) FromRDF(ctx context.Context, data []byte) (json.RawMessage, error) {
	parser, err := p.codecs().Parser(cmp.Or(p.rdfFormat, FormatNQuads))
	if err != nil {
		return nil, err
	}

	return p.FromRDFWith(ctx, data, parser)
}

// FromRDFWith transforms RDF into a JSON-LD document using the given parser.
func (p *Processor) FromRDFWith(
	ctx context.Context,
	data []byte,
	parser rdf.Parser,
) (json.RawMessage, error) {
	ds, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}

	return p.FromDataset(ctx, ds)
}

// FromDataset transforms an RDF dataset into a JSON-LD document.
//
// For the compacted and flattened output forms, the namespaces of the dataset
// are used as the context. Any other output form fails with [ErrUnknown].
func (p *Processor) FromDataset(ctx context.Context, ds *rdf.Dataset) (json.RawMessage, error) {
	nodes, err := p.fromDataset(ctx, ds)
	if err != nil {
		return nil, err
	}

	switch form := cmp.Or(p.outputForm, OutputExpanded); form {
	case OutputExpanded:
		return json.Marshal(nodes)
	case OutputCompacted:
		return p.CompactNodes(ctx, ds.Context(), nodes, "")
	case OutputFlattened:
		return p.flattenWith(ctx, nodes, ds.Context(), "")
	default:
		return nil, fmt.Errorf("%w: output form %q", ErrUnknown, form)
	}
}

// listUsage records where a node is referenced from: the property of node at
// index.
type listUsage struct {
	node     *Node
	property string
	index    int
}

// fromDataset runs the serialize RDF as JSON-LD algorithm.
func (p *Processor) fromDataset(ctx context.Context, ds *rdf.Dataset) ([]Node, error) {
	// 1) 2) 3)
	defaultGraph := make(map[string]*Node, 16)
	graphs := map[string]map[string]*Node{KeywordDefault: defaultGraph}
	nilUsages := make(map[string][]listUsage, 1)

	// referenced holds, per graph, a usage for blank nodes that are
	// referenced exactly once and nil for those referenced more than once.
	referenced := make(map[string]map[string]*listUsage, 1)

	ensure := func(graph map[string]*Node, id string) *Node {
		node, ok := graph[id]
		if !ok {
			node = &Node{ID: id}
			graph[id] = node
		}
		return node
	}

	// 5)
	for _, name := range ds.GraphNames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// 5.2)
		graph, ok := graphs[name]
		if !ok {
			graph = make(map[string]*Node, len(ds.Graphs[name]))
			graphs[name] = graph
		}

		refs, ok := referenced[name]
		if !ok {
			refs = make(map[string]*listUsage, 16)
			referenced[name] = refs
		}

		// 5.3)
		if name != KeywordDefault {
			ensure(defaultGraph, name)
		}

		// 5.5)
		for _, t := range ds.Graphs[name] {
			// 5.5.1) 5.5.2)
			node := ensure(graph, t.Subject.Value)

			// 5.5.3)
			if !t.Object.IsLiteral() {
				ensure(graph, t.Object.Value)
			}

			pred := t.Predicate.Value

			// 5.5.4)
			if pred == rdf.RDFType && !p.useRDFType && !t.Object.IsLiteral() {
				if !slices.Contains(node.Type, t.Object.Value) {
					node.Type = append(node.Type, t.Object.Value)
				}
				continue
			}

			// 5.5.5)
			value, err := p.rdfToObject(t.Object)
			if err != nil {
				return nil, err
			}

			// 5.5.6) 5.5.7)
			if node.Properties == nil {
				node.Properties = make(Properties, 4)
			}
			idx := slices.IndexFunc(node.Properties[pred], func(n Node) bool {
				return sameValue(&n, &value)
			})
			if idx < 0 {
				idx = len(node.Properties[pred])
				node.Properties[pred] = append(node.Properties[pred], value)
			}

			usage := listUsage{node: node, property: pred, index: idx}

			switch obj := t.Object.Value; {
			case t.Object.IsIRI() && obj == rdf.RDFNil:
				// 5.5.8)
				nilUsages[name] = append(nilUsages[name], usage)
			case t.Object.IsBlankNode():
				// 5.5.9) 5.5.10)
				if _, seen := refs[obj]; seen {
					refs[obj] = nil
				} else {
					refs[obj] = &usage
				}
			}
		}
	}

	// 6)
	for _, name := range sortedKeys(graphs) {
		graph := graphs[name]

		// 6.1)
		if _, ok := graph[rdf.RDFNil]; !ok {
			continue
		}

		// 6.4)
		for _, usage := range nilUsages[name] {
			if err := collapseList(graph, usage, referenced[name]); err != nil {
				return nil, err
			}
		}
	}

	// 7)
	result := make([]Node, 0, len(defaultGraph))

	// 8)
	for _, id := range sortedKeys(defaultGraph) {
		node := defaultGraph[id]

		// 8.1)
		if graph, ok := graphs[id]; ok && id != KeywordDefault {
			node.Graph = make([]Node, 0, len(graph))
			for _, gid := range sortedKeys(graph) {
				if n := graph[gid]; !n.isReference() {
					node.Graph = append(node.Graph, *n)
				}
			}
		}

		// 8.2)
		if !node.isReference() {
			result = append(result, *node)
		}
	}

	return result, nil
}

// collapseList follows the rdf:rest chain ending in the rdf:nil usage back
// to its head, and replaces the head reference with a list object.
func collapseList(graph map[string]*Node, usage listUsage, referenced map[string]*listUsage) error {
	// 6.4.1)
	node, property, head := usage.node, usage.property, usage.index

	// 6.4.2)
	var (
		list      []Node
		listNodes []string
	)

	// 6.4.3)
	for property == rdf.RDFRest && bnode.IsBlank(node.ID) {
		use := referenced[node.ID]
		if use == nil || !isListNode(node) {
			break
		}

		first := node.Properties[rdf.RDFFirst]
		rest := node.Properties[rdf.RDFRest]
		if len(first) != 1 || len(rest) != 1 {
			return fmt.Errorf("%w: list node %s has %d rdf:first and %d rdf:rest",
				ErrInvalidRdfListChain, node.ID, len(first), len(rest))
		}

		// 6.4.3.1) 6.4.3.2)
		list = append(list, first[0])
		listNodes = append(listNodes, node.ID)

		// 6.4.3.3) 6.4.3.4)
		node, property, head = use.node, use.property, use.index

		// 6.4.3.5)
		if !bnode.IsBlank(node.ID) {
			break
		}
	}

	target := &node.Properties[property][head]

	// 6.4.4)
	target.ID = ""

	// 6.4.5) 6.4.6)
	slices.Reverse(list)
	if list == nil {
		list = []Node{}
	}
	target.List = list

	// 6.4.7)
	for _, id := range listNodes {
		delete(graph, id)
	}

	return nil
}

// isListNode reports if the node has nothing but list vocabulary on it. It
// doesn't check the number of values.
func isListNode(n *Node) bool {
	if n.Index != "" || n.Reverse != nil || n.Graph != nil {
		return false
	}

	if len(n.Type) > 0 && !slices.Equal(n.Type, []string{rdf.RDFList}) {
		return false
	}

	for property := range n.Properties {
		if property != rdf.RDFFirst && property != rdf.RDFRest {
			return false
		}
	}

	return true
}

var (
	xsdInteger = regexp.MustCompile(`^[+-]?[0-9]+$`)
	xsdDouble  = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// rdfToObject converts an RDF term to a node reference or value object.
func (p *Processor) rdfToObject(t rdf.Term) (Node, error) {
	// 1)
	if !t.IsLiteral() {
		return Node{ID: t.Value}, nil
	}

	// 2.1) 2.2) 2.3)
	str := json.Quote(t.Value)

	switch {
	// 2.4)
	case p.useNativeTypes && t.Datatype == rdf.XSDString:
		return Node{Value: str}, nil

	case p.useNativeTypes && t.Datatype == rdf.XSDBoolean:
		switch t.Value {
		case "true", "false":
			return Node{Value: json.RawMessage(t.Value)}, nil
		}
		p.logger.Warn("keeping boolean literal with invalid lexical form",
			slog.String("value", t.Value))

	case p.useNativeTypes && t.Datatype == rdf.XSDInteger:
		if xsdInteger.MatchString(t.Value) {
			if i, err := strconv.ParseInt(t.Value, 10, 64); err == nil {
				return Node{Value: json.RawMessage(strconv.FormatInt(i, 10))}, nil
			}
		}
		p.logger.Warn("keeping integer literal that can't be converted",
			slog.String("value", t.Value))

	case p.useNativeTypes && t.Datatype == rdf.XSDDouble:
		if xsdDouble.MatchString(t.Value) {
			f, err := strconv.ParseFloat(t.Value, 64)
			if err == nil && !math.IsInf(f, 0) {
				data, err := json.Marshal(f)
				if err == nil {
					return Node{Value: data}, nil
				}
			}
		}
		p.logger.Warn("keeping double literal that can't be converted",
			slog.String("value", t.Value))

	// 2.5)
	case !p.modeLD10 && t.Datatype == rdf.RDFJSON:
		value, err := json.Normalize([]byte(t.Value))
		if err != nil {
			return Node{}, fmt.Errorf("%w: %w", ErrInvalidJSONLiteral, err)
		}
		return Node{Value: value, Type: []string{KeywordJSON}}, nil
	}

	// 2.7)
	if t.Language != "" {
		return Node{Value: str, Language: t.Language}, nil
	}

	// 2.8)
	if t.Datatype != "" && t.Datatype != rdf.XSDString {
		return Node{Value: str, Type: []string{t.Datatype}}, nil
	}

	return Node{Value: str}, nil
}
