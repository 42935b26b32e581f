package shortwave

import (
	"context"

	"sourcery.dny.nu/shortwave/internal/bnode"
	"sourcery.dny.nu/shortwave/internal/json"
)

// Flatten transforms a JSON document into JSON-LD flattened document form.
//
// Every node is lifted to the top level and nested nodes are replaced by
// references to them. Blank nodes are relabelled.
//
// Without a flattenContext the flattened array is returned. Otherwise the
// result is compacted with it, and returned as an object holding the context
// and the nodes under @graph.
func (p *Processor) Flatten(
	ctx context.Context,
	input json.RawMessage,
	flattenContext json.RawMessage,
	documentURL string,
) (json.RawMessage, error) {
	expanded, documentURL, err := p.expandInput(ctx, input, documentURL)
	if err != nil {
		return nil, err
	}

	return p.flattenWith(ctx, expanded, flattenContext, documentURL)
}

// flattenWith flattens the expanded document and compacts the result with
// flattenContext, if there is one.
func (p *Processor) flattenWith(
	ctx context.Context,
	expanded []Node,
	flattenContext json.RawMessage,
	documentURL string,
) (json.RawMessage, error) {
	flattened, err := p.FlattenNodes(ctx, expanded)
	if err != nil {
		return nil, err
	}

	local, err := p.compactionContext(flattenContext)
	if err != nil {
		return nil, err
	}

	if len(local) == 0 || json.IsNull(local) || len(flattened) == 0 {
		return json.Marshal(flattened)
	}

	activeCtx, err := p.Context(ctx, local, documentURL)
	if err != nil {
		return nil, err
	}

	res, err := p.wrapGraph(ctx, activeCtx, flattened)
	if err != nil {
		return nil, err
	}

	return json.Marshal(res)
}

// FlattenNodes flattens a document in expanded document form.
//
// The result is in expanded form, sorted by node identifier. Nodes that only
// consist of an @id are left out.
func (p *Processor) FlattenNodes(ctx context.Context, document []Node) ([]Node, error) {
	// 1) 2)
	mapper := newNodeMapper(bnode.NewIssuer("_:b"))
	if err := mapper.generate(ctx, document, KeywordDefault, nil, "", nil); err != nil {
		return nil, err
	}

	// 3)
	defaultGraph := mapper.nodes[KeywordDefault]
	delete(mapper.nodes, KeywordDefault)

	// 4)
	for _, name := range sortedKeys(mapper.nodes) {
		graph := mapper.nodes[name]

		// 4.1)
		if _, ok := defaultGraph[name]; !ok {
			defaultGraph[name] = &Node{ID: name}
		}

		// 4.2)
		entry := defaultGraph[name]

		// 4.3)
		entry.Graph = make([]Node, 0, len(graph))

		// 4.4)
		for _, id := range sortedKeys(graph) {
			if node := graph[id]; !node.isReference() {
				entry.Graph = append(entry.Graph, *node)
			}
		}
	}

	// 5)
	flattened := make([]Node, 0, len(defaultGraph))

	// 6)
	for _, id := range sortedKeys(defaultGraph) {
		if node := defaultGraph[id]; !node.isReference() {
			flattened = append(flattened, *node)
		}
	}

	return flattened, nil
}

// wrapGraph compacts the nodes and returns them under the @graph alias,
// together with the serialized form of the context.
func (p *Processor) wrapGraph(
	ctx context.Context,
	activeCtx *Context,
	nodes []Node,
) (map[string]any, error) {
	compacted, err := p.compact(ctx, activeCtx, "", nodes, p.compactArrays)
	if err != nil {
		return nil, err
	}

	if _, ok := compacted.([]any); !ok {
		compacted = []any{compacted}
	}

	alias, err := p.alias(activeCtx, KeywordGraph)
	if err != nil {
		return nil, err
	}

	res := map[string]any{alias: compacted}

	if !activeCtx.isEmpty() {
		serialized, err := activeCtx.Serialize()
		if err != nil {
			return nil, err
		}
		res[KeywordContext] = serialized
	}

	return res, nil
}
