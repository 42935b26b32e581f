package shortwave

import (
	"context"
	"slices"

	"sourcery.dny.nu/shortwave/internal/bnode"
)

// nodeMap holds every node of a document, keyed by graph name and then by
// node identifier. The default graph is stored under [KeywordDefault].
type nodeMap map[string]map[string]*Node

// graph returns the nodes of the named graph, creating it if necessary.
func (m nodeMap) graph(name string) map[string]*Node {
	g, ok := m[name]
	if !ok {
		g = make(map[string]*Node, 8)
		m[name] = g
	}
	return g
}

// subject identifies the node a value is being added to while building the
// node map. For reverse properties the value is added to the node being
// visited instead.
type subject struct {
	id      string
	reverse bool
}

type nodeMapper struct {
	nodes  nodeMap
	issuer *bnode.Issuer
}

func newNodeMapper(issuer *bnode.Issuer) *nodeMapper {
	return &nodeMapper{
		nodes:  nodeMap{KeywordDefault: make(map[string]*Node, 8)},
		issuer: issuer,
	}
}

// relabel issues a new identifier for blank node identifiers and returns
// anything else as is.
func (m *nodeMapper) relabel(id string) string {
	if bnode.IsBlank(id) {
		return m.issuer.Issue(id)
	}
	return id
}

// generate adds the elements to the node map.
func (m *nodeMapper) generate(
	ctx context.Context,
	elements []Node,
	activeGraph string,
	activeSubject *subject,
	activeProperty string,
	list *Node,
) error {
	// 1)
	for _, elem := range elements {
		if err := m.generateNode(ctx, elem, activeGraph, activeSubject, activeProperty, list); err != nil {
			return err
		}
	}
	return nil
}

func (m *nodeMapper) generateNode(
	ctx context.Context,
	element Node,
	activeGraph string,
	activeSubject *subject,
	activeProperty string,
	list *Node,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// 2)
	graph := m.nodes.graph(activeGraph)
	var subjectNode *Node
	if activeSubject != nil && !activeSubject.reverse {
		subjectNode = graph[activeSubject.id]
	}

	// 3)
	if element.Has(KeywordType) {
		types := make([]string, 0, len(element.Type))
		for _, t := range element.Type {
			types = append(types, m.relabel(t))
		}
		element.Type = types
	}

	if subjectNode == nil && list == nil &&
		(element.Has(KeywordValue) || element.Has(KeywordList)) {
		return nil
	}

	switch {
	case element.Has(KeywordValue):
		// 4)
		if list == nil {
			// 4.1)
			subjectNode.Properties[activeProperty] = appendUnique(
				subjectNode.Properties[activeProperty], element)
		} else {
			// 4.2)
			list.List = append(list.List, element)
		}
		return nil
	case element.Has(KeywordList):
		// 5)

		// 5.1)
		result := &Node{List: []Node{}}

		// 5.2)
		if err := m.generate(ctx, element.List, activeGraph, activeSubject, activeProperty, result); err != nil {
			return err
		}

		if list == nil {
			// 5.3)
			subjectNode.AddNodes(activeProperty, *result)
		} else {
			// 5.4)
			list.List = append(list.List, *result)
		}
		return nil
	}

	// 6)

	// 6.1)
	var id string
	if element.Has(KeywordID) {
		id = m.relabel(element.ID)
	} else {
		id = m.issuer.Issue("")
	}

	// 6.2)
	if _, ok := graph[id]; !ok {
		graph[id] = &Node{ID: id}
	}

	// 6.3)
	node := graph[id]

	if activeSubject != nil && activeSubject.reverse {
		// 6.4)
		if node.Properties == nil {
			node.Properties = make(Properties, 2)
		}
		node.Properties[activeProperty] = appendUnique(
			node.Properties[activeProperty], Node{ID: activeSubject.id})
	} else if activeProperty != "" {
		// 6.5)
		reference := Node{ID: id}
		if list == nil {
			// 6.5.2)
			subjectNode.Properties[activeProperty] = appendUnique(
				subjectNode.Properties[activeProperty], reference)
		} else {
			// 6.5.3)
			list.List = append(list.List, reference)
		}
	}

	// 6.6)
	for _, t := range element.Type {
		if !slices.Contains(node.Type, t) {
			node.Type = append(node.Type, t)
		}
	}

	// 6.7)
	if element.Has(KeywordIndex) {
		node.Index = element.Index
	}

	// 6.8)
	if element.Has(KeywordReverse) {
		// 6.8.1)
		referenced := &subject{id: id, reverse: true}

		// 6.8.2) 6.8.3)
		for _, property := range sortedKeys(element.Reverse) {
			// 6.8.3.1)
			if err := m.generate(ctx, element.Reverse[property], activeGraph, referenced, property, nil); err != nil {
				return err
			}
		}
	}

	// 6.9)
	if element.Has(KeywordGraph) {
		if err := m.generate(ctx, element.Graph, id, nil, "", nil); err != nil {
			return err
		}
	}

	// 6.10)
	if element.Has(KeywordIncluded) {
		if err := m.generate(ctx, element.Included, activeGraph, nil, "", nil); err != nil {
			return err
		}
	}

	// 6.11)
	for _, property := range sortedKeys(element.Properties) {
		value := element.Properties[property]

		// 6.11.1)
		property = m.relabel(property)

		// 6.11.2)
		if node.Properties == nil {
			node.Properties = make(Properties, len(element.Properties))
		}
		if _, ok := node.Properties[property]; !ok {
			node.Properties[property] = []Node{}
		}

		// 6.11.3)
		if err := m.generate(ctx, value, activeGraph, &subject{id: id}, property, nil); err != nil {
			return err
		}
	}

	return nil
}

// merged combines the nodes of every graph into a single graph.
//
// Node identifiers are shared between graphs, so the properties of a node
// found in multiple graphs are combined.
func (m nodeMap) merged() map[string]*Node {
	result := make(map[string]*Node, len(m[KeywordDefault]))

	for _, name := range sortedKeys(m) {
		for _, id := range sortedKeys(m[name]) {
			node := m[name][id]

			merged, ok := result[id]
			if !ok {
				merged = &Node{ID: id}
				result[id] = merged
			}

			for _, t := range node.Type {
				if !slices.Contains(merged.Type, t) {
					merged.Type = append(merged.Type, t)
				}
			}

			if node.Has(KeywordIndex) {
				merged.Index = node.Index
			}

			for _, property := range sortedKeys(node.Properties) {
				if merged.Properties == nil {
					merged.Properties = make(Properties, len(node.Properties))
				}

				values := merged.Properties[property]
				if values == nil {
					values = []Node{}
				}

				for _, v := range node.Properties[property] {
					values = appendUnique(values, v.Clone())
				}
				merged.Properties[property] = values
			}
		}
	}

	return result
}
