package shortwave

import (
	"bytes"
	"maps"
	"slices"

	"sourcery.dny.nu/shortwave/internal/json"
)

// Properties is a key-to-array-of-[Node] map.
//
// It's used to hold any property that's not a JSON-LD keyword.
type Properties map[string][]Node

// Node represents a node in a JSON-LD graph.
//
// Every supported JSON-LD keyword has a field of its own. All remaining
// properties are tracked on the Properties field.
type Node struct {
	Direction string          // @direction / KeywordDirection
	Graph     []Node          // @graph / KeywordGraph
	ID        string          // @id / KeywordID
	Included  []Node          // @included / KeywordIncluded
	Index     string          // @index / KeywordIndex
	Language  string          // @language / KeywordLanguage
	List      []Node          // @list / KeywordList
	Preserve  []Node          // @preserve / KeywordPreserve
	Reverse   Properties      // @reverse / KeywordReverse
	Set       []Node          // @set / KeywordSet
	Type      []string        // @type / KeywordType
	Value     json.RawMessage // @value / KeywordValue

	Properties Properties // everything else
}

// Internal is a generic type that matches the internals of [Node].
//
// This can be used to convert to a [Node] from any type outside this package
// that happens to be a [Node] underneath.
type Internal interface {
	~struct {
		Direction  string
		Graph      []Node
		ID         string
		Included   []Node
		Index      string
		Language   string
		List       []Node
		Preserve   []Node
		Reverse    Properties
		Set        []Node
		Type       []string
		Value      json.RawMessage
		Properties Properties
	}
}

var nodeKeywords = []string{
	KeywordDirection,
	KeywordGraph,
	KeywordID,
	KeywordIncluded,
	KeywordIndex,
	KeywordLanguage,
	KeywordList,
	KeywordPreserve,
	KeywordReverse,
	KeywordSet,
	KeywordType,
	KeywordValue,
}

// PropertySet returns a set with an entry for each property that is set on
// the [Node].
func (n *Node) PropertySet() map[string]struct{} {
	if n == nil {
		return nil
	}

	res := make(map[string]struct{}, len(n.Properties)+2)
	for _, kw := range nodeKeywords {
		if n.Has(kw) {
			res[kw] = struct{}{}
		}
	}

	for p := range n.Properties {
		res[p] = struct{}{}
	}

	return res
}

func (n *Node) propsWithout(props ...string) map[string]struct{} {
	nprops := n.PropertySet()
	for _, prop := range props {
		delete(nprops, prop)
	}
	return nprops
}

func (n *Node) isNode() bool {
	if n == nil {
		return false
	}

	return !n.Has(KeywordList) && !n.Has(KeywordValue) && !n.Has(KeywordSet)
}

// Has returns if a node has the requested property.
//
// Properties must either be a JSON-LD keyword, or an expanded IRI.
func (n *Node) Has(prop string) bool {
	if n == nil {
		return false
	}

	switch prop {
	case KeywordID:
		return n.ID != ""
	case KeywordValue:
		return n.Value != nil
	case KeywordLanguage:
		return n.Language != ""
	case KeywordDirection:
		return n.Direction != ""
	case KeywordType:
		return n.Type != nil
	case KeywordList:
		return n.List != nil
	case KeywordSet:
		return n.Set != nil
	case KeywordGraph:
		return n.Graph != nil
	case KeywordIncluded:
		return n.Included != nil
	case KeywordIndex:
		return n.Index != ""
	case KeywordPreserve:
		return n.Preserve != nil
	case KeywordReverse:
		return n.Reverse != nil
	default:
		_, ok := n.Properties[prop]
		return ok
	}
}

// IsZero returns if this is the zero value of a [Node].
func (n *Node) IsZero() bool {
	if n == nil {
		return true
	}

	return len(n.PropertySet()) == 0
}

// IsSubject checks if this node is a subject.
//
// This means:
//   - It has an @id.
//   - It may have an @type.
//   - It has at least one other property.
func (n *Node) IsSubject() bool {
	if n == nil {
		return false
	}

	if !n.Has(KeywordID) {
		return false
	}

	return len(n.propsWithout(KeywordID, KeywordIndex)) != 0
}

// IsSubjectReference checks if this node is a subject reference.
//
// This means:
//   - It has an @id.
//   - It may have an @type.
//   - It has no other properties.
func (n *Node) IsSubjectReference() bool {
	if n == nil {
		return false
	}

	if !n.Has(KeywordID) {
		return false
	}

	return len(n.propsWithout(KeywordID, KeywordType)) == 0
}

// isReference returns if the node consists of only an @id.
func (n *Node) isReference() bool {
	return n.Has(KeywordID) && len(n.propsWithout(KeywordID)) == 0
}

// IsList checks if this node is a list.
//
// This means:
//   - It has an @list.
//   - It may have an @index.
//   - It has no other properties.
func (n *Node) IsList() bool {
	if n == nil {
		return false
	}

	if !n.Has(KeywordList) {
		return false
	}

	return len(n.propsWithout(KeywordList, KeywordIndex)) == 0
}

// IsValue checks if this is a value node.
//
// This means:
//   - It has an @value.
//   - It may have an @direction, @index, @language and @type.
//   - It has no other properties.
//
// Additionally, it's invalid to have @type together with @language or
// @direction.
func (n *Node) IsValue() bool {
	if n == nil {
		return false
	}

	if !n.Has(KeywordValue) {
		return false
	}

	return len(n.propsWithout(
		KeywordValue,
		KeywordDirection,
		KeywordIndex,
		KeywordLanguage,
		KeywordType,
	)) == 0
}

// IsGraph returns if the object is a graph.
//
// This requires:
//   - It must have an @graph.
//   - It may have @id and @index.
//   - It has no other properties.
func (n *Node) IsGraph() bool {
	if n == nil {
		return false
	}

	if !n.Has(KeywordGraph) {
		return false
	}

	return len(n.propsWithout(KeywordID, KeywordIndex, KeywordGraph)) == 0
}

// IsSimpleGraph returns if the object is a simple graph.
//
// This requires:
//   - It must have an @graph.
//   - It may have @index.
//   - It has no other properties.
func (n *Node) IsSimpleGraph() bool {
	if n == nil {
		return false
	}

	if !n.Has(KeywordGraph) {
		return false
	}

	return len(n.propsWithout(KeywordIndex, KeywordGraph)) == 0
}

// MarshalJSON encodes to Expanded Document Form.
func (n Node) MarshalJSON() ([]byte, error) {
	result := map[string]any{}

	if n.Has(KeywordID) {
		result[KeywordID] = n.ID
	}

	if n.Has(KeywordIndex) {
		result[KeywordIndex] = n.Index
	}

	if n.Has(KeywordType) {
		var data any
		if n.Value != nil && len(n.Type) == 1 {
			data = n.Type[0]
		} else {
			data = n.Type
		}
		result[KeywordType] = data
	}

	if n.Has(KeywordValue) {
		result[KeywordValue] = n.Value
	}

	if n.Has(KeywordLanguage) {
		result[KeywordLanguage] = n.Language
	}

	if n.Has(KeywordDirection) {
		result[KeywordDirection] = n.Direction
	}

	if n.Has(KeywordList) {
		result[KeywordList] = n.List
	}

	if n.Has(KeywordGraph) {
		result[KeywordGraph] = n.Graph
	}

	if n.Has(KeywordIncluded) {
		result[KeywordIncluded] = n.Included
	}

	if n.Has(KeywordPreserve) {
		result[KeywordPreserve] = n.Preserve
	}

	if n.Has(KeywordReverse) {
		result[KeywordReverse] = n.Reverse
	}

	for k, v := range n.Properties {
		result[k] = v
	}

	return json.Marshal(result)
}

// GetNodes returns the nodes stored in property.
func (n *Node) GetNodes(property string) []Node {
	switch property {
	case KeywordGraph:
		return n.Graph
	case KeywordIncluded:
		return n.Included
	case KeywordList:
		return n.List
	case KeywordPreserve:
		return n.Preserve
	case KeywordSet:
		return n.Set
	default:
		if !n.Has(property) {
			return nil
		}
		return n.Properties[property]
	}
}

// AddNodes appends the nodes stored in property.
func (n *Node) AddNodes(property string, nodes ...Node) {
	if n.Properties == nil {
		n.Properties = make(Properties, 1)
	}
	n.Properties[property] = append(n.Properties[property], nodes...)
}

// SetNodes overrides the nodes stored in property.
func (n *Node) SetNodes(property string, nodes ...Node) {
	if n.Properties == nil {
		n.Properties = make(Properties, 1)
	}
	n.Properties[property] = nodes
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	res := n
	res.Graph = cloneNodes(n.Graph)
	res.Included = cloneNodes(n.Included)
	res.List = cloneNodes(n.List)
	res.Preserve = cloneNodes(n.Preserve)
	res.Set = cloneNodes(n.Set)
	res.Type = slices.Clone(n.Type)
	res.Value = bytes.Clone(n.Value)
	res.Reverse = n.Reverse.clone()
	res.Properties = n.Properties.clone()
	return res
}

func (p Properties) clone() Properties {
	if p == nil {
		return nil
	}

	res := make(Properties, len(p))
	for k, v := range p {
		res[k] = cloneNodes(v)
	}
	return res
}

func cloneNodes(in []Node) []Node {
	if in == nil {
		return nil
	}

	res := make([]Node, len(in))
	for i, n := range in {
		res[i] = n.Clone()
	}
	return res
}

// sameValue reports if two nodes are interchangeable as values of a property.
//
// Value objects compare on their value and annotations, node references on
// their @id. Lists are never considered equal, so they're always kept.
func sameValue(a, b *Node) bool {
	if a.Has(KeywordList) || b.Has(KeywordList) {
		return false
	}

	if a.Has(KeywordValue) || b.Has(KeywordValue) {
		return bytes.Equal(a.Value, b.Value) &&
			slices.Equal(a.Type, b.Type) &&
			a.Language == b.Language &&
			a.Direction == b.Direction &&
			a.Index == b.Index
	}

	if a.Has(KeywordID) || b.Has(KeywordID) {
		return a.ID == b.ID
	}

	return false
}

// appendUnique appends value to values unless an equivalent value is
// already present.
func appendUnique(values []Node, value Node) []Node {
	for i := range values {
		if sameValue(&values[i], &value) {
			return values
		}
	}
	return append(values, value)
}

// sortedKeys returns the keys of the map in lexicographical order.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
