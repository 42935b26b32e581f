package rdf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrTooComplex is returned by [Canonicalize] when breaking the ties between
// blank nodes would need more than [MaxCanonicalLeaves] candidate labellings.
var ErrTooComplex = errors.New("dataset too complex to canonicalize")

// MaxCanonicalLeaves bounds the candidate labellings [Canonicalize] tries.
const MaxCanonicalLeaves = 1 << 12

// CanonicalPrefix is the prefix of the blank node labels issued by
// [Canonicalize].
const CanonicalPrefix = "_:c14n"

type canonQuad struct {
	graph string
	t     Triple
}

type canonicalizer struct {
	quads    []canonQuad
	blanks   []string
	incident map[string][]int
	twins    map[string]string
	leaves   int
}

// Canonicalize relabels the blank nodes of a dataset so that isomorphic
// datasets result in identical output.
//
// Blank nodes are hashed with BLAKE3, first from the quads they appear in and
// then repeatedly together with the hashes of their neighbours until the
// hashes stop splitting into more groups. Blank nodes that still share a
// hash are told apart by trying each one in turn and keeping the labelling
// whose sorted N-Quads serialization is smallest. Of blank nodes that can be
// swapped without changing the dataset only one is tried.
//
// The result is a new dataset, the input is left untouched. Canonical labels
// are of the form _:c14n0.
func Canonicalize(ds *Dataset) (*Dataset, error) {
	c := &canonicalizer{incident: map[string][]int{}}

	for graph, t := range ds.Quads() {
		idx := len(c.quads)
		c.quads = append(c.quads, canonQuad{graph: graph, t: t})

		for _, id := range blankNodesOf(graph, t) {
			if _, ok := c.incident[id]; !ok {
				c.blanks = append(c.blanks, id)
			}
			if list := c.incident[id]; len(list) == 0 || list[len(list)-1] != idx {
				c.incident[id] = append(list, idx)
			}
		}
	}

	hashes := make(map[string]string, len(c.blanks))
	c.twins = make(map[string]string, len(c.blanks))
	for _, b := range c.blanks {
		hashes[b] = c.hash("", b, nil)
		c.twins[b] = c.signature(b)
	}

	labels, _, err := c.search(c.refine(hashes))
	if err != nil {
		return nil, err
	}

	res := NewDataset()
	maps.Copy(res.Namespaces, ds.Namespaces)
	for _, q := range c.quads {
		graph := q.graph
		if l, ok := labels[graph]; ok {
			graph = l
		}
		res.Add(graph, relabelTriple(q.t, labels))
	}

	return res, nil
}

func blankNodesOf(graph string, t Triple) []string {
	var res []string
	for _, term := range []Term{t.Subject, t.Object} {
		if term.IsBlankNode() {
			res = append(res, term.Value)
		}
	}
	if strings.HasPrefix(graph, "_:") {
		res = append(res, graph)
	}
	return res
}

// hash digests prev together with the sorted quads b appears in. Within those
// quads b is written as _:a. Other blank nodes are written with their hash
// from hashes, or as _:z if hashes is nil.
func (c *canonicalizer) hash(prev, b string, hashes map[string]string) string {
	name := func(id string) string {
		switch {
		case id == b:
			return "_:a"
		case hashes == nil:
			return "_:z"
		default:
			return "_:" + hashes[id]
		}
	}

	lines := make([]string, 0, len(c.incident[b]))
	for _, idx := range c.incident[b] {
		q := c.quads[idx]
		graph := q.graph
		if strings.HasPrefix(graph, "_:") {
			graph = name(graph)
		}
		lines = append(lines, substTriple(q.t, name).quad(graph))
	}
	slices.Sort(lines)

	var buf bytes.Buffer
	buf.WriteString(prev)
	buf.WriteByte('\n')
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}

	sum := blake3.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// signature digests the quads b appears in with b written as _:s and every
// other blank node kept under its own label prefixed with x. Two blank nodes
// with the same signature never share a quad, and swapping them maps the
// dataset onto itself.
func (c *canonicalizer) signature(b string) string {
	name := func(id string) string {
		if id == b {
			return "_:s"
		}
		return "_:x" + strings.TrimPrefix(id, "_:")
	}

	lines := make([]string, 0, len(c.incident[b]))
	for _, idx := range c.incident[b] {
		q := c.quads[idx]
		graph := q.graph
		if strings.HasPrefix(graph, "_:") {
			graph = name(graph)
		}
		lines = append(lines, substTriple(q.t, name).quad(graph))
	}
	slices.Sort(lines)

	sum := blake3.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// refine rehashes every blank node with its neighbours until the number of
// distinct hashes no longer grows.
func (c *canonicalizer) refine(hashes map[string]string) map[string]string {
	classes := distinct(hashes)
	for {
		next := make(map[string]string, len(hashes))
		for _, b := range c.blanks {
			next[b] = c.hash(hashes[b], b, hashes)
		}

		n := distinct(next)
		hashes = next
		if n == classes {
			return hashes
		}
		classes = n
	}
}

func distinct(hashes map[string]string) int {
	seen := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		seen[h] = struct{}{}
	}
	return len(seen)
}

// search returns the labelling for the hashes, breaking ties between blank
// nodes that share a hash. Tied twins lead to the same serialization, so only
// the first of them is individualized.
func (c *canonicalizer) search(hashes map[string]string) (map[string]string, string, error) {
	tied := c.firstTie(hashes)
	if tied == nil {
		c.leaves++
		if c.leaves > MaxCanonicalLeaves {
			return nil, "", ErrTooComplex
		}

		labels := c.labels(hashes)
		return labels, c.serialize(labels), nil
	}

	var (
		bestLabels map[string]string
		best       string
	)

	tried := make(map[string]struct{}, len(tied))
	for _, b := range tied {
		if _, ok := tried[c.twins[b]]; ok {
			continue
		}
		tried[c.twins[b]] = struct{}{}

		next := maps.Clone(hashes)
		sum := blake3.Sum256([]byte(hashes[b] + "!"))
		next[b] = hex.EncodeToString(sum[:])

		labels, out, err := c.search(c.refine(next))
		if err != nil {
			return nil, "", err
		}

		if bestLabels == nil || out < best {
			bestLabels, best = labels, out
		}
	}

	return bestLabels, best, nil
}

// firstTie returns the blank nodes sharing the smallest hash that more than
// one blank node has, or nil if every hash is unique.
func (c *canonicalizer) firstTie(hashes map[string]string) []string {
	groups := make(map[string][]string, len(hashes))
	for _, b := range c.blanks {
		groups[hashes[b]] = append(groups[hashes[b]], b)
	}

	var (
		tied  []string
		least string
	)
	for h, members := range groups {
		if len(members) < 2 {
			continue
		}
		if tied == nil || h < least {
			tied, least = members, h
		}
	}
	return tied
}

func (c *canonicalizer) labels(hashes map[string]string) map[string]string {
	order := slices.Clone(c.blanks)
	slices.SortFunc(order, func(a, b string) int {
		return strings.Compare(hashes[a], hashes[b])
	})

	labels := make(map[string]string, len(order))
	for i, b := range order {
		labels[b] = CanonicalPrefix + strconv.Itoa(i)
	}
	return labels
}

func (c *canonicalizer) serialize(labels map[string]string) string {
	lines := make([]string, 0, len(c.quads))
	for _, q := range c.quads {
		graph := q.graph
		if l, ok := labels[graph]; ok {
			graph = l
		}
		lines = append(lines, relabelTriple(q.t, labels).quad(graph)+"\n")
	}
	slices.Sort(lines)
	return strings.Join(slices.Compact(lines), "")
}

func relabelTriple(t Triple, labels map[string]string) Triple {
	return substTriple(t, func(id string) string {
		if l, ok := labels[id]; ok {
			return l
		}
		return id
	})
}

func substTriple(t Triple, name func(string) string) Triple {
	if t.Subject.IsBlankNode() {
		t.Subject = Term{Kind: KindBlankNode, Value: name(t.Subject.Value)}
	}
	if t.Object.IsBlankNode() {
		t.Object = Term{Kind: KindBlankNode, Value: name(t.Object.Value)}
	}
	return t
}
