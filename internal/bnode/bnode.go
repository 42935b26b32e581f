// Package bnode issues blank node identifiers.
package bnode

import (
	"strconv"
	"strings"
)

// Prefix for blank node identifiers.
const Prefix = "_:"

// Issuer hands out fresh blank node identifiers and remembers which
// identifier it issued for a previously seen one.
//
// An Issuer is not safe for concurrent use. Create one per operation.
type Issuer struct {
	prefix  string
	counter int
	issued  map[string]string
	order   []string
}

// NewIssuer returns an Issuer producing identifiers of the form
// prefix + counter, for example "_:b0".
func NewIssuer(prefix string) *Issuer {
	return &Issuer{
		prefix: prefix,
		issued: make(map[string]string, 16),
	}
}

// Issue returns the identifier for old, issuing a new one if old hasn't been
// seen before.
//
// An empty old always results in a fresh identifier.
func (i *Issuer) Issue(old string) string {
	if old != "" {
		if v, ok := i.issued[old]; ok {
			return v
		}
	}

	id := i.prefix + strconv.Itoa(i.counter)
	i.counter++

	if old != "" {
		i.issued[old] = id
		i.order = append(i.order, old)
	}

	return id
}

// Issued returns the identifier issued for old, if any.
func (i *Issuer) Issued(old string) (string, bool) {
	v, ok := i.issued[old]
	return v, ok
}

// Order returns the identifiers that have been reissued, in the order they
// were first seen.
func (i *Issuer) Order() []string {
	return i.order
}

// Clone returns an independent copy of the issuer.
func (i *Issuer) Clone() *Issuer {
	n := &Issuer{
		prefix:  i.prefix,
		counter: i.counter,
		issued:  make(map[string]string, len(i.issued)),
		order:   make([]string, len(i.order)),
	}
	for k, v := range i.issued {
		n.issued[k] = v
	}
	copy(n.order, i.order)
	return n
}

// IsBlank reports if id is a blank node identifier.
func IsBlank(id string) bool {
	return strings.HasPrefix(id, Prefix)
}
