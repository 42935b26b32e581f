package rdf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"sourcery.dny.nu/shortwave/internal/url"
)

// Turtle reads and writes RDF 1.1 Turtle.
//
// Prefixes declared in a document are recorded as namespaces on the
// dataset, and namespaces of a dataset are written as prefixes. Turtle has
// no named graphs, so serializing a dataset with named graphs fails with
// [ErrUnsupported].
type Turtle struct {
	// Base is used to resolve relative IRIs until the document sets its own.
	Base string
}

// Parse parses a Turtle document into the default graph.
func (t Turtle) Parse(data []byte) (*Dataset, error) {
	p := &turtleParser{
		input:    string(data),
		base:     t.Base,
		prefixes: map[string]string{},
		ds:       NewDataset(),
		line:     1,
	}

	if err := p.parse(); err != nil {
		return nil, &ParseError{
			Format: MediaTypeTurtle,
			Line:   p.line,
			Column: p.pos - p.lineStart + 1,
			Err:    err,
		}
	}

	for prefix, iri := range p.prefixes {
		p.ds.SetNamespace(prefix, iri)
	}

	return p.ds, nil
}

type turtleParser struct {
	input     string
	pos       int
	line      int
	lineStart int
	base      string
	prefixes  map[string]string
	ds        *Dataset
	blanks    int
	labels    map[string]Term
}

var errUnexpectedEOF = errors.New("unexpected end of input")

func (p *turtleParser) parse() error {
	for {
		p.skipWhitespaceAndComments()
		if p.eof() {
			return nil
		}

		switch {
		case p.matchKeyword("@prefix"):
			if err := p.parsePrefix(false); err != nil {
				return err
			}
		case p.matchKeyword("PREFIX"):
			if err := p.parsePrefix(true); err != nil {
				return err
			}
		case p.matchKeyword("@base"):
			if err := p.parseBase(false); err != nil {
				return err
			}
		case p.matchKeyword("BASE"):
			if err := p.parseBase(true); err != nil {
				return err
			}
		default:
			if err := p.parseTriples(); err != nil {
				return err
			}
		}
	}
}

func (p *turtleParser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *turtleParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *turtleParser) advance(n int) {
	for range n {
		if p.eof() {
			return
		}
		if p.input[p.pos] == '\n' {
			p.line++
			p.lineStart = p.pos + 1
		}
		p.pos++
	}
}

func (p *turtleParser) skipWhitespaceAndComments() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.advance(1)
		case '#':
			for !p.eof() && p.peek() != '\n' {
				p.advance(1)
			}
		default:
			return
		}
	}
}

func (p *turtleParser) expect(c byte) error {
	p.skipWhitespaceAndComments()
	if p.eof() {
		return errUnexpectedEOF
	}
	if p.peek() != c {
		return fmt.Errorf("expected %q, got %q", c, p.peek())
	}
	p.advance(1)
	return nil
}

// matchKeyword consumes the keyword if it's next in the input. Directives
// without @ are matched case insensitively.
func (p *turtleParser) matchKeyword(kw string) bool {
	end := p.pos + len(kw)
	if end > len(p.input) {
		return false
	}

	word := p.input[p.pos:end]
	if strings.HasPrefix(kw, "@") {
		if word != kw {
			return false
		}
	} else if !strings.EqualFold(word, kw) {
		return false
	}

	if end < len(p.input) {
		r, _ := utf8.DecodeRuneInString(p.input[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':' {
			return false
		}
	}

	p.advance(len(kw))
	return true
}

func (p *turtleParser) parsePrefix(sparql bool) error {
	p.skipWhitespaceAndComments()

	start := p.pos
	for !p.eof() && p.peek() != ':' {
		if c := p.peek(); c == ' ' || c == '\t' || c == '\n' {
			return fmt.Errorf("invalid prefix name %q", p.input[start:p.pos])
		}
		p.advance(1)
	}
	if p.eof() {
		return errUnexpectedEOF
	}
	prefix := p.input[start:p.pos]
	p.advance(1)

	p.skipWhitespaceAndComments()
	iri, err := p.parseIRIRef()
	if err != nil {
		return err
	}
	p.prefixes[prefix] = iri

	if !sparql {
		return p.expect('.')
	}
	return nil
}

func (p *turtleParser) parseBase(sparql bool) error {
	p.skipWhitespaceAndComments()
	iri, err := p.parseIRIRef()
	if err != nil {
		return err
	}
	p.base = iri

	if !sparql {
		return p.expect('.')
	}
	return nil
}

func (p *turtleParser) freshBlank() Term {
	p.blanks++
	return NewBlankNode("_:b" + strconv.Itoa(p.blanks-1))
}

func (p *turtleParser) emit(s, pred, o Term) {
	p.ds.Add(DefaultGraph, Triple{Subject: s, Predicate: pred, Object: o})
}

// parseTriples parses a subject followed by its predicate object list, or a
// blank node property list standing on its own.
func (p *turtleParser) parseTriples() error {
	var subject Term
	var err error

	switch p.peek() {
	case '[':
		subject, err = p.parseBlankNodePropertyList()
		if err != nil {
			return err
		}
		p.skipWhitespaceAndComments()
		if p.peek() == '.' {
			p.advance(1)
			return nil
		}
	case '(':
		subject, err = p.parseCollection()
	default:
		subject, err = p.parseSubject()
	}
	if err != nil {
		return err
	}

	if err := p.parsePredicateObjectList(subject); err != nil {
		return err
	}

	return p.expect('.')
}

func (p *turtleParser) parseSubject() (Term, error) {
	switch c := p.peek(); {
	case c == '<':
		iri, err := p.parseIRIRef()
		return NewIRI(iri), err
	case c == '_':
		return p.parseBlankNodeLabel()
	default:
		iri, err := p.parsePrefixedName()
		return NewIRI(iri), err
	}
}

func (p *turtleParser) parsePredicateObjectList(subject Term) error {
	for {
		p.skipWhitespaceAndComments()

		predicate, err := p.parseVerb()
		if err != nil {
			return err
		}

		if err := p.parseObjectList(subject, predicate); err != nil {
			return err
		}

		p.skipWhitespaceAndComments()
		if p.peek() != ';' {
			return nil
		}

		for p.peek() == ';' {
			p.advance(1)
			p.skipWhitespaceAndComments()
		}

		// a trailing ; is allowed
		if c := p.peek(); c == '.' || c == ']' || p.eof() {
			return nil
		}
	}
}

func (p *turtleParser) parseVerb() (Term, error) {
	if p.peek() == 'a' {
		next := p.pos + 1
		if next >= len(p.input) || strings.ContainsRune(" \t\r\n<[(\"'", rune(p.input[next])) {
			p.advance(1)
			return NewIRI(RDFType), nil
		}
	}

	if p.peek() == '<' {
		iri, err := p.parseIRIRef()
		return NewIRI(iri), err
	}

	iri, err := p.parsePrefixedName()
	return NewIRI(iri), err
}

func (p *turtleParser) parseObjectList(subject, predicate Term) error {
	for {
		p.skipWhitespaceAndComments()

		object, err := p.parseObject()
		if err != nil {
			return err
		}
		p.emit(subject, predicate, object)

		p.skipWhitespaceAndComments()
		if p.peek() != ',' {
			return nil
		}
		p.advance(1)
	}
}

func (p *turtleParser) parseObject() (Term, error) {
	if p.eof() {
		return Term{}, errUnexpectedEOF
	}

	switch c := p.peek(); {
	case c == '<':
		iri, err := p.parseIRIRef()
		return NewIRI(iri), err
	case c == '_':
		return p.parseBlankNodeLabel()
	case c == '[':
		return p.parseBlankNodePropertyList()
	case c == '(':
		return p.parseCollection()
	case c == '"' || c == '\'':
		return p.parseRDFLiteral()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case p.matchKeyword("true"):
		return NewLiteral("true", XSDBoolean), nil
	case p.matchKeyword("false"):
		return NewLiteral("false", XSDBoolean), nil
	default:
		iri, err := p.parsePrefixedName()
		return NewIRI(iri), err
	}
}

func (p *turtleParser) parseIRIRef() (string, error) {
	if p.peek() != '<' {
		return "", fmt.Errorf("expected IRI, got %q", p.peek())
	}

	end := strings.IndexByte(p.input[p.pos:], '>')
	if end < 0 {
		return "", errUnexpectedEOF
	}

	raw := p.input[p.pos+1 : p.pos+end]
	if strings.ContainsAny(raw, " \t\r\n<\"{}|^`") {
		return "", fmt.Errorf("invalid IRI <%s>", raw)
	}
	p.advance(end + 1)

	iri, err := unescape(raw)
	if err != nil {
		return "", err
	}

	if p.base != "" && !url.IsAbsolute(iri) {
		return url.Resolve(p.base, iri)
	}

	return iri, nil
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		r == '_' || r == '-' || r == '.' || r == '·'
}

func (p *turtleParser) readName() string {
	start := p.pos
	for !p.eof() {
		r, size := utf8.DecodeRuneInString(p.input[p.pos:])
		if r == '\\' && p.pos+1 < len(p.input) {
			p.advance(2)
			continue
		}
		if r == '%' && p.pos+2 < len(p.input) {
			p.advance(3)
			continue
		}
		if !isNameChar(r) && r != ':' {
			break
		}
		p.advance(size)
	}

	// a name can't end in a dot
	for p.pos > start && p.input[p.pos-1] == '.' {
		p.pos--
	}

	return p.input[start:p.pos]
}

func (p *turtleParser) parsePrefixedName() (string, error) {
	name := p.readName()
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		if name == "" && !p.eof() {
			return "", fmt.Errorf("unexpected %q", p.peek())
		}
		return "", fmt.Errorf("invalid prefixed name %q", name)
	}

	ns, found := p.prefixes[prefix]
	if !found {
		return "", fmt.Errorf("undefined prefix %q", prefix)
	}

	var b strings.Builder
	for i := 0; i < len(local); i++ {
		if local[i] == '\\' && i+1 < len(local) {
			i++
		}
		b.WriteByte(local[i])
	}

	return ns + b.String(), nil
}

func (p *turtleParser) parseBlankNodeLabel() (Term, error) {
	if !strings.HasPrefix(p.input[p.pos:], "_:") {
		return Term{}, fmt.Errorf("expected blank node, got %q", p.peek())
	}
	p.advance(2)

	label := p.readName()
	if label == "" {
		return Term{}, errors.New("empty blank node label")
	}

	if p.labels == nil {
		p.labels = make(map[string]Term, 8)
	}

	node, ok := p.labels[label]
	if !ok {
		node = p.freshBlank()
		p.labels[label] = node
	}

	return node, nil
}

func (p *turtleParser) parseBlankNodePropertyList() (Term, error) {
	if err := p.expect('['); err != nil {
		return Term{}, err
	}

	node := p.freshBlank()

	p.skipWhitespaceAndComments()
	if p.peek() == ']' {
		p.advance(1)
		return node, nil
	}

	if err := p.parsePredicateObjectList(node); err != nil {
		return Term{}, err
	}

	return node, p.expect(']')
}

func (p *turtleParser) parseCollection() (Term, error) {
	if err := p.expect('('); err != nil {
		return Term{}, err
	}

	var items []Term
	for {
		p.skipWhitespaceAndComments()
		if p.eof() {
			return Term{}, errUnexpectedEOF
		}
		if p.peek() == ')' {
			p.advance(1)
			break
		}

		item, err := p.parseObject()
		if err != nil {
			return Term{}, err
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return NewIRI(RDFNil), nil
	}

	head := p.freshBlank()
	current := head
	for i, item := range items {
		p.emit(current, NewIRI(RDFFirst), item)

		next := NewIRI(RDFNil)
		if i < len(items)-1 {
			next = p.freshBlank()
		}
		p.emit(current, NewIRI(RDFRest), next)
		current = next
	}

	return head, nil
}

func (p *turtleParser) parseRDFLiteral() (Term, error) {
	lexical, err := p.parseString()
	if err != nil {
		return Term{}, err
	}

	switch {
	case p.peek() == '@':
		p.advance(1)
		start := p.pos
		for !p.eof() {
			c := p.peek()
			if !(c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
				break
			}
			p.advance(1)
		}
		lang := p.input[start:p.pos]
		if lang == "" {
			return Term{}, errors.New("empty language tag")
		}
		return NewLangLiteral(lexical, lang), nil
	case strings.HasPrefix(p.input[p.pos:], "^^"):
		p.advance(2)
		var dt string
		if p.peek() == '<' {
			dt, err = p.parseIRIRef()
		} else {
			dt, err = p.parsePrefixedName()
		}
		if err != nil {
			return Term{}, err
		}
		return NewLiteral(lexical, dt), nil
	default:
		return NewLiteral(lexical, XSDString), nil
	}
}

func (p *turtleParser) parseString() (string, error) {
	quote := p.input[p.pos : p.pos+1]
	long := strings.HasPrefix(p.input[p.pos:], strings.Repeat(quote, 3))
	if long {
		quote = strings.Repeat(quote, 3)
	}
	p.advance(len(quote))

	start := p.pos
	for {
		if p.eof() {
			return "", errUnexpectedEOF
		}

		c := p.peek()
		switch {
		case c == '\\':
			p.advance(2)
			continue
		case !long && (c == '\n' || c == '\r'):
			return "", errors.New("line break in string")
		case strings.HasPrefix(p.input[p.pos:], quote):
			// a long string may end in up to two quotes of its own
			for long && strings.HasPrefix(p.input[p.pos+1:], quote) {
				p.advance(1)
			}
			raw := p.input[start:p.pos]
			p.advance(len(quote))
			return unescape(raw)
		}
		p.advance(1)
	}
}

func (p *turtleParser) parseNumber() (Term, error) {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.advance(1)
	}

	digits := func() int {
		n := 0
		for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
			p.advance(1)
			n++
		}
		return n
	}

	datatype := XSDInteger
	intDigits := digits()

	if p.peek() == '.' && p.pos+1 < len(p.input) &&
		p.input[p.pos+1] >= '0' && p.input[p.pos+1] <= '9' {
		p.advance(1)
		digits()
		datatype = XSDDecimal
	} else if intDigits == 0 {
		return Term{}, fmt.Errorf("invalid number %q", p.input[start:p.pos+1])
	}

	if c := p.peek(); c == 'e' || c == 'E' {
		p.advance(1)
		if c := p.peek(); c == '+' || c == '-' {
			p.advance(1)
		}
		if digits() == 0 {
			return Term{}, fmt.Errorf("invalid exponent in %q", p.input[start:p.pos])
		}
		datatype = XSDDouble
	}

	return NewLiteral(p.input[start:p.pos], datatype), nil
}
