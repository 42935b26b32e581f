package rdf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// NQuads reads and writes RDF 1.1 N-Quads. Since every N-Triples document is
// a valid N-Quads document, it handles N-Triples too.
type NQuads struct{}

type nqDocument struct {
	Statements []*nqStatement `@@*`
}

type nqStatement struct {
	Pos lexer.Position

	Subject   string    `( @IRI | @Blank )`
	Predicate string    `@IRI`
	Object    *nqObject `@@`
	Graph     string    `( @IRI | @Blank )? Dot`
}

type nqObject struct {
	IRI     string     `  @IRI`
	Blank   string     `| @Blank`
	Literal *nqLiteral `| @@`
}

type nqLiteral struct {
	Value    string `@String`
	Language string `( @LangTag`
	Datatype string `| DataType @IRI )?`
}

var nquadsLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\r\n]*`},
	{Name: "IRI", Pattern: `<(?:[^<>"{}|^` + "`" + `\\\x00-\x20]|\\u[0-9A-Fa-f]{4}|\\U[0-9A-Fa-f]{8})*>`},
	{Name: "Blank", Pattern: `_:[\pL\pN_](?:[\pL\pN_.\-]*[\pL\pN_\-])?`},
	{Name: "String", Pattern: `"(?:[^"\\\r\n]|\\.)*"`},
	{Name: "LangTag", Pattern: `@[a-zA-Z]+(?:-[a-zA-Z0-9]+)*`},
	{Name: "DataType", Pattern: `\^\^`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var nquadsParser = participle.MustBuild[nqDocument](
	participle.Lexer(nquadsLexer),
	participle.Elide("Comment", "Whitespace"),
)

// Parse parses an N-Quads document.
func (NQuads) Parse(data []byte) (*Dataset, error) {
	doc, err := nquadsParser.ParseBytes("", data)
	if err != nil {
		return nil, parseError(MediaTypeNQuads, err)
	}

	ds := NewDataset()

	for _, st := range doc.Statements {
		fail := func(err error) error {
			return &ParseError{
				Format: MediaTypeNQuads,
				Line:   st.Pos.Line,
				Column: st.Pos.Column,
				Err:    err,
			}
		}

		subject, err := nqTerm(st.Subject)
		if err != nil {
			return nil, fail(err)
		}

		predicate, err := nqTerm(st.Predicate)
		if err != nil {
			return nil, fail(err)
		}

		var object Term
		switch {
		case st.Object.IRI != "":
			object, err = nqTerm(st.Object.IRI)
		case st.Object.Blank != "":
			object, err = nqTerm(st.Object.Blank)
		default:
			object, err = st.Object.Literal.term()
		}
		if err != nil {
			return nil, fail(err)
		}

		graph := DefaultGraph
		if st.Graph != "" {
			g, err := nqTerm(st.Graph)
			if err != nil {
				return nil, fail(err)
			}
			graph = g.Value
		}

		ds.Add(graph, Triple{Subject: subject, Predicate: predicate, Object: object})
	}

	return ds, nil
}

// Serialize writes the dataset as N-Quads, one statement per line in sorted
// order.
func (NQuads) Serialize(ds *Dataset) ([]byte, error) {
	lines := make([]string, 0, ds.Len())
	for graph, t := range ds.Quads() {
		lines = append(lines, t.quad(graph)+"\n")
	}
	slices.Sort(lines)
	lines = slices.Compact(lines)

	return []byte(strings.Join(lines, "")), nil
}

func nqTerm(tok string) (Term, error) {
	if strings.HasPrefix(tok, "_:") {
		return NewBlankNode(tok), nil
	}

	iri, err := unescape(strings.TrimSuffix(strings.TrimPrefix(tok, "<"), ">"))
	if err != nil {
		return Term{}, err
	}
	return NewIRI(iri), nil
}

func (l *nqLiteral) term() (Term, error) {
	value, err := unescape(l.Value[1 : len(l.Value)-1])
	if err != nil {
		return Term{}, err
	}

	if l.Language != "" {
		return NewLangLiteral(value, strings.TrimPrefix(l.Language, "@")), nil
	}

	if l.Datatype != "" {
		dt, err := nqTerm(l.Datatype)
		if err != nil {
			return Term{}, err
		}
		return NewLiteral(value, dt.Value), nil
	}

	return NewLiteral(value, XSDString), nil
}

// unescape resolves the string and numeric escapes of N-Quads and Turtle.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}

		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}

		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u', 'U':
			size := 4
			if s[i] == 'U' {
				size = 8
			}
			if i+1+size > len(s) {
				return "", fmt.Errorf("short unicode escape in %q", s)
			}
			r, err := strconv.ParseUint(s[i+1:i+1+size], 16, 32)
			if err != nil || !utf8.ValidRune(rune(r)) {
				return "", fmt.Errorf("invalid unicode escape in %q", s)
			}
			b.WriteRune(rune(r))
			i += size
		default:
			return "", fmt.Errorf("invalid escape \\%c in %q", s[i], s)
		}
	}

	return b.String(), nil
}

// escapeString escapes a lexical form for use in N-Quads.
func escapeString(s string) string {
	if !strings.ContainsAny(s, "\"\\\n\r") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
