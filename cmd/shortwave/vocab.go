package main

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"iter"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
)

// VocabCmd generates Go constants for the terms defined in a context.
type VocabCmd struct {
	Context     string `arg:"" type:"existingfile" help:"Context document to read"`
	DocumentIRI string `name:"document-iri" required:"" help:"IRI the context is published at"`
	Namespace   string `name:"namespace" required:"" help:"Namespace of the terms in the context"`
	Package     string `name:"package" default:"vocab" help:"Go package name"`
	Out         string `name:"out" short:"o" type:"path" help:"File to write, stdout if empty"`
}

var xsdTypes = map[string]string{
	"float": "float, an IEEE single-precision 32-bit floating point\n// value equivalent to a Go float32",
	"integer": "integer, an \"infinite size\" integer. A Go int64 may be\n// sufficient. JSON only safely holds up to 53-bit precision integers, so\n" +
		"// bigger values need a string",
	"nonNegativeInteger": "nonNegativeInteger, an \"infinite size\" integer. A Go\n// uint64 may be sufficient. JSON only safely holds up to 53-bit precision\n" +
		"// integers, so bigger values need a string",
	"dateTime": "dateTime, equivalent to a time.Time in RFC3339Nano",
	"duration": "duration and does not have a Go equivalent, but can be\n// handled as a string",
}

func (c *VocabCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.Context)
	if err != nil {
		return err
	}

	ctx, cancel := g.context()
	defer cancel()

	proc := g.processor()

	active, err := proc.Context(ctx, data, c.DocumentIRI)
	if err != nil {
		return err
	}

	gen := vocabGenerator{
		proc:      proc,
		iri:       c.DocumentIRI,
		namespace: c.Namespace,
	}

	terms, err := gen.terms(ctx, active.Terms())
	if err != nil {
		return err
	}
	slices.Sort(terms)
	terms = slices.Compact(terms)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "package %s\n\n", c.Package)
	buf.WriteString("// IRI is the remote context IRI.\n")
	fmt.Fprintf(&buf, "const IRI = %s\n\n", strconv.Quote(c.DocumentIRI))
	buf.WriteString("// Namespace is the IRI prefix used for terms defined in this context that\n")
	buf.WriteString("// don't map to a different namespace.\n")
	if rest, ok := strings.CutPrefix(c.Namespace, c.DocumentIRI); ok {
		fmt.Fprintf(&buf, "const Namespace = IRI + %s\n\n", strconv.Quote(rest))
	} else {
		fmt.Fprintf(&buf, "const Namespace = %s\n\n", strconv.Quote(c.Namespace))
	}

	buf.WriteString("const (\n")
	for _, t := range terms {
		buf.WriteString(t)
	}
	buf.WriteString(")\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("formatting generated code: %w", err)
	}

	if c.Out == "" {
		_, err = os.Stdout.Write(src)
		return err
	}

	return os.WriteFile(c.Out, src, 0o644)
}

type vocabGenerator struct {
	proc      *ld.Processor
	iri       string
	namespace string
}

// terms renders a constant for each term, recursing into scoped contexts.
func (g vocabGenerator) terms(ctx context.Context, defs iter.Seq2[string, ld.Term]) ([]string, error) {
	res := make([]string, 0, 64)
	scoped := make(map[string]ld.Term, 16)

	for term, def := range defs {
		if def.Prefix || def.IRI == "" || strings.HasPrefix(def.IRI, "@") {
			continue
		}

		name := goName(term, def.Context != nil)

		value := strconv.Quote(def.IRI)
		if rest, ok := strings.CutPrefix(def.IRI, g.namespace); ok {
			value = "Namespace + " + strconv.Quote(rest)
		}

		res = append(res, "\t// "+name+" "+describe(name, def)+"\n\t"+name+" = "+value+"\n")

		if def.Context == nil || json.IsNull(def.Context) {
			continue
		}

		nested, err := g.proc.Context(ctx, def.Context, g.iri)
		if err != nil {
			return nil, fmt.Errorf("scoped context of %s: %w", term, err)
		}
		maps.Insert(scoped, nested.Terms())
	}

	if len(scoped) > 0 {
		nested, err := g.terms(ctx, maps.All(scoped))
		if err != nil {
			return nil, err
		}
		res = append(res, nested...)
	}

	return res, nil
}

func describe(name string, def ld.Term) string {
	switch {
	case strings.HasPrefix(name, "Type"):
		return "is a possible value for the type property."
	case strings.HasPrefix(name, "Relationship") && name != "Relationship":
		return "is a possible value for a relationship property."
	case def.Type == ld.KeywordID:
		return "is an IRI, either as a string or as an object with an\n\t// id property."
	case def.Context != nil:
		return "is an object."
	case def.Type == ld.KeywordJSON:
		return "is a JSON value that will be left untouched."
	case def.Type == "":
		return "is a string."
	}

	for _, ns := range []string{"http://www.w3.org/2001/XMLSchema#", "https://www.w3.org/2001/XMLSchema#"} {
		if typ, ok := strings.CutPrefix(def.Type, ns); ok {
			if long, ok := xsdTypes[typ]; ok {
				typ = long
			}
			return "is an xml:" + strings.ReplaceAll(typ, "\n// ", "\n\t// ") + "."
		}
	}

	return "is a " + def.Type + "."
}

func goName(s string, isObject bool) string {
	if s == "" {
		return ""
	}

	mapped := s
	if strings.HasPrefix(mapped, "id") || strings.HasPrefix(mapped, "Id") {
		mapped = "ID" + mapped[2:]
	}
	if strings.HasSuffix(mapped, "id") || strings.HasSuffix(mapped, "Id") {
		mapped = mapped[:len(mapped)-2] + "ID"
	}

	mapped = strings.ReplaceAll(mapped, "url", "URL")
	mapped = strings.ReplaceAll(mapped, "Url", "URL")
	mapped = strings.ReplaceAll(mapped, "ttl", "TTL")

	first, _ := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(first) && !isObject {
		prefix := "Type"
		if strings.HasPrefix(s, "Is") {
			prefix = "Relationship"
		}
		return prefix + mapped
	}

	r, size := utf8.DecodeRuneInString(mapped)
	return string(unicode.ToTitle(r)) + mapped[size:]
}
