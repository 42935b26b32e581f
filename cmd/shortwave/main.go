// Command shortwave runs the JSON-LD algorithms on documents from files or
// stdin and writes the result to stdout.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
	"sourcery.dny.nu/shortwave/rdf"
)

// CLI defines the command-line interface for shortwave.
var CLI struct {
	Globals

	Expand    ExpandCmd    `cmd:"" help:"Expand a document"`
	Compact   CompactCmd   `cmd:"" help:"Compact a document with a context"`
	Flatten   FlattenCmd   `cmd:"" help:"Flatten a document"`
	Frame     FrameCmd     `cmd:"" help:"Frame a document"`
	ToRDF     ToRDFCmd     `cmd:"" name:"tordf" help:"Convert a document to RDF"`
	FromRDF   FromRDFCmd   `cmd:"" name:"fromrdf" help:"Convert RDF to a document"`
	Normalize NormalizeCmd `cmd:"" help:"Canonicalize the RDF dataset of a document"`
	Vocab     VocabCmd     `cmd:"" help:"Generate Go constants for the terms of a context"`
}

// Globals are the flags shared by every command.
type Globals struct {
	LogLevel string        `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	Base     string        `name:"base" help:"Base IRI of the document"`
	Remote   bool          `name:"remote" help:"Allow retrieving remote documents and contexts over HTTP(S)"`
	Docs     string        `name:"docs" type:"existingdir" help:"Directory to serve remote documents from"`
	Prefix   string        `name:"docs-prefix" help:"IRI prefix the documents in --docs are served under"`
	Timeout  time.Duration `name:"timeout" default:"30s" help:"Timeout for the whole operation"`
	LD10     bool          `name:"ld10" help:"Use JSON-LD 1.0 processing mode"`
	Indent   bool          `name:"indent" short:"i" help:"Indent JSON output"`
}

func (g *Globals) logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		level = slog.LevelWarn
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// processor returns a processor configured from the global flags and opts.
func (g *Globals) processor(opts ...ld.ProcessorOption) *ld.Processor {
	base := []ld.ProcessorOption{
		ld.WithLogger(g.logger()),
		ld.With10Processing(g.LD10),
	}

	if g.Base != "" {
		base = append(base, ld.WithBaseIRI(g.Base))
	}

	switch {
	case g.Docs != "":
		base = append(base, ld.WithDocumentLoader(ld.FSLoader(os.DirFS(g.Docs), g.Prefix)))
	case g.Remote:
		base = append(base, ld.WithDocumentLoader(ld.HTTPLoader(&http.Client{Timeout: g.Timeout})))
	}

	return ld.NewProcessor(append(base, opts...)...)
}

func (g *Globals) context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func (g *Globals) writeJSON(data json.RawMessage) error {
	if g.Indent {
		var buf bytes.Buffer
		if err := indent(&buf, data); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	_, err := fmt.Fprintln(os.Stdout, string(data))
	return err
}

func indent(dst *bytes.Buffer, data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dst.Write(out)
	return nil
}

// readInput reads the named file, or stdin if the name is empty or "-".
func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(name)
}

// ExpandCmd expands a document.
type ExpandCmd struct {
	Input         string `arg:"" optional:"" help:"Document to read, - for stdin"`
	ExpandContext string `name:"expand-context" type:"existingfile" help:"Additional context to expand with"`
}

func (c *ExpandCmd) Run(g *Globals) error {
	doc, err := readInput(c.Input)
	if err != nil {
		return err
	}

	var opts []ld.ProcessorOption
	if c.ExpandContext != "" {
		data, err := os.ReadFile(c.ExpandContext)
		if err != nil {
			return err
		}
		opts = append(opts, ld.WithExpandContext(data))
	}

	ctx, cancel := g.context()
	defer cancel()

	nodes, err := g.processor(opts...).Expand(ctx, doc, "")
	if err != nil {
		return err
	}

	data, err := json.Marshal(nodes)
	if err != nil {
		return err
	}

	return g.writeJSON(data)
}

// CompactCmd compacts a document.
type CompactCmd struct {
	Input         string `arg:"" optional:"" help:"Document to read, - for stdin"`
	Context       string `name:"context" short:"c" required:"" type:"existingfile" help:"Context to compact with"`
	CompactArrays bool   `name:"compact-arrays" default:"true" negatable:"" help:"Replace single-item arrays with their item"`
}

func (c *CompactCmd) Run(g *Globals) error {
	doc, err := readInput(c.Input)
	if err != nil {
		return err
	}

	local, err := os.ReadFile(c.Context)
	if err != nil {
		return err
	}

	ctx, cancel := g.context()
	defer cancel()

	res, err := g.processor(ld.WithCompactArrays(c.CompactArrays)).Compact(ctx, doc, local, "")
	if err != nil {
		return err
	}

	return g.writeJSON(res)
}

// FlattenCmd flattens a document.
type FlattenCmd struct {
	Input   string `arg:"" optional:"" help:"Document to read, - for stdin"`
	Context string `name:"context" short:"c" type:"existingfile" help:"Context to compact the result with"`
}

func (c *FlattenCmd) Run(g *Globals) error {
	doc, err := readInput(c.Input)
	if err != nil {
		return err
	}

	var local json.RawMessage
	if c.Context != "" {
		if local, err = os.ReadFile(c.Context); err != nil {
			return err
		}
	}

	ctx, cancel := g.context()
	defer cancel()

	res, err := g.processor().Flatten(ctx, doc, local, "")
	if err != nil {
		return err
	}

	return g.writeJSON(res)
}

// FrameCmd frames a document.
type FrameCmd struct {
	Input       string `arg:"" optional:"" help:"Document to read, - for stdin"`
	Frame       string `name:"frame" short:"f" required:"" type:"existingfile" help:"Frame to apply"`
	Embed       string `name:"embed" default:"@once" enum:"@once,@always,@never" help:"Default @embed (${enum})"`
	Explicit    bool   `name:"explicit" help:"Only keep framed properties"`
	OmitDefault bool   `name:"omit-default" help:"Don't add defaults for missing properties"`
	RequireAll  bool   `name:"require-all" help:"Require every framed property to match"`
	OmitGraph   bool   `name:"omit-graph" help:"Don't wrap a single result in @graph"`
}

func (c *FrameCmd) Run(g *Globals) error {
	doc, err := readInput(c.Input)
	if err != nil {
		return err
	}

	frame, err := os.ReadFile(c.Frame)
	if err != nil {
		return err
	}

	ctx, cancel := g.context()
	defer cancel()

	proc := g.processor(
		ld.WithEmbed(c.Embed),
		ld.WithExplicit(c.Explicit),
		ld.WithOmitDefault(c.OmitDefault),
		ld.WithRequireAll(c.RequireAll),
		ld.WithOmitGraph(c.OmitGraph),
	)

	res, err := proc.Frame(ctx, doc, frame, "")
	if err != nil {
		return err
	}

	return g.writeJSON(res)
}

// ToRDFCmd converts a document to RDF.
type ToRDFCmd struct {
	Input         string `arg:"" optional:"" help:"Document to read, - for stdin"`
	Format        string `name:"format" default:"application/n-quads" help:"Media type to write"`
	UseNamespaces bool   `name:"use-namespaces" help:"Turn the prefixes of the document's context into namespaces"`
}

func (c *ToRDFCmd) Run(g *Globals) error {
	doc, err := readInput(c.Input)
	if err != nil {
		return err
	}

	ctx, cancel := g.context()
	defer cancel()

	proc := g.processor(
		ld.WithRDFFormat(c.Format),
		ld.WithUseNamespaces(c.UseNamespaces),
	)

	res, err := proc.ToRDFText(ctx, doc, "")
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(res)
	return err
}

// FromRDFCmd converts RDF to a document.
type FromRDFCmd struct {
	Input       string `arg:"" optional:"" help:"RDF to read, - for stdin"`
	Format      string `name:"format" default:"application/n-quads" help:"Media type to read"`
	Form        string `name:"form" default:"expanded" enum:"expanded,compacted,flattened" help:"Output form (${enum})"`
	NativeTypes bool   `name:"native-types" help:"Turn booleans, integers and doubles into JSON natives"`
	RDFType     bool   `name:"rdf-type" help:"Keep rdf:type as a property"`
}

func (c *FromRDFCmd) Run(g *Globals) error {
	data, err := readInput(c.Input)
	if err != nil {
		return err
	}

	ctx, cancel := g.context()
	defer cancel()

	proc := g.processor(
		ld.WithRDFFormat(c.Format),
		ld.WithOutputForm(ld.OutputForm(c.Form)),
		ld.WithUseNativeTypes(c.NativeTypes),
		ld.WithUseRDFType(c.RDFType),
	)

	res, err := proc.FromRDF(ctx, data)
	if err != nil {
		return err
	}

	return g.writeJSON(res)
}

// NormalizeCmd canonicalizes the RDF dataset of a document.
type NormalizeCmd struct {
	Input     string `arg:"" optional:"" help:"Document to read, - for stdin"`
	Algorithm string `name:"algorithm" default:"shortwave" enum:"shortwave,urdna2015" help:"Canonicalization algorithm (${enum})"`
}

func (c *NormalizeCmd) Run(g *Globals) error {
	doc, err := readInput(c.Input)
	if err != nil {
		return err
	}

	ctx, cancel := g.context()
	defer cancel()

	proc := g.processor()

	var ds *rdf.Dataset
	switch c.Algorithm {
	case "urdna2015":
		ds, err = proc.ToRDF(ctx, doc, "")
		if err == nil {
			ds, err = rdf.NormalizeURDNA2015(ds)
		}
	default:
		ds, err = proc.Normalize(ctx, doc, "")
	}
	if err != nil {
		return err
	}

	res, err := rdf.NQuads{}.Serialize(ds)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(res)
	return err
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("shortwave"),
		kong.Description("JSON-LD 1.1 processor"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
