package shortwave_test

import (
	"context"
	"testing"

	ld "sourcery.dny.nu/shortwave"
	"sourcery.dny.nu/shortwave/internal/json"
)

const (
	benchContextURL = "https://example.com/contexts/social.jsonld"

	benchContext = `{"@context":{
		"@vocab": "https://www.w3.org/ns/activitystreams#",
		"as": "https://www.w3.org/ns/activitystreams#",
		"xsd": "http://www.w3.org/2001/XMLSchema#",
		"id": "@id",
		"type": "@type",
		"actor": {"@id": "as:actor", "@type": "@id"},
		"attributedTo": {"@id": "as:attributedTo", "@type": "@id"},
		"to": {"@id": "as:to", "@type": "@id"},
		"cc": {"@id": "as:cc", "@type": "@id"},
		"inReplyTo": {"@id": "as:inReplyTo", "@type": "@id"},
		"published": {"@id": "as:published", "@type": "xsd:dateTime"},
		"content": "as:content",
		"contentMap": {"@id": "as:content", "@container": "@language"},
		"name": "as:name",
		"summary": "as:summary",
		"tag": {"@id": "as:tag", "@type": "@id"},
		"object": {"@id": "as:object", "@type": "@id"}
	}}`

	benchDocument = `{
		"@context": "https://example.com/contexts/social.jsonld",
		"id": "https://example.com/activities/1",
		"type": "Create",
		"actor": "https://example.com/users/alice",
		"published": "2024-05-01T12:00:00Z",
		"to": ["https://www.w3.org/ns/activitystreams#Public"],
		"cc": ["https://example.com/users/alice/followers"],
		"object": {
			"id": "https://example.com/notes/1",
			"type": "Note",
			"attributedTo": "https://example.com/users/alice",
			"content": "Hello world",
			"contentMap": {"en": "Hello world", "nl": "Hallo wereld"},
			"published": "2024-05-01T12:00:00Z",
			"to": ["https://www.w3.org/ns/activitystreams#Public"],
			"tag": [
				{"type": "Mention", "name": "@bob", "href": "https://example.com/users/bob"}
			]
		}
	}`
)

func benchLoader(b *testing.B) ld.DocumentLoaderFunc {
	b.Helper()
	return MapLoader(b, map[string]string{benchContextURL: benchContext})
}

func processedContext(b *testing.B) *ld.Context {
	b.Helper()

	pctx, err := ld.NewProcessor(ld.WithDocumentLoader(benchLoader(b))).Context(
		context.Background(), json.RawMessage(`"`+benchContextURL+`"`), "")
	if err != nil {
		b.Fatal(err)
	}
	return pctx
}

func BenchmarkContextProcessing(b *testing.B) {
	local := json.RawMessage(`"` + benchContextURL + `"`)

	b.Run("without processed context", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(benchContext)))

		p := ld.NewProcessor(ld.WithDocumentLoader(benchLoader(b)))

		for b.Loop() {
			if _, err := p.Context(context.Background(), local, ""); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("with processed context", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(benchContext)))

		p := ld.NewProcessor(ld.WithProcessedContext(benchContextURL, processedContext(b)))

		for b.Loop() {
			if _, err := p.Context(context.Background(), local, ""); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkExpand(b *testing.B) {
	doc := json.RawMessage(benchDocument)

	b.Run("without processed context", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(doc)))

		p := ld.NewProcessor(ld.WithDocumentLoader(benchLoader(b)))

		for b.Loop() {
			if _, err := p.Expand(context.Background(), doc, ""); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("with processed context", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(doc)))

		p := ld.NewProcessor(ld.WithProcessedContext(benchContextURL, processedContext(b)))

		for b.Loop() {
			if _, err := p.Expand(context.Background(), doc, ""); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkCompact(b *testing.B) {
	p := ld.NewProcessor(ld.WithDocumentLoader(benchLoader(b)))

	exp, err := p.Expand(context.Background(), json.RawMessage(benchDocument), "")
	if err != nil {
		b.Fatal(err)
	}

	compCtx := json.RawMessage(`"` + benchContextURL + `"`)

	b.Run("without processed context", func(b *testing.B) {
		b.ReportAllocs()

		p := ld.NewProcessor(ld.WithDocumentLoader(benchLoader(b)))

		for b.Loop() {
			if _, err := p.CompactNodes(context.Background(), compCtx, exp, ""); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("with processed context", func(b *testing.B) {
		b.ReportAllocs()

		p := ld.NewProcessor(ld.WithProcessedContext(benchContextURL, processedContext(b)))

		for b.Loop() {
			if _, err := p.CompactNodes(context.Background(), compCtx, exp, ""); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkToRDF(b *testing.B) {
	doc := json.RawMessage(benchDocument)
	p := ld.NewProcessor(ld.WithProcessedContext(benchContextURL, processedContext(b)))

	b.ReportAllocs()
	b.SetBytes(int64(len(doc)))

	for b.Loop() {
		if _, err := p.ToRDFText(context.Background(), doc, ""); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNormalize(b *testing.B) {
	doc := json.RawMessage(benchDocument)
	p := ld.NewProcessor(ld.WithProcessedContext(benchContextURL, processedContext(b)))

	b.ReportAllocs()
	b.SetBytes(int64(len(doc)))

	for b.Loop() {
		if _, err := p.NormalizeText(context.Background(), doc, ""); err != nil {
			b.Fatal(err)
		}
	}
}
