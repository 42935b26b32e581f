package shortwave

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"sourcery.dny.nu/shortwave/internal/json"
)

// maxDocumentSize is the largest document [HTTPLoader] is willing to read.
const maxDocumentSize = 8 << 20

// HTTPLoader returns a [DocumentLoaderFunc] that retrieves documents over
// HTTP.
//
// The client is used as is, so configure timeouts and redirect policy on it.
// If client is nil, [http.DefaultClient] is used. The loader does not cache.
func HTTPLoader(client *http.Client) DocumentLoaderFunc {
	if client == nil {
		client = http.DefaultClient
	}

	accept := strings.Join([]string{
		mime.FormatMediaType(ApplicationLDJSON, map[string]string{
			"profile": ProfileContext,
		}),
		ApplicationLDJSON,
		ApplicationJSON + ";q=0.9",
	}, ", ")

	return func(ctx context.Context, iri string) (Document, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, iri, nil)
		if err != nil {
			return Document{}, err
		}
		req.Header.Set("Accept", accept)

		resp, err := client.Do(req)
		if err != nil {
			return Document{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return Document{}, fmt.Errorf("unexpected status: %s", resp.Status)
		}

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			mt, _, err := mime.ParseMediaType(ct)
			if err != nil {
				return Document{}, fmt.Errorf("invalid content type %q: %w", ct, err)
			}
			if !isJSONMediaType(mt) {
				return Document{}, fmt.Errorf("unsupported content type: %s", mt)
			}
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
		if err != nil {
			return Document{}, err
		}
		if len(body) > maxDocumentSize {
			return Document{}, fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
		}

		doc, err := json.Normalize(body)
		if err != nil {
			return Document{}, err
		}

		return Document{
			URL:      resp.Request.URL.String(),
			Document: doc,
		}, nil
	}
}

func isJSONMediaType(mt string) bool {
	return mt == ApplicationJSON ||
		mt == ApplicationLDJSON ||
		strings.HasSuffix(mt, "+json")
}
