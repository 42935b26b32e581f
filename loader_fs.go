package shortwave

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"sourcery.dny.nu/shortwave/internal/json"
)

// FSLoader returns a [DocumentLoaderFunc] that serves documents from fsys.
//
// Only IRIs starting with prefix are served. The remainder of the IRI, without
// any query or fragment, is the path of the file within fsys. Files ending in
// .yaml or .yml are read as YAML-LD and converted to JSON.
//
// This is the recommended way to ship well-known contexts with your
// application, typically combined with [embed.FS].
func FSLoader(fsys fs.FS, prefix string) DocumentLoaderFunc {
	return func(ctx context.Context, iri string) (Document, error) {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}

		name, ok := strings.CutPrefix(iri, prefix)
		if !ok {
			return Document{}, fmt.Errorf("%s is outside of %s", iri, prefix)
		}

		name, _, _ = strings.Cut(name, "#")
		name, _, _ = strings.Cut(name, "?")
		name = strings.TrimPrefix(name, "/")
		if !fs.ValidPath(name) {
			return Document{}, fmt.Errorf("invalid path: %s", name)
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return Document{}, err
		}

		switch path.Ext(name) {
		case ".yaml", ".yml":
			data, err = yamlToJSON(data)
			if err != nil {
				return Document{}, fmt.Errorf("invalid YAML-LD in %s: %w", name, err)
			}
		}

		doc, err := json.Normalize(data)
		if err != nil {
			return Document{}, err
		}

		return Document{URL: iri, Document: doc}, nil
	}
}

// yamlToJSON converts a YAML document to its JSON equivalent.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	val, err := yamlNormalizeValue(doc)
	if err != nil {
		return nil, err
	}

	return json.Marshal(val)
}

// yamlNormalizeValue turns YAML decoded values, which may contain map[any]any,
// into values the JSON encoder understands.
func yamlNormalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			nv, err := yamlNormalizeValue(vv)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			nv, err := yamlNormalizeValue(vv)
			if err != nil {
				return nil, err
			}
			out[ks] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			nv, err := yamlNormalizeValue(vv)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}
