package shortwave

import (
	"log/slog"
	"strings"

	"sourcery.dny.nu/shortwave/internal/url"
)

// expandIRI expands a value to an IRI, keyword or blank node identifier.
//
// The define callback is only set during context processing, to define the
// terms the value depends on before they are looked up.
func (p *Processor) expandIRI(
	activeContext *Context,
	value string,
	relative bool,
	vocab bool,
	define func(string) error,
) (string, error) {
	// 1)
	if isKeyword(value) {
		return value, nil
	}

	// 2)
	if looksLikeKeyword(value) {
		p.logger.Warn("keyword lookalike value encountered",
			slog.String("value", value))
		return "", nil
	}

	// 3)
	if define != nil {
		if err := define(value); err != nil {
			return "", err
		}
	}

	// 4)
	t, ok := activeContext.defs[value]
	if ok && isKeyword(t.IRI) {
		return t.IRI, nil
	}

	// 5)
	if vocab && ok {
		return t.IRI, nil
	}

	// 6)
	if strings.Index(value, ":") >= 1 {
		// 6.1)
		prefix, suffix, _ := strings.Cut(value, ":")

		// 6.2)
		if prefix == "_" || strings.HasPrefix(suffix, "//") {
			return value, nil
		}

		// 6.3)
		if define != nil {
			if err := define(prefix); err != nil {
				return "", err
			}
		}

		// 6.4)
		if pt, ok := activeContext.defs[prefix]; ok && pt.IRI != "" && pt.Prefix {
			return pt.IRI + suffix, nil
		}

		// 6.5)
		if url.IsIRI(value) {
			return value, nil
		}
	}

	// 7)
	if vocab && activeContext.vocabMapping != "" {
		return activeContext.vocabMapping + value, nil
	}

	// 8)
	if relative {
		if activeContext.currentBaseIRI == "" {
			return value, nil
		}
		u, err := url.Resolve(activeContext.currentBaseIRI, value)
		if err != nil {
			return "", err
		}
		return u, nil
	}

	return value, nil
}
