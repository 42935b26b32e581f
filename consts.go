package shortwave

// Values for @direction.
const (
	DirectionLTR = "ltr"
	DirectionRTL = "rtl"
)

// JSON-LD MIME types and profiles.
const (
	ApplicationLDJSON = "application/ld+json"
	ApplicationJSON   = "application/json"
	ApplicationYAMLLD = "application/ld+yaml"

	ProfileExpanded  = "http://www.w3.org/ns/json-ld#expanded"
	ProfileCompacted = "http://www.w3.org/ns/json-ld#compacted"
	ProfileContext   = "http://www.w3.org/ns/json-ld#context"
	ProfileFlattened = "http://www.w3.org/ns/json-ld#flattened"
	ProfileFrame     = "http://www.w3.org/ns/json-ld#frame"
	ProfileFramed    = "http://www.w3.org/ns/json-ld#framed"
)

// OutputForm selects the shape of the document produced by
// [Processor.FromRDF].
type OutputForm string

// Supported output forms.
const (
	OutputExpanded  OutputForm = "expanded"
	OutputCompacted OutputForm = "compacted"
	OutputFlattened OutputForm = "flattened"
)

// RDF serialization formats known to the default registry.
const (
	FormatNQuads = "application/n-quads"
	FormatTurtle = "text/turtle"
)
