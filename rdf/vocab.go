package rdf

// Namespaces used when converting between JSON-LD and RDF.
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

// RDF vocabulary.
const (
	RDFType       = RDFNamespace + "type"
	RDFFirst      = RDFNamespace + "first"
	RDFRest       = RDFNamespace + "rest"
	RDFNil        = RDFNamespace + "nil"
	RDFList       = RDFNamespace + "List"
	RDFLangString = RDFNamespace + "langString"
	RDFJSON       = RDFNamespace + "JSON"
	RDFDirection  = RDFNamespace + "direction"
	RDFValue      = RDFNamespace + "value"
	RDFLanguage   = RDFNamespace + "language"
)

// XML Schema datatypes.
const (
	XSDString  = XSDNamespace + "string"
	XSDBoolean = XSDNamespace + "boolean"
	XSDInteger = XSDNamespace + "integer"
	XSDDouble  = XSDNamespace + "double"
	XSDDecimal = XSDNamespace + "decimal"
)
