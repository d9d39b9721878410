// Enumeration-like type for message body mimetypes.
package mimetype

import (
	"strings"
)

/*
MimeType is used to enumerate the default representation for content encoding types.
Non default MimeTypes can be used by wrapping a custom string:

	MimeType("application/atom+xml")
*/
type MimeType string

const (
	XML     = MimeType("application/xml")
	TEXTXML = MimeType("text/xml")
	TEXT    = MimeType("text/plain")
	// UNKNOWN is used when the incoming string is blank
	UNKNOWN = MimeType("")
)

// List of default mimeTypes that carry xml documents (as opposed to raw text).
var xmlMimeTypes = []MimeType{XML, TEXTXML}

// Interface for object used to fetch headers such as http.Request.Header or
// http.Response.Header
type headerFetcher interface {
	Get(string) string
}

// Extract content type from a message / request header.
func FromHeader(headers headerFetcher) MimeType {
	return FromString(headers.Get("Content-Type"))
}

/*
Convert MimeType from a string. Ignores case and any parameters after ';'. If the
MimeType is a default type, multiple formats are respected. For instance, all of the
following will yield "mimetype.XML":

• "application/xml"

• "application/XML; charset=utf-8"

• "application/x-xml"

• "xml"

• "application/soap+xml"

"text/xml" is kept as mimetype.TEXTXML.
*/
func FromString(incoming string) MimeType {
	if index := strings.Index(incoming, ";"); index >= 0 {
		incoming = incoming[:index]
	}
	incoming = strings.ToLower(strings.TrimSpace(incoming))

	if incoming == "" {
		return UNKNOWN
	}
	if incoming == "text/plain" || incoming == "text" {
		return TEXT
	}
	if incoming == string(TEXTXML) {
		return TEXTXML
	}
	if incoming == "xml" || strings.HasSuffix(incoming, "/xml") ||
		strings.HasSuffix(incoming, "-xml") || strings.HasSuffix(incoming, "+xml") {
		return XML
	}

	return MimeType(incoming)
}

// IsXML reports whether mimeType is one of the xml mimetypes handled by default.
func IsXML(mimeType MimeType) bool {
	for _, xmlType := range xmlMimeTypes {
		if mimeType == xmlType {
			return true
		}
	}
	return false
}
