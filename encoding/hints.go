package encoding

import (
	"github.com/illuscio-dev/xmlsource-go/source"
)

// PreferredFormatHeader is the message header a client or an upstream handler can set
// to bias which representation a general source receiver gets.
const PreferredFormatHeader = "Source-Preferred-Format"

// Hints holds per-message information a decoder may use. The zero value means no
// preference.
type Hints struct {
	// Preferred representation format for receivers that do not pin one.
	PreferredFormat source.Format
}

type headerFetcher interface {
	Get(key string) string
}

// HintsFromHeader builds Hints from message headers such as http.Request.Header.
func HintsFromHeader(headers headerFetcher) Hints {
	return Hints{
		PreferredFormat: source.ParseFormat(headers.Get(PreferredFormatHeader)),
	}
}
