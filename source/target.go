package source

import (
	"strings"
)

// Target names the representation a caller asks Read or Convert to produce.
type Target int

const (
	// TargetSource is the general Source supertype. The converter picks the concrete
	// representation, using the Format hint to break the tie.
	TargetSource Target = iota
	// TargetStream asks for the raw bytes, untouched.
	TargetStream
	// TargetSAX asks for an event-backed source, for callers that push events.
	TargetSAX
	// TargetEvents asks for an event-backed source, for callers that pull events.
	TargetEvents
	// TargetTree asks for a fully materialized document tree.
	TargetTree

	targetCount
)

var targetNames = [targetCount]string{
	TargetSource: "source",
	TargetStream: "stream",
	TargetSAX:    "sax",
	TargetEvents: "events",
	TargetTree:   "tree",
}

func (target Target) String() string {
	if !Readable(target) {
		return "unknown"
	}
	return targetNames[target]
}

// ParseTarget converts a target name as returned by Target.String() back to a Target.
// Ignores case. The second return is false for unknown names.
func ParseTarget(name string) (Target, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for index, targetName := range targetNames {
		if targetName == name {
			return Target(index), true
		}
	}
	return TargetSource, false
}

// Readable reports whether the converter can produce target.
func Readable(target Target) bool {
	return target >= TargetSource && target < targetCount
}

// Format is the preferred-format hint carried alongside a read request. It only matters
// when the caller did not pin a concrete representation (TargetSource).
type Format string

const (
	// FormatUnset leaves the choice to the converter, which picks the cheap event-backed
	// path.
	FormatUnset = Format("")
	// FormatSAX prefers event-backed decoding.
	FormatSAX = Format("sax")
	// FormatDOM prefers tree-backed decoding.
	FormatDOM = Format("dom")
)

// ParseFormat normalizes a format hint. Unknown hints are kept as-is and are ignored
// when resolving a target.
func ParseFormat(incoming string) Format {
	return Format(strings.ToLower(strings.TrimSpace(incoming)))
}

// Representation is the concrete variant of a Source.
type Representation int

const (
	RepresentationStream Representation = iota
	RepresentationEvents
	RepresentationTree
)

func (representation Representation) String() string {
	switch representation {
	case RepresentationStream:
		return "stream"
	case RepresentationEvents:
		return "events"
	case RepresentationTree:
		return "tree"
	}
	return "unknown"
}

// resolve maps a requested target and format hint to the representation to produce.
// current is the representation already at hand, which satisfies TargetSource as long
// as it is not a raw stream and no hint asks for something else.
func resolve(target Target, format Format, current Representation) Representation {
	switch target {
	case TargetStream:
		return RepresentationStream
	case TargetSAX, TargetEvents:
		return RepresentationEvents
	case TargetTree:
		return RepresentationTree
	}

	switch format {
	case FormatSAX:
		return RepresentationEvents
	case FormatDOM:
		return RepresentationTree
	}

	if current == RepresentationStream {
		return RepresentationEvents
	}
	return current
}
