/*
Representations of a single xml document and lossless conversion between them.

A document arriving in a message body can be handed to application code in one of three
shapes, each a variant of the closed Source type:

• *StreamSource, the raw bytes, untouched.

• *EventSource, a pull parser over the bytes that checks well-formedness as it goes.

• *TreeSource, a fully materialized github.com/beevik/etree document.

Callers ask for a Target rather than a concrete type. TargetStream, TargetEvents,
TargetSAX and TargetTree pin a representation; TargetSource lets the converter choose,
biased by a Format hint:

	src, err := source.Read(source.TargetSource, source.FormatUnset, body)
	// src is an *EventSource wrapping body; nothing has been read yet.

	tree, err := source.Read(source.TargetTree, source.FormatUnset, body)
	// tree is a *TreeSource, or err is sourceerrors.MalformedDocument.

Any representation can be written back out with Write, which never closes the writer:

	err = source.Write(tree, response)

Round trips are equivalent at the level of elements, attributes, text, comments and
processing instructions. Raw streams and trees that were not re-indented come back byte
for byte apart from entity and CDATA normalization.
*/
package source
