package source

import (
	"encoding/xml"

	"github.com/beevik/etree"
)

// buildTree materializes the remaining tokens of events into a new document. Parse
// errors come from events, so a tree is only returned for a well-formed document.
// events must not have been read from yet.
func buildTree(events *EventSource) (*etree.Document, error) {
	if err := events.whole(); err != nil {
		return nil, err
	}

	document := etree.NewDocument()

	// document level nodes are added to the embedded element of the document.
	current := &document.Element
	parents := make([]*etree.Element, 0)

	err := events.Walk(func(token xml.Token) error {
		switch typed := token.(type) {
		case xml.StartElement:
			element := current.CreateElement(qualifiedName(typed.Name))
			for _, attr := range typed.Attr {
				element.CreateAttr(qualifiedName(attr.Name), attr.Value)
			}
			parents = append(parents, current)
			current = element
		case xml.EndElement:
			current = parents[len(parents)-1]
			parents = parents[:len(parents)-1]
		case xml.CharData:
			current.CreateText(string(typed))
		case xml.Comment:
			current.CreateComment(string(typed))
		case xml.ProcInst:
			current.CreateProcInst(typed.Target, string(typed.Inst))
		case xml.Directive:
			current.CreateDirective(string(typed))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}
