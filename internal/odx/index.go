package odx

import (
	"strings"

	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

// referencableTags are the element kinds other elements may reference by
// identifier or short name. The scan covers these wherever they appear,
// including inside a document-level DATA-DICTIONARY-SPEC or UNIT-SPEC and
// inside each layer's own dictionary.
var referencableTags = map[string]bool{
	"STRUCTURE":        true,
	"DIAG-SERVICE":     true,
	"REQUEST":          true,
	"POS-RESPONSE":     true,
	"NEG-RESPONSE":     true,
	"DATA-OBJECT-PROP": true,
	"UNIT":             true,
	"COMPU-METHOD":     true,
	"TABLE":            true,
	"TABLE-ROW":        true,
	"PROTOCOL":         true,
	"FUNCTIONAL-GROUP": true,
	"BASE-VARIANT":     true,
	"ECU-VARIANT":      true,
	"ECU-SHARED-DATA":  true,
}

// Index resolves declared identifiers to their defining elements within
// one processing scope. It is a build-time scaffold: built before layer
// parsing starts, read-only afterwards, discarded with the batch.
type Index struct {
	byID  map[string]*xmltree.Element
	order []*xmltree.Element
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]*xmltree.Element)}
}

// Scan registers every referencable element under root that declares an
// identifier. Registration is first-write-wins: a duplicate identifier
// keeps the earlier element and the later one is ignored. Duplicate
// identifiers are a document-authoring inconsistency, not an error here.
func (ix *Index) Scan(root *xmltree.Element) {
	if root == nil {
		return
	}
	var walk func(e *xmltree.Element)
	walk = func(e *xmltree.Element) {
		if referencableTags[strings.ToUpper(e.Name)] {
			if id := attr(e, "ID"); id != "" {
				if _, exists := ix.byID[id]; !exists {
					ix.byID[id] = e
					ix.order = append(ix.order, e)
				}
			}
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(root)
}

// Lookup returns the element registered under id, or nil.
func (ix *Index) Lookup(id string) *xmltree.Element {
	if id == "" {
		return nil
	}
	return ix.byID[id]
}

// ByShortName scans registered elements in registration order and
// returns the first whose SHORT-NAME matches, or nil. This is the
// fallback path for references that carry no identifier.
func (ix *Index) ByShortName(name string) *xmltree.Element {
	if name == "" {
		return nil
	}
	for _, e := range ix.order {
		if shortName(e) == name {
			return e
		}
	}
	return nil
}

// Len reports how many elements are registered.
func (ix *Index) Len() int {
	return len(ix.order)
}
