package odx

import (
	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

// ParseDocument parses one diagnostic document payload into a container,
// using a fresh identifier index scoped to this document.
func ParseDocument(data []byte) (*Container, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, err
	}
	return BuildContainer(root, nil), nil
}

// BuildContainer scans the document into the given index (a fresh one is
// created when ix is nil) and parses all layers of the five kinds, in
// the fixed kind order. Parse order across kinds is presentational only;
// inter-layer references resolve through the index, never through order.
func BuildContainer(root *xmltree.Element, ix *Index) *Container {
	if ix == nil {
		ix = NewIndex()
	}
	ix.Scan(root)

	c := &Container{}
	for _, el := range descendants(root, "PROTOCOL") {
		c.Protocols = append(c.Protocols, buildLayer(el, LayerProtocol, ix))
	}
	for _, el := range descendants(root, "FUNCTIONAL-GROUP") {
		c.FunctionalGroups = append(c.FunctionalGroups, buildLayer(el, LayerFunctionalGroup, ix))
	}
	for _, el := range descendants(root, "BASE-VARIANT") {
		c.BaseVariants = append(c.BaseVariants, buildLayer(el, LayerBaseVariant, ix))
	}
	for _, el := range descendants(root, "ECU-VARIANT") {
		c.EcuVariants = append(c.EcuVariants, buildLayer(el, LayerEcuVariant, ix))
	}
	for _, el := range descendants(root, "ECU-SHARED-DATA") {
		c.EcuSharedData = append(c.EcuSharedData, buildLayer(el, LayerEcuSharedData, ix))
	}
	return c
}
