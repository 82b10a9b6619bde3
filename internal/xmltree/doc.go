// Package xmltree builds a generic in-memory element tree from XML text.
//
// The tree deliberately knows nothing about diagnostic schemas: it exposes
// tag names (namespace stripped), attributes, character data, and child
// elements, in document order. Higher layers decide what any of it means.
//
// Mixed content is preserved: an element's Nodes slice interleaves text
// runs and child elements in the order they appear, which callers need for
// faithful description-text reconstruction.
package xmltree
