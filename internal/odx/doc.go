// Package odx parses ODX-style diagnostic description documents into a
// normalized, cross-referenced model.
//
// The package is a pure bottom-up tree transform. An identifier index is
// built over one document's referencable elements, scalar entities (units,
// compu-methods, data-object-properties, trouble codes) are parsed
// independently, parameters are resolved recursively through their
// data-object-property and structure references, and the five diagnostic
// layer kinds are assembled into a container. Containers from many
// documents merge into one Database with flattened global collections.
//
// Every field in every source document is treated as optional: a missing
// element or unresolvable reference yields an empty value, never an
// error. Only malformed markup fails, and that failure is scoped to the
// one document by the loader.
package odx
