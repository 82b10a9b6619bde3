package odx

import (
	"strings"

	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

// Element access helpers. All tag and attribute matching is
// case-insensitive so the parsers above this layer never need to care
// about source casing or namespace prefixes (the tree provider already
// strips prefixes).

// child returns the first direct child with the given tag name.
func child(el *xmltree.Element, name string) *xmltree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.Children() {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// childrenNamed returns all direct children with the given tag name, in
// document order.
func childrenNamed(el *xmltree.Element, name string) []*xmltree.Element {
	if el == nil {
		return nil
	}
	var out []*xmltree.Element
	for _, c := range el.Children() {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// descendants returns all descendants with the given tag name, in
// document order.
func descendants(el *xmltree.Element, name string) []*xmltree.Element {
	if el == nil {
		return nil
	}
	var out []*xmltree.Element
	var walk func(e *xmltree.Element)
	walk = func(e *xmltree.Element) {
		for _, c := range e.Children() {
			if strings.EqualFold(c.Name, name) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(el)
	return out
}

// firstDescendant returns the first descendant with the given tag name.
func firstDescendant(el *xmltree.Element, name string) *xmltree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.Children() {
		if strings.EqualFold(c.Name, name) {
			return c
		}
		if found := firstDescendant(c, name); found != nil {
			return found
		}
	}
	return nil
}

// attr returns the first present attribute among the given names.
func attr(el *xmltree.Element, names ...string) string {
	if el == nil {
		return ""
	}
	for _, n := range names {
		if v, ok := el.Attr(n); ok {
			return v
		}
	}
	return ""
}

// attrMap returns all attributes as a name to value mapping, or nil when
// the element has none.
func attrMap(el *xmltree.Element) map[string]string {
	if el == nil || len(el.Attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(el.Attrs))
	for _, a := range el.Attrs {
		m[a.Name] = a.Value
	}
	return m
}

// childText returns the trimmed text of the first direct child, among
// the given tag names, that has non-empty text.
func childText(el *xmltree.Element, names ...string) string {
	for _, n := range names {
		if c := child(el, n); c != nil {
			if t := c.Text(); t != "" {
				return t
			}
		}
	}
	return ""
}

// descendantText returns the trimmed text of the first descendant, among
// the given tag names, that has non-empty text.
func descendantText(el *xmltree.Element, names ...string) string {
	for _, n := range names {
		for _, d := range descendants(el, n) {
			if t := d.Text(); t != "" {
				return t
			}
		}
	}
	return ""
}

// shortName returns the element's SHORT-NAME child text.
func shortName(el *xmltree.Element) string {
	return childText(el, "SHORT-NAME")
}

// longName returns the element's LONG-NAME child text.
func longName(el *xmltree.Element) string {
	return childText(el, "LONG-NAME")
}

// refID extracts the target identifier from a reference child element,
// e.g. <DOP-REF ID-REF="x"/>.
func refID(el *xmltree.Element, tag string) string {
	c := child(el, tag)
	if c == nil {
		return ""
	}
	if v := attr(c, "ID-REF", "ID_REF", "IDREF"); v != "" {
		return v
	}
	return c.Text()
}

// snRef extracts the target short name from a short-name reference child
// element, e.g. <DOP-SNREF SHORT-NAME="x"/>.
func snRef(el *xmltree.Element, tag string) string {
	c := child(el, tag)
	if c == nil {
		return ""
	}
	if v := attr(c, "SHORT-NAME", "SN-REF", "SNREF"); v != "" {
		return v
	}
	return c.Text()
}

// codedValue extracts a constant coded value: a CODED-VALUE descendant's
// text, then a V descendant's text, then an attribute of either name.
func codedValue(el *xmltree.Element) string {
	if el == nil {
		return ""
	}
	if v := descendantText(el, "CODED-VALUE"); v != "" {
		return v
	}
	if v := descendantText(el, "V"); v != "" {
		return v
	}
	return attr(el, "CODED-VALUE", "V")
}

// description renders the element's DESC child as plain text: a BR
// marker element becomes a line break, nested markup is flattened in
// document order, and runs of blank lines collapse to one break.
func description(el *xmltree.Element) string {
	d := child(el, "DESC")
	if d == nil {
		d = firstDescendant(el, "DESC")
	}
	if d == nil {
		return ""
	}

	var b strings.Builder
	var render func(e *xmltree.Element)
	render = func(e *xmltree.Element) {
		for _, n := range e.Nodes {
			switch {
			case n.El == nil:
				b.WriteString(n.Text)
			case strings.EqualFold(n.El.Name, "BR"):
				b.WriteString("\n")
			default:
				render(n.El)
				if strings.EqualFold(n.El.Name, "P") {
					b.WriteString("\n")
				}
			}
		}
	}
	render(d)

	lines := strings.Split(b.String(), "\n")
	var out []string
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n")
}
