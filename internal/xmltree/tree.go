package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// MaxDocumentSize is the maximum accepted document size (100MB).
const MaxDocumentSize = 100 * 1024 * 1024

// Attr is a single attribute on an element. Name is the local part with
// any namespace prefix removed.
type Attr struct {
	Name  string
	Value string
}

// Node is one ordered content item inside an element: either a run of
// character data (El nil) or a child element (Text empty).
type Node struct {
	Text string
	El   *Element
}

// Element is one XML element. Name carries the local tag name only;
// namespace prefixes are stripped during parsing.
type Element struct {
	Name  string
	Attrs []Attr
	Nodes []Node
}

// Children returns the direct child elements in document order.
func (e *Element) Children() []*Element {
	out := make([]*Element, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		if n.El != nil {
			out = append(out, n.El)
		}
	}
	return out
}

// Text returns the element's direct character data, concatenated and
// trimmed of surrounding whitespace. Text inside child elements is not
// included.
func (e *Element) Text() string {
	var b strings.Builder
	for _, n := range e.Nodes {
		if n.El == nil {
			b.WriteString(n.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// Attr returns the value of the named attribute using a case-insensitive
// match, and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// Parse builds an element tree from a complete XML document.
func Parse(data []byte) (*Element, error) {
	if len(data) > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local == "xmlns" || a.Name.Space == "xmlns" {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformedMarkup)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Nodes = append(parent.Nodes, Node{El: el})
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unbalanced end tag %q", ErrMalformedMarkup, t.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Nodes = append(parent.Nodes, Node{Text: string(t)})
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedMarkup)
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unclosed element %q", ErrMalformedMarkup, stack[len(stack)-1].Name)
	}
	return root, nil
}

// charsetReader handles the encodings diagnostic tooling actually emits.
// UTF-8 variants pass through; single-byte Latin encodings are widened
// byte-for-byte, which is exact for ISO-8859-1 and close enough for the
// printable range of Windows-1252.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "windows-1252", "cp1252":
		return &latin1Reader{r: input}, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
}

type latin1Reader struct {
	r io.Reader

	// pending holds the second UTF-8 byte of a widened high byte when
	// the caller's buffer ran out mid-rune.
	pending    byte
	hasPending bool
}

func (l *latin1Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	out := 0
	if l.hasPending {
		p[out] = l.pending
		l.hasPending = false
		out++
	}
	if out == len(p) {
		return out, nil
	}

	// Each input byte can expand to two UTF-8 bytes.
	buf := make([]byte, (len(p)-out)/2)
	if len(buf) == 0 {
		buf = make([]byte, 1)
	}
	n, err := l.r.Read(buf)
	for _, b := range buf[:n] {
		if b < 0x80 {
			p[out] = b
			out++
			continue
		}
		p[out] = 0xC0 | b>>6
		out++
		if out < len(p) {
			p[out] = 0x80 | b&0x3F
			out++
		} else {
			l.pending = 0x80 | b&0x3F
			l.hasPending = true
		}
	}
	if l.hasPending && err != nil {
		// Deliver the held byte before surfacing EOF.
		return out, nil
	}
	return out, err
}
