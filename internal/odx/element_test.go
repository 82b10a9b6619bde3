package odx

import (
	"testing"

	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

func mustParse(t *testing.T, doc string) *xmltree.Element {
	t.Helper()
	root, err := xmltree.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("xmltree.Parse() error = %v", err)
	}
	return root
}

func TestChildTextCaseInsensitive(t *testing.T) {
	root := mustParse(t, `<PARAM><short-name>Speed</short-name></PARAM>`)

	if got := shortName(root); got != "Speed" {
		t.Errorf("shortName() = %q, want %q", got, "Speed")
	}
}

func TestAttrVariants(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		keys []string
		want string
	}{
		{"exact", `<E ID="x"/>`, []string{"ID"}, "x"},
		{"lowercase source", `<E id="x"/>`, []string{"ID"}, "x"},
		{"second variant", `<E ID_REF="y"/>`, []string{"ID-REF", "ID_REF"}, "y"},
		{"absent", `<E/>`, []string{"ID"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.doc)
			if got := attr(root, tt.keys...); got != tt.want {
				t.Errorf("attr(%v) = %q, want %q", tt.keys, got, tt.want)
			}
		})
	}
}

func TestCodedValuePrecedence(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"coded-value element", `<P><CODED-VALUE>34</CODED-VALUE><V>99</V></P>`, "34"},
		{"v element fallback", `<P><V>99</V></P>`, "99"},
		{"attribute fallback", `<P CODED-VALUE="7"/>`, "7"},
		{"nested coded value", `<P><CONST><CODED-VALUE>1</CODED-VALUE></CONST></P>`, "1"},
		{"nothing", `<P/>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.doc)
			if got := codedValue(root); got != tt.want {
				t.Errorf("codedValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescriptionCleaning(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"br becomes newline",
			`<S><DESC>first<BR/>second</DESC></S>`,
			"first\nsecond",
		},
		{
			"blank runs collapse",
			`<S><DESC>first<BR/><BR/><BR/>second</DESC></S>`,
			"first\nsecond",
		},
		{
			"paragraphs flattened",
			`<S><DESC><P>one</P><P>two</P></DESC></S>`,
			"one\ntwo",
		},
		{
			"no desc",
			`<S><SHORT-NAME>x</SHORT-NAME></S>`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := mustParse(t, tt.doc)
			if got := description(root); got != tt.want {
				t.Errorf("description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescendantsDocumentOrder(t *testing.T) {
	root := mustParse(t, `<R><A><X>1</X></A><X>2</X><B><C><X>3</X></C></B></R>`)

	got := descendants(root, "X")
	if len(got) != 3 {
		t.Fatalf("len(descendants) = %d, want 3", len(got))
	}
	for i, want := range []string{"1", "2", "3"} {
		if got[i].Text() != want {
			t.Errorf("descendants[%d].Text() = %q, want %q", i, got[i].Text(), want)
		}
	}
}
