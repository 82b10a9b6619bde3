package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/CreativeSoln/refactored-potato/internal/odx"
)

// Scaling categories emitted for final parameters.
const (
	ScalingLinear   = "LINEAR"
	ScalingIdentity = "IDENTITY"
)

// Selection types describing where a service's readable data comes from.
const (
	SelectionStructureLeaf = "structureLeaf"
	SelectionTableRow      = "tableRow"
)

// wellKnownParams are protocol plumbing parameters (service identifiers,
// data identifiers, subfunction bytes) that never carry measurement data
// and are excluded from final parameter lists. Keys are upper case and
// matched against both semantic and short name.
var wellKnownParams = map[string]bool{
	"SID":            true,
	"SID_RQ":         true,
	"SID-RQ":         true,
	"SID_PR":         true,
	"SID-PR":         true,
	"SERVICE-ID":     true,
	"DID":            true,
	"DATA-ID":        true,
	"DATA_ID":        true,
	"LOCAL-ID":       true,
	"LOCAL_ID":       true,
	"SUBFUNCTION":    true,
	"SUBFUNCTION-ID": true,
	"ID":             true,
}

// Scaling is the coded-to-physical conversion attached to a parameter.
// Linear scaling applies physical = offset + factor * coded.
type Scaling struct {
	Category string  `json:"category"`
	Factor   float64 `json:"factor"`
	Offset   float64 `json:"offset"`
	Unit     string  `json:"unit,omitempty"`
}

// Parameter is one leaf parameter of a service response, flattened out of
// its structure hierarchy.
type Parameter struct {
	// Name is the parameter's short name.
	Name string `json:"name"`

	// Path is the slash-joined short-name path from the response root
	// down to this parameter.
	Path string `json:"path"`

	// ArrayIndex is the parameter's position within its parent.
	ArrayIndex int `json:"arrayIndex"`

	// DataType is the coded base data type, when known.
	DataType string `json:"dataType,omitempty"`

	BitLength  int    `json:"bitLength,omitempty"`
	Endianness string `json:"endianness,omitempty"`

	Scaling *Scaling `json:"scaling,omitempty"`

	Description string `json:"description,omitempty"`

	// Truncated marks a parameter whose structure expansion stopped at a
	// recursive reference.
	Truncated bool `json:"truncated,omitempty"`
}

// Selection records how the service's data was located.
type Selection struct {
	Type      string `json:"type"`
	Structure string `json:"structure,omitempty"`
	Table     string `json:"table,omitempty"`
	Key       string `json:"key,omitempty"`
}

// ServiceEntry groups one readable data identifier with its decoded
// parameter layout.
type ServiceEntry struct {
	Service     string `json:"service"`
	DID         string `json:"did,omitempty"`
	SID         int64  `json:"sid,omitempty"`
	Semantic    string `json:"semantic,omitempty"`
	Description string `json:"description,omitempty"`

	Selection *Selection `json:"selection,omitempty"`

	FinalParameters []Parameter `json:"finalParameters"`
}

// VariantGroup is the per-layer slice of the export document.
type VariantGroup struct {
	Variant  string         `json:"variant"`
	Kind     string         `json:"kind"`
	Services []ServiceEntry `json:"services"`
}

// Document is the top-level export artifact.
type Document struct {
	GeneratedAt string         `json:"generatedAt"`
	Variants    []VariantGroup `json:"variants"`
}

// Build produces the export document from a merged database. ECU variants
// and base variants are exported in database order; only services that
// carry a data identifier contribute entries.
func Build(db *odx.Database) *Document {
	units := unitIndex(db)
	doc := &Document{GeneratedAt: time.Now().UTC().Format(time.RFC3339)}

	layers := make([]*odx.Layer, 0, len(db.EcuVariants)+len(db.BaseVariants))
	layers = append(layers, db.EcuVariants...)
	layers = append(layers, db.BaseVariants...)

	for _, l := range layers {
		group := VariantGroup{Variant: l.ShortName, Kind: l.Kind}
		for _, svc := range l.Services {
			if svc.DID == "" {
				continue
			}
			group.Services = append(group.Services, buildService(l, svc, units))
		}
		if len(group.Services) > 0 {
			doc.Variants = append(doc.Variants, group)
		}
	}
	return doc
}

// WriteJSON serialises the document to w.
func WriteJSON(w io.Writer, doc *Document, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

func buildService(l *odx.Layer, svc *odx.Service, units map[string]odx.Unit) ServiceEntry {
	entry := ServiceEntry{
		Service:         svc.ShortName,
		DID:             svc.DID,
		SID:             svc.SID,
		Semantic:        svc.Semantic,
		Description:     svc.Description,
		FinalParameters: []Parameter{},
	}

	// A table row keyed by the service's data identifier takes priority:
	// its structure describes the actual record layout.
	if table, row := findTableRow(l, svc.DID); row != nil {
		entry.Selection = &Selection{
			Type:  SelectionTableRow,
			Table: table.ShortName,
			Key:   row.Key,
		}
		for _, p := range row.Params {
			collectLeaves(p, row.ShortName, units, &entry.FinalParameters)
		}
		return entry
	}

	for _, msg := range svc.PosResponses {
		for _, p := range msg.Params {
			if wellKnown(p) {
				continue
			}
			if entry.Selection == nil && len(p.Children) > 0 {
				entry.Selection = &Selection{
					Type:      SelectionStructureLeaf,
					Structure: p.ShortName,
				}
			}
			collectLeaves(p, msg.ShortName, units, &entry.FinalParameters)
		}
	}
	return entry
}

// collectLeaves walks the structure expansion depth first and appends the
// leaf parameters in declared order.
func collectLeaves(p *odx.Param, prefix string, units map[string]odx.Unit, out *[]Parameter) {
	path := p.ShortName
	if prefix != "" {
		path = prefix + "/" + p.ShortName
	}
	if len(p.Children) > 0 {
		for _, c := range p.Children {
			collectLeaves(c, path, units, out)
		}
		return
	}
	if wellKnown(p) {
		return
	}
	*out = append(*out, Parameter{
		Name:        p.ShortName,
		Path:        path,
		ArrayIndex:  p.Index,
		DataType:    p.CodedBaseType,
		BitLength:   p.BitLength,
		Endianness:  endianness(p),
		Scaling:     scalingFor(p, units),
		Description: p.Description,
		Truncated:   p.CycleDetected,
	})
}

func wellKnown(p *odx.Param) bool {
	return wellKnownParams[strings.ToUpper(p.Semantic)] ||
		wellKnownParams[strings.ToUpper(p.ShortName)]
}

func endianness(p *odx.Param) string {
	if p.ByteOrder != "" {
		return p.ByteOrder
	}
	return "INTEL"
}

// scalingFor derives the linear conversion from the parameter's first
// compu scale. Anything without rational coefficients is identity.
func scalingFor(p *odx.Param, units map[string]odx.Unit) *Scaling {
	s := &Scaling{Category: ScalingIdentity, Factor: 1}
	if u, ok := units[p.UnitRef]; ok {
		s.Unit = u.DisplayName
		if s.Unit == "" {
			s.Unit = u.ShortName
		}
	}
	if len(p.CompuScales) == 0 || len(p.CompuScales[0].Numerators) == 0 {
		return s
	}

	sc := p.CompuScales[0]
	den := 1.0
	if len(sc.Denominators) > 0 && sc.Denominators[0] != 0 {
		den = sc.Denominators[0]
	}
	s.Category = ScalingLinear
	s.Offset = sc.Numerators[0] / den
	if len(sc.Numerators) > 1 {
		s.Factor = sc.Numerators[1] / den
	} else {
		s.Factor = 0
	}
	return s
}

func findTableRow(l *odx.Layer, did string) (*odx.Table, *odx.TableRow) {
	for i := range l.Tables {
		t := &l.Tables[i]
		for j := range t.Rows {
			if keyMatches(t.Rows[j].Key, did) {
				return t, &t.Rows[j]
			}
		}
	}
	return nil, nil
}

// keyMatches compares a table row key against a data identifier, tolerant
// of decimal vs hex spellings.
func keyMatches(key, did string) bool {
	if key == "" || did == "" {
		return false
	}
	if strings.EqualFold(key, did) {
		return true
	}
	return normaliseHex(key) != "" && normaliseHex(key) == normaliseHex(did)
}

// normaliseHex renders a numeric identifier as 0x-prefixed upper-case
// hex, or "" when the value is not numeric.
func normaliseHex(v string) string {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("0x%04X", n)
}

func unitIndex(db *odx.Database) map[string]odx.Unit {
	ix := make(map[string]odx.Unit, len(db.Units))
	for _, u := range db.Units {
		if _, ok := ix[u.ID]; !ok && u.ID != "" {
			ix[u.ID] = u
		}
		if _, ok := ix[u.ShortName]; !ok && u.ShortName != "" {
			ix[u.ShortName] = u
		}
	}
	return ix
}
