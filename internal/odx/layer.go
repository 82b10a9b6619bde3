package odx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

// Semantic tags that identify the request data identifier and service
// identifier parameters of a service.
var (
	didSemantics = map[string]bool{
		"DATA-ID": true, "DATAID": true, "DID": true,
		"LOCAL-ID": true, "LOCALID": true, "ID": true,
		"MATCHING-REQUEST-PARAM": true,
	}
	sidSemantics = map[string]bool{
		"SERVICE-ID": true, "SERVICEID": true, "SID": true,
		"SERVICE-ID-RQ": true, "SERVICE": true,
	}
)

// buildLayer parses one diagnostic layer element of the given kind. It
// builds the layer-local request/response maps first, then the services
// that reference them, and finally collects the layer's scalar entities
// and tables. The index must already cover the whole document.
func buildLayer(el *xmltree.Element, kind string, ix *Index) *Layer {
	l := &Layer{
		Kind:        kind,
		ID:          attr(el, "ID"),
		ShortName:   shortName(el),
		LongName:    longName(el),
		Description: description(el),
		ParentRef:   refID(el, "PARENT-REF"),
		ReceiveID:   childText(el, "RECEIVE-ID"),
		TransmitID:  childText(el, "TRANSMIT-ID"),
		Links:       collectLinks(el),
		Attributes:  attrMap(el),
	}

	// An explicit layer-type attribute wins over the tag-derived kind.
	if lt := attr(el, "LAYER-TYPE"); lt != "" {
		l.Kind = strings.ToUpper(lt)
	}

	ctx := paramContext{layerID: l.ID, layerName: l.ShortName}

	requests := collectMessages(el, "REQUESTS", "REQUEST", KindRequest, ctx, ix)
	posResponses := collectMessages(el, "POS-RESPONSES", "POS-RESPONSE", KindPosResponse, ctx, ix)
	negResponses := collectMessages(el, "NEG-RESPONSES", "NEG-RESPONSE", KindNegResponse, ctx, ix)

	for _, se := range serviceElements(el) {
		l.Services = append(l.Services, buildService(se, l.ShortName, requests, posResponses, negResponses))
	}

	collectDictionaries(el, ctx, ix, l)

	for _, dtc := range descendants(el, "DTC") {
		l.TroubleCodes = append(l.TroubleCodes, parseDTC(dtc))
	}

	return l
}

// collectLinks gathers the layer's inheritance references with their
// not-inherited service exclusions. Two source shapes exist: PARENT-REF
// elements carrying NOT-INHERITED-DIAG-COMMS children, and DIAG-LAYER-LINKS
// whose DIAG-LAYER-LINK entries reference the linked layer through any
// *-REF child, with the exclusions declared as pipe-separated
// NI_DIAGCOMM_SN / NI_DIAGCOMM_ID attributes on the layer itself.
func collectLinks(el *xmltree.Element) []LayerLink {
	layerSN := splitPipeSet(attr(el, "NI_DIAGCOMM_SN"))
	layerID := splitPipeSet(attr(el, "NI_DIAGCOMM_ID"))

	var out []LayerLink
	seen := make(map[string]bool)
	add := func(link LayerLink) {
		if link.Ref == "" || seen[link.Ref] {
			return
		}
		seen[link.Ref] = true
		link.NotInheritedSN = append(link.NotInheritedSN, layerSN...)
		link.NotInheritedID = append(link.NotInheritedID, layerID...)
		out = append(out, link)
	}

	for _, pr := range descendants(el, "PARENT-REF") {
		link := LayerLink{Ref: attr(pr, "ID-REF", "ID_REF", "IDREF")}
		for _, ni := range descendants(pr, "DIAG-COMM-SNREF") {
			if sn := attr(ni, "SHORT-NAME"); sn != "" {
				link.NotInheritedSN = append(link.NotInheritedSN, sn)
			}
		}
		for _, ni := range descendants(pr, "DIAG-COMM-REF") {
			if id := attr(ni, "ID-REF"); id != "" {
				link.NotInheritedID = append(link.NotInheritedID, id)
			}
		}
		add(link)
	}

	for _, links := range descendants(el, "DIAG-LAYER-LINKS") {
		for _, ll := range childrenNamed(links, "DIAG-LAYER-LINK") {
			for _, c := range ll.Children() {
				if !strings.HasSuffix(strings.ToUpper(c.Name), "-REF") {
					continue
				}
				add(LayerLink{Ref: attr(c, "ID-REF", "ID_REF", "IDREF")})
			}
		}
	}
	return out
}

// splitPipeSet splits a pipe-separated attribute value, dropping empty
// entries.
func splitPipeSet(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, "|") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// collectMessages builds the layer-local lookup map for one message kind,
// keyed by declared identifier. Parameters are resolved with the message
// kind and the message's own short name as parent; service context is
// stamped later when a service attaches the message.
func collectMessages(el *xmltree.Element, wrapper, tag, kind string, ctx paramContext, ix *Index) map[string]*Message {
	var els []*xmltree.Element
	if w := child(el, wrapper); w != nil {
		els = childrenNamed(w, tag)
	} else {
		els = childrenNamed(el, tag)
	}

	out := make(map[string]*Message, len(els))
	for _, me := range els {
		m := &Message{
			ID:        attr(me, "ID"),
			ShortName: shortName(me),
			LongName:  longName(me),
		}
		mctx := ctx
		mctx.kind = kind
		mctx.parent = m.ShortName
		visited := make(map[string]bool)
		for i, pe := range structParams(me) {
			mctx.index = i
			m.Params = append(m.Params, resolveParam(pe, mctx, ix, visited))
		}
		if m.ID != "" {
			out[m.ID] = m
		}
	}
	return out
}

// serviceElements returns the layer's diagnostic service elements.
func serviceElements(el *xmltree.Element) []*xmltree.Element {
	if dc := child(el, "DIAG-COMMS"); dc != nil {
		return descendants(dc, "DIAG-SERVICE")
	}
	return childrenNamed(el, "DIAG-SERVICE")
}

// buildService parses one DIAG-SERVICE element and attaches its request
// and responses from the layer-local maps. Unresolved references are
// dropped. Attached messages are re-stamped copies: every parameter
// identifier is recomputed under this service so that two services
// sharing one message definition never collide.
func buildService(el *xmltree.Element, layerName string, requests, posResponses, negResponses map[string]*Message) *Service {
	s := &Service{
		ID:          attr(el, "ID"),
		ShortName:   shortName(el),
		LongName:    longName(el),
		Description: description(el),
		Semantic:    attr(el, "SEMANTIC"),
		Addressing:  attr(el, "ADDRESSING"),
		Attributes:  attrMap(el),
	}

	if ref := refID(el, "REQUEST-REF"); ref != "" {
		if m, ok := requests[ref]; ok {
			s.Request = attachMessage(m, layerName, s.ShortName)
		}
	}
	if refs := child(el, "POS-RESPONSE-REFS"); refs != nil {
		for _, r := range childrenNamed(refs, "POS-RESPONSE-REF") {
			if m, ok := posResponses[attr(r, "ID-REF")]; ok {
				s.PosResponses = append(s.PosResponses, attachMessage(m, layerName, s.ShortName))
			}
		}
	}
	if refs := child(el, "NEG-RESPONSE-REFS"); refs != nil {
		for _, r := range childrenNamed(refs, "NEG-RESPONSE-REF") {
			if m, ok := negResponses[attr(r, "ID-REF")]; ok {
				s.NegResponses = append(s.NegResponses, attachMessage(m, layerName, s.ShortName))
			}
		}
	}

	detectDIDSID(s)
	return s
}

// attachMessage produces this service's copy of a shared message
// definition with re-stamped parameter identifiers.
func attachMessage(m *Message, layerName, serviceName string) *Message {
	return &Message{
		ID:        m.ID,
		ShortName: m.ShortName,
		LongName:  m.LongName,
		Params:    restampParams(m.Params, layerName, serviceName),
	}
}

// detectDIDSID scans the service's request parameters for the data
// identifier and service identifier, by semantic tag first and short
// name as a fallback.
func detectDIDSID(s *Service) {
	if s.Request == nil {
		return
	}
	for _, p := range s.Request.Params {
		sem := strings.ToUpper(p.Semantic)
		name := strings.ToUpper(strings.ReplaceAll(p.ShortName, "_", "-"))

		if s.DID == "" && (didSemantics[sem] || name == "DID" || name == "DATA-ID" ||
			strings.HasPrefix(name, "RECORD-DATA-ID")) {
			if v, err := strconv.ParseUint(p.CodedValue, 0, 64); err == nil {
				s.DID = fmt.Sprintf("0x%04X", v)
			} else if p.CodedValue != "" {
				s.DID = p.CodedValue
			}
		}
		if s.SID == 0 && (sidSemantics[sem] || name == "SID" || name == "SERVICE-ID") {
			if v, err := strconv.ParseInt(p.CodedValue, 0, 64); err == nil {
				s.SID = v
			}
		}
	}
}

// collectDictionaries gathers units, compu-methods, data-object
// properties and tables from the layer's data-dictionary and
// unit-specification sections. Both sections may contribute to the same
// unit collection; no deduplication is performed.
func collectDictionaries(el *xmltree.Element, ctx paramContext, ix *Index, l *Layer) {
	specs := childrenNamed(el, "DIAG-DATA-DICTIONARY-SPEC")
	specs = append(specs, childrenNamed(el, "DATA-DICTIONARY-SPEC")...)
	specs = append(specs, childrenNamed(el, "UNIT-SPEC")...)

	for _, spec := range specs {
		for _, u := range descendants(spec, "UNIT") {
			l.Units = append(l.Units, parseUnit(u))
		}
		if cms := firstDescendant(spec, "COMPU-METHODS"); cms != nil {
			for _, cm := range childrenNamed(cms, "COMPU-METHOD") {
				l.CompuMethods = append(l.CompuMethods, parseCompuMethod(cm))
			}
		}
		if dops := firstDescendant(spec, "DATA-OBJECT-PROPS"); dops != nil {
			for _, d := range childrenNamed(dops, "DATA-OBJECT-PROP") {
				l.DataObjectProps = append(l.DataObjectProps, parseDOP(d))
			}
		}
		for _, t := range descendants(spec, "TABLE") {
			l.Tables = append(l.Tables, parseTable(t, ctx, ix))
		}
	}
}

// parseTable reads one TABLE element and expands each row's referenced
// structure into parameters, the same way a parameter structure expands.
func parseTable(el *xmltree.Element, ctx paramContext, ix *Index) Table {
	t := Table{
		ID:         attr(el, "ID"),
		ShortName:  shortName(el),
		LongName:   longName(el),
		KeyDopRef:  refID(el, "KEY-DOP-REF"),
		Attributes: attrMap(el),
	}

	for _, re := range descendants(el, "TABLE-ROW") {
		row := TableRow{
			ID:           attr(re, "ID"),
			ShortName:    shortName(re),
			LongName:     longName(re),
			Key:          childText(re, "KEY"),
			StructureRef: refID(re, "STRUCTURE-REF"),
			Attributes:   attrMap(re),
		}
		if structEl := ix.Lookup(row.StructureRef); structEl != nil {
			rctx := ctx
			visited := make(map[string]bool)
			sid := attr(structEl, "ID")
			if sid != "" {
				visited[sid] = true
			}
			row.Params = expandStructure(structEl, rctx, row.ShortName, ix, visited)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
