package odx

import (
	"strconv"
	"strings"

	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

// paramContext carries the structural position a parameter is resolved
// at. The identity of every parameter derives from this, never from
// entropy, so re-parsing the same document reproduces the same ids.
type paramContext struct {
	layerID     string
	layerName   string
	serviceID   string
	serviceName string
	kind        string
	parent      string
	index       int
}

// paramID composes the deterministic parameter identifier from the
// structural path.
func paramID(layerName, serviceName, kind, parent string, index int, short string) string {
	return strings.Join([]string{
		layerName, serviceName, kind, parent, strconv.Itoa(index), short,
	}, "::")
}

// structParams returns a structure's declared parameter elements in
// document order, whether or not they are wrapped in a PARAMS element.
func structParams(el *xmltree.Element) []*xmltree.Element {
	if ps := child(el, "PARAMS"); ps != nil {
		return childrenNamed(ps, "PARAM")
	}
	return childrenNamed(el, "PARAM")
}

// resolveParam parses one PARAM element at the given structural
// position, resolves its data-object-property reference, and expands the
// referenced structure (if any) into child parameters.
//
// visited is the chain of structure identifiers currently being
// expanded. A structure already on the chain truncates that branch and
// marks the parameter instead of recursing forever.
func resolveParam(el *xmltree.Element, ctx paramContext, ix *Index, visited map[string]bool) *Param {
	p := &Param{
		ShortName:      shortName(el),
		LongName:       longName(el),
		Description:    description(el),
		Semantic:       attr(el, "SEMANTIC"),
		BytePosition:   -1,
		BitPosition:    -1,
		CodedValue:     codedValue(el),
		PhysConstValue: childText(el, "PHYS-CONSTANT-VALUE"),
		DopRef:         refID(el, "DOP-REF"),
		DopSNRef:       snRef(el, "DOP-SNREF"),
		ByteOrder:      "INTEL",
		MessageKind:    ctx.kind,
		ParentName:     ctx.parent,
		Index:          ctx.index,
		LayerName:      ctx.layerName,
		ServiceName:    ctx.serviceName,
		Attributes:     attrMap(el),
	}
	if v := childText(el, "BYTE-POSITION"); v != "" {
		p.BytePosition = parseIntField(v)
	}
	if v := childText(el, "BIT-POSITION"); v != "" {
		p.BitPosition = parseIntField(v)
	}

	if ct := child(el, "DIAG-CODED-TYPE"); ct != nil {
		p.CodedBaseType = attr(ct, "BASE-DATA-TYPE", "BASE-TYPE")
		p.BitLength = parseIntField(childText(ct, "BIT-LENGTH"))
		p.MinLength = parseIntField(childText(ct, "MIN-LENGTH"))
		p.MaxLength = parseIntField(childText(ct, "MAX-LENGTH"))
		if strings.EqualFold(attr(ct, "IS-HIGHLOW-BYTE-ORDER"), "true") {
			p.ByteOrder = "MOTOROLA"
		}
	}

	p.ID = paramID(ctx.layerName, ctx.serviceName, ctx.kind, ctx.parent, ctx.index, p.ShortName)

	dopEl := lookupDOP(ix, p.DopRef, p.DopSNRef)
	if dopEl == nil {
		return p
	}

	// A DOP reference may point straight at a structure.
	var structEl *xmltree.Element
	if strings.EqualFold(dopEl.Name, "STRUCTURE") {
		structEl = dopEl
	} else {
		dop := parseDOP(dopEl)
		p.DopID = dop.ID
		p.UnitRef = dop.UnitRef
		p.CompuCategory = dop.CompuCategory
		p.CompuScales = dop.CompuScales
		fillFromDOP(p, dop)

		structEl = child(dopEl, "STRUCTURE")
		if structEl == nil {
			if sref := refID(dopEl, "STRUCTURE-REF"); sref != "" {
				structEl = ix.Lookup(sref)
			}
		}
	}
	if structEl == nil {
		return p
	}

	sid := attr(structEl, "ID")
	if sid == "" {
		sid = shortName(structEl)
	}
	if visited[sid] {
		p.CycleDetected = true
		return p
	}
	visited[sid] = true
	p.Children = expandStructure(structEl, ctx, p.ShortName, ix, visited)
	delete(visited, sid)

	return p
}

// expandStructure resolves a structure's declared parameters as children
// of the parameter named by parent, in declared order.
func expandStructure(structEl *xmltree.Element, ctx paramContext, parent string, ix *Index, visited map[string]bool) []*Param {
	var out []*Param
	for i, pe := range structParams(structEl) {
		childCtx := ctx
		childCtx.kind = KindStructure
		childCtx.parent = parent
		childCtx.index = i
		out = append(out, resolveParam(pe, childCtx, ix, visited))
	}
	return out
}

// lookupDOP resolves a data-object-property reference: by identifier
// first, then by short name, then by treating the identifier reference
// itself as a short name. Unresolvable references return nil.
func lookupDOP(ix *Index, ref, snref string) *xmltree.Element {
	if el := ix.Lookup(ref); el != nil {
		return el
	}
	if el := ix.ByShortName(snref); el != nil {
		return el
	}
	if ref != "" {
		return ix.ByShortName(ref)
	}
	return nil
}

// fillFromDOP backfills coded-type facts the parameter did not declare
// itself from its resolved data-object-property.
func fillFromDOP(p *Param, dop DataObjectProp) {
	if p.BitLength == 0 {
		p.BitLength = dop.BitLength
	}
	if p.MinLength == 0 {
		p.MinLength = dop.MinLength
	}
	if p.MaxLength == 0 {
		p.MaxLength = dop.MaxLength
	}
	if p.CodedBaseType == "" {
		p.CodedBaseType = dop.CodedBaseType
	}
	if p.PhysicalBaseType == "" {
		p.PhysicalBaseType = dop.PhysicalBaseType
	}
}

// restampParams deep-copies a message's parameter trees, rewriting every
// identifier under the owning service's context. Two services sharing
// one message definition therefore never share a parameter identifier.
func restampParams(params []*Param, layerName, serviceName string) []*Param {
	if params == nil {
		return nil
	}
	out := make([]*Param, len(params))
	for i, p := range params {
		out[i] = restampParam(p, layerName, serviceName)
	}
	return out
}

func restampParam(p *Param, layerName, serviceName string) *Param {
	cp := *p
	cp.LayerName = layerName
	cp.ServiceName = serviceName
	cp.ID = paramID(layerName, serviceName, cp.MessageKind, cp.ParentName, cp.Index, cp.ShortName)
	cp.Children = restampParams(p.Children, layerName, serviceName)
	return &cp
}
