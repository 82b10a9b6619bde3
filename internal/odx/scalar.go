package odx

import (
	"strconv"

	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

// Scalar entity parsers. Each is a pure function from one element to one
// immutable record. Absent fields become zero values; none of these can
// fail.

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntField(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// parseUnit reads a UNIT element.
func parseUnit(el *xmltree.Element) Unit {
	return Unit{
		ID:             attr(el, "ID"),
		ShortName:      shortName(el),
		LongName:       longName(el),
		DisplayName:    childText(el, "DISPLAY-NAME"),
		FactorSIToUnit: parseFloat(childText(el, "FACTOR-SI-TO-UNIT")),
		OffsetSIToUnit: parseFloat(childText(el, "OFFSET-SI-TO-UNIT")),
		DimensionRef:   refID(el, "PHYSICAL-DIMENSION-REF"),
		Attributes:     attrMap(el),
	}
}

// parseCompuScale reads one COMPU-SCALE element, including any rational
// coefficient lists.
func parseCompuScale(el *xmltree.Element) CompuScale {
	s := CompuScale{
		LowerLimit: childText(el, "LOWER-LIMIT"),
		UpperLimit: childText(el, "UPPER-LIMIT"),
	}

	if c := child(el, "COMPU-CONST"); c != nil {
		s.ConstValue = childText(c, "V")
		s.ConstText = childText(c, "VT")
	}

	if rc := child(el, "COMPU-RATIONAL-COEFFS"); rc != nil {
		if num := child(rc, "COMPU-NUMERATOR"); num != nil {
			for _, v := range childrenNamed(num, "V") {
				s.Numerators = append(s.Numerators, parseFloat(v.Text()))
			}
		}
		if den := child(rc, "COMPU-DENOMINATOR"); den != nil {
			for _, v := range childrenNamed(den, "V") {
				s.Denominators = append(s.Denominators, parseFloat(v.Text()))
			}
		}
	}
	return s
}

// parseCompuScales walks a compu-method's internal-to-physical section
// and returns its ordered scale list. No section means no scales.
func parseCompuScales(el *xmltree.Element) []CompuScale {
	itp := child(el, "COMPU-INTERNAL-TO-PHYS")
	if itp == nil {
		return nil
	}
	var out []CompuScale
	for _, sc := range descendants(itp, "COMPU-SCALE") {
		out = append(out, parseCompuScale(sc))
	}
	return out
}

// parseCompuMethod reads a COMPU-METHOD element.
func parseCompuMethod(el *xmltree.Element) CompuMethod {
	return CompuMethod{
		ID:         attr(el, "ID"),
		ShortName:  shortName(el),
		LongName:   longName(el),
		Category:   childText(el, "CATEGORY"),
		Scales:     parseCompuScales(el),
		Attributes: attrMap(el),
	}
}

// parseDOP reads a DATA-OBJECT-PROP element, including its coded and
// physical type facts and any inline compu-method.
func parseDOP(el *xmltree.Element) DataObjectProp {
	dop := DataObjectProp{
		ID:          attr(el, "ID"),
		ShortName:   shortName(el),
		LongName:    longName(el),
		Description: description(el),
		UnitRef:     refID(el, "UNIT-REF"),
		Attributes:  attrMap(el),
	}

	if ct := child(el, "DIAG-CODED-TYPE"); ct != nil {
		dop.CodedBaseType = attr(ct, "BASE-DATA-TYPE", "BASE-TYPE")
		dop.BitLength = parseIntField(childText(ct, "BIT-LENGTH"))
		dop.MinLength = parseIntField(childText(ct, "MIN-LENGTH"))
		dop.MaxLength = parseIntField(childText(ct, "MAX-LENGTH"))
	}
	if pt := child(el, "PHYSICAL-TYPE"); pt != nil {
		dop.PhysicalBaseType = attr(pt, "BASE-DATA-TYPE", "BASE-TYPE")
	}
	if cm := child(el, "COMPU-METHOD"); cm != nil {
		dop.CompuCategory = childText(cm, "CATEGORY")
		dop.CompuScales = parseCompuScales(cm)
	}
	return dop
}

// parseDTC reads a DTC (trouble code) element.
func parseDTC(el *xmltree.Element) TroubleCode {
	desc := childText(el, "TEXT")
	if desc == "" {
		desc = description(el)
	}
	return TroubleCode{
		ID:          attr(el, "ID"),
		ShortName:   shortName(el),
		Description: desc,
		Code:        childText(el, "TROUBLE-CODE"),
		DisplayCode: childText(el, "DISPLAY-TROUBLE-CODE"),
		Level:       childText(el, "LEVEL"),
		Attributes:  attrMap(el),
	}
}
