package odx

import "testing"

func TestParseUnit(t *testing.T) {
	root := mustParse(t, `
<UNIT ID="U.kmh">
  <SHORT-NAME>kmh</SHORT-NAME>
  <LONG-NAME>Kilometres per hour</LONG-NAME>
  <DISPLAY-NAME>km/h</DISPLAY-NAME>
  <FACTOR-SI-TO-UNIT>3.6</FACTOR-SI-TO-UNIT>
  <OFFSET-SI-TO-UNIT>0</OFFSET-SI-TO-UNIT>
  <PHYSICAL-DIMENSION-REF ID-REF="DIM.speed"/>
</UNIT>`)

	u := parseUnit(root)
	if u.ID != "U.kmh" || u.ShortName != "kmh" {
		t.Errorf("identity = %q/%q, want U.kmh/kmh", u.ID, u.ShortName)
	}
	if u.FactorSIToUnit != 3.6 {
		t.Errorf("FactorSIToUnit = %v, want 3.6", u.FactorSIToUnit)
	}
	if u.DimensionRef != "DIM.speed" {
		t.Errorf("DimensionRef = %q, want %q", u.DimensionRef, "DIM.speed")
	}
}

func TestParseCompuMethodScaleFidelity(t *testing.T) {
	root := mustParse(t, `
<COMPU-METHOD ID="CM.1">
  <SHORT-NAME>TempScale</SHORT-NAME>
  <CATEGORY>LINEAR</CATEGORY>
  <COMPU-INTERNAL-TO-PHYS>
    <COMPU-SCALES>
      <COMPU-SCALE>
        <LOWER-LIMIT>0</LOWER-LIMIT>
        <UPPER-LIMIT>100</UPPER-LIMIT>
        <COMPU-RATIONAL-COEFFS>
          <COMPU-NUMERATOR><V>-40</V><V>0.5</V></COMPU-NUMERATOR>
          <COMPU-DENOMINATOR><V>1</V></COMPU-DENOMINATOR>
        </COMPU-RATIONAL-COEFFS>
      </COMPU-SCALE>
      <COMPU-SCALE>
        <LOWER-LIMIT>101</LOWER-LIMIT>
        <UPPER-LIMIT>200</UPPER-LIMIT>
        <COMPU-CONST><V>255</V><VT>invalid</VT></COMPU-CONST>
      </COMPU-SCALE>
      <COMPU-SCALE>
        <LOWER-LIMIT>201</LOWER-LIMIT>
        <UPPER-LIMIT>255</UPPER-LIMIT>
      </COMPU-SCALE>
    </COMPU-SCALES>
  </COMPU-INTERNAL-TO-PHYS>
</COMPU-METHOD>`)

	cm := parseCompuMethod(root)
	if cm.Category != "LINEAR" {
		t.Errorf("Category = %q, want LINEAR", cm.Category)
	}
	if len(cm.Scales) != 3 {
		t.Fatalf("len(Scales) = %d, want 3", len(cm.Scales))
	}

	s0 := cm.Scales[0]
	if s0.LowerLimit != "0" || s0.UpperLimit != "100" {
		t.Errorf("scale[0] limits = %q..%q, want 0..100", s0.LowerLimit, s0.UpperLimit)
	}
	if len(s0.Numerators) != 2 || s0.Numerators[0] != -40 || s0.Numerators[1] != 0.5 {
		t.Errorf("scale[0] numerators = %v, want [-40 0.5]", s0.Numerators)
	}
	if len(s0.Denominators) != 1 || s0.Denominators[0] != 1 {
		t.Errorf("scale[0] denominators = %v, want [1]", s0.Denominators)
	}

	s1 := cm.Scales[1]
	if s1.ConstValue != "255" || s1.ConstText != "invalid" {
		t.Errorf("scale[1] const = %q/%q, want 255/invalid", s1.ConstValue, s1.ConstText)
	}

	if cm.Scales[2].LowerLimit != "201" {
		t.Errorf("scale[2] lower = %q, want 201", cm.Scales[2].LowerLimit)
	}
}

func TestParseCompuMethodNoScales(t *testing.T) {
	root := mustParse(t, `<COMPU-METHOD ID="CM.2"><SHORT-NAME>Ident</SHORT-NAME><CATEGORY>IDENTICAL</CATEGORY></COMPU-METHOD>`)

	cm := parseCompuMethod(root)
	if len(cm.Scales) != 0 {
		t.Errorf("len(Scales) = %d, want 0", len(cm.Scales))
	}
}

func TestParseDOP(t *testing.T) {
	root := mustParse(t, `
<DATA-OBJECT-PROP ID="DOP.temp">
  <SHORT-NAME>CoolantTemp</SHORT-NAME>
  <DESC>Engine coolant temperature</DESC>
  <DIAG-CODED-TYPE BASE-DATA-TYPE="A_UINT32">
    <BIT-LENGTH>8</BIT-LENGTH>
  </DIAG-CODED-TYPE>
  <PHYSICAL-TYPE BASE-DATA-TYPE="A_FLOAT64"/>
  <COMPU-METHOD>
    <CATEGORY>LINEAR</CATEGORY>
    <COMPU-INTERNAL-TO-PHYS>
      <COMPU-SCALES>
        <COMPU-SCALE>
          <COMPU-RATIONAL-COEFFS>
            <COMPU-NUMERATOR><V>-40</V><V>1</V></COMPU-NUMERATOR>
            <COMPU-DENOMINATOR><V>1</V></COMPU-DENOMINATOR>
          </COMPU-RATIONAL-COEFFS>
        </COMPU-SCALE>
      </COMPU-SCALES>
    </COMPU-INTERNAL-TO-PHYS>
  </COMPU-METHOD>
  <UNIT-REF ID-REF="U.degC"/>
</DATA-OBJECT-PROP>`)

	dop := parseDOP(root)
	if dop.CodedBaseType != "A_UINT32" || dop.BitLength != 8 {
		t.Errorf("coded type = %q/%d, want A_UINT32/8", dop.CodedBaseType, dop.BitLength)
	}
	if dop.PhysicalBaseType != "A_FLOAT64" {
		t.Errorf("PhysicalBaseType = %q, want A_FLOAT64", dop.PhysicalBaseType)
	}
	if dop.UnitRef != "U.degC" {
		t.Errorf("UnitRef = %q, want U.degC", dop.UnitRef)
	}
	if dop.CompuCategory != "LINEAR" || len(dop.CompuScales) != 1 {
		t.Errorf("compu = %q with %d scales, want LINEAR with 1", dop.CompuCategory, len(dop.CompuScales))
	}
	if dop.Description != "Engine coolant temperature" {
		t.Errorf("Description = %q", dop.Description)
	}
}

func TestParseDTC(t *testing.T) {
	root := mustParse(t, `
<DTC ID="DTC.1">
  <SHORT-NAME>P0123</SHORT-NAME>
  <TROUBLE-CODE>291</TROUBLE-CODE>
  <DISPLAY-TROUBLE-CODE>P0123</DISPLAY-TROUBLE-CODE>
  <TEXT>Throttle position sensor high input</TEXT>
  <LEVEL>2</LEVEL>
</DTC>`)

	tc := parseDTC(root)
	if tc.Code != "291" || tc.DisplayCode != "P0123" || tc.Level != "2" {
		t.Errorf("parseDTC() = %+v", tc)
	}
	if tc.Description != "Throttle position sensor high input" {
		t.Errorf("Description = %q", tc.Description)
	}
}
