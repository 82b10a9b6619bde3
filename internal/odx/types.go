package odx

// Diagnostic layer kinds, matching the five container collections.
const (
	LayerProtocol        = "PROTOCOL"
	LayerFunctionalGroup = "FUNCTIONAL-GROUP"
	LayerBaseVariant     = "BASE-VARIANT"
	LayerEcuVariant      = "ECU-VARIANT"
	LayerEcuSharedData   = "ECU-SHARED-DATA"
)

// Message kinds a parameter can belong to. Parameters reached through
// structure expansion carry KindStructure regardless of the message that
// started the expansion.
const (
	KindRequest     = "REQUEST"
	KindPosResponse = "POS-RESPONSE"
	KindNegResponse = "NEG-RESPONSE"
	KindStructure   = "STRUCTURE"
)

// Unit is a physical unit definition with its SI conversion.
type Unit struct {
	// ID is the declared identifier.
	ID string `json:"id"`

	// ShortName is the unit's short name.
	ShortName string `json:"shortName"`

	// LongName is the unit's long name, if declared.
	LongName string `json:"longName,omitempty"`

	// DisplayName is the human-facing unit symbol.
	DisplayName string `json:"displayName,omitempty"`

	// FactorSIToUnit converts SI values to this unit.
	FactorSIToUnit float64 `json:"factorSiToUnit,omitempty"`

	// OffsetSIToUnit is the additive part of the SI conversion.
	OffsetSIToUnit float64 `json:"offsetSiToUnit,omitempty"`

	// DimensionRef references the physical dimension, if any.
	DimensionRef string `json:"dimensionRef,omitempty"`

	// LayerName is the owning layer's short name, set when the unit is
	// flattened into a Database.
	LayerName string `json:"layerName,omitempty"`

	// Attributes carries the raw source attributes.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// CompuScale is one entry of a compu-method's internal-to-physical
// conversion table.
type CompuScale struct {
	// LowerLimit and UpperLimit bound the interval this scale applies
	// to, kept as declared text.
	LowerLimit string `json:"lowerLimit,omitempty"`
	UpperLimit string `json:"upperLimit,omitempty"`

	// ConstValue is the typed constant (V), if declared.
	ConstValue string `json:"constValue,omitempty"`

	// ConstText is the textual constant (VT), if declared.
	ConstText string `json:"constText,omitempty"`

	// Numerators and Denominators are the rational coefficient lists for
	// linear/rational conversion, in declared order.
	Numerators   []float64 `json:"numerators,omitempty"`
	Denominators []float64 `json:"denominators,omitempty"`
}

// CompuMethod is the scale-based conversion model between a coded value
// and its physical representation.
type CompuMethod struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName,omitempty"`

	// Category is the conversion category (IDENTICAL, LINEAR,
	// TEXTTABLE, ...), as declared.
	Category string `json:"category,omitempty"`

	// Scales is the ordered scale list; empty when the method declares
	// no internal-to-physical section.
	Scales []CompuScale `json:"scales,omitempty"`

	LayerName  string            `json:"layerName,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DataObjectProp describes how raw bits map to a physical value.
type DataObjectProp struct {
	ID          string `json:"id"`
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName,omitempty"`
	Description string `json:"description,omitempty"`

	// CodedBaseType is the coded (wire) base data type.
	CodedBaseType string `json:"codedBaseType,omitempty"`

	// PhysicalBaseType is the physical base data type.
	PhysicalBaseType string `json:"physicalBaseType,omitempty"`

	// BitLength is the coded bit length, 0 when unspecified.
	BitLength int `json:"bitLength,omitempty"`

	// MinLength and MaxLength bound variable-length encodings.
	MinLength int `json:"minLength,omitempty"`
	MaxLength int `json:"maxLength,omitempty"`

	// UnitRef references the unit used for physical values.
	UnitRef string `json:"unitRef,omitempty"`

	// CompuCategory is the category of the inline compu-method, if one
	// is declared.
	CompuCategory string `json:"compuCategory,omitempty"`

	// CompuScales are the inline compu-method's scales.
	CompuScales []CompuScale `json:"compuScales,omitempty"`

	LayerName  string            `json:"layerName,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// TroubleCode is one diagnostic trouble code (DTC) entry.
type TroubleCode struct {
	ID          string `json:"id"`
	ShortName   string `json:"shortName"`
	Description string `json:"description,omitempty"`

	// Code is the numeric trouble code as declared.
	Code string `json:"code,omitempty"`

	// DisplayCode is the human-facing form (e.g. P0123).
	DisplayCode string `json:"displayCode,omitempty"`

	// Level is the severity level as declared.
	Level string `json:"level,omitempty"`

	LayerName  string            `json:"layerName,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Param is one resolved parameter, possibly with children produced by
// structure expansion.
type Param struct {
	// ID is the deterministic path-composed identifier: layer short
	// name, service short name, message kind, parent name, positional
	// index, and the parameter's own short name, joined with "::".
	ID string `json:"id"`

	ShortName   string `json:"shortName"`
	LongName    string `json:"longName,omitempty"`
	Description string `json:"description,omitempty"`

	// Semantic is the declared semantic tag (SID, DATA-ID, ...).
	Semantic string `json:"semantic,omitempty"`

	// BytePosition and BitPosition locate the parameter in the message.
	// -1 means undeclared.
	BytePosition int `json:"bytePosition"`
	BitPosition  int `json:"bitPosition"`

	// Coded-type facts, backfilled from the resolved data-object
	// property when the parameter itself omits them.
	BitLength        int    `json:"bitLength,omitempty"`
	MinLength        int    `json:"minLength,omitempty"`
	MaxLength        int    `json:"maxLength,omitempty"`
	CodedBaseType    string `json:"codedBaseType,omitempty"`
	PhysicalBaseType string `json:"physicalBaseType,omitempty"`

	// ByteOrder is the byte order tag; all known source documents use
	// Intel ordering when unspecified.
	ByteOrder string `json:"byteOrder,omitempty"`

	// CodedValue is the literal coded value for constant parameters.
	CodedValue string `json:"codedValue,omitempty"`

	// PhysConstValue is the physical constant value, if declared.
	PhysConstValue string `json:"physConstValue,omitempty"`

	// DopRef and DopSNRef record how the data-object-property was
	// referenced; DopID is the identifier it actually resolved to.
	DopRef   string `json:"dopRef,omitempty"`
	DopSNRef string `json:"dopSnRef,omitempty"`
	DopID    string `json:"dopId,omitempty"`

	// UnitRef and CompuCategory are copied from the resolved
	// data-object-property.
	UnitRef       string       `json:"unitRef,omitempty"`
	CompuCategory string       `json:"compuCategory,omitempty"`
	CompuScales   []CompuScale `json:"compuScales,omitempty"`

	// Structural context.
	MessageKind string `json:"messageKind"`
	ParentName  string `json:"parentName,omitempty"`
	Index       int    `json:"index"`
	LayerName   string `json:"layerName,omitempty"`
	ServiceName string `json:"serviceName,omitempty"`

	// CycleDetected marks a parameter whose structure expansion was
	// truncated because the structure was already on the expansion path.
	CycleDetected bool `json:"cycleDetected,omitempty"`

	// Children are the structure-expansion children, in declared order.
	Children []*Param `json:"children,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

// Message is a request or response definition with its ordered parameters.
type Message struct {
	ID        string   `json:"id"`
	ShortName string   `json:"shortName"`
	LongName  string   `json:"longName,omitempty"`
	Params    []*Param `json:"params,omitempty"`
}

// Service is one diagnostic operation linking a request to its responses.
type Service struct {
	ID          string `json:"id"`
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName,omitempty"`
	Description string `json:"description,omitempty"`

	// Semantic and Addressing are the declared service tags.
	Semantic   string `json:"semantic,omitempty"`
	Addressing string `json:"addressing,omitempty"`

	// DID is the request data identifier in hex form, when the request
	// parameters carry one. SID is the numeric service identifier.
	DID string `json:"did,omitempty"`
	SID int64  `json:"sid,omitempty"`

	Request      *Message   `json:"request,omitempty"`
	PosResponses []*Message `json:"posResponses,omitempty"`
	NegResponses []*Message `json:"negResponses,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

// TableRow is one keyed row of a Table, with its referenced structure
// expanded into parameters.
type TableRow struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName,omitempty"`

	// Key is the row's key value.
	Key string `json:"key,omitempty"`

	// StructureRef is the referenced structure's identifier.
	StructureRef string `json:"structureRef,omitempty"`

	// Params are the referenced structure's expanded parameters.
	Params []*Param `json:"params,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

// Table is a keyed variant mechanism over structures.
type Table struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName,omitempty"`

	// KeyDopRef references the data-object-property of the key column.
	KeyDopRef string `json:"keyDopRef,omitempty"`

	Rows []TableRow `json:"rows,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

// LayerLink is one parent/link reference from a layer to another layer
// whose services it inherits.
type LayerLink struct {
	// Ref is the linked layer's identifier.
	Ref string `json:"ref"`

	// NotInheritedSN and NotInheritedID name services excluded from
	// inheritance, by short name and by identifier.
	NotInheritedSN []string `json:"notInheritedSn,omitempty"`
	NotInheritedID []string `json:"notInheritedId,omitempty"`
}

// Layer is one diagnostic description unit of any of the five kinds.
type Layer struct {
	// Kind is one of the Layer* constants; an explicit LAYER-TYPE
	// attribute in the source overrides the tag-derived kind.
	Kind string `json:"kind"`

	ID          string `json:"id"`
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName,omitempty"`
	Description string `json:"description,omitempty"`

	// ParentRef references the parent layer, if declared.
	ParentRef string `json:"parentRef,omitempty"`

	// ReceiveID and TransmitID are the communication channel
	// identifiers, kept as declared.
	ReceiveID  string `json:"receiveId,omitempty"`
	TransmitID string `json:"transmitId,omitempty"`

	Services []*Service `json:"services,omitempty"`

	// Links are the layer's inheritance references, resolved after the
	// merge completes.
	Links []LayerLink `json:"links,omitempty"`

	Units           []Unit           `json:"units,omitempty"`
	CompuMethods    []CompuMethod    `json:"compuMethods,omitempty"`
	DataObjectProps []DataObjectProp `json:"dataObjectProps,omitempty"`
	TroubleCodes    []TroubleCode    `json:"troubleCodes,omitempty"`
	Tables          []Table          `json:"tables,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

// Container holds the five layer-kind collections produced from one
// document.
type Container struct {
	Protocols        []*Layer `json:"protocols,omitempty"`
	FunctionalGroups []*Layer `json:"functionalGroups,omitempty"`
	BaseVariants     []*Layer `json:"baseVariants,omitempty"`
	EcuVariants      []*Layer `json:"ecuVariants,omitempty"`
	EcuSharedData    []*Layer `json:"ecuSharedData,omitempty"`
}

// Layers returns all layers of the container in the fixed kind order.
func (c *Container) Layers() []*Layer {
	out := make([]*Layer, 0,
		len(c.Protocols)+len(c.FunctionalGroups)+len(c.BaseVariants)+
			len(c.EcuVariants)+len(c.EcuSharedData))
	out = append(out, c.Protocols...)
	out = append(out, c.FunctionalGroups...)
	out = append(out, c.BaseVariants...)
	out = append(out, c.EcuVariants...)
	out = append(out, c.EcuSharedData...)
	return out
}

// Database is the merged result of a processing batch: the five layer
// collections concatenated across inputs plus flattened global
// collections, each entry tagged with its owning layer's short name.
// Nothing mutates a Database after its batch completes.
type Database struct {
	Protocols        []*Layer `json:"protocols,omitempty"`
	FunctionalGroups []*Layer `json:"functionalGroups,omitempty"`
	BaseVariants     []*Layer `json:"baseVariants,omitempty"`
	EcuVariants      []*Layer `json:"ecuVariants,omitempty"`
	EcuSharedData    []*Layer `json:"ecuSharedData,omitempty"`

	Params          []*Param         `json:"params,omitempty"`
	Units           []Unit           `json:"units,omitempty"`
	CompuMethods    []CompuMethod    `json:"compuMethods,omitempty"`
	DataObjectProps []DataObjectProp `json:"dataObjectProps,omitempty"`
	TroubleCodes    []TroubleCode    `json:"troubleCodes,omitempty"`
}

// Layers returns every layer in the database in the fixed kind order.
func (db *Database) Layers() []*Layer {
	out := make([]*Layer, 0,
		len(db.Protocols)+len(db.FunctionalGroups)+len(db.BaseVariants)+
			len(db.EcuVariants)+len(db.EcuSharedData))
	out = append(out, db.Protocols...)
	out = append(out, db.FunctionalGroups...)
	out = append(out, db.BaseVariants...)
	out = append(out, db.EcuVariants...)
	out = append(out, db.EcuSharedData...)
	return out
}
