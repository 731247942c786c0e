// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

// ItemInfo is one infe entry inside iinf: the item's id, protection
// index, type, and name. Only infe version 2 is accepted.
type ItemInfo struct {
	ID              uint32
	ProtectionIndex uint16
	ItemType        FourCC
	ItemName        string
}

// Extent is one physical byte range belonging to an item.
type Extent struct {
	Index  uint64
	Offset uint64
	Length uint64
}

// ItemLocation is one iloc entry: where an item's bytes live, possibly
// scattered across several extents.
type ItemLocation struct {
	ID                  uint32
	ConstructionMethod  uint8
	DataReferenceIndex  uint16
	BaseOffset          uint64
	Extents             []Extent
}

// Property is the tagged union ipco entries decode to.
type Property interface {
	isProperty()
}

// Size is the ispe property: the item's pixel dimensions.
type Size struct {
	Width  uint32
	Height uint32
}

func (Size) isProperty() {}

// UnknownProperty preserves the tag of a property type this reader
// does not interpret, so callers can still see it was present.
type UnknownProperty struct {
	Tag FourCC
}

func (UnknownProperty) isProperty() {}

// HvcNaluArray is one parameter-set array inside an hvcC record.
type HvcNaluArray struct {
	ArrayCompleteness bool
	NALUnitType       uint8
	NALUs             [][]byte
}

// HvcConfig is the hvcC property: the HEVC decoder configuration
// record, decoded bit-exact per the 22-byte fixed header.
type HvcConfig struct {
	ConfigurationVersion             uint8
	GeneralProfileSpace              uint8
	GeneralTierFlag                  bool
	GeneralProfileIDC                uint8
	GeneralProfileCompatibilityFlags uint32
	GeneralConstraintIndicatorFlags  uint64 // low 48 bits significant
	GeneralLevelIDC                  uint8
	MinSpatialSegmentationIDC        uint16
	ParallelismType                  uint8
	ChromaFormat                     uint8
	BitDepthLumaMinus8               uint8
	BitDepthChromaMinus8             uint8
	AvgFrameRate                     uint16
	ConstantFrameRate                uint8
	NumTemporalLayers                uint8
	TemporalIDNested                 bool
	LengthSizeMinusOne               uint8
	NaluArrays                       []HvcNaluArray
}

func (HvcConfig) isProperty() {}

// ItemPropertyAssociation is one ipma entry: an item id and its
// ordered list of property associations.
type ItemPropertyAssociation struct {
	ItemID       uint32
	Associations []Association
}

// Association is a single (essential, property index) pair inside an
// ipma entry. PropertyIndex is 1-based into the ipco container.
type Association struct {
	Essential     bool
	PropertyIndex uint16
}

// RawMeta collects everything the meta box tree yields, before the
// association resolver joins it into a Heif model.
type RawMeta struct {
	Handler     FourCC
	PrimaryItem uint32
	Locations   []ItemLocation
	Infos       []ItemInfo
	Properties  []Property
	Associations []ItemPropertyAssociation
}
