package ot

import (
	"fmt"
	"sync"
)

func parseConcreteLookupListGraph(lookupList binarySegm, isGPos bool) *LookupListGraph {
	lookupArray, err := parseArray16(lookupList, 0, "LookupList", "Lookup")
	lg := &LookupListGraph{
		isGPos: isGPos,
		raw:    lookupList,
		err:    err,
	}
	if err != nil {
		return lg
	}
	lg.lookupOffsets = make([]uint16, lookupArray.Len())
	lg.lookupTables = make([]*LookupTable, lookupArray.Len())
	lg.lookupOnce = make([]sync.Once, lookupArray.Len())
	for i := 0; i < lookupArray.Len(); i++ {
		off := lookupArray.Get(i).U16(0)
		lg.lookupOffsets[i] = off
		if off == 0 || int(off) >= len(lookupList) {
			if lg.err == nil {
				lg.err = fmt.Errorf("lookup record %d has invalid offset %d (size %d)", i, off, len(lookupList))
			}
			continue
		}
		if verr := validateConcreteLookupTable(lookupList[off:]); verr != nil && lg.err == nil {
			lg.err = verr
		}
	}
	return lg
}

func validateConcreteLookupTable(b binarySegm) error {
	if len(b) < 6 {
		return errBufferBounds
	}
	_, err := parseArray16(b, 4, "Lookup", "Lookup-Subtables")
	return err
}

func parseConcreteLookupTable(b binarySegm, isGPos bool) *LookupTable {
	lt := &LookupTable{raw: b}
	if len(b) < 6 {
		lt.err = errBufferBounds
		return lt
	}
	lt.isGPos = isGPos
	lookupType := LayoutTableLookupType(b.U16(0))
	if isGPos {
		lt.Type = MaskGPosLookupType(lookupType)
	} else {
		lt.Type = lookupType
	}
	lt.Flag = LayoutTableLookupFlag(b.U16(2))
	lt.SubTableCount = b.U16(4)
	subtables, err := parseArray16(b, 4, "Lookup", "Lookup-Subtables")
	if err != nil {
		lt.err = err
		return lt
	}
	lt.subtableOffsets = make([]uint16, subtables.Len())
	lt.subtables = make([]*LookupNode, subtables.Len())
	lt.subtableOnce = make([]sync.Once, subtables.Len())
	for i := 0; i < subtables.Len(); i++ {
		off := subtables.Get(i).U16(0)
		lt.subtableOffsets[i] = off
		if off == 0 || int(off) >= len(b) {
			if lt.err == nil {
				lt.err = fmt.Errorf("lookup subtable record %d has invalid offset %d (size %d)", i, off, len(b))
			}
		}
	}
	if lt.Flag&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 && len(b) >= 6+subtables.Size()+2 {
		lt.markFilteringSet = b.U16(6 + subtables.Size())
	}
	return lt
}

func parseConcreteLookupNode(b binarySegm, lookupType LayoutTableLookupType) *LookupNode {
	return parseConcreteLookupNodeWithDepth(b, lookupType, 0)
}

// parseConcreteLookupNodeWithDepth decodes a single lookup subtable into its
// typed GPOS or GSUB payload. Extension subtables (GPOS type 9, GSUB type 7)
// recurse through this same entry point with an incremented depth, bounded
// by MaxExtensionDepth.
func parseConcreteLookupNodeWithDepth(b binarySegm, lookupType LayoutTableLookupType, depth int) *LookupNode {
	node := &LookupNode{
		LookupType: lookupType,
		raw:        b,
	}
	if len(b) < 4 {
		node.err = errBufferBounds
		return node
	}
	node.Format = b.U16(0)
	if IsGPosLookupType(lookupType) {
		node.GPos = newGPosLookupPayload(GPosLookupType(lookupType), node.Format)
		parseConcreteGPosPayload(node, depth)
	} else {
		node.GSub = newGSubLookupPayload(lookupType, node.Format)
		parseConcreteGSubPayload(node, depth)
	}
	return node
}

// newGPosLookupPayload allocates the single payload variant matching a
// GPOS lookup type and subtable format, leaving all other fields nil.
func newGPosLookupPayload(gposType LayoutTableLookupType, format uint16) *GPosLookupPayload {
	p := &GPosLookupPayload{}
	switch gposType {
	case GPosLookupTypeSingle:
		if format == 1 {
			p.SingleFmt1 = &GPosSingleFmt1Payload{}
		} else {
			p.SingleFmt2 = &GPosSingleFmt2Payload{}
		}
	case GPosLookupTypePair:
		if format == 1 {
			p.PairFmt1 = &GPosPairFmt1Payload{}
		} else {
			p.PairFmt2 = &GPosPairFmt2Payload{}
		}
	case GPosLookupTypeCursive:
		p.CursiveFmt1 = &GPosCursiveFmt1Payload{}
	case GPosLookupTypeMarkToBase:
		p.MarkToBaseFmt1 = &GPosMarkToBaseFmt1Payload{}
	case GPosLookupTypeMarkToLigature:
		p.MarkToLigatureFmt1 = &GPosMarkToLigatureFmt1Payload{}
	case GPosLookupTypeMarkToMark:
		p.MarkToMarkFmt1 = &GPosMarkToMarkFmt1Payload{}
	case GPosLookupTypeContextPos:
		switch format {
		case 1:
			p.ContextFmt1 = &GPosContextFmt1Payload{}
		case 2:
			p.ContextFmt2 = &GPosContextFmt2Payload{}
		case 3:
			p.ContextFmt3 = &GPosContextFmt3Payload{}
		}
	case GPosLookupTypeChainedContextPos:
		switch format {
		case 1:
			p.ChainingContextFmt1 = &GPosChainingContextFmt1Payload{}
		case 2:
			p.ChainingContextFmt2 = &GPosChainingContextFmt2Payload{}
		case 3:
			p.ChainingContextFmt3 = &GPosChainingContextFmt3Payload{}
		}
	case GPosLookupTypeExtensionPos:
		p.ExtensionFmt1 = &GPosExtensionFmt1Payload{}
	}
	return p
}

// newGSubLookupPayload allocates the single payload variant matching a
// GSUB lookup type and subtable format, leaving all other fields nil.
func newGSubLookupPayload(gsubType LayoutTableLookupType, format uint16) *GSubLookupPayload {
	p := &GSubLookupPayload{}
	switch gsubType {
	case GSubLookupTypeSingle:
		if format == 1 {
			p.SingleFmt1 = &GSubSingleFmt1Payload{}
		} else {
			p.SingleFmt2 = &GSubSingleFmt2Payload{}
		}
	case GSubLookupTypeMultiple:
		p.MultipleFmt1 = &GSubMultipleFmt1Payload{}
	case GSubLookupTypeAlternate:
		p.AlternateFmt1 = &GSubAlternateFmt1Payload{}
	case GSubLookupTypeLigature:
		p.LigatureFmt1 = &GSubLigatureFmt1Payload{}
	case GSubLookupTypeContext:
		switch format {
		case 1:
			p.ContextFmt1 = &GSubContextFmt1Payload{}
		case 2:
			p.ContextFmt2 = &GSubContextFmt2Payload{}
		case 3:
			p.ContextFmt3 = &GSubContextFmt3Payload{}
		}
	case GSubLookupTypeChainingContext:
		switch format {
		case 1:
			p.ChainingContextFmt1 = &GSubChainingContextFmt1Payload{}
		case 2:
			p.ChainingContextFmt2 = &GSubChainingContextFmt2Payload{}
		case 3:
			p.ChainingContextFmt3 = &GSubChainingContextFmt3Payload{}
		}
	case GSubLookupTypeExtensionSubs:
		p.ExtensionFmt1 = &GSubExtensionFmt1Payload{}
	case GSubLookupTypeReverseChaining:
		p.ReverseChainingFmt1 = &GSubReverseChainingFmt1Payload{}
	}
	return p
}
