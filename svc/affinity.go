package svc

import (
	nxerrors "nx-horizon-rt/errors"
)

// NumCores is the number of CPU cores Horizon schedules threads across.
const NumCores = 4

// CoreMask is a bitset over cores 0..NumCores-1.
type CoreMask uint32

// Empty reports whether no core is set.
func (m CoreMask) Empty() bool { return m == 0 }

// Has reports whether core is set in the mask.
func (m CoreMask) Has(core int) bool {
	return core >= 0 && core < NumCores && m&(1<<uint(core)) != 0
}

// CoreAffinity is the tagged variant translated into the (core_id, mask)
// pair SetThreadCoreMask expects.
type CoreAffinity struct {
	kind affinityKind
	core int
	mask CoreMask
}

type affinityKind int

const (
	affinitySpecific affinityKind = iota
	affinityAny
	affinityProcessDefault
	affinityNoUpdate
)

// Specific pins a thread to exactly one core, which must belong to mask.
func Specific(core int, mask CoreMask) (CoreAffinity, error) {
	if core < 0 || core >= NumCores {
		return CoreAffinity{}, nxerrors.New(nxerrors.ErrArgument, "svc.CoreAffinity.Specific", "InvalidCoreId")
	}
	if !mask.Has(core) {
		return CoreAffinity{}, nxerrors.New(nxerrors.ErrArgument, "svc.CoreAffinity.Specific", "InvalidCombination")
	}
	return CoreAffinity{kind: affinitySpecific, core: core, mask: mask}, nil
}

// Any lets the scheduler pick among any core set in mask, which must be
// non-empty.
func Any(mask CoreMask) (CoreAffinity, error) {
	if mask.Empty() {
		return CoreAffinity{}, nxerrors.New(nxerrors.ErrArgument, "svc.CoreAffinity.Any", "InvalidCombination")
	}
	return CoreAffinity{kind: affinityAny, mask: mask}, nil
}

// ProcessDefault restores the process's default affinity.
func ProcessDefault() CoreAffinity {
	return CoreAffinity{kind: affinityProcessDefault}
}

// NoUpdate keeps the current core but updates the allowed mask, which must
// be non-empty.
func NoUpdate(mask CoreMask) (CoreAffinity, error) {
	if mask.Empty() {
		return CoreAffinity{}, nxerrors.New(nxerrors.ErrArgument, "svc.CoreAffinity.NoUpdate", "InvalidCombination")
	}
	return CoreAffinity{kind: affinityNoUpdate, mask: mask}, nil
}

// ToCoreIDAndMask translates the tagged variant into the raw
// (core_id, mask) pair SetThreadCoreMask passes to the kernel:
// Specific -> (core, mask), Any -> (-1, mask), ProcessDefault -> (-2, 0),
// NoUpdate -> (-3, mask).
func (a CoreAffinity) ToCoreIDAndMask() (int32, uint32) {
	switch a.kind {
	case affinitySpecific:
		return int32(a.core), uint32(a.mask)
	case affinityAny:
		return -1, uint32(a.mask)
	case affinityProcessDefault:
		return -2, 0
	case affinityNoUpdate:
		return -3, uint32(a.mask)
	default:
		return -2, 0
	}
}
