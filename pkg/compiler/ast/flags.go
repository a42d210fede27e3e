package ast

import (
	"strconv"
	"strings"
)

// PatchFlags tell the runtime which parts of a vnode can change between
// renders. Values are fixed by the vue runtime.
type PatchFlags int

const (
	FlagText            PatchFlags = 1
	FlagClass           PatchFlags = 1 << 1
	FlagStyle           PatchFlags = 1 << 2
	FlagProps           PatchFlags = 1 << 3
	FlagFullProps       PatchFlags = 1 << 4
	FlagNeedHydration   PatchFlags = 1 << 5
	FlagStableFragment  PatchFlags = 1 << 6
	FlagKeyedFragment   PatchFlags = 1 << 7
	FlagUnkeyedFragment PatchFlags = 1 << 8
	FlagNeedPatch       PatchFlags = 1 << 9
	FlagDynamicSlots    PatchFlags = 1 << 10
	FlagDevRootFragment PatchFlags = 1 << 11

	FlagHoisted PatchFlags = -1
	FlagBail    PatchFlags = -2
)

var flagNames = []struct {
	flag PatchFlags
	name string
}{
	{FlagText, "TEXT"},
	{FlagClass, "CLASS"},
	{FlagStyle, "STYLE"},
	{FlagProps, "PROPS"},
	{FlagFullProps, "FULL_PROPS"},
	{FlagNeedHydration, "NEED_HYDRATION"},
	{FlagStableFragment, "STABLE_FRAGMENT"},
	{FlagKeyedFragment, "KEYED_FRAGMENT"},
	{FlagUnkeyedFragment, "UNKEYED_FRAGMENT"},
	{FlagNeedPatch, "NEED_PATCH"},
	{FlagDynamicSlots, "DYNAMIC_SLOTS"},
	{FlagDevRootFragment, "DEV_ROOT_FRAGMENT"},
}

// Has reports whether every bit of f is set.
func (p PatchFlags) Has(f PatchFlags) bool {
	return p > 0 && p&f == f
}

// String lists the set flags, e.g. "CLASS, PROPS".
func (p PatchFlags) String() string {
	switch p {
	case 0:
		return ""
	case FlagHoisted:
		return "HOISTED"
	case FlagBail:
		return "BAIL"
	}
	var names []string
	for _, fn := range flagNames {
		if p&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ", ")
}

// Code is the decimal literal printed into generated code.
func (p PatchFlags) Code() string {
	return strconv.Itoa(int(p))
}

// SlotFlags is the value of the "_" key of a compiled slots object.
type SlotFlags int

const (
	SlotStable    SlotFlags = 1
	SlotDynamic   SlotFlags = 2
	SlotForwarded SlotFlags = 3
)
