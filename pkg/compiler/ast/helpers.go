package ast

import "sort"

// Helper names a runtime export of "vue" used by generated code. Generated
// code refers to it as "_" + name.
type Helper string

const (
	HelperFragment                Helper = "Fragment"
	HelperTeleport                Helper = "Teleport"
	HelperSuspense                Helper = "Suspense"
	HelperKeepAlive               Helper = "KeepAlive"
	HelperTransition              Helper = "Transition"
	HelperTransitionGroup         Helper = "TransitionGroup"
	HelperOpenBlock               Helper = "openBlock"
	HelperCreateBlock             Helper = "createBlock"
	HelperCreateElementBlock      Helper = "createElementBlock"
	HelperCreateVNode             Helper = "createVNode"
	HelperCreateElementVNode      Helper = "createElementVNode"
	HelperCreateComment           Helper = "createCommentVNode"
	HelperCreateText              Helper = "createTextVNode"
	HelperCreateStatic            Helper = "createStaticVNode"
	HelperResolveComponent        Helper = "resolveComponent"
	HelperResolveDynamicComponent Helper = "resolveDynamicComponent"
	HelperResolveDirective        Helper = "resolveDirective"
	HelperWithDirectives          Helper = "withDirectives"
	HelperRenderList              Helper = "renderList"
	HelperRenderSlot              Helper = "renderSlot"
	HelperCreateSlots             Helper = "createSlots"
	HelperToDisplayString         Helper = "toDisplayString"
	HelperMergeProps              Helper = "mergeProps"
	HelperNormalizeClass          Helper = "normalizeClass"
	HelperNormalizeStyle          Helper = "normalizeStyle"
	HelperNormalizeProps          Helper = "normalizeProps"
	HelperGuardReactiveProps      Helper = "guardReactiveProps"
	HelperToHandlers              Helper = "toHandlers"
	HelperCamelize                Helper = "camelize"
	HelperCapitalize              Helper = "capitalize"
	HelperToHandlerKey            Helper = "toHandlerKey"
	HelperSetBlockTracking        Helper = "setBlockTracking"
	HelperWithCtx                 Helper = "withCtx"
	HelperUnref                   Helper = "unref"
	HelperIsRef                   Helper = "isRef"
	HelperWithMemo                Helper = "withMemo"
	HelperWithModifiers           Helper = "withModifiers"
	HelperWithKeys                Helper = "withKeys"
	HelperVShow                   Helper = "vShow"
	HelperVModelText              Helper = "vModelText"
	HelperVModelCheckbox          Helper = "vModelCheckbox"
	HelperVModelRadio             Helper = "vModelRadio"
	HelperVModelSelect            Helper = "vModelSelect"
	HelperVModelDynamic           Helper = "vModelDynamic"
	HelperMergeDefaults           Helper = "mergeDefaults"
)

// Local is the name the helper is imported as.
func (h Helper) Local() string {
	return "_" + string(h)
}

// HelperSet records which helpers a compile used.
type HelperSet struct {
	seen map[Helper]struct{}
}

// NewHelperSet returns an empty set.
func NewHelperSet() *HelperSet {
	return &HelperSet{seen: make(map[Helper]struct{})}
}

// Add marks h as used and returns it.
func (s *HelperSet) Add(h Helper) Helper {
	s.seen[h] = struct{}{}
	return h
}

// Has reports whether h was used.
func (s *HelperSet) Has(h Helper) bool {
	_, ok := s.seen[h]
	return ok
}

// Remove unmarks h.
func (s *HelperSet) Remove(h Helper) {
	delete(s.seen, h)
}

// Len returns the number of used helpers.
func (s *HelperSet) Len() int {
	return len(s.seen)
}

// Sorted returns the used helpers in the order they are imported.
func (s *HelperSet) Sorted() []Helper {
	out := make([]Helper, 0, len(s.seen))
	for h := range s.seen {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
