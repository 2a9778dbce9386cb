package boxes

import (
	"fmt"

	"github.com/fluxweb/boxtree/logger"
	"github.com/fluxweb/boxtree/tree"
)

// repairBlockLevel repairs the job's existing box in place, dispatching on
// its flavor. The box keeps its identity: the node's box slot still points
// at it afterwards.
func repairBlockLevel(ctx *LayoutContext, job *blockLevelJob) {
	info := job.info
	switch box := job.box.(type) {
	case *BlockBox:
		if inside := job.display.Inside; inside != tree.InsideFlow && inside != tree.InsideFlowRoot {
			panic(fmt.Sprintf("repairing a same-context block with display-inside %v", inside))
		}
		box.ContainsFloats = box.Contents.repair(ctx, info, job.nonReplacedContents(),
			job.propagated.union(info.Style), job.display.ListItem)
		box.repairStyle(info)
		// incremental caching of layout results is not wired up yet for
		// same-context blocks: invalidate the box's own caches too
		invalidateAllCaches(box)
	case *IndependentBox:
		box.IndependentFormattingContext.repair(ctx, info, job.contents, job.propagated)
	case *AbsoluteBox:
		// absolutely positioned boxes escape flow: propagated data resets
		box.Context.repair(ctx, info, job.contents, PropagatedData{})
	case *FloatBox:
		// floats stay in the propagation chain, unlike abspos
		box.Contents.repair(ctx, info, job.contents, job.propagated)
	case *OutsideMarkerBox:
		// a marker's content is never itself a nested list item
		box.BlockFormattingContext.Repair(ctx, info, job.nonReplacedContents(), job.propagated, false)
		box.ListItemStyle = listItemStyle(info)
		box.repairStyle(info)
		invalidateAllCaches(box)
	default:
		panic("exhaustive switch")
	}
}

// repair revalidates an independent formatting context in place.
func (f *IndependentFormattingContext) repair(ctx *LayoutContext, info *tree.NodeAndStyleInfo,
	contents tree.Contents, propagated PropagatedData,
) {
	f.repairStyle(info)
	f.InvalidateCache()
	switch {
	case f.Replaced != nil:
		replaced, ok := contents.(tree.ReplacedContents)
		if !ok {
			panic(fmt.Sprintf("non-replaced contents cannot repair a replaced box (%s)", info))
		}
		f.Replaced = replaced.Content
	case f.Flow != nil:
		nonReplaced, ok := contents.(tree.NonReplacedContents)
		if !ok {
			panic(fmt.Sprintf("replaced contents cannot repair a flow-root box (%s)", info))
		}
		f.Flow.Repair(ctx, info, nonReplaced, propagated, info.Style.Display.ListItem)
	case f.Table != nil:
		// table boxes do not track enough state for in-place repair yet:
		// rebuild the grid wholesale
		logger.WarningLogger.Warn("table repair is not incremental, rebuilding", "element", info)
		*f = *constructIndependent(ctx, info, tree.InsideTable, contents, propagated)
	}
}

// prevSiblingMatcher maps a node back to the block-level box it produced
// in the previous build of a container, walking the prior box list with a
// forward-only cursor. nil means the container builds from scratch.
type prevSiblingMatcher struct {
	prev   []BlockLevelBox
	cursor int
}

// matchAndAdvance returns the node's previous box and moves the cursor
// past it, or nil when the box cannot be reused. Skipped entries belong to
// since-removed or since-rebuilt siblings; each previous box matches at
// most one node.
func (m *prevSiblingMatcher) matchAndAdvance(info *tree.NodeAndStyleInfo) BlockLevelBox {
	if m == nil {
		return nil
	}
	if info.IsAnonymous() {
		// matching anonymous boxes by position is not implemented; they
		// always rebuild
		return nil
	}
	if info.Damage().NeedsRebuild() {
		return nil
	}
	recorded, ok := info.PreviousLayoutBox().(blockLayoutBox)
	if !ok {
		return nil
	}
	for i := m.cursor; i < len(m.prev); i++ {
		// reference identity: structurally equal boxes at different tree
		// positions are not the same box
		if m.prev[i] == recorded.box {
			m.cursor = i + 1
			return recorded.box
		}
	}
	return nil
}
