package boxes

import (
	"github.com/fluxweb/boxtree/tree"
)

// constructIndependent builds the independent formatting context
// established by a box: a block formatting context for flow contents, a
// table grid for table contents, or a replaced box.
func constructIndependent(ctx *LayoutContext, info *tree.NodeAndStyleInfo,
	inside tree.DisplayInside, contents tree.Contents, propagated PropagatedData,
) *IndependentFormattingContext {
	out := IndependentFormattingContext{BoxBase: newBoxBase(info)}
	if replaced, ok := contents.(tree.ReplacedContents); ok {
		out.Replaced = replaced.Content
		return &out
	}
	nonReplaced := contents.(tree.NonReplacedContents)
	switch inside {
	case tree.InsideTable:
		out.Table = constructTable(ctx, info, nonReplaced, propagated.union(info.Style))
	default: // flow, flow-root
		out.Flow = ConstructBlockFormattingContext(ctx, info, nonReplaced, propagated,
			info.Style.Display.ListItem)
	}
	return &out
}
