// Package boxes turns a styled DOM-like tree into a box tree fit for
// geometric layout: block-level boxes, inline formatting contexts,
// anonymous boxes, floats, out-of-flow boxes and anonymous tables.
//
// Construction is incremental: a container built once can be repaired in
// place after a restyle, reusing the boxes of untouched subtrees and
// rebuilding only the damaged ones.
package boxes

import (
	"github.com/fluxweb/boxtree/tree"
)

// LayoutContext carries the construction-wide policies and collaborators.
type LayoutContext struct {
	// ParallelJobs resolves sibling block-level boxes concurrently. This is
	// a pure performance toggle: results are identical either way.
	ParallelJobs bool
}

// cachedLayout memoizes the measures the geometric algorithms computed for
// a box. Construction never fills it, only invalidates it.
type cachedLayout struct {
	valid                 bool
	inlineSize, blockSize float64
}

// BoxBase is the metadata shared by all boxes: originating node, style and
// the layout cache.
type BoxBase struct {
	Style   *tree.Style
	Element *tree.StyledNode // nil for anonymous boxes
	Pseudo  tree.PseudoElement

	cache cachedLayout
}

func newBoxBase(info *tree.NodeAndStyleInfo) BoxBase {
	return BoxBase{Style: info.Style, Element: info.Node, Pseudo: info.Pseudo}
}

// ElementTag returns the tag of the originating element, or "anonymous".
func (b *BoxBase) ElementTag() string {
	if b.Pseudo == tree.PseudoAnonymous || b.Element == nil || b.Element.Element == nil {
		return "anonymous"
	}
	return b.Element.Element.Data
}

// SetCachedLayout records the measures computed by a layout pass.
func (b *BoxBase) SetCachedLayout(inlineSize, blockSize float64) {
	b.cache = cachedLayout{valid: true, inlineSize: inlineSize, blockSize: blockSize}
}

// CachedLayout returns the memoized measures, if still valid.
func (b *BoxBase) CachedLayout() (inlineSize, blockSize float64, ok bool) {
	return b.cache.inlineSize, b.cache.blockSize, b.cache.valid
}

// InvalidateCache drops the memoized layout of this box only.
func (b *BoxBase) InvalidateCache() { b.cache = cachedLayout{} }

// repairStyle re-applies the node's current style after a repair.
func (b *BoxBase) repairStyle(info *tree.NodeAndStyleInfo) { b.Style = info.Style }

// BlockLevelBox is one block-level box. The set of implementations is
// closed; operations over it dispatch with exhaustive type switches:
//
//   - [*BlockBox]: block box laid out in the same formatting context chain
//     as its parent
//   - [*IndependentBox]: establishes an independent formatting context
//     (flow-root, table, replaced content)
//   - [*AbsoluteBox]: absolutely or fixed positioned, out of flow
//   - [*FloatBox]: floated, out of flow
//   - [*OutsideMarkerBox]: ::marker rendered outside the principal box of
//     a list item
type BlockLevelBox interface {
	isBlockLevel()
}

func (*BlockBox) isBlockLevel()         {}
func (*IndependentBox) isBlockLevel()   {}
func (*AbsoluteBox) isBlockLevel()      {}
func (*FloatBox) isBlockLevel()         {}
func (*OutsideMarkerBox) isBlockLevel() {}

// BlockBox is a block-level box whose children live in the same formatting
// context chain as the parent (it is not a new BFC root).
type BlockBox struct {
	BoxBase
	Contents BlockContainer

	// ContainsFloats reports whether the contents transitively hold a
	// float participating in this formatting context. Kept up to date by
	// construction and repair so float avoidance never re-walks the tree.
	ContainsFloats bool
}

// IndependentFormattingContext is a box establishing its own formatting
// context. Exactly one of Flow, Table and Replaced is set.
type IndependentFormattingContext struct {
	BoxBase

	Flow     *BlockFormattingContext
	Table    *TableBox
	Replaced *tree.ReplacedContent
}

func (f *IndependentFormattingContext) IsReplaced() bool { return f.Replaced != nil }

// IndependentBox is a block-level independent formatting context.
type IndependentBox struct {
	IndependentFormattingContext
}

// AbsoluteBox is an absolutely (or fixed) positioned box. It participates
// in normal flow only for box-tree placement, not geometric flow.
type AbsoluteBox struct {
	Context IndependentFormattingContext
}

// FloatBox is a floated box.
type FloatBox struct {
	Contents IndependentFormattingContext
}

// OutsideMarkerBox is the ::marker of a list item with
// "list-style-position: outside", rendered outside the principal box.
type OutsideMarkerBox struct {
	BoxBase
	BlockFormattingContext

	// ListItemStyle is the style of the originating list item, which the
	// marker is positioned against.
	ListItemStyle *tree.Style
}

// BlockContainer holds the contents of a block container box: either
// block-level boxes, or a single inline formatting context. At most one of
// the two fields is set; a container is the inline variant iff construction
// produced inline content and no block-level box.
type BlockContainer struct {
	Boxes  []BlockLevelBox
	Inline *InlineFormattingContext
}

// IsInline reports whether the container is the single-IFC variant.
func (c *BlockContainer) IsInline() bool { return c.Inline != nil }

// BlockFormattingContext is a block container establishing a block
// formatting context, the root of a same-formatting-context chain.
type BlockFormattingContext struct {
	Contents BlockContainer

	// ContainsFloats reports whether Contents transitively holds a float.
	// Recomputed on every construct and repair, never stale.
	ContainsFloats bool
}

// layout box values written into node box slots

type blockLayoutBox struct {
	box BlockLevelBox
}

type inlineLayoutBox struct {
	items []InlineItem
}

func (blockLayoutBox) IsBlockLevel() bool  { return true }
func (inlineLayoutBox) IsBlockLevel() bool { return false }

// blockLevelContainsFloats reports whether the box is, or transitively
// contains, a float in the same formatting context as its parent. Floats
// inside an independent context never leak out of it.
func blockLevelContainsFloats(box BlockLevelBox) bool {
	switch box := box.(type) {
	case *BlockBox:
		return box.ContainsFloats
	case *FloatBox:
		return true
	case *IndependentBox, *AbsoluteBox, *OutsideMarkerBox:
		return false
	}
	panic("exhaustive switch")
}

// invalidateAllCaches drops the layout cache of the box and of every
// descendant.
func invalidateAllCaches(box BlockLevelBox) {
	switch box := box.(type) {
	case *BlockBox:
		box.InvalidateCache()
	case *IndependentBox:
		box.InvalidateCache()
	case *AbsoluteBox:
		box.Context.InvalidateCache()
	case *FloatBox:
		box.Contents.InvalidateCache()
	case *OutsideMarkerBox:
		box.InvalidateCache()
	default:
		panic("exhaustive switch")
	}
	invalidateDescendantCaches(box)
}

// invalidateDescendantCaches drops the layout caches below the box, but
// not the box's own: a copied box keeps its style-derived caches while its
// descendants may still need re-layout after sibling geometry changes.
func invalidateDescendantCaches(box BlockLevelBox) {
	switch box := box.(type) {
	case *BlockBox:
		invalidateContainerCaches(&box.Contents)
	case *IndependentBox:
		invalidateIndependentCaches(&box.IndependentFormattingContext)
	case *AbsoluteBox:
		invalidateIndependentCaches(&box.Context)
	case *FloatBox:
		invalidateIndependentCaches(&box.Contents)
	case *OutsideMarkerBox:
		invalidateContainerCaches(&box.Contents)
	default:
		panic("exhaustive switch")
	}
}

func invalidateIndependentCaches(f *IndependentFormattingContext) {
	switch {
	case f.Flow != nil:
		invalidateContainerCaches(&f.Flow.Contents)
	case f.Table != nil:
		invalidateTableCaches(f.Table)
	}
}

func invalidateContainerCaches(c *BlockContainer) {
	if c.Inline != nil {
		invalidateInlineItemCaches(c.Inline.Items)
		return
	}
	for _, child := range c.Boxes {
		invalidateAllCaches(child)
	}
}

func invalidateInlineItemCaches(items []InlineItem) {
	for _, item := range items {
		switch item := item.(type) {
		case *TextRun:
			item.InvalidateCache()
		case *InlineBox:
			item.InvalidateCache()
			invalidateInlineItemCaches(item.Children)
		case *AtomicInline:
			item.Context.InvalidateCache()
			invalidateIndependentCaches(item.Context)
		case *InlineFloat:
			item.Box.Contents.InvalidateCache()
			invalidateIndependentCaches(&item.Box.Contents)
		case *InlineAbsolute:
			item.Box.Context.InvalidateCache()
			invalidateIndependentCaches(&item.Box.Context)
		default:
			panic("exhaustive switch")
		}
	}
}
