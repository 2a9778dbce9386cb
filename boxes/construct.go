package boxes

import (
	"github.com/fluxweb/boxtree/logger"
	"github.com/fluxweb/boxtree/tree"
)

// BuildFormattingStructure constructs the box tree of a styled document:
// the block formatting context established by the root element.
func BuildFormattingStructure(ctx *LayoutContext, root *tree.StyledNode) *BlockFormattingContext {
	info := tree.NewInfo(root)
	logger.DebugLogger.Debug("building formatting structure", "root", root.String())
	return ConstructBlockFormattingContext(ctx, info, tree.ElementContents{},
		PropagatedData{}, root.Style.Display.ListItem)
}

// RepairFormattingStructure repairs bfc in place after a restyle of the
// tree rooted at root, reusing the boxes of undamaged subtrees.
func RepairFormattingStructure(ctx *LayoutContext, bfc *BlockFormattingContext, root *tree.StyledNode) {
	info := tree.NewInfo(root)
	logger.DebugLogger.Debug("repairing formatting structure", "root", root.String())
	bfc.Repair(ctx, info, tree.ElementContents{}, PropagatedData{}, root.Style.Display.ListItem)
}

// PropagatedData is contextual data passed down during box construction,
// independent of style inheritance.
type PropagatedData struct {
	// Decorations are the text decoration lines propagating from ancestor
	// boxes, CSS 2 §16.3.1.
	Decorations tree.TextDecorations
}

// union accumulates the decorations of a box's own style.
func (d PropagatedData) union(style *tree.Style) PropagatedData {
	return PropagatedData{Decorations: d.Decorations.Union(style.TextDecoration)}
}

// ConstructBlockFormattingContext builds the block formatting context for
// the given contents, recording whether they transitively contain floats.
func ConstructBlockFormattingContext(ctx *LayoutContext, info *tree.NodeAndStyleInfo,
	contents tree.NonReplacedContents, propagated PropagatedData, isListItem bool,
) *BlockFormattingContext {
	container, containsFloats := buildBlockContainer(ctx, info, contents,
		propagated.union(info.Style), isListItem, nil)
	return &BlockFormattingContext{Contents: container, ContainsFloats: containsFloats}
}

// Repair rebuilds the damaged parts of the context in place, keeping the
// boxes of untouched subtrees. ContainsFloats is recomputed to match the
// new contents.
func (bfc *BlockFormattingContext) Repair(ctx *LayoutContext, info *tree.NodeAndStyleInfo,
	contents tree.NonReplacedContents, propagated PropagatedData, isListItem bool,
) {
	bfc.ContainsFloats = bfc.Contents.repair(ctx, info, contents, propagated.union(info.Style), isListItem)
}

// repair rebuilds the container in place, matching undamaged children
// against their previous boxes. Returns the new contains-floats state.
func (c *BlockContainer) repair(ctx *LayoutContext, info *tree.NodeAndStyleInfo,
	contents tree.NonReplacedContents, propagated PropagatedData, isListItem bool,
) bool {
	previous := &prevSiblingMatcher{prev: c.Boxes}
	container, containsFloats := buildBlockContainer(ctx, info, contents, propagated, isListItem, previous)
	*c = container
	return containsFloats
}

// buildBlockContainer drives the contents through the traversal protocol
// and resolves the accumulated jobs. previous is nil when building from
// scratch, and wraps the prior box list during a repair.
func buildBlockContainer(ctx *LayoutContext, info *tree.NodeAndStyleInfo,
	contents tree.NonReplacedContents, propagated PropagatedData, isListItem bool,
	previous *prevSiblingMatcher,
) (BlockContainer, bool) {
	builder := blockContainerBuilder{
		ctx:        ctx,
		info:       info,
		propagated: propagated,
		previous:   previous,
	}
	if isListItem {
		builder.handleListItemMarker()
	}
	tree.TraverseNonReplaced(contents, info, &builder)
	return builder.finish()
}

// blockContainerBuilder is the traversal-driven state machine classifying
// every child of a container into block-level jobs, while managing the
// currently open inline formatting context and the anonymous-table
// accumulation.
type blockContainerBuilder struct {
	ctx        *LayoutContext
	info       *tree.NodeAndStyleInfo
	propagated PropagatedData

	// jobs, in document order of the block-level boxes they will produce,
	// anonymous wrappers included.
	jobs []*blockLevelJob

	// inline is the open inline formatting context builder, nil when none.
	inline *inlineBuilder

	// displayContents stacks the display:contents styles currently
	// entered, so an inline builder created later starts with the same
	// shared styles as the open one.
	displayContents []*tree.Style

	// anonTable buffers a run of stray internal-table-part content found
	// outside a table, until non-table content flushes it.
	anonTable []anonymousTableItem

	// anonInfo is the memoized info of this container's anonymous boxes.
	anonInfo *tree.NodeAndStyleInfo

	// firstLineSeen is set once any block-level box was queued: whatever
	// line comes after is not the first for text-indent purposes.
	firstLineSeen bool

	// previous is non-nil during a repair.
	previous *prevSiblingMatcher
}

var _ tree.TraversalHandler = (*blockContainerBuilder)(nil)

// NeedClearPseudoElementBox implements [tree.TraversalHandler]: stale
// pseudo-element boxes only survive across a repair traversal.
func (b *blockContainerBuilder) NeedClearPseudoElementBox() bool {
	return b.previous == nil
}

// HandleElement implements [tree.TraversalHandler].
func (b *blockContainerBuilder) HandleElement(info *tree.NodeAndStyleInfo, display tree.Display,
	contents tree.Contents, slot tree.BoxSlot,
) {
	if display.IsInternalTable() {
		// internal table content runs are maximal: buffer without
		// disturbing any open inline accumulation
		b.anonTable = append(b.anonTable, anonymousTableItem{info: info, display: display, contents: contents, slot: slot})
		return
	}
	b.finishAnonymousTableIfNeeded()

	style := info.Style
	switch {
	case style.IsAbsolutelyPositioned():
		b.handleAbsolutelyPositioned(info, display, contents, slot)
	case style.IsFloated():
		b.handleFloat(info, display, contents, slot)
	case display.Outside == tree.OutsideBlock:
		b.handleBlockLevel(info, display, contents)
	default:
		b.handleInlineLevel(info, display, contents, slot)
	}
}

// HandleText implements [tree.TraversalHandler].
func (b *blockContainerBuilder) HandleText(info *tree.NodeAndStyleInfo, text string) {
	if len(b.anonTable) > 0 && tree.IsCollapsibleWhitespace(text, info.Style.WhiteSpace) {
		// whitespace between internal table parts stays with the run; it
		// must not escape the accumulation
		b.anonTable = append(b.anonTable, anonymousTableItem{info: info, text: text, isText: true})
		return
	}
	b.finishAnonymousTableIfNeeded()
	b.pushText(info, text)
}

func (b *blockContainerBuilder) pushText(info *tree.NodeAndStyleInfo, text string) {
	if tree.IsCollapsibleWhitespace(text, info.Style.WhiteSpace) &&
		(b.inline == nil || !b.inline.active()) {
		// whitespace between block-level boxes generates nothing
		return
	}
	b.ensureInline().pushText(info, text)
}

// EnterDisplayContents implements [tree.TraversalHandler].
func (b *blockContainerBuilder) EnterDisplayContents(style *tree.Style) {
	b.displayContents = append(b.displayContents, style)
	if b.inline != nil {
		b.inline.enterSharedStyles(style)
	}
}

// LeaveDisplayContents implements [tree.TraversalHandler].
func (b *blockContainerBuilder) LeaveDisplayContents() {
	if n := len(b.displayContents); n > 0 {
		b.displayContents = b.displayContents[:n-1]
	}
	if b.inline != nil {
		b.inline.leaveSharedStyles()
	}
}

// ensureInline returns the open inline builder, creating it with the
// current display:contents stack when none is open.
func (b *blockContainerBuilder) ensureInline() *inlineBuilder {
	if b.inline == nil {
		shared := append([]*tree.Style(nil), b.displayContents...)
		b.inline = newInlineBuilder(shared, b.propagated.Decorations, !b.firstLineSeen)
	}
	return b.inline
}

// handleListItemMarker generates the ::marker content of a list item
// container and places it according to list-style-position.
func (b *blockContainerBuilder) handleListItemMarker() {
	markerInfo, content, ok := tree.MakeMarker(b.info)
	if !ok {
		return
	}
	if b.info.Style.ListStylePosition == tree.MarkerInside {
		inline := b.ensureInline()
		inline.startInlineBox(markerInfo)
		for _, item := range content {
			if item.Text != "" {
				inline.pushText(markerInfo, item.Text)
			}
		}
		fragments := inline.endInlineBox()
		markerInfo.BoxSlot().Set(record(fragments))
		return
	}
	// outside: a distinct block-level job preceding the principal boxes,
	// repaired or reused like any other block-level child
	b.queueBlockLevel(markerInfo,
		tree.Display{Outside: tree.OutsideBlock, Inside: tree.InsideFlow},
		tree.PseudoContents{Items: content}, creatorOutsideMarker)
}

func (b *blockContainerBuilder) handleAbsolutelyPositioned(info *tree.NodeAndStyleInfo,
	display tree.Display, contents tree.Contents, slot tree.BoxSlot,
) {
	if b.inline != nil && b.inline.active() {
		// mid-inline: the box stays at its inline position in the tree
		box := &AbsoluteBox{Context: *constructIndependent(b.ctx, info, display.Inside, contents, PropagatedData{})}
		b.inline.pushAbsolute(&InlineAbsolute{Box: box})
		slot.Set(blockLayoutBox{box: box})
		return
	}
	b.queueBlockLevel(info, display, contents, creatorAbsolute)
}

func (b *blockContainerBuilder) handleFloat(info *tree.NodeAndStyleInfo,
	display tree.Display, contents tree.Contents, slot tree.BoxSlot,
) {
	if b.inline != nil && b.inline.active() {
		box := &FloatBox{Contents: *constructIndependent(b.ctx, info, display.Inside, contents, b.propagated)}
		b.inline.pushFloat(&InlineFloat{Box: box})
		slot.Set(blockLayoutBox{box: box})
		return
	}
	b.queueBlockLevel(info, display, contents, creatorFloat)
}

func (b *blockContainerBuilder) handleBlockLevel(info *tree.NodeAndStyleInfo,
	display tree.Display, contents tree.Contents,
) {
	// a block-level box interrupts any open inline content
	b.interruptInlineForBlock()

	creator := creatorIndependent
	if _, replaced := contents.(tree.ReplacedContents); !replaced &&
		display.Inside == tree.InsideFlow && !info.Style.EstablishesBFC() {
		creator = creatorSameContextBlock
	}
	b.queueBlockLevel(info, display, contents, creator)
}

func (b *blockContainerBuilder) handleInlineLevel(info *tree.NodeAndStyleInfo,
	display tree.Display, contents tree.Contents, slot tree.BoxSlot,
) {
	nonReplaced, ok := contents.(tree.NonReplacedContents)
	if ok && display.Inside == tree.InsideFlow && !info.Style.EstablishesBFC() {
		// a plain inline box: traverse its children into the same inline
		// builder, nesting tracked by the builder's stack
		inline := b.ensureInline()
		inline.startInlineBox(info)
		if display.ListItem {
			// markers of inline list items are always inside
			if markerInfo, content, ok := tree.MakeMarker(info); ok {
				inline.startInlineBox(markerInfo)
				for _, item := range content {
					if item.Text != "" {
						inline.pushText(markerInfo, item.Text)
					}
				}
				fragments := inline.endInlineBox()
				markerInfo.BoxSlot().Set(record(fragments))
			}
		}
		tree.TraverseNonReplaced(nonReplaced, info, b)
		fragments := inline.endInlineBox()
		slot.Set(record(fragments))
		return
	}
	// atomic inline: replaced content or an independent formatting context
	item := &AtomicInline{Context: constructIndependent(b.ctx, info, display.Inside, contents, b.propagated)}
	b.ensureInline().pushAtomic(item)
	slot.Set(inlineLayoutBox{items: []InlineItem{item}})
}

// interruptInlineForBlock flushes the open inline content into an
// anonymous block-level job, splitting around the incoming block so that
// accumulation can continue at the same inline nesting depth.
func (b *blockContainerBuilder) interruptInlineForBlock() {
	if b.inline == nil || !b.inline.active() {
		return
	}
	if ifc := b.inline.splitAroundBlock(); ifc != nil {
		b.queueAnonymousInlineJob(ifc)
	}
	if !b.inline.hasOpenBox() {
		b.inline = nil
	}
}

// queueAnonymousInlineJob demotes a finished inline formatting context to
// an anonymous block-level job, preserving document order with the jobs
// already queued.
func (b *blockContainerBuilder) queueAnonymousInlineJob(ifc *InlineFormattingContext) {
	job := &blockLevelJob{
		kind:           jobCreate,
		info:           b.anonymousInfo(),
		slot:           tree.DummyBoxSlot(),
		propagated:     b.propagated,
		display:        tree.Display{Outside: tree.OutsideBlock, Inside: tree.InsideFlow},
		creator:        creatorSameContextBlock,
		finishedInline: ifc,
	}
	b.jobs = append(b.jobs, job)
	// any block counts as the first line, whether or not it indents
	b.firstLineSeen = true
}

// anonymousInfo lazily synthesizes the info shared by this container's
// anonymous wrapper boxes.
func (b *blockContainerBuilder) anonymousInfo() *tree.NodeAndStyleInfo {
	if b.anonInfo == nil {
		b.anonInfo = tree.NewAnonymousInfo(b.info, tree.AnonymousBlock(b.info.Style))
	}
	return b.anonInfo
}

// queueBlockLevel classifies one block-level child into a Copy, Repair or
// Create job.
func (b *blockContainerBuilder) queueBlockLevel(info *tree.NodeAndStyleInfo,
	display tree.Display, contents tree.Contents, creator creatorKind,
) {
	if creator == creatorSameContextBlock || creator == creatorIndependent {
		// in-flow blocks end the first line; out-of-flow boxes and outside
		// markers do not
		b.firstLineSeen = true
	}
	if prev := b.previous.matchAndAdvance(info); prev != nil {
		job := &blockLevelJob{
			box:        prev,
			info:       info,
			display:    display,
			contents:   contents,
			propagated: b.propagated,
			creator:    creator,
		}
		if info.Damage().NeedsRepair() {
			job.kind = jobRepair
		} else {
			job.kind = jobCopy
		}
		b.jobs = append(b.jobs, job)
		return
	}
	b.jobs = append(b.jobs, &blockLevelJob{
		kind:       jobCreate,
		info:       info,
		slot:       info.BoxSlot(),
		propagated: b.propagated,
		display:    display,
		contents:   contents,
		creator:    creator,
	})
}

// finish flushes the pending accumulations and resolves every queued job.
func (b *blockContainerBuilder) finish() (BlockContainer, bool) {
	// trailing stray table content must not leak past the container
	b.finishAnonymousTableIfNeeded()

	if b.inline != nil {
		ifc := b.inline.finish()
		b.inline = nil
		if ifc != nil {
			if len(b.jobs) == 0 {
				// pure-inline container: the common case for paragraphs
				return BlockContainer{Inline: ifc}, ifc.ContainsFloats
			}
			b.queueAnonymousInlineJob(ifc)
		}
	}

	boxes, containsFloats := resolveJobs(b.ctx, b.jobs)
	return BlockContainer{Boxes: boxes}, containsFloats
}
