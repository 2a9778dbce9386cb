package boxes

import (
	"github.com/fluxweb/boxtree/tree"
)

// InlineFormattingContext is a run of inline-level content laid out as
// lines.
type InlineFormattingContext struct {
	Items []InlineItem

	// ContainsFloats reports whether a float was pushed while the inline
	// content accumulated; such floats belong to the enclosing block
	// formatting context.
	ContainsFloats bool

	// HasFirstFormattedLine is false for the continuation of an inline
	// formatting context split around a block-level box: text-indent only
	// applies to the first of the candidates.
	HasFirstFormattedLine bool
}

// InlineItem is one inline-level item. The set of implementations is
// closed: [*TextRun], [*InlineBox], [*AtomicInline], [*InlineFloat] and
// [*InlineAbsolute].
type InlineItem interface {
	isInlineItem()
}

func (*TextRun) isInlineItem()        {}
func (*InlineBox) isInlineItem()      {}
func (*AtomicInline) isInlineItem()   {}
func (*InlineFloat) isInlineItem()    {}
func (*InlineAbsolute) isInlineItem() {}

// TextRun is one contiguous run of text from a single node.
type TextRun struct {
	BoxBase
	Text string

	// Decorations are the text decoration lines applying to the run,
	// accumulated from the ancestor boxes it was pushed under.
	Decorations tree.TextDecorations
}

// InlineBox is a non-replaced inline-level flow box. An element split
// around an interrupting block-level box produces several InlineBox
// fragments, one per candidate inline formatting context.
type InlineBox struct {
	BoxBase
	Children []InlineItem
}

// AtomicInline is an atomic inline-level item: replaced content or a box
// establishing an independent formatting context (inline-block,
// inline-table).
type AtomicInline struct {
	Context *IndependentFormattingContext
}

// InlineFloat is a float encountered while inline content accumulated.
type InlineFloat struct {
	Box *FloatBox
}

// InlineAbsolute is an absolutely-positioned box encountered while inline
// content accumulated.
type InlineAbsolute struct {
	Box *AbsoluteBox
}

// openInlineBox is one entry of the builder's open-box stack.
type openInlineBox struct {
	info *tree.NodeAndStyleInfo
	// current is the fragment collecting children right now; fragments
	// lists every fragment produced for the element, split included.
	current   *InlineBox
	fragments []*InlineBox

	// decorations accumulates the decoration lines of the box and of its
	// open ancestors.
	decorations tree.TextDecorations
}

// inlineBuilder accumulates a run of inline-level content into an
// [InlineFormattingContext]. It is single-threaded mutable state owned by
// one block container builder; nested inline boxes share the one instance,
// with nesting tracked by the explicit stack so that splitting around an
// interrupting block-level box works at any depth.
type inlineBuilder struct {
	items []InlineItem
	stack []*openInlineBox

	// shared is the stack of display:contents styles in scope, applying to
	// text pushed directly under those elements.
	shared []*tree.Style

	// decorations are the lines propagated by the enclosing block
	// container; open inline boxes add their own on top.
	decorations tree.TextDecorations

	containsFloats bool
	firstLine      bool

	// contentful records whether any text, atomic, float or absolute was
	// pushed since the last split; a continuation holding only reopened
	// fragments is dropped at finish time.
	contentful   bool
	continuation bool
}

func newInlineBuilder(shared []*tree.Style, decorations tree.TextDecorations, firstLine bool) *inlineBuilder {
	return &inlineBuilder{shared: shared, decorations: decorations, firstLine: firstLine}
}

// currentDecorations returns the decoration lines applying at the current
// nesting depth.
func (b *inlineBuilder) currentDecorations() tree.TextDecorations {
	if n := len(b.stack); n > 0 {
		return b.stack[n-1].decorations
	}
	return b.decorations
}

// active reports whether any inline content or open inline box is pending.
func (b *inlineBuilder) active() bool {
	return len(b.items) > 0 || len(b.stack) > 0
}

func (b *inlineBuilder) hasOpenBox() bool { return len(b.stack) > 0 }

func (b *inlineBuilder) push(item InlineItem) {
	if n := len(b.stack); n > 0 {
		top := b.stack[n-1].current
		top.Children = append(top.Children, item)
		return
	}
	b.items = append(b.items, item)
}

// textStyle returns the style applying to a text run: the innermost
// display:contents style when inside one, the node's own otherwise.
func (b *inlineBuilder) textStyle(info *tree.NodeAndStyleInfo) *tree.Style {
	if n := len(b.shared); n > 0 && info.IsAnonymous() {
		return b.shared[n-1]
	}
	return info.Style
}

func (b *inlineBuilder) pushText(info *tree.NodeAndStyleInfo, text string) {
	style := b.textStyle(info)
	run := &TextRun{
		BoxBase:     BoxBase{Style: style, Element: info.Node, Pseudo: info.Pseudo},
		Text:        text,
		Decorations: b.currentDecorations(),
	}
	b.push(run)
	b.contentful = true
}

func (b *inlineBuilder) pushAtomic(item *AtomicInline) {
	b.push(item)
	b.contentful = true
}

func (b *inlineBuilder) pushFloat(item *InlineFloat) {
	b.push(item)
	b.containsFloats = true
	b.contentful = true
}

func (b *inlineBuilder) pushAbsolute(item *InlineAbsolute) {
	b.push(item)
	b.contentful = true
}

func (b *inlineBuilder) startInlineBox(info *tree.NodeAndStyleInfo) {
	frag := &InlineBox{BoxBase: newBoxBase(info)}
	decorations := b.currentDecorations().Union(info.Style.TextDecoration)
	b.push(frag)
	b.stack = append(b.stack, &openInlineBox{
		info:        info,
		current:     frag,
		fragments:   []*InlineBox{frag},
		decorations: decorations,
	})
}

// endInlineBox closes the innermost open inline box and returns every
// fragment it produced, for the node's box slot.
func (b *inlineBuilder) endInlineBox() []*InlineBox {
	n := len(b.stack)
	if n == 0 {
		panic("no open inline box")
	}
	entry := b.stack[n-1]
	b.stack = b.stack[:n-1]
	return entry.fragments
}

func (b *inlineBuilder) enterSharedStyles(style *tree.Style) {
	b.shared = append(b.shared, style)
}

func (b *inlineBuilder) leaveSharedStyles() {
	if n := len(b.shared); n > 0 {
		b.shared = b.shared[:n-1]
	}
}

// record converts the fragments of a closed inline box into the value
// stored in its node's box slot.
func record(fragments []*InlineBox) inlineLayoutBox {
	items := make([]InlineItem, len(fragments))
	for i, fragment := range fragments {
		items[i] = fragment
	}
	return inlineLayoutBox{items: items}
}

// splitAroundBlock finishes the accumulated content as one candidate
// inline formatting context and reopens a fragment of every open inline
// box, so accumulation can continue after the interrupting block-level
// box. Returns nil when nothing accumulated.
func (b *inlineBuilder) splitAroundBlock() *InlineFormattingContext {
	var out *InlineFormattingContext
	if len(b.items) > 0 {
		out = &InlineFormattingContext{
			Items:                 b.items,
			ContainsFloats:        b.containsFloats,
			HasFirstFormattedLine: b.firstLine,
		}
	}
	b.items = nil
	b.containsFloats = false
	b.contentful = false
	b.firstLine = false
	b.continuation = true

	// reopen the split inline boxes, outermost first
	parent := &b.items
	for _, entry := range b.stack {
		frag := &InlineBox{BoxBase: entry.current.BoxBase}
		entry.fragments = append(entry.fragments, frag)
		entry.current = frag
		*parent = append(*parent, frag)
		parent = &frag.Children
	}
	return out
}

// finish consumes the builder and yields the accumulated inline formatting
// context, or nil when it holds nothing worth keeping.
func (b *inlineBuilder) finish() *InlineFormattingContext {
	if len(b.stack) != 0 {
		panic("unbalanced inline box nesting")
	}
	if len(b.items) == 0 {
		return nil
	}
	if b.continuation && !b.contentful {
		// only the reopened fragments of a split, with nothing after the
		// interrupting block: not a candidate context
		return nil
	}
	return &InlineFormattingContext{
		Items:                 b.items,
		ContainsFloats:        b.containsFloats,
		HasFirstFormattedLine: b.firstLine,
	}
}
