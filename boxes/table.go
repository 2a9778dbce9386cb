package boxes

import (
	"strconv"
	"strings"

	"github.com/fluxweb/boxtree/tree"
)

// TableBox is the grid established by a table element or synthesized
// around stray internal table content, after the anonymous-box fixup of
// https://www.w3.org/TR/CSS21/tables.html#anonymous-boxes. Geometry is
// owned by the table layout algorithms, not this package.
type TableBox struct {
	BoxBase
	Groups   []*TableRowGroupBox
	Captions []*TableCaptionBox
	Columns  int
}

type RowGroupKind uint8

const (
	BodyGroup RowGroupKind = iota
	HeaderGroup
	FooterGroup
)

type TableRowGroupBox struct {
	BoxBase
	Kind RowGroupKind
	Rows []*TableRowBox
}

type TableRowBox struct {
	BoxBase
	Cells []*TableCellBox
}

type TableCellBox struct {
	BoxBase
	Colspan, Rowspan int
	Contents         BlockFormattingContext
}

type TableCaptionBox struct {
	BoxBase
	Contents BlockFormattingContext
}

func invalidateTableCaches(t *TableBox) {
	t.InvalidateCache()
	for _, caption := range t.Captions {
		caption.InvalidateCache()
		invalidateContainerCaches(&caption.Contents.Contents)
	}
	for _, group := range t.Groups {
		group.InvalidateCache()
		for _, row := range group.Rows {
			row.InvalidateCache()
			for _, cell := range row.Cells {
				cell.InvalidateCache()
				invalidateContainerCaches(&cell.Contents.Contents)
			}
		}
	}
}

// anonymousTableItem is one buffered piece of stray internal-table-part
// content found outside a table.
type anonymousTableItem struct {
	info     *tree.NodeAndStyleInfo
	display  tree.Display
	contents tree.Contents
	slot     tree.BoxSlot

	text   string
	isText bool
}

// finishAnonymousTableIfNeeded wraps the buffered run of stray internal
// table content in an anonymous table: inline-level when the builder is
// inside an open inline box, block-level otherwise. No-op when nothing is
// buffered.
func (b *blockContainerBuilder) finishAnonymousTableIfNeeded() {
	if len(b.anonTable) == 0 {
		return
	}
	items := b.anonTable
	b.anonTable = nil

	// pending inline text is not enough: only an open inline box makes the
	// wrapper an inline table
	inlineLevel := b.inline != nil && b.inline.hasOpenBox()

	// trailing whitespace is irrelevant to the table ("remove irrelevant
	// boxes"); it re-enters the container after the table
	var trailing *anonymousTableItem
	if last := &items[len(items)-1]; last.isText &&
		tree.IsCollapsibleWhitespace(last.text, last.info.Style.WhiteSpace) {
		trailing = last
		items = items[:len(items)-1]
	}

	display := tree.Display{Outside: tree.OutsideBlock, Inside: tree.InsideTable}
	if inlineLevel {
		display.Outside = tree.OutsideInline
	}
	tableInfo := tree.NewAnonymousInfo(b.info, &tree.Style{
		Display:    display,
		WhiteSpace: b.info.Style.WhiteSpace,
	})
	table := constructAnonymousTable(b.ctx, tableInfo, items, b.propagated)

	if inlineLevel {
		b.inline.pushAtomic(&AtomicInline{Context: table})
	} else {
		b.interruptInlineForBlock()
		// the table is already built: the job is a passthrough with a
		// dummy slot, anonymous tables are not repair-tracked
		b.jobs = append(b.jobs, &blockLevelJob{
			kind:       jobCreate,
			info:       tableInfo,
			slot:       tree.DummyBoxSlot(),
			propagated: b.propagated,
			display:    display,
			creator:    creatorAnonymousTable,
			prebuilt:   table,
		})
		b.firstLineSeen = true
	}

	if trailing != nil {
		b.pushText(trailing.info, trailing.text)
	}
}

// constructAnonymousTable builds the anonymous table wrapping a buffered
// run of stray internal table content.
func constructAnonymousTable(ctx *LayoutContext, tableInfo *tree.NodeAndStyleInfo,
	items []anonymousTableItem, propagated PropagatedData,
) *IndependentFormattingContext {
	builder := newTableBuilder(ctx, tableInfo, propagated)
	for i := range items {
		item := &items[i]
		if item.isText {
			builder.HandleText(item.info, item.text)
		} else {
			builder.HandleElement(item.info, item.display, item.contents, item.slot)
		}
	}
	return &IndependentFormattingContext{
		BoxBase: newBoxBase(tableInfo),
		Table:   builder.finishTable(),
	}
}

// constructTable builds the grid of a table element, applying the
// anonymous-box fixup: rows without a group and cells without a row get
// anonymous wrappers, stray non-table content is wrapped in anonymous
// cells.
func constructTable(ctx *LayoutContext, info *tree.NodeAndStyleInfo,
	contents tree.NonReplacedContents, propagated PropagatedData,
) *TableBox {
	builder := newTableBuilder(ctx, info, propagated)
	tree.TraverseNonReplaced(contents, info, builder)
	return builder.finishTable()
}

// tableBuilder assembles a table grid from internal table parts, wrapping
// out-of-place content in anonymous groups, rows and cells.
type tableBuilder struct {
	ctx        *LayoutContext
	info       *tree.NodeAndStyleInfo
	propagated PropagatedData

	table *TableBox
	group *TableRowGroupBox // open row group, nil between groups
	row   *TableRowBox      // open row, nil between rows

	// stray accumulates non-table content for an anonymous cell.
	stray *blockContainerBuilder
}

var _ tree.TraversalHandler = (*tableBuilder)(nil)

func newTableBuilder(ctx *LayoutContext, info *tree.NodeAndStyleInfo, propagated PropagatedData) *tableBuilder {
	return &tableBuilder{
		ctx:        ctx,
		info:       info,
		propagated: propagated,
		table:      &TableBox{BoxBase: newBoxBase(info)},
	}
}

func (tb *tableBuilder) NeedClearPseudoElementBox() bool { return true }

func (tb *tableBuilder) HandleElement(info *tree.NodeAndStyleInfo, display tree.Display,
	contents tree.Contents, slot tree.BoxSlot,
) {
	switch display.Internal {
	case tree.InternalTableRowGroup, tree.InternalTableHeaderGroup, tree.InternalTableFooterGroup:
		tb.flushStray()
		tb.closeRow()
		tb.closeGroup()
		kind := BodyGroup
		switch display.Internal {
		case tree.InternalTableHeaderGroup:
			kind = HeaderGroup
		case tree.InternalTableFooterGroup:
			kind = FooterGroup
		}
		tb.group = &TableRowGroupBox{BoxBase: newBoxBase(info), Kind: kind}
		tb.traverseInto(info, contents)
		tb.closeRow()
		tb.closeGroup()
	case tree.InternalTableRow:
		tb.flushStray()
		tb.closeRow()
		tb.row = &TableRowBox{BoxBase: newBoxBase(info)}
		tb.traverseInto(info, contents)
		tb.closeRow()
	case tree.InternalTableCell:
		tb.flushStray()
		tb.ensureRow()
		tb.row.Cells = append(tb.row.Cells, tb.buildCell(info, contents))
	case tree.InternalTableCaption:
		tb.flushStray()
		caption := &TableCaptionBox{BoxBase: newBoxBase(info)}
		if nonReplaced, ok := contents.(tree.NonReplacedContents); ok {
			caption.Contents = *ConstructBlockFormattingContext(tb.ctx, info, nonReplaced, tb.propagated, false)
		}
		tb.table.Captions = append(tb.table.Captions, caption)
	case tree.InternalTableColumn:
		tb.table.Columns += integerAttribute(info.Node, "span", 1)
	case tree.InternalTableColumnGroup:
		// either the "span" attribute, or one column per <col> child
		if info.Node != nil && len(info.Node.Children) > 0 {
			tb.traverseInto(info, contents)
		} else {
			tb.table.Columns += integerAttribute(info.Node, "span", 1)
		}
	default:
		// non-table content inside the grid: accumulate for an anonymous
		// cell
		tb.strayBuilder().HandleElement(info, display, contents, slot)
	}
}

func (tb *tableBuilder) HandleText(info *tree.NodeAndStyleInfo, text string) {
	if tb.stray == nil && tree.IsCollapsibleWhitespace(text, info.Style.WhiteSpace) {
		// whitespace between table parts is irrelevant to the grid
		return
	}
	tb.strayBuilder().HandleText(info, text)
}

func (tb *tableBuilder) EnterDisplayContents(style *tree.Style) {
	tb.strayBuilder().EnterDisplayContents(style)
}

func (tb *tableBuilder) LeaveDisplayContents() {
	tb.strayBuilder().LeaveDisplayContents()
}

func (tb *tableBuilder) traverseInto(info *tree.NodeAndStyleInfo, contents tree.Contents) {
	if nonReplaced, ok := contents.(tree.NonReplacedContents); ok {
		tree.TraverseNonReplaced(nonReplaced, info, tb)
	}
}

func (tb *tableBuilder) buildCell(info *tree.NodeAndStyleInfo, contents tree.Contents) *TableCellBox {
	cell := &TableCellBox{
		BoxBase: newBoxBase(info),
		Colspan: integerAttribute(info.Node, "colspan", 1),
		// rowspan=0 means "all remaining rows", HTML 5 kept it
		Rowspan: integerAttribute(info.Node, "rowspan", 0),
	}
	if nonReplaced, ok := contents.(tree.NonReplacedContents); ok {
		cell.Contents = *ConstructBlockFormattingContext(tb.ctx, info, nonReplaced, tb.propagated, false)
	}
	return cell
}

func (tb *tableBuilder) strayBuilder() *blockContainerBuilder {
	if tb.stray == nil {
		cellInfo := tree.NewAnonymousInfo(tb.info, tree.AnonymousBlock(tb.info.Style))
		tb.stray = &blockContainerBuilder{ctx: tb.ctx, info: cellInfo, propagated: tb.propagated}
	}
	return tb.stray
}

// flushStray closes the pending anonymous cell, if it holds anything.
func (tb *tableBuilder) flushStray() {
	if tb.stray == nil {
		return
	}
	builder := tb.stray
	tb.stray = nil
	container, containsFloats := builder.finish()
	if container.Inline == nil && len(container.Boxes) == 0 {
		return
	}
	tb.ensureRow()
	cell := &TableCellBox{
		BoxBase: newBoxBase(builder.info),
		Colspan: 1,
		Contents: BlockFormattingContext{
			Contents:       container,
			ContainsFloats: containsFloats,
		},
	}
	tb.row.Cells = append(tb.row.Cells, cell)
}

func (tb *tableBuilder) ensureRow() {
	if tb.row == nil {
		rowInfo := tree.NewAnonymousInfo(tb.info, &tree.Style{
			Display: tree.Display{Internal: tree.InternalTableRow},
		})
		tb.row = &TableRowBox{BoxBase: newBoxBase(rowInfo)}
	}
}

func (tb *tableBuilder) closeRow() {
	if tb.row == nil {
		return
	}
	tb.ensureGroup()
	tb.group.Rows = append(tb.group.Rows, tb.row)
	tb.row = nil
}

func (tb *tableBuilder) ensureGroup() {
	if tb.group == nil {
		groupInfo := tree.NewAnonymousInfo(tb.info, &tree.Style{
			Display: tree.Display{Internal: tree.InternalTableRowGroup},
		})
		tb.group = &TableRowGroupBox{BoxBase: newBoxBase(groupInfo)}
	}
}

func (tb *tableBuilder) closeGroup() {
	if tb.group == nil {
		return
	}
	tb.table.Groups = append(tb.table.Groups, tb.group)
	tb.group = nil
}

func (tb *tableBuilder) finishTable() *TableBox {
	tb.flushStray()
	tb.closeRow()
	tb.closeGroup()
	return tb.table
}

// integerAttribute reads an integer attribute of the node's element,
// defaulting to 1 when missing or invalid.
func integerAttribute(node *tree.StyledNode, name string, minimum int) int {
	if node == nil || node.Element == nil {
		return 1
	}
	var value string
	for _, attr := range node.Element.Attr {
		if attr.Key == name {
			value = attr.Val
			break
		}
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 1
	}
	if intValue < minimum {
		intValue = minimum
	}
	return intValue
}
