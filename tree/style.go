// Package tree exposes the styled-DOM side of box construction: a
// lightweight styled node model over golang.org/x/net/html documents, the
// computed-style subset box generation depends on, restyle damage flags,
// per-node box slots and the child traversal protocol.
//
// Style resolution proper (cascade, selector matching) is owned by the
// embedding system; this package only ships the small default mapping used
// to style fixtures and simple documents.
package tree

import (
	"strings"

	"github.com/fluxweb/boxtree/utils"
)

// DisplayOutside is the outer display type, deciding how a box participates
// in its parent formatting context.
type DisplayOutside uint8

const (
	OutsideBlock DisplayOutside = iota
	OutsideInline
)

// DisplayInside is the inner display type, deciding the formatting context
// the box establishes for its own contents.
type DisplayInside uint8

const (
	InsideFlow DisplayInside = iota
	InsideFlowRoot
	InsideTable
)

// DisplayInternal classifies the internal table display values, which only
// make sense as descendants of a table wrapper box.
type DisplayInternal uint8

const (
	InternalNone DisplayInternal = iota
	InternalTableRowGroup
	InternalTableHeaderGroup
	InternalTableFooterGroup
	InternalTableRow
	InternalTableCell
	InternalTableColumn
	InternalTableColumnGroup
	InternalTableCaption
)

// Display is the used "display" value of an element, after blockification
// of the root. Exactly one of the [None], [Contents], [Internal] and
// outside/inside classifications applies.
type Display struct {
	None     bool
	Contents bool
	Internal DisplayInternal

	Outside  DisplayOutside
	Inside   DisplayInside
	ListItem bool
}

func (d Display) IsNone() bool     { return d.None }
func (d Display) IsContents() bool { return d.Contents }

// IsInternalTable reports whether the display is one of the internal
// table-part values (or a table caption).
func (d Display) IsInternalTable() bool { return d.Internal != InternalNone }

// IsInlineLevel reports whether a box with this display participates in an
// inline formatting context.
func (d Display) IsInlineLevel() bool {
	return !d.None && !d.Contents && d.Internal == InternalNone && d.Outside == OutsideInline
}

func (d Display) String() string {
	switch {
	case d.None:
		return "none"
	case d.Contents:
		return "contents"
	case d.Internal != InternalNone:
		return [...]string{
			InternalTableRowGroup:    "table-row-group",
			InternalTableHeaderGroup: "table-header-group",
			InternalTableFooterGroup: "table-footer-group",
			InternalTableRow:         "table-row",
			InternalTableCell:        "table-cell",
			InternalTableColumn:      "table-column",
			InternalTableColumnGroup: "table-column-group",
			InternalTableCaption:     "table-caption",
		}[d.Internal]
	}
	out := "block"
	if d.Outside == OutsideInline {
		out = "inline"
	}
	switch d.Inside {
	case InsideFlowRoot:
		out += " flow-root"
	case InsideTable:
		out += " table"
	}
	if d.ListItem {
		out += " list-item"
	}
	return out
}

type Float uint8

const (
	FloatNone Float = iota
	FloatLeft
	FloatRight
)

type Position uint8

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
)

type WhiteSpace uint8

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNowrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
)

// Preserved reports whether segment white space must be kept as authored.
func (w WhiteSpace) Preserved() bool {
	return w == WhiteSpacePre || w == WhiteSpacePreWrap
}

type ListStyleType string

const (
	ListStyleDisc    ListStyleType = "disc"
	ListStyleCircle  ListStyleType = "circle"
	ListStyleSquare  ListStyleType = "square"
	ListStyleDecimal ListStyleType = "decimal"
	ListStyleNone    ListStyleType = "none"
)

type ListStylePosition uint8

const (
	MarkerOutside ListStylePosition = iota
	MarkerInside
)

// TextDecorations is the set of decoration lines applying to a box,
// accumulated along the propagation rules of CSS 2 §16.3.1.
type TextDecorations utils.Set

// Union returns the union of d and other; either may be nil.
func (d TextDecorations) Union(other TextDecorations) TextDecorations {
	if len(other) == 0 {
		return d
	}
	out := utils.Set(d).Copy()
	for k := range other {
		out[k] = utils.Has
	}
	return TextDecorations(out)
}

// Style is the computed-style subset box generation reads. It is owned by
// the surrounding style system and read-only during construction.
type Style struct {
	Display           Display
	Float             Float
	Position          Position
	WhiteSpace        WhiteSpace
	ListStyleType     ListStyleType
	ListStylePosition ListStylePosition
	TextDecoration    TextDecorations
}

// IsFloated reports whether the box is taken out of flow as a float.
func (s *Style) IsFloated() bool { return s.Float != FloatNone }

// IsAbsolutelyPositioned covers both "absolute" and "fixed".
func (s *Style) IsAbsolutelyPositioned() bool {
	return s.Position == PositionAbsolute || s.Position == PositionFixed
}

// EstablishesBFC reports whether a flow box with this style is a block
// formatting context root rather than part of its parent's context.
func (s *Style) EstablishesBFC() bool {
	return s.Display.Inside == InsideFlowRoot || s.IsFloated() || s.IsAbsolutelyPositioned()
}

// AnonymousBlock derives the style of an anonymous block box from its
// parent style: inherited properties are kept, the rest reset to initial.
func AnonymousBlock(parent *Style) *Style {
	return &Style{
		Display:           Display{Outside: OutsideBlock, Inside: InsideFlow},
		WhiteSpace:        parent.WhiteSpace,
		ListStyleType:     parent.ListStyleType,
		ListStylePosition: parent.ListStylePosition,
	}
}

// AnonymousInline derives the style of anonymous inline content (generated
// text, markers) from its originating element.
func AnonymousInline(parent *Style) *Style {
	return &Style{
		Display:    Display{Outside: OutsideInline, Inside: InsideFlow},
		WhiteSpace: parent.WhiteSpace,
	}
}

// -------------------- default styling of fixtures --------------------

var blockTags = utils.NewSet(
	"html", "body", "div", "p", "blockquote", "pre", "address", "article",
	"section", "header", "footer", "main", "nav", "aside", "figure",
	"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "dl", "dd", "dt", "hr",
)

var internalTags = map[string]DisplayInternal{
	"thead":    InternalTableHeaderGroup,
	"tbody":    InternalTableRowGroup,
	"tfoot":    InternalTableFooterGroup,
	"tr":       InternalTableRow,
	"td":       InternalTableCell,
	"th":       InternalTableCell,
	"col":      InternalTableColumn,
	"colgroup": InternalTableColumnGroup,
	"caption":  InternalTableCaption,
}

// defaultStyle maps a tag name to the user-agent display of the element,
// the small subset of the HTML5 UA stylesheet fixtures rely on.
func defaultStyle(tag string) *Style {
	st := Style{ListStyleType: ListStyleDisc}
	switch {
	case tag == "li":
		st.Display = Display{Outside: OutsideBlock, Inside: InsideFlow, ListItem: true}
	case tag == "table":
		st.Display = Display{Outside: OutsideBlock, Inside: InsideTable}
	case internalTags[tag] != InternalNone:
		st.Display = Display{Internal: internalTags[tag]}
	case blockTags.Has(tag):
		st.Display = Display{Outside: OutsideBlock, Inside: InsideFlow}
		if tag == "pre" {
			st.WhiteSpace = WhiteSpacePre
		}
	default:
		st.Display = Display{Outside: OutsideInline, Inside: InsideFlow}
	}
	return &st
}

// parseStyleAttribute overlays the supported declarations of an inline
// "style" attribute onto st. Unknown declarations are ignored.
func parseStyleAttribute(st *Style, value string) {
	for _, decl := range strings.Split(value, ";") {
		name, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(strings.ToLower(name))
		val = strings.TrimSpace(strings.ToLower(val))
		switch name {
		case "display":
			parseDisplay(st, val)
		case "float":
			switch val {
			case "left":
				st.Float = FloatLeft
			case "right":
				st.Float = FloatRight
			case "none":
				st.Float = FloatNone
			}
		case "position":
			switch val {
			case "static":
				st.Position = PositionStatic
			case "relative":
				st.Position = PositionRelative
			case "absolute":
				st.Position = PositionAbsolute
			case "fixed":
				st.Position = PositionFixed
			}
		case "white-space":
			switch val {
			case "normal":
				st.WhiteSpace = WhiteSpaceNormal
			case "nowrap":
				st.WhiteSpace = WhiteSpaceNowrap
			case "pre":
				st.WhiteSpace = WhiteSpacePre
			case "pre-wrap":
				st.WhiteSpace = WhiteSpacePreWrap
			case "pre-line":
				st.WhiteSpace = WhiteSpacePreLine
			}
		case "list-style-type":
			st.ListStyleType = ListStyleType(val)
		case "list-style-position":
			switch val {
			case "inside":
				st.ListStylePosition = MarkerInside
			case "outside":
				st.ListStylePosition = MarkerOutside
			}
		case "text-decoration", "text-decoration-line":
			if val != "none" {
				st.TextDecoration = TextDecorations(utils.NewSet(strings.Fields(val)...))
			}
		}
	}
}

func parseDisplay(st *Style, val string) {
	switch val {
	case "none":
		st.Display = Display{None: true}
	case "contents":
		st.Display = Display{Contents: true}
	case "block":
		st.Display = Display{Outside: OutsideBlock, Inside: InsideFlow}
	case "inline":
		st.Display = Display{Outside: OutsideInline, Inside: InsideFlow}
	case "inline-block":
		st.Display = Display{Outside: OutsideInline, Inside: InsideFlowRoot}
	case "flow-root":
		st.Display = Display{Outside: OutsideBlock, Inside: InsideFlowRoot}
	case "list-item":
		st.Display = Display{Outside: OutsideBlock, Inside: InsideFlow, ListItem: true}
	case "inline list-item":
		st.Display = Display{Outside: OutsideInline, Inside: InsideFlow, ListItem: true}
	case "table":
		st.Display = Display{Outside: OutsideBlock, Inside: InsideTable}
	case "inline-table":
		st.Display = Display{Outside: OutsideInline, Inside: InsideTable}
	default:
		if internal, ok := map[string]DisplayInternal{
			"table-row-group":    InternalTableRowGroup,
			"table-header-group": InternalTableHeaderGroup,
			"table-footer-group": InternalTableFooterGroup,
			"table-row":          InternalTableRow,
			"table-cell":         InternalTableCell,
			"table-column":       InternalTableColumn,
			"table-column-group": InternalTableColumnGroup,
			"table-caption":      InternalTableCaption,
		}[val]; ok {
			st.Display = Display{Internal: internal}
		}
	}
}
