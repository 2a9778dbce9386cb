package tree

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// RestyleDamage is the set of flags computed by the style system describing
// how much of a node's box must be redone after a style change.
type RestyleDamage uint8

const (
	// RepairBox means the previous box may be kept but must be revalidated
	// and relaid out.
	RepairBox RestyleDamage = 1 << iota
	// RebuildBox means the previous box must be discarded and rebuilt.
	RebuildBox
)

func (d RestyleDamage) NeedsRebuild() bool { return d&RebuildBox != 0 }
func (d RestyleDamage) NeedsRepair() bool  { return d&RepairBox != 0 }

// LayoutBox is the opaque value a styled node records about the box(es) it
// generated, read back during incremental repair. The concrete
// representations live in the boxes package.
type LayoutBox interface {
	// IsBlockLevel reports whether the value stands for a single
	// block-level box, as opposed to a run of inline-level boxes.
	IsBlockLevel() bool
}

type layoutCell struct {
	box LayoutBox
}

// BoxSlot is a write sink for the box(es) generated by one node (or one of
// its pseudo-elements). The zero value is a dummy slot discarding writes,
// used for anonymous boxes which do not support repair tracking.
type BoxSlot struct {
	cell *layoutCell
}

// DummyBoxSlot returns a slot that discards writes.
func DummyBoxSlot() BoxSlot { return BoxSlot{} }

func (s BoxSlot) IsDummy() bool { return s.cell == nil }

// Set records the box(es) built for the slot's node. Called exactly once
// per (re)build of that node.
func (s BoxSlot) Set(b LayoutBox) {
	if s.cell != nil {
		s.cell.box = b
	}
}

// LayoutData holds the per-node state written by box construction: one box
// slot per pseudo-element designator.
type LayoutData struct {
	self, marker layoutCell
}

// StyledNode is a DOM-like node with its computed style, as handed over by
// the style system. Box construction reads everything but the layout data,
// which it owns.
type StyledNode struct {
	Element  *html.Node // underlying document node, nil for generated content
	Style    *Style
	Parent   *StyledNode
	Children []*StyledNode

	// Damage is the restyle damage of the node; reset by the embedder once
	// a build or repair pass has consumed it.
	Damage RestyleDamage

	// Replaced is non-nil when the element is replaced content (an image).
	Replaced *ReplacedContent

	layout LayoutData
}

// IsText reports whether the node is a text node; its contents are then in
// [StyledNode.TextContent].
func (n *StyledNode) IsText() bool {
	return n.Element != nil && n.Element.Type == html.TextNode
}

func (n *StyledNode) TextContent() string {
	if n.Element == nil {
		return ""
	}
	return n.Element.Data
}

// ClearBoxes drops every box recorded for the node, pseudo-elements
// included. Called when the node stops generating boxes (display: none).
func (n *StyledNode) ClearBoxes() {
	n.layout = LayoutData{}
}

// ClearMarkerBox drops the recorded ::marker box only.
func (n *StyledNode) ClearMarkerBox() {
	n.layout.marker = layoutCell{}
}

func (n *StyledNode) String() string {
	if n.IsText() {
		return fmt.Sprintf("#text(%q)", n.TextContent())
	}
	if n.Element != nil {
		return "<" + n.Element.Data + ">"
	}
	return "<anonymous>"
}

// PseudoElement designates which box of a node an info refers to.
type PseudoElement string

const (
	PseudoNone   PseudoElement = ""
	PseudoMarker PseudoElement = "marker"
	// PseudoAnonymous marks the synthesized infos of anonymous wrapper
	// boxes, which have no originating element.
	PseudoAnonymous PseudoElement = "anonymous-box"
)

// NodeAndStyleInfo bundles a styled node with the style and pseudo-element
// designator a box is generated for. Anonymous boxes keep a reference to
// the node they were synthesized from, for style inheritance.
type NodeAndStyleInfo struct {
	Node   *StyledNode
	Pseudo PseudoElement
	Style  *Style
}

func (info *NodeAndStyleInfo) String() string {
	if info.Node == nil {
		return "<anonymous>"
	}
	if info.Pseudo != PseudoNone {
		return info.Node.String() + "::" + string(info.Pseudo)
	}
	return info.Node.String()
}

func NewInfo(node *StyledNode) *NodeAndStyleInfo {
	return &NodeAndStyleInfo{Node: node, Style: node.Style}
}

// NewAnonymousInfo derives the info of an anonymous box from its container.
func NewAnonymousInfo(parent *NodeAndStyleInfo, style *Style) *NodeAndStyleInfo {
	return &NodeAndStyleInfo{Node: parent.Node, Pseudo: PseudoAnonymous, Style: style}
}

// IsAnonymous reports whether the info designates a box with no
// originating element of its own.
func (info *NodeAndStyleInfo) IsAnonymous() bool {
	return info.Node == nil || info.Pseudo == PseudoAnonymous
}

// Damage returns the restyle damage of the underlying node; anonymous
// boxes always rebuild.
func (info *NodeAndStyleInfo) Damage() RestyleDamage {
	if info.IsAnonymous() {
		return RebuildBox
	}
	return info.Node.Damage
}

// BoxSlot returns the slot the box built for this info must be written to.
func (info *NodeAndStyleInfo) BoxSlot() BoxSlot {
	if info.IsAnonymous() {
		return DummyBoxSlot()
	}
	switch info.Pseudo {
	case PseudoNone:
		return BoxSlot{cell: &info.Node.layout.self}
	case PseudoMarker:
		return BoxSlot{cell: &info.Node.layout.marker}
	}
	return DummyBoxSlot()
}

// PreviousLayoutBox returns the box(es) recorded by the last build for this
// info, or nil.
func (info *NodeAndStyleInfo) PreviousLayoutBox() LayoutBox {
	if info.IsAnonymous() {
		return nil
	}
	switch info.Pseudo {
	case PseudoNone:
		return info.Node.layout.self.box
	case PseudoMarker:
		return info.Node.layout.marker.box
	}
	return nil
}

// -------------------- fixture tree building --------------------

// BuildStyledTree computes the styled node tree of a parsed document
// fragment, using the default tag styling overlaid with inline "style"
// attributes. Whitespace-only text between internal table parts is kept;
// style-less DOM plumbing (comments, doctypes) is dropped.
func BuildStyledTree(root *html.Node) *StyledNode {
	return buildStyledNode(root, nil)
}

func buildStyledNode(el *html.Node, parent *StyledNode) *StyledNode {
	node := &StyledNode{Element: el, Parent: parent}
	switch el.Type {
	case html.TextNode:
		node.Style = inheritedOnly(parent)
		return node
	case html.ElementNode:
		st := defaultStyle(el.Data)
		inherit(st, parent)
		if v := attribute(el, "style"); v != "" {
			parseStyleAttribute(st, v)
		}
		node.Style = st
		if el.Data == "img" {
			node.Replaced = &ReplacedContent{
				Source:          attribute(el, "src"),
				IntrinsicWidth:  intAttribute(el, "width", 0),
				IntrinsicHeight: intAttribute(el, "height", 0),
			}
		}
	default:
		return nil
	}
	for child := el.FirstChild; child != nil; child = child.NextSibling {
		if sn := buildStyledNode(child, node); sn != nil {
			node.Children = append(node.Children, sn)
		}
	}
	return node
}

// inherit overlays the inherited properties of the parent style.
func inherit(st *Style, parent *StyledNode) {
	if parent == nil {
		return
	}
	st.WhiteSpace = parent.Style.WhiteSpace
	st.ListStylePosition = parent.Style.ListStylePosition
	if parent.Style.ListStyleType != "" {
		st.ListStyleType = parent.Style.ListStyleType
	}
	if parent.Element != nil && parent.Element.Data == "ol" {
		st.ListStyleType = ListStyleDecimal
	}
}

func inheritedOnly(parent *StyledNode) *Style {
	if parent == nil {
		return &Style{Display: Display{Outside: OutsideInline, Inside: InsideFlow}}
	}
	return AnonymousInline(parent.Style)
}

func attribute(el *html.Node, name string) string {
	for _, a := range el.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// intAttribute reads an integer attribute, defaulting when missing or
// invalid.
func intAttribute(el *html.Node, name string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(attribute(el, name)))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
