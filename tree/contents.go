package tree

import "strings"

// ReplacedContent is the opaque handle to replaced content (an image).
// Fetching and decoding are owned by the embedder; box construction only
// carries the handle and its intrinsic size.
type ReplacedContent struct {
	Source                          string
	IntrinsicWidth, IntrinsicHeight int
}

// Contents classifies what the box generated for an element will contain:
// the element's own children, generated pseudo-element content, or
// replaced content.
type Contents interface {
	isContents()
}

// NonReplacedContents is the subset of [Contents] a container box can
// traverse. Box flavors laying out children require it; handing them
// [ReplacedContents] is a programmer error.
type NonReplacedContents interface {
	Contents
	isNonReplaced()
}

// ElementContents stands for the element's own children.
type ElementContents struct{}

// PseudoContents is generated content: an ordered run of text and replaced
// items, as produced for ::marker.
type PseudoContents struct {
	Items []ContentItem
}

// ReplacedContents stands for the content of a replaced element.
type ReplacedContents struct {
	Content *ReplacedContent
}

func (ElementContents) isContents()  {}
func (PseudoContents) isContents()   {}
func (ReplacedContents) isContents() {}

func (ElementContents) isNonReplaced() {}
func (PseudoContents) isNonReplaced()  {}

// ContentItem is one piece of generated content: exactly one of Text and
// Replaced is set.
type ContentItem struct {
	Text     string
	Replaced *ReplacedContent
}

// TraversalHandler receives the children of a container during the
// traversal protocol, in document order.
type TraversalHandler interface {
	HandleElement(info *NodeAndStyleInfo, display Display, contents Contents, slot BoxSlot)
	HandleText(info *NodeAndStyleInfo, text string)

	// EnterDisplayContents and LeaveDisplayContents bracket the children of
	// a "display: contents" element, whose style keeps applying to the
	// text runs among them.
	EnterDisplayContents(style *Style)
	LeaveDisplayContents()

	// NeedClearPseudoElementBox reports whether stale pseudo-element boxes
	// of traversed elements must be dropped, which is the case when the
	// handler builds from scratch instead of repairing.
	NeedClearPseudoElementBox() bool
}

// TraverseChildren drives every child of info.Node through the handler.
func TraverseChildren(info *NodeAndStyleInfo, handler TraversalHandler) {
	if info.Node == nil {
		return
	}
	for _, child := range info.Node.Children {
		traverseNode(child, handler)
	}
}

// TraverseNonReplaced drives the given contents through the handler:
// either the node's children, or generated content items.
func TraverseNonReplaced(contents NonReplacedContents, info *NodeAndStyleInfo, handler TraversalHandler) {
	switch contents := contents.(type) {
	case ElementContents:
		TraverseChildren(info, handler)
	case PseudoContents:
		for _, item := range contents.Items {
			if item.Replaced != nil {
				anon := NewAnonymousInfo(info, AnonymousInline(info.Style))
				handler.HandleElement(anon,
					Display{Outside: OutsideInline, Inside: InsideFlow},
					ReplacedContents{Content: item.Replaced}, DummyBoxSlot())
			} else if item.Text != "" {
				handler.HandleText(info, item.Text)
			}
		}
	}
}

func traverseNode(node *StyledNode, handler TraversalHandler) {
	if node.IsText() {
		if text := node.TextContent(); text != "" {
			handler.HandleText(NewInfo(node), text)
		}
		return
	}
	display := node.Style.Display
	switch {
	case display.IsNone():
		node.ClearBoxes()
	case display.IsContents():
		handler.EnterDisplayContents(node.Style)
		for _, child := range node.Children {
			traverseNode(child, handler)
		}
		handler.LeaveDisplayContents()
	default:
		info := NewInfo(node)
		if handler.NeedClearPseudoElementBox() {
			node.ClearMarkerBox()
		}
		var contents Contents = ElementContents{}
		if node.Replaced != nil {
			contents = ReplacedContents{Content: node.Replaced}
		}
		handler.HandleElement(info, display, contents, info.BoxSlot())
	}
}

// IsCollapsibleWhitespace reports whether text is entirely made of CSS
// segment whitespace that the given white-space value collapses.
func IsCollapsibleWhitespace(text string, ws WhiteSpace) bool {
	if ws.Preserved() {
		return false
	}
	return strings.TrimLeft(text, " \t\n\r\f") == ""
}
