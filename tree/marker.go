package tree

import "strconv"

// markerBullets maps the supported symbolic list-style-types to their
// marker string, https://drafts.csswg.org/css-counter-styles/#simple-symbolic
var markerBullets = map[ListStyleType]string{
	ListStyleDisc:   "•",
	ListStyleCircle: "◦",
	ListStyleSquare: "▪",
}

// MakeMarker returns the ::marker pseudo-element info and its generated
// content for a list item, or ok == false when the item has no marker
// (list-style-type: none).
func MakeMarker(info *NodeAndStyleInfo) (markerInfo *NodeAndStyleInfo, content []ContentItem, ok bool) {
	style := info.Style
	var text string
	switch style.ListStyleType {
	case ListStyleNone, "":
		return nil, nil, false
	case ListStyleDecimal:
		text = strconv.Itoa(listItemOrdinal(info.Node)) + ". "
	default:
		bullet, known := markerBullets[style.ListStyleType]
		if !known {
			bullet = markerBullets[ListStyleDisc]
		}
		text = bullet + " "
	}
	markerInfo = &NodeAndStyleInfo{
		Node:   info.Node,
		Pseudo: PseudoMarker,
		Style:  AnonymousInline(style),
	}
	return markerInfo, []ContentItem{{Text: text}}, true
}

// listItemOrdinal computes the 1-based ordinal of a list item among the
// list-item siblings preceding it. Explicit counter manipulation
// (counter-reset, the "value" attribute) is not supported.
func listItemOrdinal(node *StyledNode) int {
	ordinal := 1
	if node == nil || node.Parent == nil {
		return ordinal
	}
	for _, sibling := range node.Parent.Children {
		if sibling == node {
			break
		}
		if !sibling.IsText() && sibling.Style.Display.ListItem {
			ordinal++
		}
	}
	return ordinal
}
