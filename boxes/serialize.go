package boxes

// SerBox is the serialized form of a box, used to express expected trees
// compactly in tests and debug dumps.
type SerBox struct {
	Type     string
	Tag      string
	Text     string
	Children []SerBox
}

// Serialize dumps a block formatting context as a serialized tree.
func Serialize(bfc *BlockFormattingContext) []SerBox {
	return SerializeContainer(&bfc.Contents)
}

// SerializeContainer dumps the children of a block container: either its
// block-level boxes, or a single "ifc" entry.
func SerializeContainer(c *BlockContainer) []SerBox {
	if c.Inline != nil {
		return []SerBox{serializeInline(c.Inline)}
	}
	out := make([]SerBox, len(c.Boxes))
	for i, box := range c.Boxes {
		out[i] = serializeBlockLevel(box)
	}
	return out
}

func serializeBlockLevel(box BlockLevelBox) SerBox {
	switch box := box.(type) {
	case *BlockBox:
		return SerBox{Type: "block", Tag: box.ElementTag(), Children: SerializeContainer(&box.Contents)}
	case *IndependentBox:
		return serializeIndependent(&box.IndependentFormattingContext)
	case *AbsoluteBox:
		ser := serializeIndependent(&box.Context)
		ser.Type = "abspos " + ser.Type
		return ser
	case *FloatBox:
		ser := serializeIndependent(&box.Contents)
		ser.Type = "float " + ser.Type
		return ser
	case *OutsideMarkerBox:
		return SerBox{Type: "marker", Tag: box.ElementTag(), Children: SerializeContainer(&box.Contents)}
	}
	panic("exhaustive switch")
}

func serializeIndependent(f *IndependentFormattingContext) SerBox {
	switch {
	case f.Replaced != nil:
		return SerBox{Type: "replaced", Tag: f.ElementTag(), Text: f.Replaced.Source}
	case f.Table != nil:
		return serializeTable(f.Table)
	default:
		return SerBox{Type: "flow-root", Tag: f.ElementTag(), Children: SerializeContainer(&f.Flow.Contents)}
	}
}

func serializeTable(t *TableBox) SerBox {
	ser := SerBox{Type: "table", Tag: t.ElementTag()}
	for _, caption := range t.Captions {
		ser.Children = append(ser.Children, SerBox{
			Type: "caption", Tag: caption.ElementTag(),
			Children: SerializeContainer(&caption.Contents.Contents),
		})
	}
	for _, group := range t.Groups {
		kind := [...]string{BodyGroup: "row-group", HeaderGroup: "header-group", FooterGroup: "footer-group"}[group.Kind]
		serGroup := SerBox{Type: kind, Tag: group.ElementTag()}
		for _, row := range group.Rows {
			serRow := SerBox{Type: "row", Tag: row.ElementTag()}
			for _, cell := range row.Cells {
				serRow.Children = append(serRow.Children, SerBox{
					Type: "cell", Tag: cell.ElementTag(),
					Children: SerializeContainer(&cell.Contents.Contents),
				})
			}
			serGroup.Children = append(serGroup.Children, serRow)
		}
		ser.Children = append(ser.Children, serGroup)
	}
	return ser
}

func serializeInline(ifc *InlineFormattingContext) SerBox {
	return SerBox{Type: "ifc", Children: serializeInlineItems(ifc.Items)}
}

func serializeInlineItems(items []InlineItem) []SerBox {
	out := make([]SerBox, 0, len(items))
	for _, item := range items {
		switch item := item.(type) {
		case *TextRun:
			out = append(out, SerBox{Type: "text", Text: item.Text})
		case *InlineBox:
			out = append(out, SerBox{Type: "inline", Tag: item.ElementTag(), Children: serializeInlineItems(item.Children)})
		case *AtomicInline:
			ser := serializeIndependent(item.Context)
			ser.Type = "atomic " + ser.Type
			out = append(out, ser)
		case *InlineFloat:
			ser := serializeIndependent(&item.Box.Contents)
			ser.Type = "float " + ser.Type
			out = append(out, ser)
		case *InlineAbsolute:
			ser := serializeIndependent(&item.Box.Context)
			ser.Type = "abspos " + ser.Type
			out = append(out, ser)
		default:
			panic("exhaustive switch")
		}
	}
	return out
}
