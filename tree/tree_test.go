package tree

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	tu "github.com/fluxweb/boxtree/utils/testutils"
)

func parseBody(t *testing.T, fragment string) *StyledNode {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		t.Fatalf("parsing fixture: %s", err)
	}
	var body *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "body" {
			body = node
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	if body == nil {
		t.Fatal("fixture has no body")
	}
	return BuildStyledTree(body)
}

// event is one recorded traversal callback.
type event struct {
	Kind string // "element", "text", "enter", "leave"
	Tag  string
	Text string
}

type recordingHandler struct {
	events     []event
	clearBoxes bool
}

func (r *recordingHandler) HandleElement(info *NodeAndStyleInfo, display Display, contents Contents, slot BoxSlot) {
	r.events = append(r.events, event{Kind: "element", Tag: info.Node.Element.Data})
}

func (r *recordingHandler) HandleText(info *NodeAndStyleInfo, text string) {
	r.events = append(r.events, event{Kind: "text", Text: text})
}

func (r *recordingHandler) EnterDisplayContents(style *Style) {
	r.events = append(r.events, event{Kind: "enter"})
}

func (r *recordingHandler) LeaveDisplayContents() {
	r.events = append(r.events, event{Kind: "leave"})
}

func (r *recordingHandler) NeedClearPseudoElementBox() bool { return r.clearBoxes }

func TestTraverseChildrenOrder(t *testing.T) {
	root := parseBody(t, `a<div>skipped</div>b<span>skipped</span>`)
	handler := &recordingHandler{}
	TraverseChildren(NewInfo(root), handler)
	tu.AssertEqual(t, handler.events, []event{
		{Kind: "text", Text: "a"},
		{Kind: "element", Tag: "div"},
		{Kind: "text", Text: "b"},
		{Kind: "element", Tag: "span"},
	})
}

func TestTraverseSkipsDisplayNone(t *testing.T) {
	root := parseBody(t, `a<div style="display: none">b</div>c`)
	handler := &recordingHandler{}
	TraverseChildren(NewInfo(root), handler)
	tu.AssertEqual(t, handler.events, []event{
		{Kind: "text", Text: "a"},
		{Kind: "text", Text: "c"},
	})
}

func TestTraverseEntersDisplayContents(t *testing.T) {
	root := parseBody(t, `<span style="display: contents">a<i>b</i></span>`)
	handler := &recordingHandler{}
	TraverseChildren(NewInfo(root), handler)
	tu.AssertEqual(t, handler.events, []event{
		{Kind: "enter"},
		{Kind: "text", Text: "a"},
		{Kind: "element", Tag: "i"},
		{Kind: "leave"},
	})
}

func TestTraversePseudoContents(t *testing.T) {
	root := parseBody(t, `<div></div>`)
	info := NewInfo(root.Children[0])
	handler := &recordingHandler{}
	TraverseNonReplaced(PseudoContents{Items: []ContentItem{
		{Text: "1. "},
		{Replaced: &ReplacedContent{Source: "bullet.png"}},
	}}, info, handler)
	tu.AssertEqual(t, handler.events, []event{
		{Kind: "text", Text: "1. "},
		{Kind: "element", Tag: "div"},
	})
}

func TestBoxSlots(t *testing.T) {
	root := parseBody(t, `<div></div>`)
	info := NewInfo(root.Children[0])

	if got := info.PreviousLayoutBox(); got != nil {
		t.Fatalf("expected no recorded box, got %v", got)
	}
	recorded := stubLayoutBox{}
	info.BoxSlot().Set(recorded)
	tu.AssertEqual(t, info.PreviousLayoutBox(), LayoutBox(recorded))

	// the dummy slot discards writes
	DummyBoxSlot().Set(recorded)
	if !DummyBoxSlot().IsDummy() {
		t.Fatal("the zero slot must be dummy")
	}

	root.Children[0].ClearBoxes()
	if info.PreviousLayoutBox() != nil {
		t.Fatal("cleared boxes must be gone")
	}
}

type stubLayoutBox struct{}

func (stubLayoutBox) IsBlockLevel() bool { return true }

func TestMarkerSlotIsSeparate(t *testing.T) {
	root := parseBody(t, `<li></li>`)
	node := root.Children[0]
	self, marker := NewInfo(node), &NodeAndStyleInfo{Node: node, Pseudo: PseudoMarker, Style: node.Style}

	self.BoxSlot().Set(stubLayoutBox{})
	marker.BoxSlot().Set(stubLayoutBox{})
	node.ClearMarkerBox()

	if self.PreviousLayoutBox() == nil {
		t.Fatal("clearing the marker must keep the principal box")
	}
	if marker.PreviousLayoutBox() != nil {
		t.Fatal("the marker box must be cleared")
	}
}

func TestMakeMarker(t *testing.T) {
	root := parseBody(t, `<ol><li>a</li><li>b</li></ol><ul><li>c</li></ul>`)
	ol, ul := root.Children[0], root.Children[1]

	_, content, ok := MakeMarker(NewInfo(ol.Children[1]))
	if !ok {
		t.Fatal("decimal list items have a marker")
	}
	tu.AssertEqual(t, content, []ContentItem{{Text: "2. "}})

	info, content, ok := MakeMarker(NewInfo(ul.Children[0]))
	if !ok {
		t.Fatal("disc list items have a marker")
	}
	tu.AssertEqual(t, content, []ContentItem{{Text: "• "}})
	tu.AssertEqual(t, info.Pseudo, PseudoMarker)

	li := ul.Children[0]
	li.Style.ListStyleType = ListStyleNone
	if _, _, ok := MakeMarker(NewInfo(li)); ok {
		t.Fatal("list-style-type: none generates no marker")
	}
}

func TestListItemOrdinalSkipsNonItems(t *testing.T) {
	root := parseBody(t, `<ol><li>a</li><li style="display: block">x</li><li>b</li></ol>`)
	ol := root.Children[0]
	last := ol.Children[len(ol.Children)-1]
	_, content, ok := MakeMarker(NewInfo(last))
	if !ok {
		t.Fatal("expected a marker")
	}
	tu.AssertEqual(t, content, []ContentItem{{Text: "2. "}})
}

func TestIsCollapsibleWhitespace(t *testing.T) {
	for _, test := range []struct {
		text string
		ws   WhiteSpace
		exp  bool
	}{
		{"   \t\n", WhiteSpaceNormal, true},
		{" a ", WhiteSpaceNormal, false},
		{"", WhiteSpaceNormal, true},
		{"  ", WhiteSpacePre, false},
		{"  ", WhiteSpacePreWrap, false},
		{"  ", WhiteSpacePreLine, true},
		{"  ", WhiteSpaceNowrap, true},
	} {
		if got := IsCollapsibleWhitespace(test.text, test.ws); got != test.exp {
			t.Fatalf("%q with %v: expected %v, got %v", test.text, test.ws, test.exp, got)
		}
	}
}

func TestReplacedElements(t *testing.T) {
	root := parseBody(t, `<img src="cat.png" width="10" height="invalid">`)
	img := root.Children[0]
	tu.AssertEqual(t, img.Replaced, &ReplacedContent{Source: "cat.png", IntrinsicWidth: 10})
}

func TestDamageFlags(t *testing.T) {
	tu.AssertEqual(t, RepairBox.NeedsRepair(), true)
	tu.AssertEqual(t, RepairBox.NeedsRebuild(), false)
	tu.AssertEqual(t, RebuildBox.NeedsRebuild(), true)
	tu.AssertEqual(t, (RepairBox | RebuildBox).NeedsRebuild(), true)
	tu.AssertEqual(t, RestyleDamage(0).NeedsRepair(), false)
}
