package boxes

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/net/html"

	"github.com/fluxweb/boxtree/tree"
	tu "github.com/fluxweb/boxtree/utils/testutils"
)

// parseBody parses an HTML fragment and returns the styled node of the
// enclosing <body>.
func parseBody(t *testing.T, fragment string) *tree.StyledNode {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + fragment + "</body></html>"))
	if err != nil {
		t.Fatalf("parsing fixture: %s", err)
	}
	body := findElement(doc, "body")
	if body == nil {
		t.Fatal("fixture has no body")
	}
	return tree.BuildStyledTree(body)
}

func findElement(node *html.Node, tag string) *html.Node {
	if node.Type == html.ElementNode && node.Data == tag {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func buildFixture(t *testing.T, fragment string) *BlockFormattingContext {
	t.Helper()
	return BuildFormattingStructure(&LayoutContext{}, parseBody(t, fragment))
}

func assertSerialized(t *testing.T, bfc *BlockFormattingContext, exp []SerBox) {
	t.Helper()
	tu.AssertEqual(t, Serialize(bfc), exp, cmpopts.EquateEmpty())
}

func ifc(items ...SerBox) SerBox { return SerBox{Type: "ifc", Children: items} }

func text(s string) SerBox { return SerBox{Type: "text", Text: s} }

func block(tag string, children ...SerBox) SerBox {
	return SerBox{Type: "block", Tag: tag, Children: children}
}

func inline(tag string, children ...SerBox) SerBox {
	return SerBox{Type: "inline", Tag: tag, Children: children}
}

func TestPureInlineContainer(t *testing.T) {
	bfc := buildFixture(t, `<p>Some <span>inline</span> text</p>`)
	assertSerialized(t, bfc, []SerBox{
		block("p", ifc(
			text("Some "),
			inline("span", text("inline")),
			text(" text"),
		)),
	})
}

func TestAnonymousBlockWrapping(t *testing.T) {
	bfc := buildFixture(t, `<div>a</div>text<div>b</div>`)
	assertSerialized(t, bfc, []SerBox{
		block("div", ifc(text("a"))),
		block("anonymous", ifc(text("text"))),
		block("div", ifc(text("b"))),
	})
}

// Split fixtures nest the interrupting <div> inside another <div>: the
// HTML parser closes an open <p> at a div start tag, which would move the
// block out of the inline run before construction ever sees it.

func TestInlineSplitAroundBlock(t *testing.T) {
	bfc := buildFixture(t, `<div>a<span>b<div>c</div>d</span>e</div>`)
	assertSerialized(t, bfc, []SerBox{
		block("div",
			block("anonymous", ifc(text("a"), inline("span", text("b")))),
			block("div", ifc(text("c"))),
			block("anonymous", ifc(inline("span", text("d")), text("e"))),
		),
	})
}

func TestInlineSplitDropsEmptyContinuation(t *testing.T) {
	// nothing follows the interrupting block: no trailing anonymous block
	bfc := buildFixture(t, `<div>a<span>b<div>c</div></span></div>`)
	assertSerialized(t, bfc, []SerBox{
		block("div",
			block("anonymous", ifc(text("a"), inline("span", text("b")))),
			block("div", ifc(text("c"))),
		),
	})
}

func TestInlineSplitKeepsLeadingFragment(t *testing.T) {
	// the span opens before the block: its empty leading fragment still
	// generates a box
	bfc := buildFixture(t, `<div><span><div>c</div>d</span></div>`)
	assertSerialized(t, bfc, []SerBox{
		block("div",
			block("anonymous", ifc(inline("span"))),
			block("div", ifc(text("c"))),
			block("anonymous", ifc(inline("span", text("d")))),
		),
	})
}

func TestFirstFormattedLine(t *testing.T) {
	bfc := buildFixture(t, `<div>a<div>b</div>c</div>`)
	outer := bfc.Contents.Boxes[0].(*BlockBox)
	if len(outer.Contents.Boxes) != 3 {
		t.Fatalf("the fixture must split around the nested block, got %d boxes", len(outer.Contents.Boxes))
	}
	first := outer.Contents.Boxes[0].(*BlockBox).Contents.Inline
	last := outer.Contents.Boxes[2].(*BlockBox).Contents.Inline
	if !first.HasFirstFormattedLine {
		t.Fatal("leading inline content must carry the first formatted line")
	}
	if last.HasFirstFormattedLine {
		t.Fatal("inline content after a block is not the first formatted line")
	}
}

func TestWhitespaceBetweenBlocksIsDropped(t *testing.T) {
	bfc := buildFixture(t, `<div>a</div>   <div>b</div>   `)
	assertSerialized(t, bfc, []SerBox{
		block("div", ifc(text("a"))),
		block("div", ifc(text("b"))),
	})
}

func TestPreservedWhitespaceGeneratesBoxes(t *testing.T) {
	bfc := buildFixture(t, `<div>a</div><pre>  </pre>`)
	assertSerialized(t, bfc, []SerBox{
		block("div", ifc(text("a"))),
		block("pre", ifc(text("  "))),
	})
}

func TestDisplayNone(t *testing.T) {
	bfc := buildFixture(t, `<p>a<span style="display: none">b</span>c</p>`)
	assertSerialized(t, bfc, []SerBox{
		block("p", ifc(text("a"), text("c"))),
	})
}

func TestDisplayContents(t *testing.T) {
	bfc := buildFixture(t, `<p>a<span style="display: contents">b<i>c</i></span>d</p>`)
	assertSerialized(t, bfc, []SerBox{
		block("p", ifc(
			text("a"),
			text("b"),
			inline("i", text("c")),
			text("d"),
		)),
	})
}

func TestDisplayContentsWithBlockChild(t *testing.T) {
	bfc := buildFixture(t, `<span style="display: contents">a<div>b</div></span>`)
	assertSerialized(t, bfc, []SerBox{
		block("anonymous", ifc(text("a"))),
		block("div", ifc(text("b"))),
	})
}

func TestAtomicInlines(t *testing.T) {
	bfc := buildFixture(t, `<p>a<span style="display: inline-block">b</span>`+
		`<img src="cat.png" width="10" height="20">c</p>`)
	assertSerialized(t, bfc, []SerBox{
		block("p", ifc(
			text("a"),
			SerBox{Type: "atomic flow-root", Tag: "span", Children: []SerBox{ifc(text("b"))}},
			SerBox{Type: "atomic replaced", Tag: "img", Text: "cat.png"},
			text("c"),
		)),
	})
}

func TestBlockLevelReplaced(t *testing.T) {
	bfc := buildFixture(t, `<img style="display: block" src="cat.png">`)
	assertSerialized(t, bfc, []SerBox{
		{Type: "replaced", Tag: "img", Text: "cat.png"},
	})
}

func TestFlowRootIsIndependent(t *testing.T) {
	bfc := buildFixture(t, `<div style="display: flow-root">a</div>`)
	assertSerialized(t, bfc, []SerBox{
		{Type: "flow-root", Tag: "div", Children: []SerBox{ifc(text("a"))}},
	})
}

func TestAbsolutelyPositioned(t *testing.T) {
	bfc := buildFixture(t, `<div style="position: absolute">x</div>`)
	assertSerialized(t, bfc, []SerBox{
		{Type: "abspos flow-root", Tag: "div", Children: []SerBox{ifc(text("x"))}},
	})
}

func TestAbsolutelyPositionedMidInline(t *testing.T) {
	// mid-inline, the box keeps its inline position in the tree
	bfc := buildFixture(t, `<p>a<span style="position: absolute">x</span>b</p>`)
	assertSerialized(t, bfc, []SerBox{
		block("p", ifc(
			text("a"),
			SerBox{Type: "abspos flow-root", Tag: "span", Children: []SerBox{ifc(text("x"))}},
			text("b"),
		)),
	})
}

func TestOutsideListMarkers(t *testing.T) {
	bfc := buildFixture(t, `<ul><li>x</li></ul>`)
	assertSerialized(t, bfc, []SerBox{
		block("ul",
			block("li",
				SerBox{Type: "marker", Tag: "li", Children: []SerBox{ifc(text("• "))}},
				block("anonymous", ifc(text("x"))),
			),
		),
	})
}

func TestInsideListMarkers(t *testing.T) {
	bfc := buildFixture(t, `<ul style="list-style-position: inside"><li>x</li></ul>`)
	assertSerialized(t, bfc, []SerBox{
		block("ul",
			block("li", ifc(
				inline("li", text("• ")),
				text("x"),
			)),
		),
	})
}

func TestOrderedListMarkers(t *testing.T) {
	bfc := buildFixture(t, `<ol><li>a</li><li>b</li></ol>`)
	ol := bfc.Contents.Boxes[0].(*BlockBox)
	var markers []string
	for _, item := range ol.Contents.Boxes {
		li := item.(*BlockBox)
		marker := li.Contents.Boxes[0].(*OutsideMarkerBox)
		markers = append(markers, marker.Contents.Inline.Items[0].(*TextRun).Text)
	}
	tu.AssertEqual(t, markers, []string{"1. ", "2. "})
}

func TestListStyleNoneHasNoMarker(t *testing.T) {
	bfc := buildFixture(t, `<ul style="list-style-type: none"><li>x</li></ul>`)
	assertSerialized(t, bfc, []SerBox{
		block("ul", block("li", ifc(text("x")))),
	})
}

func TestOutsideMarkerDoesNotEndFirstLine(t *testing.T) {
	bfc := buildFixture(t, `<ul><li>x</li></ul>`)
	li := bfc.Contents.Boxes[0].(*BlockBox).Contents.Boxes[0].(*BlockBox)
	content := li.Contents.Boxes[1].(*BlockBox)
	if !content.Contents.Inline.HasFirstFormattedLine {
		t.Fatal("the marker must not consume the first formatted line")
	}
}

func TestParallelJobsMatchSequential(t *testing.T) {
	const fixture = `<div>a</div><div>b<span>c<div>d</div>e</span></div>` +
		`<ul><li>f</li><li>g</li></ul><div style="float: left">h</div>`

	sequential := BuildFormattingStructure(&LayoutContext{}, parseBody(t, fixture))
	parallel := BuildFormattingStructure(&LayoutContext{ParallelJobs: true}, parseBody(t, fixture))

	// the second container must split around its nested block, so the
	// parallel path resolves recursive jobs and not only leaves
	nested := sequential.Contents.Boxes[1].(*BlockBox)
	if len(nested.Contents.Boxes) != 3 {
		t.Fatalf("the fixture must produce split jobs, got %d boxes", len(nested.Contents.Boxes))
	}

	tu.AssertEqual(t, Serialize(parallel), Serialize(sequential), cmpopts.EquateEmpty())
	tu.AssertEqual(t, parallel.ContainsFloats, sequential.ContainsFloats)
}
