package boxes

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/fluxweb/boxtree/tree"
)

type jobKind uint8

const (
	jobCopy jobKind = iota
	jobRepair
	jobCreate
)

// creatorKind selects the constructor of a Create job.
type creatorKind uint8

const (
	creatorSameContextBlock creatorKind = iota
	creatorIndependent
	creatorAbsolute
	creatorFloat
	creatorOutsideMarker
	creatorAnonymousTable
)

// blockLevelJob is the transient work item for one block-level box. Jobs
// are created during traversal, in document order, and consumed exactly
// once when the container finishes. Each job resolves from its own
// captured inputs only, which is what licenses the parallel map in
// [resolveJobs].
type blockLevelJob struct {
	kind jobKind

	// box is the previous box of a Copy or Repair job.
	box BlockLevelBox

	info       *tree.NodeAndStyleInfo
	display    tree.Display
	contents   tree.Contents
	propagated PropagatedData

	// slot receives the created box, so later repairs can find it.
	slot    tree.BoxSlot
	creator creatorKind

	// finishedInline is the already-built contents of an anonymous block
	// wrapping a flushed inline formatting context.
	finishedInline *InlineFormattingContext

	// prebuilt is the already-constructed context of an anonymous table.
	prebuilt *IndependentFormattingContext
}

// finish resolves the job into an owned box, also reporting whether it
// contributes floats to the parent formatting context.
func (job *blockLevelJob) finish(ctx *LayoutContext) (BlockLevelBox, bool) {
	switch job.kind {
	case jobCopy:
		// the box is reused as-is, but descendants may still need
		// re-layout if an ancestor or sibling moved
		invalidateDescendantCaches(job.box)
		return job.box, blockLevelContainsFloats(job.box)
	case jobRepair:
		repairBlockLevel(ctx, job)
		return job.box, blockLevelContainsFloats(job.box)
	case jobCreate:
		box := job.create(ctx)
		job.slot.Set(blockLayoutBox{box: box})
		return box, blockLevelContainsFloats(box)
	}
	panic("exhaustive switch")
}

func (job *blockLevelJob) create(ctx *LayoutContext) BlockLevelBox {
	info := job.info
	switch job.creator {
	case creatorSameContextBlock:
		box := &BlockBox{BoxBase: newBoxBase(info)}
		if job.finishedInline != nil {
			box.Contents = BlockContainer{Inline: job.finishedInline}
			box.ContainsFloats = job.finishedInline.ContainsFloats
		} else {
			contents := job.nonReplacedContents()
			box.Contents, box.ContainsFloats = buildBlockContainer(ctx, info, contents,
				job.propagated.union(info.Style), job.display.ListItem, nil)
		}
		return box
	case creatorIndependent:
		return &IndependentBox{
			IndependentFormattingContext: *constructIndependent(ctx, info, job.display.Inside, job.contents, job.propagated),
		}
	case creatorAbsolute:
		// propagated data does not follow boxes escaping flow
		return &AbsoluteBox{Context: *constructIndependent(ctx, info, job.display.Inside, job.contents, PropagatedData{})}
	case creatorFloat:
		return &FloatBox{Contents: *constructIndependent(ctx, info, job.display.Inside, job.contents, job.propagated)}
	case creatorOutsideMarker:
		bfc := ConstructBlockFormattingContext(ctx, info, job.nonReplacedContents(), job.propagated, false)
		return &OutsideMarkerBox{
			BoxBase:                newBoxBase(info),
			BlockFormattingContext: *bfc,
			ListItemStyle:          listItemStyle(info),
		}
	case creatorAnonymousTable:
		// the table was constructed when the accumulation flushed
		return &IndependentBox{IndependentFormattingContext: *job.prebuilt}
	}
	panic("exhaustive switch")
}

// nonReplacedContents asserts the job contents are traversable; handing a
// container constructor replaced contents is a programmer error.
func (job *blockLevelJob) nonReplacedContents() tree.NonReplacedContents {
	contents, ok := job.contents.(tree.NonReplacedContents)
	if !ok {
		panic(fmt.Sprintf("replaced contents cannot fill a block container (%s)", job.info))
	}
	return contents
}

// listItemStyle returns the style of the list item a ::marker belongs to.
func listItemStyle(markerInfo *tree.NodeAndStyleInfo) *tree.Style {
	if markerInfo.Node != nil {
		return markerInfo.Node.Style
	}
	return markerInfo.Style
}

// resolveJobs maps every job to its box, preserving list order. The
// parallel and sequential paths are interchangeable: jobs are
// referentially independent of their siblings.
func resolveJobs(ctx *LayoutContext, jobs []*blockLevelJob) ([]BlockLevelBox, bool) {
	if len(jobs) == 0 {
		return nil, false
	}
	boxes := make([]BlockLevelBox, len(jobs))
	floats := make([]bool, len(jobs))
	if ctx.ParallelJobs && len(jobs) > 1 {
		group := new(errgroup.Group)
		group.SetLimit(runtime.GOMAXPROCS(0))
		for i, job := range jobs {
			i, job := i, job
			group.Go(func() error {
				boxes[i], floats[i] = job.finish(ctx)
				return nil
			})
		}
		group.Wait()
	} else {
		for i, job := range jobs {
			boxes[i], floats[i] = job.finish(ctx)
		}
	}
	containsFloats := false
	for _, f := range floats {
		containsFloats = containsFloats || f
	}
	return boxes, containsFloats
}
