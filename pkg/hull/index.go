package hull

import (
	"sort"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"

	"github.com/chazu/curvekit/pkg/kernel"
)

// Index is an R-tree over a hull's element boxes.
type Index struct {
	tree    *rtreego.Rtree
	entries []*indexEntry
	extent  sdf.Box3
}

// indexEntry is one element's bounding box in the tree.
type indexEntry struct {
	elem   int
	lo, hi float64
	rect   rtreego.Rect
}

var _ rtreego.Spatial = (*indexEntry)(nil)

// Bounds implements rtreego.Spatial.
func (e *indexEntry) Bounds() rtreego.Rect { return e.rect }

func toRect(b sdf.Box3) (rtreego.Rect, error) {
	return rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.X, b.Min.Y, b.Min.Z},
		rtreego.Point{b.Max.X, b.Max.Y, b.Max.Z},
	)
}

func newIndex(h *Hull) *Index {
	ix := &Index{entries: make([]*indexEntry, 0, h.Len())}
	objs := make([]rtreego.Spatial, 0, h.Len())
	for i := 0; i < h.Len(); i++ {
		b := h.Bounds(i)
		r, err := toRect(b)
		if err != nil {
			Logger().Warn("hull: element box rejected by index", "element", i, "error", err)
			continue
		}
		if i == 0 {
			ix.extent = b
		} else {
			ix.extent = kernel.BoundingBox(ix.extent.Min, ix.extent.Max, b.Min, b.Max)
		}
		lo, hi := h.Interval(i)
		e := &indexEntry{elem: i, lo: lo, hi: hi, rect: r}
		ix.entries = append(ix.entries, e)
		objs = append(objs, e)
	}
	ix.tree = rtreego.NewTree(3, 8, 32, objs...)
	Logger().Debug("hull: index built", "entries", len(ix.entries))
	return ix
}

// Index returns the hull's spatial index, building it on first use.
func (h *Hull) Index() *Index {
	h.indexOnce.Do(func() {
		h.index = newIndex(h)
	})
	return h.index
}

// Size returns the number of indexed elements.
func (ix *Index) Size() int { return len(ix.entries) }

// Extent returns the box enclosing every element.
func (ix *Index) Extent() sdf.Box3 { return ix.extent }

// Search returns the elements whose boxes meet b, in parameter order.
func (ix *Index) Search(b sdf.Box3) []int {
	if len(ix.entries) == 0 {
		return nil
	}
	r, err := toRect(b)
	if err != nil {
		return nil
	}
	found := ix.tree.SearchIntersect(r)
	out := make([]int, 0, len(found))
	for _, s := range found {
		out = append(out, s.(*indexEntry).elem)
	}
	sort.Ints(out)
	return out
}

// Nearest returns up to k elements whose boxes are closest to p.
func (ix *Index) Nearest(p v3.Vec, k int) []int {
	if len(ix.entries) == 0 || k <= 0 {
		return nil
	}
	found := ix.tree.NearestNeighbors(k, rtreego.Point{p.X, p.Y, p.Z})
	out := make([]int, 0, len(found))
	for _, s := range found {
		if s == nil {
			continue
		}
		out = append(out, s.(*indexEntry).elem)
	}
	return out
}

// around returns the cube of half size r centred on p.
func around(p v3.Vec, r float64) sdf.Box3 {
	d := v3.Vec{X: r, Y: r, Z: r}
	return sdf.Box3{Min: p.Sub(d), Max: p.Add(d)}
}

// boxDistance is the distance from p to the nearest point of b.
func boxDistance(p v3.Vec, b sdf.Box3) float64 {
	q := p.Max(b.Min).Min(b.Max)
	return q.Sub(p).Length()
}

// searchRadius is the largest box a growing search around p can need.
func (ix *Index) searchRadius(p v3.Vec) float64 {
	return 2*kernel.Diagonal(ix.extent) + boxDistance(p, ix.extent) + 1
}
