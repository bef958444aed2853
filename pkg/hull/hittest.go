package hull

import "github.com/chazu/curvekit/pkg/kernel"

// HitTest reports whether the curve meets vol. With insideOnly set, every
// point of the curve must lie in vol instead. Elements still crossing the
// volume boundary at the subdivision width count as hits.
func (h *Hull) HitTest(vol kernel.Volume, insideOnly bool) bool {
	if h.Degenerate() {
		return len(h.basePoints) == 1 && vol.Contains(h.basePoints[0])
	}
	if insideOnly {
		for i := 0; i < h.Len(); i++ {
			if !h.cellInside(vol, h.cell(i)) {
				return false
			}
		}
		return true
	}

	var cands []int
	if b, ok := vol.Bounds(); ok {
		cands = h.Index().Search(b)
	} else {
		cands = make([]int, h.Len())
		for i := range cands {
			cands[i] = i
		}
	}
	for _, i := range cands {
		if h.cellHits(vol, h.cell(i)) {
			return true
		}
	}
	return false
}

func (h *Hull) cellHits(vol kernel.Volume, c cell) bool {
	switch vol.Classify(c.bounds(h.cfg.GeometricEpsilon)) {
	case kernel.Outside:
		return false
	case kernel.Inside:
		return true
	}
	if vol.Contains(c.p0) || vol.Contains(c.p1) {
		return true
	}
	if c.width()/h.span() <= h.cfg.SubdivideWidth {
		return true
	}
	l, r := h.halves(c)
	return h.cellHits(vol, l) || h.cellHits(vol, r)
}

func (h *Hull) cellInside(vol kernel.Volume, c cell) bool {
	// The tight corner box keeps curves lying on the boundary inside.
	switch vol.Classify(kernel.BoundingBox(c.p0, c.p1, c.a, c.b)) {
	case kernel.Outside:
		return false
	case kernel.Inside:
		return true
	}
	if !vol.Contains(c.p0) || !vol.Contains(c.p1) {
		return false
	}
	if c.width()/h.span() <= h.cfg.SubdivideWidth {
		return true
	}
	l, r := h.halves(c)
	return h.cellInside(vol, l) && h.cellInside(vol, r)
}
