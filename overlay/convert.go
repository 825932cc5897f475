package overlay

// ToPageSpace converts r into page space for a page of the given size. The
// vertical flip for top-left units happens here and nowhere else.
//
// Negative extents are passed through and yield a Degenerate box.
func ToPageSpace(r Rect, page PageSize) (PageBox, error) {
	if r.Unit == nil {
		return PageBox{}, ErrUnknownUnit
	}
	return r.Unit.toPageSpace(r, page)
}

// FromPageSpace expresses a page-space box in unit, keeping every other field
// of base. It is the inverse of ToPageSpace.
func FromPageSpace(base Rect, box PageBox, page PageSize, unit Unit) (Rect, error) {
	if unit == nil {
		return Rect{}, ErrUnknownUnit
	}
	x, y, w, h, err := unit.fromPageSpace(box, page)
	if err != nil {
		return Rect{}, err
	}
	base.X, base.Y, base.Width, base.Height = x, y, w, h
	base.Unit = unit
	return base, nil
}

// Reunit re-expresses r in another unit without moving it on the page.
func Reunit(r Rect, page PageSize, unit Unit) (Rect, error) {
	box, err := ToPageSpace(r, page)
	if err != nil {
		return Rect{}, err
	}
	return FromPageSpace(r, box, page, unit)
}
