// Package widgets holds small custom Fyne widgets used by the windows.
package widgets

import (
	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

var _ fyneapp.DoubleTappable = (*DoubleTapLabel)(nil)

// DoubleTapLabel is a list row label that reports double taps with the row
// index it currently displays. List rows are recycled, so the owner must call
// SetIndex from its update callback.
type DoubleTapLabel struct {
	widget.Label
	doubleTapped func(index int)
	index        int
}

// NewDoubleTapLabel creates a label calling doubleTapped on double tap.
func NewDoubleTapLabel(doubleTapped func(index int)) *DoubleTapLabel {
	label := &DoubleTapLabel{
		doubleTapped: doubleTapped,
		index:        -1,
	}
	label.Truncation = fyneapp.TextTruncateEllipsis
	label.ExtendBaseWidget(label)
	return label
}

// DoubleTapped implements fyne.DoubleTappable.
func (l *DoubleTapLabel) DoubleTapped(_ *fyneapp.PointEvent) {
	if l.doubleTapped != nil && l.index >= 0 {
		l.doubleTapped(l.index)
	}
}

// SetIndex binds the label to a list row.
func (l *DoubleTapLabel) SetIndex(index int) {
	l.index = index
}

// Index returns the bound row, -1 before SetIndex.
func (l *DoubleTapLabel) Index() int {
	return l.index
}
