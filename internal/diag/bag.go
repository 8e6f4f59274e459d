package diag

import (
	"cmp"
	"slices"
)

// Bag holds the diagnostics that will be printed, up to a limit. The full
// list stays with the caller; the bag only remembers how many it turned
// away.
type Bag struct {
	items   []*Diagnostic
	max     int
	dropped int
}

// NewBag creates a bag holding at most limit diagnostics; limit <= 0 means unbounded.
func NewBag(limit int) *Bag {
	return &Bag{items: make([]*Diagnostic, 0, min(max(limit, 16), 256)), max: limit}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если лимит уже достигнут.
func (b *Bag) Add(d *Diagnostic) bool {
	if d == nil {
		return false
	}
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) Len() int { return len(b.items) }

// Dropped is the number of Add calls rejected by the limit.
func (b *Bag) Dropped() int { return b.dropped }

// Items возвращает внутренний срез; не модифицируйте его.
func (b *Bag) Items() []*Diagnostic { return b.items }

// HasErrors reports whether any held diagnostic is an error.
func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d *Diagnostic) bool { return d.Severity >= SevError })
}

// Sort orders by file, start, end, then errors before warnings, then code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y *Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}
