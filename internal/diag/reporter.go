package diag

import "typedsql/internal/source"

// Reporter receives diagnostics one at a time.
type Reporter interface {
	Report(d *Diagnostic)
}

// BagReporter пишет диагностики в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d *Diagnostic) {
	if r.Bag != nil {
		r.Bag.Add(d)
	}
}

type dedupKey struct {
	code Code
	sev  Severity
	span source.Span
	msg  string
}

// DedupReporter forwards a diagnostic only the first time its code,
// severity, primary span and message are seen. The same compile error can
// reach the report twice when an $ExpectError line does not absorb it.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]bool
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]bool)}
}

func (r *DedupReporter) Report(d *Diagnostic) {
	key := dedupKey{code: d.Code, sev: d.Severity, span: d.Primary, msg: d.Message}
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	if r.next != nil {
		r.next.Report(d)
	}
}
