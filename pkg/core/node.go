package core

// The node layer hands out series nodes and owns their lifetime. A node is
// either unmanaged — tracked on the manuals list so an error unwind can
// release it — or managed, owned by the collector. The transition is
// one-way: a series must be managed before any cell inside it is reachable
// from the root set.
//
// The collector is a plain mark-and-sweep over the managed registry. The
// host language reclaims the memory itself; what sweeping provides is the
// observable semantics: freed-node detection, and canon promotion in the
// intern table when a canon spelling dies while a synonym survives.

var (
	// manuals is the stack of live unmanaged series.
	manuals []*Series
	// managed is the registry the collector sweeps.
	managed []*Series
	// guarded is the explicit GC root stack for in-flight values.
	guarded []*Series
	// guardedCells roots single cells (construct dispatch results).
	guardedCells []*Cell
	// rootContexts are contexts that are always live (lib, system).
	rootContexts []*Context
	// freeNodes is the pool of swept nodes available for reuse.
	freeNodes []*Series

	recycleCount int
)

// allocSeries draws a node from the pool, or makes one.
func allocSeries() *Series {
	var s *Series
	if n := len(freeNodes); n > 0 {
		s = freeNodes[n-1]
		freeNodes = freeNodes[:n-1]
		*s = Series{}
	} else {
		s = &Series{}
	}
	// Fresh series must read white under either polarity.
	if polarity {
		s.flags |= seriesBlack
	}
	manuals = append(manuals, s)
	return s
}

// ManageSeries hands the series to the collector. One-way.
func ManageSeries(s *Series) {
	if s.flags&seriesManaged != 0 {
		return
	}
	for i := len(manuals) - 1; i >= 0; i-- {
		if manuals[i] == s {
			manuals = append(manuals[:i], manuals[i+1:]...)
			break
		}
	}
	s.flags |= seriesManaged
	managed = append(managed, s)
}

// Managed reports whether the collector owns the series.
func (s *Series) Managed() bool { return s.flags&seriesManaged != 0 }

// FreeSeries releases an unmanaged series explicitly.
func FreeSeries(s *Series) {
	if s.flags&seriesManaged != 0 {
		panic("core: FreeSeries on managed series")
	}
	for i := len(manuals) - 1; i >= 0; i-- {
		if manuals[i] == s {
			manuals = append(manuals[:i], manuals[i+1:]...)
			break
		}
	}
	retire(s)
}

// ManageArrayDeep manages an array and every series reachable from it.
func ManageArrayDeep(s *Series) {
	if s == nil || s.Managed() {
		return
	}
	ManageSeries(s)
	if s.class != ClassArray {
		return
	}
	for i := range s.cells {
		if sub := s.cells[i].ser; sub != nil {
			ManageArrayDeep(sub)
		}
	}
}

// FreeArrayDeep releases an unmanaged array and every unmanaged series
// reachable from it: the teardown of a partially built tree. Managed and
// already-freed series are left alone, so shared substructure is safe.
func FreeArrayDeep(s *Series) {
	if s == nil || s.Managed() || s.flags&seriesFree != 0 {
		return
	}
	if s.class == ClassArray {
		for i := range s.cells {
			if sub := s.cells[i].ser; sub != nil {
				FreeArrayDeep(sub)
			}
		}
	}
	FreeSeries(s)
}

// GuardSeries roots s against collection until the returned func runs.
func GuardSeries(s *Series) func() {
	guarded = append(guarded, s)
	return func() { guarded = guarded[:len(guarded)-1] }
}

// GuardCell roots the series reachable from a single cell.
func GuardCell(c *Cell) func() {
	guardedCells = append(guardedCells, c)
	return func() { guardedCells = guardedCells[:len(guardedCells)-1] }
}

// AddRootContext registers a context that is always reachable.
func AddRootContext(c *Context) { rootContexts = append(rootContexts, c) }

// Recycle runs a full collection and returns the number of series swept.
func Recycle() int {
	recycleCount++

	// Mark.
	for _, s := range manuals {
		markSeries(s)
	}
	for _, s := range guarded {
		markSeries(s)
	}
	for _, c := range guardedCells {
		markCell(c)
	}
	for _, c := range rootContexts {
		markSeries(c.varlist)
	}
	for i := 0; i <= DS.Depth(); i++ {
		markCell(DS.At(i))
	}
	for f := topFrame; f != nil; f = f.prior {
		markFrame(f)
	}

	// Sweep spellings first: canon promotion must see final liveness.
	interner.sweep()

	// Sweep series.
	swept := 0
	live := managed[:0]
	for _, s := range managed {
		if s.flags&seriesMarked != 0 {
			s.flags &^= seriesMarked
			live = append(live, s)
			continue
		}
		retire(s)
		swept++
	}
	managed = live
	return swept
}

func retire(s *Series) {
	s.flags = seriesFree | seriesInaccessible
	s.cells = nil
	s.bytes = nil
	s.runes = nil
	s.keylist = nil
	s.frame = nil
	s.ancestor = nil
	s.file = nil
	s.fun = nil
	freeNodes = append(freeNodes, s)
}

func markSeries(s *Series) {
	if s == nil || s.flags&(seriesMarked|seriesFree) != 0 {
		return
	}
	s.flags |= seriesMarked
	if s.class == ClassArray {
		for i := range s.cells {
			markCell(&s.cells[i])
		}
	}
	markSpelling(s.file)
	if s.keylist != nil {
		markSeries(s.keylist)
	}
	if s.ancestor != nil && s.ancestor != s {
		markSeries(s.ancestor)
	}
	if s.fun != nil {
		markSeries(s.fun.body)
		markSeries(s.fun.facade)
		if s.fun.exemplar != nil {
			markSeries(s.fun.exemplar.varlist)
		}
		markSpelling(s.fun.name)
	}
}

func markCell(c *Cell) {
	if c == nil {
		return
	}
	markSeries(c.ser)
	markSpelling(c.spelling)
	switch c.binding.kind {
	case bindSpecific:
		markSeries(c.binding.ctx.varlist)
	case bindRelative:
		markSeries(c.binding.paramlist)
	case bindDirect:
		markFrame(c.binding.frame)
	}
}

func markFrame(f *Frame) {
	if f == nil || f.markTick == recycleCount {
		return
	}
	f.markTick = recycleCount
	for i := range f.args {
		markCell(&f.args[i])
	}
	markSeries(f.fun.paramlist)
	markSeries(f.facade)
	markSeries(f.varlist)
	markCell(f.out)
	switch f.binding.kind {
	case bindSpecific:
		markSeries(f.binding.ctx.varlist)
	case bindRelative:
		markSeries(f.binding.paramlist)
	}
}

func markSpelling(sp *Spelling) {
	if sp == nil || sp.marked {
		return
	}
	sp.marked = true
	// The canon is not kept alive by its synonyms: when a canon dies
	// while a variant survives, the sweep promotes the variant.
}
