package core

// DataStack is the auto-expanding stack of specific cells used by code
// that accumulates values of unknown count (scanner output, reduce, path
// evaluation). Element 0 holds an unreadable sentinel so a depth of 0
// means "empty" and indices stay unsigned.
type DataStack struct {
	cells []Cell
	limit int
}

// defaultStackLimit bounds stack growth when the platform gives no better
// number; pkg/sys may raise it from RLIMIT_STACK.
const defaultStackLimit = 2_000_000

// DS is the process-wide data stack.
var DS = NewDataStack()

// NewDataStack makes an empty data stack.
func NewDataStack() *DataStack {
	ds := &DataStack{limit: defaultStackLimit}
	ds.cells = make([]Cell, 1, 128)
	InitTrash(&ds.cells[0])
	return ds
}

// SetLimit adjusts the depth limit.
func (ds *DataStack) SetLimit(n int) { ds.limit = n }

// Depth returns the number of pushed cells.
func (ds *DataStack) Depth() int { return len(ds.cells) - 1 }

// Push makes room for one value and returns its cell.
func (ds *DataStack) Push() (*Cell, error) {
	if len(ds.cells) >= ds.limit {
		return nil, newError(ErrStackOverflow)
	}
	ds.cells = append(ds.cells, Cell{})
	c := &ds.cells[len(ds.cells)-1]
	InitTrash(c)
	return c, nil
}

// PushValue copies v onto the stack.
func (ds *DataStack) PushValue(v *Cell) error {
	c, err := ds.Push()
	if err != nil {
		return err
	}
	MoveValue(c, v)
	return nil
}

// Top returns the cell at the top, which must exist.
func (ds *DataStack) Top() *Cell { return &ds.cells[len(ds.cells)-1] }

// At returns the cell at 1-based depth index i.
func (ds *DataStack) At(i int) *Cell { return &ds.cells[i] }

// Pop copies the top into out and drops it.
func (ds *DataStack) Pop(out *Cell) {
	MoveValue(out, ds.Top())
	ds.Drop(1)
}

// Drop removes the top n cells.
func (ds *DataStack) Drop(n int) {
	ds.cells = ds.cells[:len(ds.cells)-n]
}

// Truncate cuts the stack back to the given depth. Used by traps to
// rebalance after an error unwind.
func (ds *DataStack) Truncate(depth int) {
	if ds.Depth() > depth {
		ds.cells = ds.cells[:depth+1]
	}
}

// PopArray moves the cells above the given depth into a fresh array.
func (ds *DataStack) PopArray(depth int) *Series {
	n := ds.Depth() - depth
	arr := MakeArray(n)
	arr.cells = append(arr.cells, ds.cells[depth+1:]...)
	ds.Truncate(depth)
	return arr
}

// chunkerSize is the cell count of one chunk-stack slab.
const chunkerSize = 256

// ChunkStack is the LIFO arena for function call frames' argument cells.
// Chunks are carved out of large slabs ("chunkers") so that pushing a
// frame does not usually touch the heap.
type ChunkStack struct {
	chunkers [][]Cell
	// used[i] is the number of cells handed out from chunkers[i].
	used []int
	// sizes records each live chunk's length, enforcing LIFO discipline.
	sizes []int
	limit int
}

// defaultFrameLimit bounds call recursion: one chunk per live frame.
const defaultFrameLimit = 32_768

// CS is the process-wide chunk stack.
var CS = NewChunkStack()

// NewChunkStack makes an empty chunk stack with one slab.
func NewChunkStack() *ChunkStack {
	return &ChunkStack{
		chunkers: [][]Cell{make([]Cell, chunkerSize)},
		used:     []int{0},
		limit:    defaultFrameLimit,
	}
}

// SetLimit adjusts the live-chunk limit.
func (cs *ChunkStack) SetLimit(n int) { cs.limit = n }

// Depth returns the number of live chunks.
func (cs *ChunkStack) Depth() int { return len(cs.sizes) }

// Push carves a chunk of n cells.
func (cs *ChunkStack) Push(n int) ([]Cell, error) {
	if len(cs.sizes) >= cs.limit {
		return nil, newError(ErrStackOverflow)
	}
	last := len(cs.chunkers) - 1
	if cs.used[last]+n > len(cs.chunkers[last]) {
		size := chunkerSize
		if n > size {
			size = n
		}
		cs.chunkers = append(cs.chunkers, make([]Cell, size))
		cs.used = append(cs.used, 0)
		last++
	}
	start := cs.used[last]
	cs.used[last] += n
	cs.sizes = append(cs.sizes, n)
	return cs.chunkers[last][start : start+n : start+n], nil
}

// Drop releases the top chunk, which must be the one passed in.
func (cs *ChunkStack) Drop(chunk []Cell) {
	if len(cs.sizes) == 0 || cs.sizes[len(cs.sizes)-1] != len(chunk) {
		panic("core: chunk drop out of order")
	}
	cs.sizes = cs.sizes[:len(cs.sizes)-1]
	last := len(cs.chunkers) - 1
	cs.used[last] -= len(chunk)
	if cs.used[last] == 0 && last > 0 {
		cs.chunkers = cs.chunkers[:last]
		cs.used = cs.used[:last]
	}
}

// Truncate drops chunks until only depth remain. Used by traps.
func (cs *ChunkStack) Truncate(depth int) {
	for len(cs.sizes) > depth {
		n := cs.sizes[len(cs.sizes)-1]
		cs.sizes = cs.sizes[:len(cs.sizes)-1]
		last := len(cs.chunkers) - 1
		cs.used[last] -= n
		if cs.used[last] <= 0 && last > 0 {
			cs.used[last] = 0
			cs.chunkers = cs.chunkers[:last]
			cs.used = cs.used[:last]
		}
	}
}
