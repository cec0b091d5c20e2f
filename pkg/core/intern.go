package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Spelling is one interned word spelling. Interning gives each unique byte
// sequence one node, so spellings compare by address. Case variants of the
// same word are chained on a circular synonym ring anchored at a designated
// canon; only canons appear in the hash table.
type Spelling struct {
	text string

	// canon points at the ring's canon; nil on the canon itself.
	canon *Spelling
	// synonym is the next node on the circular ring; self when alone.
	synonym *Spelling

	hash uint32

	// marked is the collector's reachability bit for spellings.
	marked bool
}

// Text returns the spelling with its original case.
func (sp *Spelling) Text() string { return sp.text }

// Canon returns the canon of sp's case-insensitive equivalence class.
func (sp *Spelling) Canon() *Spelling {
	if sp.canon == nil {
		return sp
	}
	return sp.canon
}

// IsCanon reports whether sp is its ring's canon.
func (sp *Spelling) IsCanon() bool { return sp.canon == nil }

// SameWord reports case-insensitive equality of two spellings.
func SameWord(a, b *Spelling) bool { return a.Canon() == b.Canon() }

// caseFold lowercases a spelling for hashing and comparison. Word spellings
// compare case-insensitively under Unicode simple folding.
func caseFold(s string) string {
	return strings.Map(unicode.ToLower, s)
}

// foldHash is an FNV-1a over the case-folded text.
func foldHash(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for _, r := range caseFold(s) {
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for _, b := range buf[:n] {
			h ^= uint32(b)
			h *= prime32
		}
	}
	return h
}

// tablePrimes is the fixed growth sequence for the hash table.
var tablePrimes = []int{251, 509, 1021, 2039, 4093, 8191, 16381, 32749,
	65521, 131071, 262139, 524287, 1048573, 2097143}

// tombstone marks a deleted slot. Probes must continue past it; inserts
// may reuse it.
var tombstone = &Spelling{}

// Interner is the global spelling table: linear probing over canons, with
// tombstones preserving probe continuity across deletions. The system is
// single-threaded cooperative, so the table takes no lock.
type Interner struct {
	slots []*Spelling
	used  int // live canons + tombstones

	// all tracks every interned spelling for the collector's sweep.
	all []*Spelling
}

// NewInterner makes an empty interner at the smallest table size.
func NewInterner() *Interner {
	return &Interner{slots: make([]*Spelling, tablePrimes[0])}
}

// interner is the process-wide spelling table.
var interner = NewInterner()

// Intern returns the unique spelling for text, creating it if needed. A new
// spelling that case-insensitively matches an existing canon joins that
// canon's synonym ring; otherwise it becomes a canon itself.
func Intern(text string) *Spelling { return interner.Intern(text) }

// FindCanon returns the canon for text if any spelling of it is interned.
func FindCanon(text string) *Spelling { return interner.FindCanon(text) }

// Intern returns the unique spelling for text, creating it if needed.
func (it *Interner) Intern(text string) *Spelling {
	h := foldHash(text)
	canon, slot := it.probe(h, text)
	if canon != nil {
		// Exact byte match may already be on the ring.
		sp := canon
		for {
			if sp.text == text {
				return sp
			}
			sp = sp.synonym
			if sp == canon {
				break
			}
		}
		// New case variant: stitch into the ring after the canon.
		sp = &Spelling{text: text, hash: h, canon: canon, synonym: canon.synonym}
		canon.synonym = sp
		it.all = append(it.all, sp)
		return sp
	}
	// New canon.
	sp := &Spelling{text: text, hash: h}
	sp.synonym = sp
	it.install(slot, sp)
	it.all = append(it.all, sp)
	if 2*it.used >= len(it.slots) {
		it.rehash()
	}
	return sp
}

// FindCanon looks text up without interning. Nil if absent.
func (it *Interner) FindCanon(text string) *Spelling {
	canon, _ := it.probe(foldHash(text), text)
	return canon
}

// probe runs the standard linear probe for text's canon. It returns the
// canon if present, else nil plus the slot index where an insert belongs
// (the first tombstone seen, or the terminating null slot).
func (it *Interner) probe(h uint32, text string) (*Spelling, int) {
	folded := caseFold(text)
	size := len(it.slots)
	insert := -1
	i := int(h) % size
	if i < 0 {
		i += size
	}
	for {
		sp := it.slots[i]
		if sp == nil {
			if insert < 0 {
				insert = i
			}
			return nil, insert
		}
		if sp == tombstone {
			if insert < 0 {
				insert = i
			}
		} else if sp.hash == h && caseFold(sp.text) == folded {
			return sp, i
		}
		i++
		if i == size {
			i = 0
		}
	}
}

func (it *Interner) install(slot int, sp *Spelling) {
	if it.slots[slot] == nil {
		it.used++
	}
	it.slots[slot] = sp
}

// rehash moves to the next prime size, compacting tombstones.
func (it *Interner) rehash() {
	var next int
	for _, p := range tablePrimes {
		if p > len(it.slots) {
			next = p
			break
		}
	}
	if next == 0 {
		next = len(it.slots)*2 + 1
	}
	old := it.slots
	it.slots = make([]*Spelling, next)
	it.used = 0
	for _, sp := range old {
		if sp == nil || sp == tombstone {
			continue
		}
		_, slot := it.probe(sp.hash, sp.text)
		it.install(slot, sp)
	}
}

// remove deletes a canon's slot, leaving a tombstone so that probe chains
// through it stay intact.
func (it *Interner) remove(canon *Spelling) {
	_, i := it.probeExact(canon)
	if i >= 0 {
		it.slots[i] = tombstone
	}
}

func (it *Interner) probeExact(canon *Spelling) (*Spelling, int) {
	size := len(it.slots)
	i := int(canon.hash) % size
	if i < 0 {
		i += size
	}
	for {
		sp := it.slots[i]
		if sp == nil {
			return nil, -1
		}
		if sp == canon {
			return sp, i
		}
		i++
		if i == size {
			i = 0
		}
	}
}

// sweep drops spellings the collector found unreachable. A collected canon
// with surviving synonyms promotes one synonym to canon: the hash slot is
// updated, the flag moves, and the ring is restitched.
func (it *Interner) sweep() {
	live := it.all[:0]
	for _, sp := range it.all {
		if sp.marked {
			live = append(live, sp)
			continue
		}
		it.drop(sp)
	}
	it.all = live
	for _, sp := range it.all {
		sp.marked = false
	}
}

func (it *Interner) drop(sp *Spelling) {
	// Unstitch from the ring.
	prev := sp
	for prev.synonym != sp {
		prev = prev.synonym
	}
	alone := prev == sp
	prev.synonym = sp.synonym

	if !sp.IsCanon() {
		return
	}
	if alone {
		it.remove(sp)
		return
	}
	// Promote the next ring node to canon.
	heir := sp.synonym
	_, slot := it.probeExact(sp)
	heir.canon = nil
	for n := heir.synonym; n != heir; n = n.synonym {
		n.canon = heir
	}
	if slot >= 0 {
		it.slots[slot] = heir
	}
}

// Binder is a pass-local side table mapping canons to indices during a
// collect/bind pass. The original design parked these indices inside the
// canon node itself; a side table keyed by canon retires the re-entrancy
// hazard while keeping O(1) lookups.
type Binder struct {
	index map[*Spelling]int
}

// NewBinder makes an empty binder.
func NewBinder() *Binder { return &Binder{index: make(map[*Spelling]int)} }

// Add records an index for the canon of sp. It reports false if the canon
// already has one.
func (b *Binder) Add(sp *Spelling, i int) bool {
	c := sp.Canon()
	if _, dup := b.index[c]; dup {
		return false
	}
	b.index[c] = i
	return true
}

// Get returns the index recorded for the canon of sp, or 0 and false.
func (b *Binder) Get(sp *Spelling) (int, bool) {
	i, ok := b.index[sp.Canon()]
	return i, ok
}

// Set records or overwrites the index for the canon of sp.
func (b *Binder) Set(sp *Spelling, i int) { b.index[sp.Canon()] = i }

// Release ends the pass. With a side table there is nothing to unwind, but
// callers still bracket passes so a future in-node representation could be
// restored safely.
func (b *Binder) Release() { b.index = nil }
