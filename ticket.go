package chunkring

import "io"

// Ticket is the handle to a claimed slot: its ring position plus access to
// the slot's chunk, length word and metadata.
//
// A Ticket is valid from a successful claim until the matching
// CommitProducer or ReleaseConsumer and must not be used afterwards.
// Write, WriteString and SetLen check this and fail with ErrStaleTicket;
// the other accessors do not. The zero Ticket refers to no slot; its
// unchecked accessors panic.
type Ticket[M any] struct {
	ring     *Ring[M]
	pos      uint64
	deferred bool // tail is advanced at commit (non-blocking producer claim)
	consumer bool
}

// Valid reports whether t came from a successful claim.
func (t Ticket[M]) Valid() bool {
	return t.ring != nil
}

// Position returns the global ring position of the claim.
func (t Ticket[M]) Position() uint64 {
	return t.pos
}

// Index returns the slot index of the claim, Position() & (capacity-1).
func (t Ticket[M]) Index() int {
	return int(t.pos & t.ring.mask)
}

// Offset returns the byte offset of the chunk within the ring's arena.
func (t Ticket[M]) Offset() int {
	return t.Index() * t.ring.chunkSize
}

// Chunk returns the whole chunk. Its capacity is limited to the chunk size,
// so appending to it never spills into a neighbouring chunk.
func (t Ticket[M]) Chunk() []byte {
	off := t.Offset()
	end := off + t.ring.chunkSize
	return t.ring.arena[off:end:end]
}

// Len returns the number of bytes in use.
func (t Ticket[M]) Len() int {
	return t.ring.lens[t.Index()]
}

// SetLen records that the first n bytes of the chunk are in use.
func (t Ticket[M]) SetLen(n int) error {
	if err := t.check(); err != nil {
		return err
	}
	if n < 0 || n > t.ring.chunkSize {
		return ErrChunkBounds
	}
	t.ring.lens[t.Index()] = n
	return nil
}

// Bytes returns the bytes in use, Chunk()[:Len()].
func (t Ticket[M]) Bytes() []byte {
	return t.Chunk()[:t.Len()]
}

// Write appends p after the bytes in use. If p does not fit, the prefix
// that fits is written and io.ErrShortWrite is returned.
func (t Ticket[M]) Write(p []byte) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	idx := t.Index()
	used := t.ring.lens[idx]
	n := copy(t.Chunk()[used:], p)
	t.ring.lens[idx] = used + n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// WriteString is Write for strings.
func (t Ticket[M]) WriteString(s string) (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	idx := t.Index()
	used := t.ring.lens[idx]
	n := copy(t.Chunk()[used:], s)
	t.ring.lens[idx] = used + n
	if n < len(s) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Reset marks the chunk as empty. The bytes are left as they are.
func (t Ticket[M]) Reset() {
	t.ring.lens[t.Index()] = 0
}

// Meta returns the slot's metadata value.
func (t Ticket[M]) Meta() *M {
	return &t.ring.meta[t.Index()]
}

// check reports whether t still holds its slot. A non-blocking producer
// claim whose position was taken by a spinning producer gets ErrSuperseded.
func (t Ticket[M]) check() error {
	if t.ring == nil {
		return ErrStaleTicket
	}
	s := t.ring.slotFor(t.pos)
	if t.consumer {
		if s.seq.Load() != t.pos+1 {
			return ErrStaleTicket
		}
		return nil
	}
	if s.seq.Load() != t.pos || s.owner.Load() != t.pos+1 {
		return ErrStaleTicket
	}
	if t.deferred && t.ring.tail.Load() != t.pos {
		return ErrSuperseded
	}
	return nil
}
