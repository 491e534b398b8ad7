package wire

// BufCapacity is the fixed size of a session's read buffer.
const BufCapacity = 2048

// ReadBuffer is a per-connection byte buffer that reassembles protocol
// frames split across partial reads. Unlike the original implementation's
// raw cursor into the middle of a fixed array, it is represented as
// {data, filled, consumed}: unread bytes live in data[consumed:filled],
// and compaction moves exactly that many bytes, never one past it.
type ReadBuffer struct {
	data     [BufCapacity]byte
	filled   int
	consumed int
}

// NewReadBuffer returns a fresh, empty ReadBuffer.
func NewReadBuffer() *ReadBuffer {
	return &ReadBuffer{}
}

// compact moves any unread carry-over to the head of the buffer so the
// next read has the maximum possible writable window.
func (b *ReadBuffer) compact() {
	if b.consumed == 0 {
		return
	}
	n := copy(b.data[:], b.data[b.consumed:b.filled])
	for i := n; i < b.filled; i++ {
		b.data[i] = 0
	}
	b.filled = n
	b.consumed = 0
}

// Fill invokes read, a byte-producing callback (typically a transport
// read), into the writable window following any unread carry-over, and
// returns the number of bytes it wrote. It returns an error if the
// buffer has no room left (the caller should decode what it has first).
func (b *ReadBuffer) Fill(read func([]byte) (int, error)) (int, error) {
	b.compact()
	window := b.data[b.filled:]
	if len(window) == 0 {
		return 0, ErrBufferFull
	}
	n, err := read(window)
	if n > 0 {
		b.filled += n
	}
	return n, err
}

// Unread returns the slice of bytes not yet consumed by the decoder.
func (b *ReadBuffer) Unread() []byte {
	return b.data[b.consumed:b.filled]
}

// Advance marks n bytes of the unread region as consumed.
func (b *ReadBuffer) Advance(n int) {
	b.consumed += n
	if b.consumed >= b.filled {
		b.consumed = 0
		b.filled = 0
	}
}

// DecodeAll drains every complete frame currently buffered into sink,
// leaving any trailing partial frame in place for the next Fill.
func (b *ReadBuffer) DecodeAll(sink func(Msg)) {
	n := DecodeAll(b.Unread(), sink)
	b.Advance(n)
}
