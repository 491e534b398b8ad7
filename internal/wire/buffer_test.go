package wire

import "testing"

func TestReadBufferCompactionMovesExactUnreadCount(t *testing.T) {
	buf := NewReadBuffer()

	m1, _ := Encode(Msg{Kind: KindOk})
	m2Start := []byte("/msg partial")
	seed := append(append([]byte{}, m1...), m2Start...)

	if _, err := buf.Fill(func(w []byte) (int, error) { return copy(w, seed), nil }); err != nil {
		t.Fatalf("fill: %v", err)
	}

	var got []Msg
	buf.DecodeAll(func(m Msg) { got = append(got, m) })
	if len(got) != 1 || got[0].Kind != KindOk {
		t.Fatalf("got %+v", got)
	}

	unreadBefore := len(buf.Unread())
	if unreadBefore != len(m2Start) {
		t.Fatalf("unread = %d, want %d", unreadBefore, len(m2Start))
	}

	rest := []byte(" more text\x00")
	n, err := buf.Fill(func(w []byte) (int, error) { return copy(w, rest), nil })
	if err != nil {
		t.Fatalf("fill2: %v", err)
	}
	if n != len(rest) {
		t.Fatalf("filled %d, want %d", n, len(rest))
	}

	got = nil
	buf.DecodeAll(func(m Msg) { got = append(got, m) })
	if len(got) != 1 || got[0].Content != "partial more text" {
		t.Fatalf("got %+v", got)
	}

	// After full drain the buffer resets to fresh (filled==0, consumed==0).
	if len(buf.Unread()) != 0 {
		t.Fatalf("expected empty buffer after drain, got %d unread", len(buf.Unread()))
	}
	if buf.filled != 0 || buf.consumed != 0 {
		t.Fatalf("filled=%d consumed=%d, want 0/0", buf.filled, buf.consumed)
	}
}

func TestReadBufferFillFullReturnsErrBufferFull(t *testing.T) {
	buf := NewReadBuffer()
	junk := make([]byte, BufCapacity)
	for i := range junk {
		junk[i] = 'x' // no '/', no NUL: never decodable, fills buffer to capacity
	}
	if _, err := buf.Fill(func(w []byte) (int, error) { return copy(w, junk), nil }); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, err := buf.Fill(func(w []byte) (int, error) { return copy(w, junk), nil }); err != ErrBufferFull {
		t.Fatalf("err = %v, want ErrBufferFull", err)
	}
}

func TestFreshBufferReadableFromZero(t *testing.T) {
	buf := NewReadBuffer()
	if len(buf.Unread()) != 0 {
		t.Fatalf("fresh buffer should have no unread bytes")
	}
	n, err := buf.Fill(func(w []byte) (int, error) { return copy(w, []byte("/ok\x00")), nil })
	if err != nil || n != 4 {
		t.Fatalf("fill: n=%d err=%v", n, err)
	}
	msg, consumed, status := DecodeNext(buf.Unread())
	if status != StatusComplete || msg.Kind != KindOk || consumed != 4 {
		t.Fatalf("got %+v consumed=%d status=%v", msg, consumed, status)
	}
}
