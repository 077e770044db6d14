package streamlimiter

import (
	"bytes"
	"testing"
)

func TestLimiterUnderCapNotTruncated(t *testing.T) {
	var buf bytes.Buffer
	called := false
	l := New(&buf, 10, func() { called = true })

	n, err := l.Write([]byte("hello")) // 5 bytes, cap 10
	if err != nil || n != 5 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if l.Overflowed() || called {
		t.Fatal("should not have overflowed at 5/10 bytes")
	}
}

func TestLimiterExactlyAtCapNotTruncated(t *testing.T) {
	var buf bytes.Buffer
	called := false
	l := New(&buf, 5, func() { called = true })

	n, err := l.Write([]byte("hello")) // exactly 5 bytes
	if err != nil || n != 5 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if l.Overflowed() || called {
		t.Fatal("exactly-at-cap must not be truncated (§8 boundary behavior)")
	}
	if l.BytesWritten() != 5 {
		t.Fatalf("expected 5 bytes forwarded, got %d", l.BytesWritten())
	}
}

func TestLimiterOneByteOverCapTruncatesAndCallsOnce(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	l := New(&buf, 5, func() { calls++ })

	n, err := l.Write([]byte("hello!")) // 6 bytes, cap 5
	if err != nil || n != 6 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if !l.Overflowed() {
		t.Fatal("expected overflow at N+1 bytes")
	}
	if buf.String() != "hello" {
		t.Fatalf("expected forwarded bytes capped to 'hello', got %q", buf.String())
	}
	if calls != 1 {
		t.Fatalf("expected onOverflow called exactly once, got %d", calls)
	}

	// Further writes must not call onOverflow again and must forward nothing.
	_, _ = l.Write([]byte("more"))
	if calls != 1 {
		t.Fatalf("expected onOverflow still called exactly once, got %d", calls)
	}
	if buf.String() != "hello" {
		t.Fatalf("expected no further bytes forwarded, got %q", buf.String())
	}
}

func TestLimiterNeverExceedsCap(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 3, nil)
	for i := 0; i < 10; i++ {
		_, _ = l.Write([]byte("xx"))
	}
	if int64(buf.Len()) > 3 {
		t.Fatalf("forwarded bytes %d exceed cap 3", buf.Len())
	}
}
