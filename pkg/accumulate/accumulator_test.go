package accumulate

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestAppend_MemoryOnly_UnderThreshold(t *testing.T) {
	acc := New("http://example.test/a", 0, 8192, true, testLogger())

	chunks := [][]byte{
		[]byte("<html>"),
		[]byte("hello"),
		[]byte("</html>"),
	}
	for _, c := range chunks {
		if !acc.Append(c) {
			t.Fatal("append stopped unexpectedly")
		}
	}

	if acc.Spilled() {
		t.Error("body under threshold must never spill to disk")
	}
	want := []byte("<html>hello</html>")
	if got := acc.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
	if acc.Size() != int64(len(want)) {
		t.Errorf("expected size %d, got %d", len(want), acc.Size())
	}
}

func TestAppend_Spillover_RoundTripLossless(t *testing.T) {
	acc := New("http://example.test/big", 0, 64, true, testLogger())

	var want bytes.Buffer
	for i := 0; i < 20; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i%26)}, 16)
		want.Write(chunk)
		if !acc.Append(chunk) {
			t.Fatal("append stopped unexpectedly")
		}
	}

	if !acc.Spilled() {
		t.Error("body over threshold should have spilled to disk")
	}
	got := acc.Bytes()
	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("disk round-trip not lossless: expected %d bytes, got %d", want.Len(), len(got))
	}
}

func TestAppend_MaxBytes_NeverExceeded(t *testing.T) {
	tests := []struct {
		name      string
		maxBytes  int64
		chunkSize int
		chunks    int
	}{
		{"coarse chunks", 100, 33, 10},
		{"single oversized chunk", 10, 50, 1},
		{"exact fit", 64, 16, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := New("http://example.test/cap", tt.maxBytes, 8192, false, testLogger())
			for i := 0; i < tt.chunks; i++ {
				if !acc.Append(bytes.Repeat([]byte{'x'}, tt.chunkSize)) {
					break
				}
			}
			if got := int64(len(acc.Bytes())); got > tt.maxBytes {
				t.Errorf("cap %d exceeded: accumulated %d bytes", tt.maxBytes, got)
			}
		})
	}
}

func TestAppend_MaxBytesZero_Unlimited(t *testing.T) {
	acc := New("http://example.test/unbounded", 0, 32, true, testLogger())
	total := 0
	for i := 0; i < 100; i++ {
		acc.Append(bytes.Repeat([]byte{'y'}, 100))
		total += 100
	}
	if got := len(acc.Bytes()); got != total {
		t.Errorf("expected %d bytes with unlimited cap, got %d", total, got)
	}
	if acc.Truncated() {
		t.Error("unlimited accumulation must not report truncation")
	}
}

func TestAppend_Truncation_StopsAtChunkBoundary(t *testing.T) {
	acc := New("http://example.test/trunc", 1024*1024, 8192, false, testLogger())

	// The cap is clamped upstream; here we hand a 1 MiB cap directly.
	one := bytes.Repeat([]byte{'z'}, 512*1024)
	if !acc.Append(one) {
		t.Fatal("first chunk should fit")
	}
	if !acc.Append(one) {
		t.Fatal("second chunk should exactly fit")
	}
	if acc.Append([]byte{'z'}) {
		t.Error("chunk pushing past the cap must return false")
	}
	if !acc.Truncated() {
		t.Error("expected truncation flag after cap hit")
	}
	if got := len(acc.Bytes()); got != 1024*1024 {
		t.Errorf("expected exactly the cap, got %d", got)
	}
}

func TestReadFrom_StreamsBody(t *testing.T) {
	body := strings.Repeat("abcdefgh", 4096) // 32 KiB, forces spillover at 8 KiB threshold
	acc := New("http://example.test/stream", 0, 8192, true, testLogger())

	n, err := acc.ReadFrom(strings.NewReader(body))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if n != int64(len(body)) {
		t.Errorf("expected %d bytes read, got %d", len(body), n)
	}
	if got := string(acc.Bytes()); got != body {
		t.Error("streamed content mismatch")
	}
}

func TestReadFrom_RespectsCap(t *testing.T) {
	body := strings.Repeat("x", 4*1024*1024)
	acc := New("http://example.test/capstream", 2*1024*1024, 8192, false, testLogger())

	if _, err := acc.ReadFrom(strings.NewReader(body)); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := int64(len(acc.Bytes())); got > 2*1024*1024 {
		t.Errorf("cap exceeded: %d bytes", got)
	}
}
