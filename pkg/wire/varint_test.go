package wire

import (
	"math"
	"testing"
)

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 255, 300, 16383, 16384,
		1<<32 - 1, 1 << 32, math.MaxUint64,
	}
	var buf [MaxVarintLen]byte
	for _, v := range values {
		n := PutUvarint(buf[:], v)
		if n != UvarintLen(v) {
			t.Errorf("PutUvarint(%d) wrote %d bytes, UvarintLen says %d", v, n, UvarintLen(v))
		}
		got, m := Uvarint(buf[:n])
		if m != n || got != v {
			t.Errorf("Uvarint(PutUvarint(%d)) = %d, %d", v, got, m)
		}
	}
}

func TestSvarintRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, 64, -65, math.MaxInt64, math.MinInt64}
	var buf [MaxVarintLen]byte
	for _, v := range values {
		n := PutSvarint(buf[:], v)
		got, m := Svarint(buf[:n])
		if m != n || got != v {
			t.Errorf("Svarint(PutSvarint(%d)) = %d, %d", v, got, m)
		}
	}
}

func TestSvarintSmallNegativesStaySmall(t *testing.T) {
	var buf [MaxVarintLen]byte
	if n := PutSvarint(buf[:], -1); n != 1 {
		t.Errorf("PutSvarint(-1) = %d bytes, want 1", n)
	}
}

func TestUvarintTruncated(t *testing.T) {
	var buf [MaxVarintLen]byte
	n := PutUvarint(buf[:], 1<<40)
	if _, m := Uvarint(buf[:n-1]); m != -1 {
		t.Errorf("truncated Uvarint returned %d, want -1", m)
	}
	if _, m := Uvarint(nil); m != -1 {
		t.Errorf("empty Uvarint returned %d, want -1", m)
	}
}

func TestUvarintOverlong(t *testing.T) {
	// Eleven continuation bytes never terminate a valid uint64.
	overlong := make([]byte, MaxVarintLen+1)
	for i := range overlong {
		overlong[i] = 0x80
	}
	if _, m := Uvarint(overlong); m != -2 {
		t.Errorf("overlong Uvarint returned %d, want -2", m)
	}
}
