package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// multipartServer returns the scenario 4 fixture: a multipart/byteranges
// response covering ranges [0-9], [20-29], [40-49] of a 50-byte blob.
func multipartServer(t *testing.T, blob []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", `multipart/byteranges; boundary=ABC`)
		w.WriteHeader(http.StatusPartialContent)
		ranges := [][2]int{{0, 9}, {20, 29}, {40, 49}}
		for _, rg := range ranges {
			_, _ = w.Write([]byte("--ABC\r\n"))
			_, _ = w.Write([]byte("Content-range: bytes " + itoa(rg[0]) + "-" + itoa(rg[1]) + "/" + itoa(len(blob)) + "\r\n\r\n"))
			_, _ = w.Write(blob[rg[0] : rg[1]+1])
			_, _ = w.Write([]byte("\r\n"))
		}
		_, _ = w.Write([]byte("--ABC--\r\n"))
	}))
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestFetcherMultipartByteranges(t *testing.T) {
	blob := make([]byte, 50)
	for i := range blob {
		blob[i] = byte(i)
	}
	ts := multipartServer(t, blob)
	defer ts.Close()

	f := New(ts.URL, ts.Client(), nil)
	defer f.Close()

	f.SetWishlist([]WishlistEntry{
		{FrameID: 1, Offset: 0, Length: 10},
		{FrameID: 2, Offset: 20, Length: 10},
		{FrameID: 3, Offset: 40, Length: 10},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, off := range []int64{0, 20, 40} {
		b, err := f.WaitForFrame(ctx, off)
		if err != nil {
			t.Fatalf("WaitForFrame(%d): %v", off, err)
		}
		if len(b) != 10 {
			t.Fatalf("offset %d: expected 10 bytes, got %d", off, len(b))
		}
		if b[0] != blob[off] {
			t.Fatalf("offset %d: expected first byte %d, got %d", off, blob[off], b[0])
		}
	}
}

func TestFeasibilityBoundary(t *testing.T) {
	f := New("http://unused.invalid", nil, nil)
	defer f.Close()
	f.mu.Lock()
	f.throughput = 240 // bytes/sec, chosen so discounted throughput = 192
	f.mu.Unlock()

	// One shown frame every entry; length chosen so fetch time exactly
	// equals the 1/24s budget at the discounted throughput.
	length := int64(throughputDiscount * 240 * frameInterval)
	entries := []WishlistEntry{
		{FrameID: 1, Offset: 0, Length: length, Shown: true},
	}
	if !f.Feasible(entries) {
		t.Fatalf("expected boundary case to be feasible")
	}

	entries[0].Length++
	if f.Feasible(entries) {
		t.Fatalf("expected +1 byte to tip into infeasible")
	}
}
