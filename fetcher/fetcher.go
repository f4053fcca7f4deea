// Package fetcher implements the client-side FrameFetcher: a wishlist of
// frames to prefetch, a local byte store keyed by offset, and a single
// background worker that batches multi-range HTTP GETs against a server
// hosting a frame store blob.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrTransport marks a failure fetching frame data. The worker logs it and
// retries at the next worker loop iteration; it does not abort the fetcher,
// and it is not returned to WaitForFrame callers.
var ErrTransport = errors.New("fetcher: transport failure")

// WishlistEntry is an abridged frame descriptor the player intends to
// consume next.
type WishlistEntry struct {
	FrameID uint64
	Offset  int64
	Length  int64
	Shown   bool
	Quality float64
}

// maxBatchSeconds bounds the estimated fetch time of a single selected batch
// to 0.5s; maxBatchCount caps selection at 96 entries regardless of size.
const (
	maxBatchSeconds = 0.5
	maxBatchCount   = 96
	ewmaAlpha       = 0.25
)

// FrameFetcher owns the wishlist, local byte store, and throughput
// estimate the playback planner runs against. Exactly one background worker
// goroutine runs per FrameFetcher; the wishlist/store/throughput state is
// protected by one mutex, and two condition variables gate the worker
// (newRequestOrShutdown) and callers awaiting a frame (newResponse).
type FrameFetcher struct {
	url    string
	client *http.Client
	log    *zap.SugaredLogger

	mu         sync.Mutex
	wishlist   []WishlistEntry
	store      map[int64][]byte
	throughput float64 // bytes/sec, EWMA with alpha=1/4

	shutdown bool
	cond     *sync.Cond // guards wishlist/store/shutdown, signaled on new request or shutdown
	respCond *sync.Cond // signaled after each received frame

	wg sync.WaitGroup
}

// New constructs a FrameFetcher that issues range GETs against url and
// starts its background worker.
func New(url string, client *http.Client, log *zap.SugaredLogger) *FrameFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	f := &FrameFetcher{
		url:        url,
		client:     client,
		log:        log,
		store:      make(map[int64][]byte),
		throughput: 1 << 20, // 1 MB/s initial guess until the first batch completes
	}
	f.cond = sync.NewCond(&f.mu)
	f.respCond = sync.NewCond(&f.mu)
	f.wg.Add(1)
	go f.workerLoop()
	return f
}

// SetWishlist replaces the current wishlist and wakes the worker.
func (f *FrameFetcher) SetWishlist(entries []WishlistEntry) {
	f.mu.Lock()
	f.wishlist = append([]WishlistEntry(nil), entries...)
	f.mu.Unlock()
	f.cond.Broadcast()
}

// Lookup returns a cached frame's bytes, if present in the local store.
func (f *FrameFetcher) Lookup(offset int64) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.store[offset]
	return b, ok
}

// Throughput returns the current EWMA throughput estimate in bytes/sec.
func (f *FrameFetcher) Throughput() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.throughput
}

// WaitForFrame blocks until offset appears in the local store or ctx is
// done; the wait is bounded only by the caller's patience.
func (f *FrameFetcher) WaitForFrame(ctx context.Context, offset int64) ([]byte, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			f.respCond.Broadcast()
		case <-done:
		}
	}()
	defer close(done)

	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if b, ok := f.store[offset]; ok {
			return b, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.respCond.Wait()
	}
}

// Close signals shutdown and joins the worker. The current in-flight GET
// (if any) is allowed to complete before the worker exits.
func (f *FrameFetcher) Close() {
	f.mu.Lock()
	f.shutdown = true
	f.mu.Unlock()
	f.cond.Broadcast()
	f.wg.Wait()
}

// selection is one batch worth of wishlist entries chosen to fetch
// together (entries already in the store are skipped); buildRangeHeader
// derives the byte ranges from it.
type selection struct {
	entries []WishlistEntry
}

func (f *FrameFetcher) workerLoop() {
	defer f.wg.Done()
	for {
		f.mu.Lock()
		for {
			if f.shutdown {
				f.mu.Unlock()
				return
			}
			sel := f.selectBatchLocked()
			if len(sel.entries) > 0 {
				f.mu.Unlock()
				f.runBatch(sel)
				f.mu.Lock()
				break
			}
			f.cond.Wait()
		}
		f.mu.Unlock()
	}
}

// selectBatchLocked is selectBatch's body, called with f.mu already held.
func (f *FrameFetcher) selectBatchLocked() selection {
	var sel selection
	var estSeconds float64
	for _, e := range f.wishlist {
		if _, ok := f.store[e.Offset]; ok {
			continue
		}
		dup := false
		for _, s := range sel.entries {
			if s.Offset == e.Offset {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		add := float64(e.Length) / f.throughput
		if len(sel.entries) > 0 && estSeconds+add > maxBatchSeconds {
			break
		}
		sel.entries = append(sel.entries, e)
		estSeconds += add
		if len(sel.entries) >= maxBatchCount {
			break
		}
	}
	return sel
}

// runBatch issues one HTTP GET for sel's ranges without holding f.mu,
// parses the response, and publishes results atomically.
func (f *FrameFetcher) runBatch(sel selection) {
	start := time.Now()
	rangeHeader := buildRangeHeader(sel.entries)

	req, err := http.NewRequest(http.MethodGet, f.url, nil)
	if err != nil {
		f.log.Errorw("fetcher: building request", "error", err)
		return
	}
	req.Header.Set("Range", rangeHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		f.log.Warnw("fetcher: transport error, will retry", "error", errors.Wrap(ErrTransport, err.Error()))
		return
	}
	defer resp.Body.Close()

	byOffset, totalBytes, err := parseRangeResponse(resp, sel.entries)
	if err != nil {
		f.log.Warnw("fetcher: parsing range response, will retry", "error", err)
		return
	}

	elapsed := time.Since(start).Seconds()

	f.mu.Lock()
	for off, b := range byOffset {
		f.store[off] = b
	}
	if elapsed > 0 && totalBytes > 0 {
		sample := float64(totalBytes) / elapsed
		f.throughput = (1-ewmaAlpha)*f.throughput + ewmaAlpha*sample
	}
	f.mu.Unlock()
	f.respCond.Broadcast()
}

// buildRangeHeader builds an HTTP Range header listing every selected
// offset-length pair as a comma-separated list.
func buildRangeHeader(entries []WishlistEntry) string {
	sorted := append([]WishlistEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	parts := make([]string, len(sorted))
	for i, e := range sorted {
		parts[i] = fmt.Sprintf("%d-%d", e.Offset, e.Offset+e.Length-1)
	}
	return "bytes=" + strings.Join(parts, ",")
}

// parseRangeResponse parses a single Content-Range or multipart/byteranges
// response body, associating each received subrange with the wishlist
// entry whose offset matches its start.
func parseRangeResponse(resp *http.Response, entries []WishlistEntry) (map[int64][]byte, int64, error) {
	byOffset := make(map[int64][]byte)
	var total int64

	ct := resp.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err == nil && strings.HasPrefix(mediaType, "multipart/byteranges") {
		mr := multipart.NewReader(resp.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, 0, errors.Wrap(ErrTransport, "reading multipart part: "+err.Error())
			}
			start, _, err := parseContentRange(part.Header)
			if err != nil {
				return nil, 0, err
			}
			b, err := io.ReadAll(part)
			if err != nil {
				return nil, 0, errors.Wrap(ErrTransport, "reading part body: "+err.Error())
			}
			byOffset[start] = b
			total += int64(len(b))
		}
		return byOffset, total, nil
	}

	// Single contiguous blob: either a 206 with one Content-Range, or (for
	// a single-range request some servers collapse to) a plain 200 body.
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrap(ErrTransport, "reading response body: "+err.Error())
	}
	if len(entries) == 1 {
		byOffset[entries[0].Offset] = b
		return byOffset, int64(len(b)), nil
	}
	start, _, err := parseContentRange(textproto.MIMEHeader(resp.Header))
	if err != nil {
		return nil, 0, err
	}
	byOffset[start] = b
	return byOffset, int64(len(b)), nil
}

// parseContentRange parses a "Content-Range: bytes START-END/TOTAL" header
// and returns START.
func parseContentRange(h textproto.MIMEHeader) (start, end int64, err error) {
	v := h.Get("Content-Range")
	if v == "" {
		return 0, 0, errors.Wrap(ErrTransport, "missing Content-Range")
	}
	v = strings.TrimPrefix(v, "bytes ")
	slash := strings.Index(v, "/")
	if slash < 0 {
		return 0, 0, errors.Wrapf(ErrTransport, "malformed Content-Range %q", v)
	}
	rangePart := v[:slash]
	dash := strings.Index(rangePart, "-")
	if dash < 0 {
		return 0, 0, errors.Wrapf(ErrTransport, "malformed Content-Range range %q", rangePart)
	}
	start, err = strconv.ParseInt(rangePart[:dash], 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrTransport, "bad range start %q", rangePart[:dash])
	}
	end, err = strconv.ParseInt(rangePart[dash+1:], 10, 64)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrTransport, "bad range end %q", rangePart[dash+1:])
	}
	return start, end, nil
}
