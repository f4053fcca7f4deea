package catalog

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/deepteams/alfalfa/state"
)

func u64p(v uint64) *uint64 { return &v }

func sampleFrame(id uint64) FrameInfo {
	return FrameInfo{
		FrameID: id,
		Offset:  int64(id) * 100,
		Length:  100,
		Name: state.Name{
			Source: state.Source{State: u64p(1)},
			Target: state.Target{State: 2, Output: id + 1000, Shown: true},
		},
	}
}

func TestStoreFrameByID(t *testing.T) {
	s := NewStore()
	s.AddFrame(sampleFrame(1))
	fi, err := s.FrameByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Offset != 100 {
		t.Fatalf("unexpected offset %d", fi.Offset)
	}
	if _, err := s.FrameByID(999); err == nil {
		t.Fatalf("expected miss error")
	}
}

func TestStoreCompatibleFrames(t *testing.T) {
	s := NewStore()
	s.AddFrame(sampleFrame(1))
	s.AddFrame(sampleFrame(2))

	got := s.CompatibleFrames(state.DecoderHash{State: 1})
	if len(got) != 2 {
		t.Fatalf("expected 2 compatible frames, got %d", len(got))
	}

	got = s.CompatibleFrames(state.DecoderHash{State: 99})
	if len(got) != 0 {
		t.Fatalf("expected 0 compatible frames for mismatched state, got %d", len(got))
	}
}

func TestTrackRange(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.AddFrame(sampleFrame(uint64(i)))
		s.AddTrackFrame(TrackData{TrackID: 1, FrameIndex: i, FrameID: uint64(i)})
	}
	frames, err := s.TrackRange(1, 0, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(frames))
	}
	rev, err := s.TrackRange(1, 4, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rev) != 5 || rev[0].FrameID != 4 {
		t.Fatalf("expected reverse order starting at 4, got %+v", rev)
	}
}

func TestPersistRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()
	s.AddFrame(sampleFrame(1))
	s.AddTrackFrame(TrackData{TrackID: 1, FrameIndex: 0, FrameID: 1})
	s.AddSwitchFrame(SwitchData{FromTrack: 1, ToTrack: 2, SwitchIndex: 0, FrameID: 1})
	s.AddRaster(1001)
	s.AddQuality(QualityRow{OriginalHash: 1, ApproximateHash: 2, SSIM: 0.95})

	l := Layout{Dir: dir}
	if err := s.Write(l); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(l.path("frames")); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(l)
	if err != nil {
		t.Fatal(err)
	}
	fi, err := loaded.FrameByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Offset != 100 {
		t.Fatalf("unexpected offset after reload: %d", fi.Offset)
	}
	rows := loaded.QualityFor(1)
	if len(rows) != 1 || rows[0].SSIM != 0.95 {
		t.Fatalf("unexpected quality rows after reload: %+v", rows)
	}
}

func TestRPCRoundtrip(t *testing.T) {
	s := NewStore()
	s.AddFrame(sampleFrame(1))
	srv := &Server{Store: s}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := &Client{BaseURL: ts.URL}
	fi, err := c.FrameByID(1)
	if err != nil {
		t.Fatal(err)
	}
	if fi.FrameID != 1 {
		t.Fatalf("unexpected frame id %d", fi.FrameID)
	}
}

func TestSummarizeQuality(t *testing.T) {
	rows := []QualityRow{
		{OriginalHash: 1, ApproximateHash: 2, SSIM: 0.8},
		{OriginalHash: 1, ApproximateHash: 3, SSIM: 0.9},
		{OriginalHash: 1, ApproximateHash: 4, SSIM: 0.7},
	}
	sum := SummarizeQuality(rows)
	if sum.N != 3 {
		t.Fatalf("N = %d, want 3", sum.N)
	}
	if sum.Min != 0.7 {
		t.Fatalf("Min = %v, want 0.7", sum.Min)
	}
	if sum.Mean < 0.79 || sum.Mean > 0.81 {
		t.Fatalf("Mean = %v, want 0.8", sum.Mean)
	}
	if sum.Stddev == 0 {
		t.Fatal("expected nonzero stddev")
	}

	if empty := SummarizeQuality(nil); empty.N != 0 {
		t.Fatalf("empty summary N = %d", empty.N)
	}
}

func TestRPCFrameBytes(t *testing.T) {
	dir := t.TempDir()
	l := Layout{Dir: dir}
	blob := make([]byte, 64)
	for i := range blob {
		blob[i] = byte(i)
	}
	if err := os.WriteFile(l.FrameStorePath(), blob, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore()
	s.AddFrame(FrameInfo{FrameID: 1, Offset: 16, Length: 8})
	srv := &Server{Store: s, Layout: &l}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := &Client{BaseURL: ts.URL}
	data, err := c.FrameBytes(16, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 || data[0] != 16 || data[7] != 23 {
		t.Fatalf("unexpected frame bytes %v", data)
	}
}
