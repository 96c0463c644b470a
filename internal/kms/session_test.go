package kms_test

import (
	"errors"
	"testing"
	"time"

	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/kms/kmstest"
	"github.com/smazurov/kmsvout/internal/picture"
)

const testCRTC = 40

func rgbAndNV12Device() *kmstest.Device {
	return kmstest.New(testCRTC,
		kmstest.Plane(31, kms.PlanePrimary, kms.FourCCXRGB8888),
		kmstest.Plane(32, kms.PlaneOverlay, kms.FourCCNV12),
	)
}

func openOptions(chroma picture.Chroma, w, h int) kms.Options {
	return kms.Options{
		Device:       "test",
		CRTCID:       testCRTC,
		Source:       picture.Format{Chroma: chroma, Width: w, Height: h},
		OutputWidth:  uint32(w),
		OutputHeight: uint32(h),
		Logger:       discardLogger(),
	}
}

func assertNoLeaks(t *testing.T, dev *kmstest.Device) {
	t.Helper()
	if n := dev.LiveBuffers(); n != 0 {
		t.Errorf("%d buffers still allocated", n)
	}
	if n := dev.LiveFramebuffers(); n != 0 {
		t.Errorf("%d framebuffers still registered", n)
	}
	if n := dev.LiveMappings(); n != 0 {
		t.Errorf("%d mappings still live", n)
	}
}

func TestOpenBuildsRing(t *testing.T) {
	for _, n := range []int{0, 2, 3, 5} {
		dev := rgbAndNV12Device()
		opts := openOptions(picture.ChromaNV12, 64, 48)
		opts.Buffers = n

		s, err := kms.Open(dev, opts)
		if err != nil {
			t.Fatalf("Open(buffers=%d) error = %v", n, err)
		}

		want := n
		if want == 0 {
			want = kms.DefaultBuffers
		}
		bufs := s.Buffers()
		if len(bufs) != want {
			t.Fatalf("got %d buffers, want %d", len(bufs), want)
		}
		seen := map[uint32]bool{}
		for i, fb := range bufs {
			if fb.Mem == nil {
				t.Errorf("buffer %d not mapped", i)
			}
			if seen[fb.FramebufferID] {
				t.Errorf("buffer %d reuses framebuffer %d", i, fb.FramebufferID)
			}
			seen[fb.FramebufferID] = true
		}
		if s.Front() != 0 {
			t.Errorf("Front() = %d, want 0", s.Front())
		}

		s.Close()
		assertNoLeaks(t, dev)
	}
}

func TestOpenNegotiatesExactNV12OnSecondPlane(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	want := kms.NegotiatedFormat{FourCC: kms.FourCCNV12, Chroma: picture.ChromaNV12, PlaneID: 32}
	if got := s.Format(); got != want {
		t.Errorf("Format() = %+v, want %+v", got, want)
	}

	fb, ok := dev.Framebuffer(s.Buffers()[0].FramebufferID)
	if !ok {
		t.Fatal("framebuffer not registered")
	}
	if fb.Width != 64 || fb.Height != 48 || fb.Format != kms.FourCCNV12 {
		t.Errorf("framebuffer = %dx%d %s", fb.Width, fb.Height, fb.Format)
	}
	if len(fb.Planes) != 2 {
		t.Fatalf("framebuffer has %d planes, want 2", len(fb.Planes))
	}
	if fb.Planes[0].Pitch != 512 || fb.Planes[1].Pitch != 512 {
		t.Errorf("pitches = %d/%d, want 512", fb.Planes[0].Pitch, fb.Planes[1].Pitch)
	}
	if fb.Planes[1].Offset != 512*48 {
		t.Errorf("chroma offset = %d, want %d", fb.Planes[1].Offset, 512*48)
	}
}

func TestOpenFallsBackWithinFamily(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaP010, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if got := s.Format(); got.FourCC != kms.FourCCNV12 || got.Chroma != picture.ChromaNV12 {
		t.Errorf("Format() = %+v, want NV12", got)
	}
}

func TestOpenRejectsSmallRing(t *testing.T) {
	dev := rgbAndNV12Device()
	opts := openOptions(picture.ChromaNV12, 64, 48)
	opts.Buffers = 1

	if _, err := kms.Open(dev, opts); !kms.IsCode(err, kms.ErrResourceUnavailable) {
		t.Errorf("Open() error = %v, want %s", err, kms.ErrResourceUnavailable)
	}
	if n := dev.Allocations(); n != 0 {
		t.Errorf("%d allocations, want 0", n)
	}
}

func TestOpenForcedFourCCWithoutPlane(t *testing.T) {
	dev := rgbAndNV12Device()
	opts := openOptions(picture.ChromaNV12, 64, 48)
	opts.ForcedFourCC = kms.FourCCUYVY

	s, err := kms.Open(dev, opts)
	if !kms.IsCode(err, kms.ErrNegotiationFailed) {
		t.Fatalf("Open() error = %v, want %s", err, kms.ErrNegotiationFailed)
	}
	if s != nil {
		t.Error("Open() returned a session on failure")
	}
	if n := dev.Allocations(); n != 0 {
		t.Errorf("%d allocations, want 0", n)
	}
}

func TestOpenUnwindsOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *kmstest.Device)
	}{
		{"first allocation", func(d *kmstest.Device) { d.FailAllocateAt = 1 }},
		{"third allocation", func(d *kmstest.Device) { d.FailAllocateAt = 3 }},
		{"second framebuffer", func(d *kmstest.Device) { d.FailBindAt = 2 }},
		{"first mapping", func(d *kmstest.Device) { d.FailMapAt = 1 }},
		{"last mapping", func(d *kmstest.Device) { d.FailMapAt = 3 }},
		{"short allocation", func(d *kmstest.Device) { d.ShortAllocation = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := rgbAndNV12Device()
			tt.setup(dev)

			s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
			if !kms.IsCode(err, kms.ErrResourceUnavailable) {
				t.Fatalf("Open() error = %v, want %s", err, kms.ErrResourceUnavailable)
			}
			if s != nil {
				t.Error("Open() returned a session on failure")
			}
			assertNoLeaks(t, dev)
		})
	}
}

func TestDisplayBeforePrepare(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaRGB32, 32, 16))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	first := s.Buffers()[0]
	for i, b := range first.Mem {
		if b != 0 {
			t.Fatalf("byte %d of buffer 0 = %#x, want black", i, b)
		}
	}

	if err := s.Display(); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	commits := dev.Commits()
	if len(commits) != 1 || commits[0].FbID != first.FramebufferID {
		t.Fatalf("commits = %+v, want buffer 0 (fb %d)", commits, first.FramebufferID)
	}
	if commits[0].PlaneID != 31 || commits[0].CrtcID != testCRTC {
		t.Errorf("commit to plane %d crtc %d", commits[0].PlaneID, commits[0].CrtcID)
	}
}

func TestNV12BuffersStartBlack(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 32, 16))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	fb := s.Buffers()[0]
	chroma := fb.Layout.Offsets[1]
	if fb.Mem[0] != 0x10 || fb.Mem[chroma-1] != 0x10 {
		t.Errorf("luma = %#x, want 0x10", fb.Mem[0])
	}
	if fb.Mem[chroma] != 0x80 || fb.Mem[len(fb.Mem)-1] != 0x80 {
		t.Errorf("chroma = %#x, want 0x80", fb.Mem[chroma])
	}
}

func TestDisplayAdvancesRing(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	bufs := s.Buffers()
	for i := 0; i < 7; i++ {
		if s.Front() != i%len(bufs) {
			t.Fatalf("before display %d: Front() = %d", i, s.Front())
		}
		if err := s.Display(); err != nil {
			t.Fatalf("Display() error = %v", err)
		}
	}

	for i, c := range dev.Commits() {
		if want := bufs[i%len(bufs)].FramebufferID; c.FbID != want {
			t.Errorf("commit %d showed fb %d, want %d", i, c.FbID, want)
		}
	}
	if s.Frames() != 7 {
		t.Errorf("Frames() = %d, want 7", s.Frames())
	}
}

func TestDisplayFailureKeepsFront(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.Display(); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	dev.CommitErr = errors.New("EINVAL")

	err = s.Display()
	if !kms.IsCode(err, kms.ErrCommitFailed) {
		t.Fatalf("Display() error = %v, want %s", err, kms.ErrCommitFailed)
	}
	if s.Front() != 1 {
		t.Errorf("Front() = %d after failed commit, want 1", s.Front())
	}
	var kerr *kms.Error
	if errors.As(err, &kerr) {
		if kerr.Context["plane_id"] != uint32(32) || kerr.Context["fb_id"] != s.Buffers()[1].FramebufferID {
			t.Errorf("error context = %v", kerr.Context)
		}
	}

	dev.CommitErr = nil
	if err := s.Display(); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	commits := dev.Commits()
	if last := commits[len(commits)-1]; last.FbID != s.Buffers()[1].FramebufferID {
		t.Errorf("retry showed fb %d, want buffer 1", last.FbID)
	}
}

func TestPrepareCopiesIntoFrontBuffer(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	frame, err := picture.New(picture.Format{Chroma: picture.ChromaNV12, Width: 64, Height: 48})
	if err != nil {
		t.Fatalf("picture.New() error = %v", err)
	}
	for i := range frame.Planes[0].Pixels {
		frame.Planes[0].Pixels[i] = 0x42
	}
	for i := range frame.Planes[1].Pixels {
		frame.Planes[1].Pixels[i] = 0x99
	}

	if err := s.Display(); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	if err := s.Prepare(frame); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	fb := s.Buffers()[1]
	stride := int(fb.Layout.Stride)
	chroma := int(fb.Layout.Offsets[1])
	if fb.Mem[0] != 0x42 || fb.Mem[stride+63] != 0x42 || fb.Mem[47*stride] != 0x42 {
		t.Error("luma rows not copied at buffer stride")
	}
	if fb.Mem[64] != 0x10 {
		t.Errorf("padding after row = %#x, want untouched", fb.Mem[64])
	}
	if fb.Mem[chroma] != 0x99 || fb.Mem[chroma+23*stride+63] != 0x99 {
		t.Error("chroma rows not copied at chroma offset")
	}
	if s.Buffers()[0].Mem[0] != 0x10 {
		t.Error("Prepare wrote into the buffer on screen")
	}
}

func TestPrepareRejectsMismatchedFrame(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	rgb, _ := picture.New(picture.Format{Chroma: picture.ChromaRGB32, Width: 64, Height: 48})
	truncated, _ := picture.New(picture.Format{Chroma: picture.ChromaNV12, Width: 64, Height: 48})
	truncated.Planes = truncated.Planes[:1]

	for name, frame := range map[string]*picture.Picture{"nil": nil, "chroma": rgb, "planes": truncated} {
		if err := s.Prepare(frame); !kms.IsCode(err, kms.ErrInvalidFrame) {
			t.Errorf("%s: Prepare() error = %v, want %s", name, err, kms.ErrInvalidFrame)
		}
	}
	if n := len(dev.Commits()); n != 0 {
		t.Errorf("%d commits, want 0", n)
	}
}

func TestPrepareRejectsFrameWiderThanLayout(t *testing.T) {
	ar24, ok := kms.ParseFourCC("AR24")
	if !ok {
		t.Fatal("ParseFourCC(AR24) failed")
	}
	dev := kmstest.New(testCRTC, kmstest.Plane(31, kms.PlanePrimary, ar24))
	opts := openOptions(picture.ChromaNV12, 64, 48)
	opts.ForcedFourCC = ar24
	s, err := kms.Open(dev, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	f := s.Format()
	if f.FourCC != ar24 || f.Chroma != picture.ChromaNV12 || f.PlaneID != 31 {
		t.Fatalf("Format() = %+v", f)
	}
	if n := len(s.View().Planes); n != 1 {
		t.Fatalf("view has %d planes, want 1", n)
	}

	frame, _ := picture.New(picture.Format{Chroma: picture.ChromaNV12, Width: 64, Height: 48})
	if err := s.Prepare(frame); !kms.IsCode(err, kms.ErrInvalidFrame) {
		t.Errorf("Prepare() error = %v, want %s", err, kms.ErrInvalidFrame)
	}
}

func TestCloseContinuesAfterTeardownErrors(t *testing.T) {
	dev := rgbAndNV12Device()
	dev.FailUnmapAt = 1
	dev.FailUnbindAt = 2
	dev.FailFreeAt = 1
	opts := openOptions(picture.ChromaNV12, 64, 48)
	opts.Buffers = 3
	s, err := kms.Open(dev, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	s.Close()

	unmaps, unbinds, frees := dev.Teardowns()
	if unmaps != 3 || unbinds != 3 || frees != 3 {
		t.Errorf("teardown calls = %d unmaps, %d unbinds, %d frees, want 3 each", unmaps, unbinds, frees)
	}
	assertNoLeaks(t, dev)
	if n := len(s.Buffers()); n != 0 {
		t.Errorf("%d buffers still in the ring after Close", n)
	}
}

func TestSessionCatalogMatchesScan(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	cat := s.Catalog()
	present := cat.Present()
	if len(present) != 2 {
		t.Fatalf("present entries = %d, want 2", len(present))
	}
	for _, e := range present {
		byFourCC, ok := cat.FindByFourCC(e.FourCC)
		if !ok || byFourCC.PlaneID != e.PlaneID {
			t.Errorf("FindByFourCC(%s) = %+v, want plane %d", e.FourCC, byFourCC, e.PlaneID)
		}
		byChroma, ok := cat.FindByChroma(e.Chroma)
		if !ok || byChroma.PlaneID != e.PlaneID {
			t.Errorf("FindByChroma(%s) = %+v, want plane %d", e.Chroma, byChroma, e.PlaneID)
		}
	}
	if e, _ := cat.FindByFourCC(kms.FourCCNV12); e.PlaneID != 32 || e.PlaneID != s.Format().PlaneID {
		t.Errorf("NV12 entry on plane %d, session on plane %d", e.PlaneID, s.Format().PlaneID)
	}
}

func TestDisplayPlacement(t *testing.T) {
	dev := rgbAndNV12Device()
	opts := openOptions(picture.ChromaNV12, 1280, 720)
	opts.OutputWidth, opts.OutputHeight = 1920, 1200
	s, err := kms.Open(dev, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if err := s.Display(); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	c := dev.Commits()[0]
	if want := (kms.Rect{X: 0, Y: 60, Width: 1920, Height: 1080}); c.Dst != want {
		t.Errorf("dst = %+v, want %+v", c.Dst, want)
	}
	if want := (kms.Rect{Width: 1280 << 16, Height: 720 << 16}); c.Src != want {
		t.Errorf("src = %+v, want %+v", c.Src, want)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dev := rgbAndNV12Device()
	s, err := kms.Open(dev, openOptions(picture.ChromaNV12, 64, 48))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	s.Close()
	s.Close()
	assertNoLeaks(t, dev)

	if err := s.Display(); !kms.IsCode(err, kms.ErrSessionClosed) {
		t.Errorf("Display() after Close error = %v", err)
	}

	var nilSession *kms.Session
	nilSession.Close()
}

func TestSessionEvents(t *testing.T) {
	bus := events.New()
	opened := make(chan events.SessionOpenedEvent, 1)
	presented := make(chan events.FramePresentedEvent, 4)
	failed := make(chan events.CommitFailedEvent, 1)
	closed := make(chan events.SessionClosedEvent, 1)
	defer events.SubscribeToChannel(bus, opened)()
	defer events.SubscribeToChannel(bus, presented)()
	defer events.SubscribeToChannel(bus, failed)()
	defer events.SubscribeToChannel(bus, closed)()

	dev := rgbAndNV12Device()
	opts := openOptions(picture.ChromaNV12, 64, 48)
	opts.Bus = bus
	s, err := kms.Open(dev, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Display(); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	dev.CommitErr = errors.New("EBUSY")
	_ = s.Display()
	s.Close()

	select {
	case e := <-opened:
		if e.PlaneID != 32 || e.FourCC != "NV12" || e.Buffers != kms.DefaultBuffers {
			t.Errorf("SessionOpenedEvent = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no SessionOpenedEvent")
	}
	select {
	case e := <-presented:
		if e.Sequence != 1 || e.BufferIndex != 0 {
			t.Errorf("FramePresentedEvent = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no FramePresentedEvent")
	}
	select {
	case e := <-failed:
		if e.BufferIndex != 1 || e.Error != "EBUSY" {
			t.Errorf("CommitFailedEvent = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no CommitFailedEvent")
	}
	select {
	case e := <-closed:
		if e.Frames != 1 {
			t.Errorf("SessionClosedEvent = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no SessionClosedEvent")
	}
}
