// Package player drives a display session: it renders frames from a source
// at a fixed rate, shows them through package kms and reopens the session
// when the display or the forced formats change.
package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/kmsvout/internal/events"
	"github.com/smazurov/kmsvout/internal/kms"
	"github.com/smazurov/kmsvout/internal/logging"
	"github.com/smazurov/kmsvout/internal/picture"
	"github.com/smazurov/kmsvout/internal/systemd"
)

// Player states reported by Status.
const (
	StateStarting  = "starting"
	StateRunning   = "running"
	StateReopening = "reopening"
	StateFailed    = "failed"
	StateStopped   = "stopped"
)

const (
	defaultFPS           = 30
	defaultRetryInterval = 2 * time.Second
	// Consecutive commit failures after which the session is rebuilt.
	defaultMaxCommitFailures = 30
)

// Output is an opened display: a device plus the CRTC to show on.
type Output struct {
	Device kms.Device
	Name   string
	CRTCID uint32
	Width  uint32
	Height uint32
	// Close releases the device. It may be nil.
	Close func() error
}

// Opener opens the display for a new session.
type Opener func() (Output, error)

// Source renders frames in a fixed format.
type Source interface {
	Format() picture.Format
	Render(seq uint64) (*picture.Picture, error)
}

// SourceFactory creates a source producing frames in f.
type SourceFactory func(f picture.Format) (Source, error)

// Config holds the player settings.
type Config struct {
	// Source is the format frames are requested in.
	Source    picture.Format
	FPS       int
	Overrides kms.Overrides
	Buffers   int
	Tiling    kms.Tiling

	RetryInterval     time.Duration
	MaxCommitFailures int
}

// Status is a snapshot of the player.
type Status struct {
	State     string   `json:"state"`
	Device    string   `json:"device,omitempty"`
	CRTCID    uint32   `json:"crtc_id,omitempty"`
	PlaneID   uint32   `json:"plane_id,omitempty"`
	FourCC    string   `json:"fourcc,omitempty"`
	Chroma    string   `json:"chroma,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	Placement kms.Rect `json:"placement"`
	Buffers   int      `json:"buffers,omitempty"`
	Frames    uint64   `json:"frames"`
	Reopens   int      `json:"reopens"`
	LastError string   `json:"last_error,omitempty"`
}

// Player owns the display session.
type Player struct {
	open      Opener
	newSource SourceFactory
	cfg       Config
	bus       *events.Bus
	notifier  *systemd.Notifier
	logger    *slog.Logger

	reopen chan string

	mu        sync.RWMutex
	overrides kms.Overrides
	status    Status
	seq       uint64
}

// New creates a player. bus, notifier and logger may be nil.
func New(open Opener, newSource SourceFactory, cfg Config, bus *events.Bus, notifier *systemd.Notifier, logger *slog.Logger) *Player {
	if cfg.FPS <= 0 {
		cfg.FPS = defaultFPS
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.MaxCommitFailures <= 0 {
		cfg.MaxCommitFailures = defaultMaxCommitFailures
	}
	if logger == nil {
		logger = logging.GetLogger("player")
	}
	return &Player{
		open:      open,
		newSource: newSource,
		cfg:       cfg,
		bus:       bus,
		notifier:  notifier,
		logger:    logger,
		reopen:    make(chan string, 1),
		overrides: cfg.Overrides,
		status:    Status{State: StateStarting},
	}
}

// Status returns the current player state.
func (p *Player) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Overrides returns the forced formats the next session opens with.
func (p *Player) Overrides() kms.Overrides {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.overrides
}

// SetOverrides changes the forced formats and reopens the session if they
// differ from the current ones.
func (p *Player) SetOverrides(o kms.Overrides) {
	p.mu.Lock()
	changed := p.overrides != o
	p.overrides = o
	p.mu.Unlock()
	if changed {
		p.RequestReopen("overrides changed")
	}
}

// RequestReopen asks the loop to rebuild the session before the next frame.
// Requests made while one is pending are merged.
func (p *Player) RequestReopen(reason string) {
	select {
	case p.reopen <- reason:
	default:
	}
}

func (p *Player) setStatus(update func(*Status)) {
	p.mu.Lock()
	update(&p.status)
	p.mu.Unlock()
}

// Run presents frames until ctx is cancelled. Failures to open the display
// are retried; Run only returns once ctx is done.
func (p *Player) Run(ctx context.Context) error {
	unsubs := p.subscribe()
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	go p.notifier.RunWatchdog(ctx)

	ready := false
	for {
		s, out, src, err := p.openSession()
		if err != nil {
			p.logger.Error("Failed to open display", "error", err)
			p.setStatus(func(st *Status) {
				st.State = StateFailed
				st.LastError = err.Error()
			})
			p.notifier.Status("display unavailable: %v", err)
			if !p.waitRetry(ctx) {
				return p.stop()
			}
			continue
		}

		if !ready {
			p.notifier.Ready()
			ready = true
		}
		f := s.Format()
		p.notifier.Status("showing %s on plane %d", f.FourCC, f.PlaneID)

		reason := p.present(ctx, s, src)
		s.Close()
		closeOutput(out, p.logger)

		if ctx.Err() != nil {
			return p.stop()
		}
		p.logger.Info("Reopening display", "reason", reason)
		p.notifier.Reloading()
		p.setStatus(func(st *Status) {
			st.State = StateReopening
			st.Reopens++
		})
	}
}

func (p *Player) stop() error {
	p.notifier.Stopping()
	p.setStatus(func(st *Status) { st.State = StateStopped })
	return nil
}

func (p *Player) subscribe() []func() {
	if p.bus == nil {
		return nil
	}
	return []func(){
		p.bus.Subscribe(func(e events.DisplayHotplugEvent) {
			p.RequestReopen("hotplug " + e.Action + " " + e.DevName)
		}),
		p.bus.Subscribe(func(e events.OverridesChangedEvent) {
			p.SetOverrides(kms.ParseOverrides(e.VLCChroma, e.DRMChroma, p.logger.Warn))
		}),
	}
}

// waitRetry sleeps until the retry interval passes or a reopen is
// requested. It reports false when ctx is done.
func (p *Player) waitRetry(ctx context.Context) bool {
	timer := time.NewTimer(p.cfg.RetryInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	case <-p.reopen:
	}
	return true
}

func (p *Player) openSession() (*kms.Session, Output, Source, error) {
	out, err := p.open()
	if err != nil {
		return nil, Output{}, nil, err
	}
	o := p.Overrides()
	s, err := kms.Open(out.Device, kms.Options{
		Device:       out.Name,
		CRTCID:       out.CRTCID,
		Source:       p.cfg.Source,
		OutputWidth:  out.Width,
		OutputHeight: out.Height,
		ForcedChroma: o.Chroma,
		ForcedFourCC: o.FourCC,
		Buffers:      p.cfg.Buffers,
		Tiling:       p.cfg.Tiling,
		Bus:          p.bus,
	})
	if err != nil {
		closeOutput(out, p.logger)
		return nil, Output{}, nil, err
	}

	// Frames are rendered directly in the negotiated chroma.
	sf := p.cfg.Source
	sf.Chroma = s.Format().Chroma
	src, err := p.newSource(sf)
	if err != nil {
		s.Close()
		closeOutput(out, p.logger)
		return nil, Output{}, nil, err
	}

	f := s.Format()
	p.setStatus(func(st *Status) {
		st.State = StateRunning
		st.Device = out.Name
		st.CRTCID = out.CRTCID
		st.PlaneID = f.PlaneID
		st.FourCC = f.FourCC.String()
		st.Chroma = f.Chroma.String()
		st.Width = sf.Width
		st.Height = sf.Height
		st.Placement = s.Placement()
		st.Buffers = len(s.Buffers())
		st.Frames = 0
		st.LastError = ""
	})
	return s, out, src, nil
}

func closeOutput(out Output, logger *slog.Logger) {
	if out.Close == nil {
		return
	}
	if err := out.Close(); err != nil {
		logger.Warn("Failed to close display device", "device", out.Name, "error", err)
	}
}

// present shows frames until ctx is done or a reopen is needed and returns
// the reason it stopped.
func (p *Player) present(ctx context.Context, s *kms.Session, src Source) string {
	ticker := time.NewTicker(time.Second / time.Duration(p.cfg.FPS))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return "shutdown"
		case reason := <-p.reopen:
			return reason
		case <-ticker.C:
		}

		p.mu.Lock()
		p.seq++
		seq := p.seq
		p.mu.Unlock()

		frame, err := src.Render(seq)
		if err != nil {
			p.logger.Warn("Failed to render frame", "sequence", seq, "error", err)
			continue
		}
		if err := s.Prepare(frame); err != nil {
			p.logger.Warn("Failed to prepare frame", "sequence", seq, "error", err)
			continue
		}
		if err := s.Display(); err != nil {
			failures++
			p.setStatus(func(st *Status) { st.LastError = err.Error() })
			if failures == 1 {
				p.logger.Warn("Failed to display frame", "sequence", seq, "error", err)
			}
			if !kms.IsCode(err, kms.ErrCommitFailed) || failures >= p.cfg.MaxCommitFailures {
				var kerr *kms.Error
				if errors.As(err, &kerr) {
					return "display error " + string(kerr.Code)
				}
				return "display error"
			}
			continue
		}
		if failures > 0 {
			p.logger.Info("Display recovered", "failed_commits", failures)
			failures = 0
		}
		frames := s.Frames()
		p.setStatus(func(st *Status) {
			st.Frames = frames
			st.LastError = ""
		})
	}
}
