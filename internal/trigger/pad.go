package trigger

import (
	"context"
	"encoding/binary"
	"log/slog"
	"sync"

	"golang.org/x/sys/unix"

	"hinter/internal/config"
	"hinter/internal/logging"
)

// Linux input_event framing on 64-bit platforms: 16 bytes of timeval
// followed by type, code, and value.
const (
	inputEventSize = 24
	evKey          = 0x01
	keyRelease     = 0
	keyPress       = 1

	padPollTimeoutMillis = 1000
)

// Pad reads raw evdev events from a controller device and dispatches
// chord triggers. A missing or vanished device is not an error: the
// marker watcher keeps the daemon usable and the hotplug monitor calls
// Start again when a device appears.
type Pad struct {
	device   string
	tracker  *ChordTracker
	dispatch func(Kind, Origin) bool
	logger   *slog.Logger

	mu      sync.Mutex
	fd      int
	running bool
}

// NewPad validates the configured chords and prepares the listener.
func NewPad(cfg *config.Config, dispatch func(Kind, Origin) bool, logger *slog.Logger) (*Pad, error) {
	tracker, err := NewChordTracker(cfg.Input.RequestChord, cfg.Input.ViewChord)
	if err != nil {
		return nil, err
	}
	return &Pad{
		device:   cfg.Input.Device,
		tracker:  tracker,
		dispatch: dispatch,
		logger:   logging.NewComponentLogger(logger, "pad"),
		fd:       -1,
	}, nil
}

// Start opens the input device and begins the read loop. An unopenable
// device degrades silently to marker-only operation.
func (p *Pad) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	fd, err := unix.Open(p.device, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		p.logger.Info("controller device unavailable, marker triggers only",
			logging.String("device", p.device),
			logging.Error(err),
		)
		return nil
	}

	p.fd = fd
	p.running = true
	go p.readLoop(ctx, fd)

	p.logger.Info("controller listener started",
		logging.String("device", p.device),
		logging.String(logging.FieldEventType, "pad_listener_started"),
	)
	return nil
}

// Stop closes the device and ends the read loop.
func (p *Pad) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Pad) stopLocked() {
	if !p.running {
		return
	}
	if p.fd >= 0 {
		_ = unix.Close(p.fd)
		p.fd = -1
	}
	p.running = false
	p.tracker.Reset()
}

// Running reports whether the device is currently being read.
func (p *Pad) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pad) readLoop(ctx context.Context, fd int) {
	defer func() {
		p.mu.Lock()
		if p.fd == fd {
			p.stopLocked()
		}
		p.mu.Unlock()
	}()

	buf := make([]byte, inputEventSize*64)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for {
		if ctx.Err() != nil {
			return
		}

		fds[0].Revents = 0
		n, err := unix.Poll(fds, padPollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			p.logger.Warn("controller poll failed", logging.Error(err))
			return
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			p.logger.Info("controller device detached, marker triggers only",
				logging.String("device", p.device),
			)
			return
		}

		read, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			p.logger.Info("controller read failed, marker triggers only",
				logging.String("device", p.device),
				logging.Error(err),
			)
			return
		}

		for offset := 0; offset+inputEventSize <= read; offset += inputEventSize {
			p.handleFrame(buf[offset : offset+inputEventSize])
		}
	}
}

func (p *Pad) handleFrame(frame []byte) {
	eventType := binary.NativeEndian.Uint16(frame[16:18])
	if eventType != evKey {
		return
	}
	code := binary.NativeEndian.Uint16(frame[18:20])
	value := int32(binary.NativeEndian.Uint32(frame[20:24]))

	switch value {
	case keyPress:
		p.mu.Lock()
		kind, fired := p.tracker.Press(code)
		p.mu.Unlock()
		if fired {
			p.dispatch(kind, OriginInput)
		}
	case keyRelease:
		p.mu.Lock()
		p.tracker.Release(code)
		p.mu.Unlock()
	}
}
