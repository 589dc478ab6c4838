package trigger

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"

	"golang.org/x/sys/unix"

	"hinter/internal/config"
)

// ButtonWaiter blocks until any button is pressed on the controller device.
// The display pipeline races it against the hint viewer so a single pad
// press dismisses the hint on boxes that have no keyboard. It opens the
// device independently of Pad; evdev delivers events to every reader, so
// the chord detector keeps working while a wait is active.
type ButtonWaiter struct {
	device string
}

// NewButtonWaiter returns nil when no controller device is configured.
func NewButtonWaiter(cfg *config.Config) *ButtonWaiter {
	device := strings.TrimSpace(cfg.Input.Device)
	if device == "" {
		return nil
	}
	return &ButtonWaiter{device: device}
}

// Wait returns nil on the first key press, or an error when the device
// cannot be read or the context ends first.
func (w *ButtonWaiter) Wait(ctx context.Context) error {
	fd, err := unix.Open(w.device, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	buf := make([]byte, inputEventSize*64)
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fds[0].Revents = 0
		n, err := unix.Poll(fds, padPollTimeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return errors.New("controller device detached")
		}

		read, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return err
		}

		for offset := 0; offset+inputEventSize <= read; offset += inputEventSize {
			frame := buf[offset : offset+inputEventSize]
			if binary.NativeEndian.Uint16(frame[16:18]) != evKey {
				continue
			}
			if int32(binary.NativeEndian.Uint32(frame[20:24])) == keyPress {
				return nil
			}
		}
	}
}
