package retroarch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"hinter/internal/config"
	"hinter/internal/logging"
	"hinter/internal/services"
)

// Client sends commands to RetroArch over its UDP network interface.
type Client struct {
	addr    string
	timeout time.Duration
	logger  *slog.Logger

	// dial is swappable for tests.
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// NewClient constructs a client from configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.RetroArch.CommandTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		addr:    net.JoinHostPort(cfg.RetroArch.Host, strconv.Itoa(cfg.RetroArch.Port)),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "retroarch"),
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "udp", addr)
		},
	}
}

// Addr returns the configured command interface address.
func (c *Client) Addr() string {
	return c.addr
}

// Send transmits a fire-and-forget command. No reply is awaited.
func (c *Client) Send(ctx context.Context, command string) error {
	conn, err := c.dial(ctx, c.addr)
	if err != nil {
		return services.Wrap(services.ErrControlPortUnreachable, "", "send", command, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if _, err := conn.Write([]byte(command)); err != nil {
		return services.Wrap(services.ErrControlPortUnreachable, "", "send", command, err)
	}
	return nil
}

// Query transmits a command and reads a single datagram reply.
func (c *Client) Query(ctx context.Context, command string) (string, error) {
	conn, err := c.dial(ctx, c.addr)
	if err != nil {
		return "", services.Wrap(services.ErrControlPortUnreachable, "", "query", command, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write([]byte(command)); err != nil {
		return "", services.Wrap(services.ErrControlPortUnreachable, "", "query", command, err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return "", services.Wrap(services.ErrControlPortUnreachable, "", "query", command, err)
	}
	return strings.TrimSpace(string(buf[:n])), nil
}

// Status queries the current content state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	reply, err := c.Query(ctx, "GET_STATUS")
	if err != nil {
		return Status{}, err
	}
	status := ParseStatus(reply)
	c.logger.Debug("status reply",
		logging.String("raw", reply),
		logging.Bool("content_loaded", status.ContentLoaded()),
	)
	return status, nil
}

// Screenshot triggers a screenshot capture.
func (c *Client) Screenshot(ctx context.Context) error {
	return c.Send(ctx, "SCREENSHOT")
}

// SaveState saves to the given slot. The protocol offers no acknowledgement,
// so success only means the datagrams were written.
func (c *Client) SaveState(ctx context.Context, slot int) error {
	if err := c.Send(ctx, fmt.Sprintf("SAVE_STATE_SLOT %d", slot)); err != nil {
		return err
	}
	return c.Send(ctx, "SAVE_STATE")
}

// LoadState loads from the given slot.
func (c *Client) LoadState(ctx context.Context, slot int) error {
	if err := c.Send(ctx, fmt.Sprintf("LOAD_STATE_SLOT %d", slot)); err != nil {
		return err
	}
	return c.Send(ctx, "LOAD_STATE")
}

// ShowMessage displays a short on-screen notification.
func (c *Client) ShowMessage(ctx context.Context, text string) error {
	// Command name is SHOW_MSG, not SHOW_MESG.
	return c.Send(ctx, "SHOW_MSG "+text)
}

// PauseToggle toggles content pause.
func (c *Client) PauseToggle(ctx context.Context) error {
	return c.Send(ctx, "PAUSE_TOGGLE")
}
