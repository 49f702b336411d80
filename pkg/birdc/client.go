// Package birdc is a client for the BIRD routing daemon's control
// socket. It speaks the line-based reply protocol just enough to fetch
// BGP peer status.
package birdc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/pablomonte/bird-peers/pkg/parser"
	"github.com/pablomonte/bird-peers/pkg/types"
)

const defaultReadTimeout = 5 * time.Second

var (
	// ErrPeerNotFound is returned by Peer when BIRD knows no BGP peer
	// by the requested name.
	ErrPeerNotFound = errors.New("no matching BGP peer")

	// ErrPeerAmbiguous is returned by Peer when a single-peer query
	// unexpectedly matches more than one peer. The result is never
	// resolved by picking one.
	ErrPeerAmbiguous = errors.New("more than one matching BGP peer")
)

var cleanNameRe = regexp.MustCompile(`[^0-9A-Za-z_]+`)

// Client queries one BIRD control socket. Each query opens its own
// connection and carries no state over from previous queries, so a
// Client is safe to reuse; concurrent queries need separate Clients or
// external serialization.
type Client struct {
	socketPath  string
	readTimeout time.Duration
	parser      *parser.Parser
}

// New creates a Client for the control socket at socketPath, e.g.
// /var/run/bird/bird.ctl.
func New(socketPath string) *Client {
	return &Client{
		socketPath:  socketPath,
		readTimeout: defaultReadTimeout,
		parser:      parser.New(),
	}
}

// NewWithTimeout creates a Client with a custom per-read deadline for
// slow or heavily loaded daemons.
func NewWithTimeout(socketPath string, readTimeout time.Duration) *Client {
	c := New(socketPath)
	c.readTimeout = readTimeout
	return c
}

// AllPeers queries status for every protocol and returns the BGP peers,
// zero or more, in the order BIRD reported them.
func (c *Client) AllPeers(ctx context.Context) ([]types.PeerDetail, error) {
	data, err := c.query(ctx, "show protocols all")
	if err != nil {
		return nil, err
	}

	return c.parser.ParsePeers(data)
}

// Peer queries status for the single named BGP peer. The name is
// sanitized to letters, digits and underscores before being sent.
// Exactly one peer must match: zero yields ErrPeerNotFound, several
// yield ErrPeerAmbiguous.
func (c *Client) Peer(ctx context.Context, name string) (types.PeerDetail, error) {
	cleaned := CleanName(name)

	data, err := c.query(ctx, fmt.Sprintf("show protocols all %q", cleaned))
	if err != nil {
		return types.PeerDetail{}, err
	}

	peers, err := c.parser.ParsePeers(data)
	if err != nil {
		return types.PeerDetail{}, err
	}

	switch len(peers) {
	case 1:
		return peers[0], nil
	case 0:
		return types.PeerDetail{}, fmt.Errorf("%w: %q", ErrPeerNotFound, cleaned)
	default:
		return types.PeerDetail{}, fmt.Errorf("%w: %q matched %d peers", ErrPeerAmbiguous, cleaned, len(peers))
	}
}

// CleanName strips every character that is not a letter, digit or
// underscore, so a caller-supplied peer name cannot smuggle extra
// command syntax onto the control socket.
func CleanName(name string) string {
	return strings.TrimSpace(cleanNameRe.ReplaceAllString(name, ""))
}

// query runs one command over a fresh connection: dial, consume the
// greeting, send, read the full reply, close. Transport failures
// propagate unmodified and are never retried.
func (c *Client) query(ctx context.Context, command string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return "", fmt.Errorf("failed to connect to bird socket: %w", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)

	// BIRD opens every session with a "0001 BIRD ... ready." banner.
	// Read it before sending, or its terminating space would end the
	// reply loop immediately.
	if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return "", err
	}
	if _, err := r.ReadString('\n'); err != nil {
		return "", fmt.Errorf("failed to read bird greeting: %w", err)
	}

	if _, err := conn.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}

	return readReply(conn, r, c.readTimeout)
}

// readReply accumulates reply lines until the end of the reply. The
// protocol has no length prefix, so a single bounded read would
// truncate large replies; instead lines are read one at a time under a
// rolling deadline. A reply is complete at the first line whose field
// code is followed by a space: BIRD separates code and text with "-" on
// continuation lines and " " on the final status line (e.g. "0000 ").
// EOF also ends the reply, for daemons that close after answering.
func readReply(conn net.Conn, r *bufio.Reader, readTimeout time.Duration) (string, error) {
	var reply strings.Builder

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return "", err
		}

		line, err := r.ReadString('\n')
		reply.WriteString(line)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return reply.String(), nil
			}
			return "", fmt.Errorf("failed to read reply: %w", err)
		}

		if isFinalLine(line) {
			return reply.String(), nil
		}
	}
}

// isFinalLine reports whether a raw reply line is a terminating status
// line: a decimal field code with " " as its separator.
func isFinalLine(line string) bool {
	trimmed := strings.TrimRight(line, "\r\n")
	n := 0
	for n < len(trimmed) && trimmed[n] >= '0' && trimmed[n] <= '9' {
		n++
	}
	if n == 0 {
		return false
	}

	// "0000" with nothing after the code also ends the reply.
	return n == len(trimmed) || trimmed[n] == ' '
}
