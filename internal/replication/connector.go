package replication

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"pika/internal/binlog"
	"pika/internal/wire"
)

// TCPConnector is the production Connector: it dials the master over
// plain TCP and speaks the same RESP2 argv protocol the client-facing
// listener does, issuing TRYSYNC as a normal command and then reading
// whatever the master streams afterward as raw replicated payloads.
type TCPConnector struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// NewTCPConnector builds an unconnected TCPConnector; Connect must be
// called before Trysync/Stream.
func NewTCPConnector() *TCPConnector { return &TCPConnector{} }

func (c *TCPConnector) Connect(ctx context.Context, host string, port int) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("replication: dial %s:%d: %w", host, port, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.r = bufio.NewReader(conn)
	c.mu.Unlock()
	return nil
}

func (c *TCPConnector) Trysync(ctx context.Context, from binlog.Cursor) (binlog.Cursor, error) {
	req := wire.EncodeArgs([]string{"trysync", strconv.FormatUint(uint64(from.Filenum), 10), strconv.FormatUint(from.Offset, 10)})
	c.mu.Lock()
	conn := c.conn
	r := c.r
	c.mu.Unlock()

	if _, err := conn.Write(req); err != nil {
		return binlog.Cursor{}, fmt.Errorf("replication: send trysync: %w", err)
	}

	line, err := r.ReadString('\n')
	if err != nil {
		return binlog.Cursor{}, fmt.Errorf("replication: read trysync reply: %w", err)
	}
	return parseCursorReply(line)
}

// parseCursorReply accepts either a bulk-string payload line or a
// simple-string one ("$<filenum>:<offset>" / "+<filenum>:<offset>"),
// since a master that rejects partial sync replies with an error line
// instead, which the caller surfaces as a plain parse failure.
func parseCursorReply(line string) (binlog.Cursor, error) {
	var filenum uint32
	var offset uint64
	trimmed := line
	for len(trimmed) > 0 && (trimmed[len(trimmed)-1] == '\n' || trimmed[len(trimmed)-1] == '\r') {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if len(trimmed) > 0 && (trimmed[0] == '+' || trimmed[0] == '$') {
		trimmed = trimmed[1:]
	}
	if _, err := fmt.Sscanf(trimmed, "%d:%d", &filenum, &offset); err != nil {
		return binlog.Cursor{}, fmt.Errorf("replication: unexpected trysync reply %q", line)
	}
	return binlog.Cursor{Filenum: filenum, Offset: offset}, nil
}

func (c *TCPConnector) Stream(ctx context.Context, apply func(payload []byte) error) error {
	c.mu.Lock()
	r := c.r
	c.mu.Unlock()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			if applyErr := apply(buf[:n]); applyErr != nil {
				return applyErr
			}
		}
		if err != nil {
			return err
		}
	}
}

func (c *TCPConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
