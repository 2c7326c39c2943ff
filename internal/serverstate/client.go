package serverstate

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ClientKind distinguishes ordinary client connections from replica
// connections in CLIENT LIST output, matching CLIENT_TYPE_NORMAL vs
// CLIENT_TYPE_SLAVE in original_source's pika_admin.cc ClientCmd.
type ClientKind int

const (
	ClientNormal ClientKind = iota
	ClientReplica
)

func (k ClientKind) String() string {
	if k == ClientReplica {
		return "slave"
	}
	return "normal"
}

// ClientInfo describes one connected client, the fields CLIENT LIST renders
// one per line, addr=...fd=...age=...idle=...
type ClientInfo struct {
	ID        string
	Addr      string
	Kind      ClientKind
	LastCmd   string
	ConnectedAt time.Time
	LastActive  time.Time

	kill func()
}

// Age reports seconds since the connection was accepted.
func (c *ClientInfo) Age() int64 { return int64(time.Since(c.ConnectedAt).Seconds()) }

// Idle reports seconds since the client's last command.
func (c *ClientInfo) Idle() int64 { return int64(time.Since(c.LastActive).Seconds()) }

// ClientRegistry tracks every live connection for CLIENT LIST/KILL, the Go
// equivalent of original_source's conn_mutex_-guarded client map.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*ClientInfo
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*ClientInfo)}
}

// Register adds a new connection and returns its generated ID. kill is
// invoked by ClientKill/ClientKillAll to tear down the underlying
// connection; the registry itself holds no net.Conn.
func (r *ClientRegistry) Register(addr string, kind ClientKind, kill func()) *ClientInfo {
	info := &ClientInfo{
		ID:          uuid.NewString(),
		Addr:        addr,
		Kind:        kind,
		ConnectedAt: time.Now(),
		LastActive:  time.Now(),
		kill:        kill,
	}
	r.mu.Lock()
	r.clients[info.ID] = info
	r.mu.Unlock()
	return info
}

// Unregister removes a connection, called from the connection's deferred
// cleanup on close.
func (r *ClientRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// Touch records the most recently dispatched command name for CLIENT LIST's
// cmd= field, matching pika_admin.cc's per-connection last_cmd bookkeeping.
func (r *ClientRegistry) Touch(id, lastCmd string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[id]; ok {
		c.LastActive = time.Now()
		c.LastCmd = lastCmd
	}
}

// List returns a snapshot of every connected client, sorted by connect
// order is not guaranteed — callers that need stable output should sort.
func (r *ClientRegistry) List() []*ClientInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ClientInfo, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Slaves returns only the replica connections, used by INFO clients'
// connected_clients count to leave replicas out.
func (r *ClientRegistry) Slaves() []*ClientInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*ClientInfo
	for _, c := range r.clients {
		if c.Kind == ClientReplica {
			out = append(out, c)
		}
	}
	return out
}

// Kill closes a single client by ID, matching CLIENT KILL <addr>.
func (r *ClientRegistry) Kill(id string) bool {
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if c.kill != nil {
		c.kill()
	}
	return true
}

// KillByAddr kills the client matching addr exactly, the form CLIENT KILL
// actually takes on the wire (ip:port), returning whether one was found.
func (r *ClientRegistry) KillByAddr(addr string) bool {
	r.mu.RLock()
	var target *ClientInfo
	for _, c := range r.clients {
		if c.Addr == addr {
			target = c
			break
		}
	}
	r.mu.RUnlock()
	if target == nil {
		return false
	}
	if target.kill != nil {
		target.kill()
	}
	return true
}

// KillAll disconnects every client and returns how many it closed.
func (r *ClientRegistry) KillAll() int {
	r.mu.RLock()
	clients := make([]*ClientInfo, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()
	for _, c := range clients {
		if c.kill != nil {
			c.kill()
		}
	}
	return len(clients)
}

// String renders one CLIENT LIST line, following Redis's addr=...fd=...
// key=value convention (fd is always -1: this server doesn't expose raw
// file descriptors across the net.Conn abstraction).
func (c *ClientInfo) String() string {
	return fmt.Sprintf("id=%s addr=%s fd=-1 age=%d idle=%d flags=N cmd=%s",
		c.ID, c.Addr, c.Age(), c.Idle(), lastCmdOrDash(c.LastCmd))
}

func lastCmdOrDash(cmd string) string {
	if cmd == "" {
		return "NULL"
	}
	return cmd
}
