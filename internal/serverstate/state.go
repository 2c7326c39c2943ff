// Package serverstate holds the process-wide control state that
// original_source kept in pika_server.h's file-scope globals: replication
// role, readonly gating, shutdown flag, and the connected-client registry.
// spec.md §9 flags "globals as an explicit Context" as a redesign; State
// is that context.
package serverstate

import (
	"sync"
	"time"
)

// MasterSlaveState is ms_state from original_source, the replica-side
// connection state machine driving SLAVEOF/trysync/psync.
type MasterSlaveState int

const (
	// StateOffline: replication to the recorded master was dropped
	// (SYNCERROR); SLAVEOF NO ONE returns to StateSingle instead.
	StateOffline MasterSlaveState = iota
	// StateConnect: SLAVEOF accepted, waiting for the connect goroutine to dial.
	StateConnect
	// StateConnecting: connect loop running, dialing the master or with the
	// handshake (trysync) in flight.
	StateConnecting
	// StateConnected: trysync succeeded, streaming replicated writes.
	StateConnected
	// StateSingle: standalone master with no replica role of its own.
	StateSingle
)

func (s MasterSlaveState) String() string {
	switch s {
	case StateConnect:
		return "connect"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateSingle:
		return "single"
	default:
		return "offline"
	}
}

// State is the server's replication/admin control block. Field grouping
// and the lock-ordering discipline (mu before readonlyMu before the
// client registry's own lock) follow pika_server.h's
// state_protector_/slave_mutex_/conn_mutex_ triple.
type State struct {
	mu sync.RWMutex

	msState    MasterSlaveState
	masterHost string
	masterPort int

	shutdown bool

	dumpInProgress bool
	dumpStartedAt  time.Time

	readonlyMu sync.RWMutex
	readonly   bool

	statStartTime time.Time

	registry *ClientRegistry
}

// New builds server control state bound to a fresh, empty client registry.
func New() *State {
	return &State{
		msState:       StateSingle,
		statStartTime: time.Now(),
		registry:      NewClientRegistry(),
	}
}

// Registry returns the connected-client registry.
func (s *State) Registry() *ClientRegistry { return s.registry }

// MasterSlaveState returns the current replica-side state machine value.
func (s *State) MasterSlaveState() MasterSlaveState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.msState
}

// SetMasterSlaveState transitions the state machine, matching
// PikaServer::SetMasterSlaveState's single assignment under the same lock
// guarding the master host/port pair.
func (s *State) SetMasterSlaveState(next MasterSlaveState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msState = next
}

// Master returns the currently configured master host/port, valid only
// when MasterSlaveState is not Offline/Single.
func (s *State) Master() (host string, port int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.masterHost, s.masterPort
}

// SetMaster records the master address and moves the state machine to
// Connect, matching PikaServer::SetMaster.
func (s *State) SetMaster(host string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterHost = host
	s.masterPort = port
	s.msState = StateConnect
}

// ClearMaster drops the master address and returns to Offline, matching
// the "slaveof no one" path.
func (s *State) ClearMaster() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterHost = ""
	s.masterPort = 0
	s.msState = StateOffline
}

// IsReadonly reports whether writes are currently rejected. Kept under
// its own lock (readonly_rwlock in original_source) because it is read on
// every write-command dispatch, a much hotter path than the state
// transitions above.
func (s *State) IsReadonly() bool {
	s.readonlyMu.RLock()
	defer s.readonlyMu.RUnlock()
	return s.readonly
}

// SetReadonly flips the readonly gate, driven by the READONLY admin
// command and by becoming a connected replica.
func (s *State) SetReadonly(v bool) {
	s.readonlyMu.Lock()
	defer s.readonlyMu.Unlock()
	s.readonly = v
}

// IsShuttingDown reports whether SHUTDOWN has been accepted; the dispatcher
// refuses all further commands once this is set.
func (s *State) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shutdown
}

// RequestShutdown marks the server as shutting down.
func (s *State) RequestShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
}

// BeginDump records a DUMP/DUMPOFF snapshot window, matching
// original_source's dump_prefix_/bgsave_info_ "in progress" flag.
func (s *State) BeginDump() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dumpInProgress {
		return false
	}
	s.dumpInProgress = true
	s.dumpStartedAt = time.Now()
	return true
}

// EndDump clears the dump-in-progress flag.
func (s *State) EndDump() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dumpInProgress = false
}

// DumpInProgress reports whether a DUMP/DUMPOFF window is open, and since
// when.
func (s *State) DumpInProgress() (bool, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dumpInProgress, s.dumpStartedAt
}

// Uptime reports time since the server's statistics were reset.
func (s *State) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.statStartTime)
}
