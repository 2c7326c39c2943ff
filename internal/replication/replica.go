package replication

import (
	"io"
	"sync"

	"pika/internal/binlog"
)

// ReplicaStream is one connected replica's outbound binlog feed: the
// connection to write entries to, and the Cursor it has acknowledged.
// Grounded on the teacher's ReplicaInfo, trimmed to the fields the
// fan-out loop actually needs once RDB/PSYNC2 capability negotiation is
// out of scope.
type ReplicaStream struct {
	ID     string
	Writer io.Writer
	Acked  binlog.Cursor

	mu sync.Mutex
}

// Send writes one already-encoded binlog entry to the replica, matching
// the teacher's propagateToReplicas per-replica write+flush pattern
// (flushing is the caller's concern when Writer is a *bufio.Writer).
func (s *ReplicaStream) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.Writer.Write(payload)
	return err
}

// Fanout is the master-side replica registry: every PSYNC'd replica gets
// every subsequent Append broadcast to it.
type Fanout struct {
	mu       sync.RWMutex
	replicas map[string]*ReplicaStream
}

func NewFanout() *Fanout {
	return &Fanout{replicas: make(map[string]*ReplicaStream)}
}

// Register adds a replica stream, called once PSYNC/trysync negotiation
// completes for an inbound connection.
func (f *Fanout) Register(stream *ReplicaStream) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replicas[stream.ID] = stream
}

// Unregister removes a replica stream on disconnect.
func (f *Fanout) Unregister(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.replicas, id)
}

// Broadcast sends payload to every registered replica, dropping (and
// unregistering) any that error on write — a slow or dead replica must
// never block the producer.
func (f *Fanout) Broadcast(payload []byte) {
	f.mu.RLock()
	streams := make([]*ReplicaStream, 0, len(f.replicas))
	for _, s := range f.replicas {
		streams = append(streams, s)
	}
	f.mu.RUnlock()

	for _, s := range streams {
		if err := s.Send(payload); err != nil {
			f.Unregister(s.ID)
		}
	}
}

// Count reports the number of connected replicas, used by INFO
// replication's connected_slaves field.
func (f *Fanout) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.replicas)
}

// List returns a snapshot of every registered replica stream.
func (f *Fanout) List() []*ReplicaStream {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*ReplicaStream, 0, len(f.replicas))
	for _, s := range f.replicas {
		out = append(out, s)
	}
	return out
}
