// Package introspection assembles the INFO/CONFIG/CLIENT admin surfaces
// that the dispatcher's admin executors delegate to, grounded on
// original_source/src/pika_admin.cc's InfoCmd, ConfigCmd, and ClientCmd.
package introspection

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pika/internal/binlog"
	"pika/internal/replication"
	"pika/internal/serverstate"
	"pika/internal/storage"
)

// Section names INFO recognizes, matching InfoCmd::Do's dispatch on the
// optional section argument.
const (
	SectionServer      = "server"
	SectionClients     = "clients"
	SectionStats       = "stats"
	SectionReplication = "replication"
	SectionKeyspace    = "keyspace"
	SectionAll         = "all"
)

// Snapshot is everything INFO needs a read-only view of. The executor
// constructs one from the live server components on each call; INFO
// never holds its own state.
type Snapshot struct {
	Version       string
	RunID         string
	Uptime        time.Duration
	ListenAddr    string
	State         *serverstate.State
	Store         *storage.Store
	Producer      binlog.Cursor
	Fanout        *replication.Fanout
	SafetyPurge   string
	ConnectedCmds int64
}

// Render builds the INFO reply body for the requested section (empty or
// "all" means every section), matching pika_admin.cc's section ordering
// and "# Name" header convention.
func Render(section string, s Snapshot) string {
	section = strings.ToLower(strings.TrimSpace(section))
	if section == "" {
		section = SectionAll
	}

	var b strings.Builder
	want := func(name string) bool { return section == SectionAll || section == name }

	if want(SectionServer) {
		fmt.Fprintf(&b, "# Server\r\n")
		fmt.Fprintf(&b, "pika_version:%s\r\n", s.Version)
		fmt.Fprintf(&b, "run_id:%s\r\n", s.RunID)
		fmt.Fprintf(&b, "tcp_port:%s\r\n", s.ListenAddr)
		fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", int64(s.Uptime.Seconds()))
		b.WriteString("\r\n")
	}

	if want(SectionClients) {
		fmt.Fprintf(&b, "# Clients\r\n")
		fmt.Fprintf(&b, "connected_clients:%d\r\n", len(s.State.Registry().List())-len(s.State.Registry().Slaves()))
		b.WriteString("\r\n")
	}

	if want(SectionStats) {
		fmt.Fprintf(&b, "# Stats\r\n")
		fmt.Fprintf(&b, "total_commands_processed:%d\r\n", s.ConnectedCmds)
		b.WriteString("\r\n")
	}

	if want(SectionReplication) {
		fmt.Fprintf(&b, "# Replication\r\n")
		role := "master"
		if s.State.MasterSlaveState() != serverstate.StateOffline && s.State.MasterSlaveState() != serverstate.StateSingle {
			role = "slave"
		}
		fmt.Fprintf(&b, "role:%s\r\n", role)
		if role == "slave" {
			host, port := s.State.Master()
			fmt.Fprintf(&b, "master_host:%s\r\n", host)
			// original_source stores the replica's connect port offset by
			// +100 internally and redisplays the caller-facing value here.
			fmt.Fprintf(&b, "master_port:%d\r\n", port-100)
			fmt.Fprintf(&b, "master_link_status:%s\r\n", s.State.MasterSlaveState())
		}
		fmt.Fprintf(&b, "connected_slaves:%d\r\n", s.Fanout.Count())
		for i, r := range s.Fanout.List() {
			fmt.Fprintf(&b, "slave%d:offset=%s\r\n", i, r.Acked)
		}
		fmt.Fprintf(&b, "binlog_offset:%s\r\n", s.Producer)
		fmt.Fprintf(&b, "safety_purge:%s\r\n", s.SafetyPurge)
		b.WriteString("\r\n")
	}

	if want(SectionKeyspace) {
		fmt.Fprintf(&b, "# Keyspace\r\n")
		fmt.Fprintf(&b, "db0:keys=%d\r\n", s.Store.Len())
		b.WriteString("\r\n")
	}

	return b.String()
}

// ConsumerMax returns the binlog's consumer low-water mark: the highest
// segment number every connected replica has acknowledged. With no
// replicas connected there is no lagging consumer, so the whole producer
// log counts as acknowledged. Grounded on pika_admin.cc PurgelogstoCmd::Do
// reading mario::GetStatus(&max) before deciding whether a purge is safe.
func ConsumerMax(producer binlog.Cursor, fanout *replication.Fanout) uint32 {
	max := producer.Filenum
	for _, r := range fanout.List() {
		if r.Acked.Filenum < max {
			max = r.Acked.Filenum
		}
	}
	return max
}

// SafetyPurge renders INFO's safety_purge value, "write2file<N>" or
// "none": the newest segment number that may safely be purged up to given the
// consumer-acknowledged max and the retention margin, or "none" if max is
// still below the margin.
func SafetyPurge(max uint32, keepMargin int) string {
	if uint32(keepMargin) > max {
		return "none"
	}
	safe := max - uint32(keepMargin)
	return "write2file" + strconv.FormatUint(uint64(safe), 10)
}
