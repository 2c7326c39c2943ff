package introspection

import (
	"strings"

	"pika/internal/serverstate"
)

// ClientList implements CLIENT LIST, one line per connection, matching
// pika_admin.cc ClientCmd's "list" subcommand.
func ClientList(reg *serverstate.ClientRegistry) string {
	clients := reg.List()
	var b strings.Builder
	for _, c := range clients {
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	return b.String()
}

// ClientKill implements CLIENT KILL <addr>, returning whether a matching
// connection was found and closed.
func ClientKill(reg *serverstate.ClientRegistry, addr string) bool {
	return reg.KillByAddr(addr)
}
