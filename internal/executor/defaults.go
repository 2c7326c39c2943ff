package executor

// DefaultFactories returns the name->Factory map for every command in
// command.Defaults(), the Go equivalent of original_source's
// InitCmdTable factory registration alongside the descriptor table.
func DefaultFactories() map[string]Factory {
	return map[string]Factory{
		"ping":      NewPing,
		"echo":      NewEcho,
		"auth":      NewAuth,
		"slaveauth": NewSlaveauth,
		"select":    NewSelect,
		"shutdown":  NewShutdown,
		"flushall":  NewFlushall,
		"loaddb":    NewLoaddb,
		"dump":      NewDump,
		"dumpoff":   NewDumpoff,
		"readonly":  NewReadonly,
		"purgelogsto": NewPurgelogsto,
		"config":    NewConfig,
		"client":    NewClient,
		"info":      NewInfo,

		"slaveof":   NewSlaveof,
		"trysync":   NewTrysync,
		"ucanpsync": NewUcanpsync,
		"syncerror": NewSyncerror,
		"pikasync":  NewPikasync,

		"get":    NewGet,
		"set":    NewSet,
		"del":    NewDel,
		"exists": NewExists,
	}
}
