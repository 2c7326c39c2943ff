package command

// Defaults returns the full command descriptor table this server
// recognizes, the Go equivalent of original_source's InitCmdTable. Arity
// and flag values match the admin command surface table verbatim; where
// pika_command.h's g_pikaCmdTable disagrees with that table (trysync,
// ucanpsync, slaveof's psync-tail form), the table wins.
func Defaults() []Descriptor {
	return []Descriptor{
		NewDescriptor("ping", 1, Read|Admin|Local),
		NewDescriptor("echo", 2, Read|Admin|Local),
		NewDescriptor("auth", 2, Read|Admin|Local),
		NewDescriptor("slaveauth", 2, Read|Admin|Local),
		NewDescriptor("select", 2, Read|Admin),
		NewDescriptor("shutdown", 1, Write|Admin),
		NewDescriptor("flushall", 1, Write|Admin),
		NewDescriptor("loaddb", 2, Write|Admin),
		NewDescriptor("dump", 1, Read|Admin),
		NewDescriptor("dumpoff", 1, Write|Admin),
		NewDescriptor("readonly", 3, Write|Admin),
		NewDescriptor("purgelogsto", 2, Write|Admin),
		NewDescriptor("config", -3, Write|Admin),
		NewDescriptor("client", -2, Read|Admin|Local),
		NewDescriptor("info", -1, Read|Admin),

		NewDescriptor("slaveof", -3, Write|Admin),
		NewDescriptor("trysync", 4, Read|Admin),
		NewDescriptor("ucanpsync", 1, Read|Admin),
		NewDescriptor("syncerror", 1, Read|Admin),
		NewDescriptor("pikasync", -2, Read|Admin),

		NewDescriptor("get", 2, Read|Kv),
		NewDescriptor("set", -3, Write|Kv),
		NewDescriptor("del", -2, Write|Kv),
		NewDescriptor("exists", -2, Read|Kv),
	}
}
