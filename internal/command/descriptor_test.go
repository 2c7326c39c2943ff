package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorCheckArity(t *testing.T) {
	exact := NewDescriptor("PING", 1, Read|Admin|Local)
	require.True(t, exact.CheckArity(1))
	require.False(t, exact.CheckArity(0))
	require.False(t, exact.CheckArity(2))

	minimum := NewDescriptor("CLIENT", -2, Read|Admin|Local)
	require.True(t, minimum.CheckArity(2))
	require.True(t, minimum.CheckArity(5))
	require.False(t, minimum.CheckArity(1))
}

func TestDescriptorFlagsAndCanonicalName(t *testing.T) {
	d := NewDescriptor("SLAVEOF", -3, Write|Admin)
	require.Equal(t, "slaveof", d.Name())
	require.True(t, d.IsWrite())
	require.Equal(t, TypeAdmin, d.Type())
	require.False(t, d.IsLocal())
	require.True(t, d.IsReplicated())

	local := NewDescriptor("PING", 1, Read|Admin|Local)
	require.True(t, local.IsLocal())
	require.False(t, local.IsReplicated())
}

func TestTableLookupIsCaseInsensitive(t *testing.T) {
	table, err := NewTable([]Descriptor{
		NewDescriptor("get", -2, Read|Kv),
		NewDescriptor("set", -3, Write|Kv),
	})
	require.NoError(t, err)

	d, ok := table.Lookup("GET")
	require.True(t, ok)
	require.Equal(t, "get", d.Name())

	_, ok = table.Lookup("del")
	require.False(t, ok)
}

func TestTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Descriptor{
		NewDescriptor("get", -2, Read|Kv),
		NewDescriptor("GET", -2, Read|Kv),
	})
	require.Error(t, err)
}
