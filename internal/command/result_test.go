package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultRenderCanonicalErrors(t *testing.T) {
	cases := []struct {
		kind    Kind
		payload string
		want    string
	}{
		{KindOk, "", "+OK\r\n"},
		{KindSyntaxErr, "", "-ERR syntax error\r\n"},
		{KindOutOfRange, "", "-ERR value is not an integer or out of range\r\n"},
		{KindWrongNum, "get", "-ERR wrong number of arguments for 'get' command\r\n"},
		{KindErrOther, "boom", "-ERR boom\r\n"},
	}
	for _, c := range cases {
		var r Result
		r.SetResult(c.kind, c.payload)
		require.Equal(t, c.want, string(r.Render()))
	}
}

func TestResultRenderNoneIsRawBuffer(t *testing.T) {
	var r Result
	r.AppendArrayLen(2)
	r.AppendBulkLen(4)
	r.AppendContent("PONG")
	r.AppendInteger(7)
	require.Equal(t, "*2\r\n$4\r\nPONG\r\n:7\r\n", string(r.Render()))
}

func TestResultClearResetsState(t *testing.T) {
	var r Result
	r.SetResult(KindErrOther, "bad")
	r.AppendContent("leftover")
	r.Clear()
	require.True(t, r.Ok())
	require.Equal(t, "", string(r.Render()))
}
