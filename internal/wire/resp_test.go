package wire

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadArgsMultiBulk(t *testing.T) {
	raw := "*3\r\n$3\r\nSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"
	r := bufio.NewReader(strings.NewReader(raw))

	args, err := ReadArgs(r)
	require.NoError(t, err)
	require.Equal(t, []string{"SET", "foo", "bar"}, args)
}

func TestReadArgsInline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("PING hello\r\n"))

	args, err := ReadArgs(r)
	require.NoError(t, err)
	require.Equal(t, []string{"PING", "hello"}, args)
}

func TestReadArgsEmptyBulk(t *testing.T) {
	raw := "*2\r\n$3\r\nSET\r\n$0\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))

	args, err := ReadArgs(r)
	require.NoError(t, err)
	require.Equal(t, []string{"SET", ""}, args)
}

func TestReadArgsRejectsBadArrayLength(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("*x\r\n"))

	_, err := ReadArgs(r)
	require.Error(t, err)
}

func TestReadArgsRejectsNonBulkElement(t *testing.T) {
	raw := "*1\r\n:5\r\n"
	r := bufio.NewReader(strings.NewReader(raw))

	_, err := ReadArgs(r)
	require.Error(t, err)
}

func TestReadArgsRejectsEmptyLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\r\n"))

	_, err := ReadArgs(r)
	require.Error(t, err)
}

func TestEncodeArgsRoundTrips(t *testing.T) {
	encoded := EncodeArgs([]string{"SET", "foo", "bar"})

	r := bufio.NewReader(strings.NewReader(string(encoded)))
	args, err := ReadArgs(r)
	require.NoError(t, err)
	require.Equal(t, []string{"SET", "foo", "bar"}, args)
}
