package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelGatingSuppressesLowerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarning)

	log.Debugf("debug message")
	log.Infof("info message")
	require.Empty(t, buf.String())

	log.Warningf("warning message")
	require.Contains(t, buf.String(), "warning message")
}

func TestLevelFromInt(t *testing.T) {
	level, ok := LevelFromInt(3)
	require.True(t, ok)
	require.Equal(t, LevelError, level)

	_, ok = LevelFromInt(99)
	require.False(t, ok)
}

func TestSetLevelChangesGate(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelError)
	log.Infof("hidden")
	require.Empty(t, buf.String())

	log.SetLevel(LevelInfo)
	log.Infof("visible")
	require.True(t, strings.Contains(buf.String(), "visible"))
}
