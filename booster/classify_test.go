package booster

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestClassifyMatchesAbsolutePath(t *testing.T) {
	ch := NewChannel()
	argv := []string{"/usr/local/bin/lsp-booster", "--json-false-value", ":json-false", "--", "gopls", "serve"}
	Classify(ProgramName, argv, ch, discardLogger())
	require.True(t, ch.Boosted())
}

func TestClassifyNoMatch(t *testing.T) {
	ch := NewChannel()
	Classify(ProgramName, []string{"gopls", "serve"}, ch, discardLogger())
	require.False(t, ch.Boosted())
}

func TestClassifySkipsOnMissingInput(t *testing.T) {
	// None of these may panic or tag anything.
	Classify(ProgramName, nil, nil, nil)
	Classify(ProgramName, []string{"lsp-booster"}, nil, nil)

	ch := NewChannel()
	Classify(ProgramName, nil, ch, nil)
	require.False(t, ch.Boosted())
	Classify("", []string{"lsp-booster"}, ch, nil)
	require.False(t, ch.Boosted())
}

func TestChannelStatsStartEmpty(t *testing.T) {
	ch := NewChannel()
	require.Equal(t, Stats{}, ch.Stats())
	ch.countFrame(10, true)
	ch.countFrame(4, false)
	require.Equal(t, Stats{Frames: 2, BinaryFrames: 1, BytesRead: 14}, ch.Stats())
}
