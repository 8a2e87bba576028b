package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesPrefixedLine(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "[Engine]")

	log.Log("started %d workers", 3)

	assert.Equal(t, "[Engine] started 3 workers\n", buf.String())
}

func TestWithPrefixChainsPrefixes(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "[Engine]").WithPrefix("seller-1")

	log.Log("refresh admitted")

	assert.Equal(t, "[Engine] seller-1 refresh admitted\n", buf.String())
}

func TestWithPrefixSharesWriter(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, "[Engine]")
	child := base.WithPrefix("seller-1")

	base.Log("one")
	child.Log("two")

	require.Contains(t, buf.String(), "[Engine] one")
	require.Contains(t, buf.String(), "[Engine] seller-1 two")
}

func TestNilWriterLogsWithoutPanic(t *testing.T) {
	log := NewLogger(nil, "[Engine]")

	assert.NotPanics(t, func() { log.Log("no report writer attached") })
}
