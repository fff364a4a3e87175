package iocli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
	assert.NotPanics(t, func() {
		stdio.Printf("%s", "")
	})
}

func TestWriter_PrintlnAndPrintf(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)

	w.Println("hello", "world")
	w.Printf("test %d %s\n", 1, "abc")
	n, err := w.Write([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, "hello world\ntest 1 abc\nraw", buf.String())
	assert.False(t, w.IsTerminal())
	assert.True(t, NewWriter(&buf, true).IsTerminal())
}
