package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("上下文中有日志器时返回该日志器", func(t *testing.T) {
		expected := Discard()
		ctx := ContextWithLogger(context.Background(), expected)

		assert.Equal(t, expected, FromContext(ctx))
	})

	t.Run("上下文中没有日志器时返回全局日志器", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.Equal(t, GetDefault(), l)
	})
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: WarnLevel, Output: &buf})

	l.Info("不应输出")
	assert.Empty(t, buf.String())

	l.Warn("应输出", "key", "value")
	assert.Contains(t, buf.String(), "应输出")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&Config{Level: DebugLevel, Output: &buf, JSON: true})

	l.Debug("hello", "n", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
