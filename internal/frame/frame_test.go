package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	f := New("Date", "Close")
	require.NoError(t, f.AppendRow("2024-01-02", 10.5))
	require.NoError(t, f.AppendRow("2024-01-03", nil))
	require.Error(t, f.AppendRow("2024-01-04"))

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 10.5, f.Value("Close", 0))
	assert.Nil(t, f.Value("Close", 1))
	assert.Nil(t, f.Value("Missing", 0))
}

func TestRename(t *testing.T) {
	f := New("Open", "Close", "close_price")
	require.NoError(t, f.AppendRow(1.0, 2.0, 3.0))
	f.Rename(map[string]string{"Open": "open_price", "Close": "close_price"})

	assert.Equal(t, []string{"open_price", "Close", "close_price"}, f.Columns())
	assert.Equal(t, 1.0, f.Value("open_price", 0))
	assert.Equal(t, 3.0, f.Value("close_price", 0))
}

func TestConcatFillsMissingColumns(t *testing.T) {
	a := New("ticker", "close")
	require.NoError(t, a.AppendRow("AAA", 1.0))
	b := New("ticker_symbol", "close")
	require.NoError(t, b.AppendRow("BBB", 2.0))

	a.Concat(b)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"ticker", "close", "ticker_symbol"}, a.Columns())
	assert.Equal(t, []any{"AAA", nil}, a.Column("ticker"))
	assert.Equal(t, []any{nil, "BBB"}, a.Column("ticker_symbol"))
	assert.Equal(t, []any{1.0, 2.0}, a.Column("close"))
}

func TestSetColumn(t *testing.T) {
	f := New()
	require.NoError(t, f.SetColumn("a", []any{1, 2}))
	require.NoError(t, f.SetColumn("b", []any{3, 4}))
	assert.Error(t, f.SetColumn("c", []any{5}))
	assert.Equal(t, 2, f.Len())
}
