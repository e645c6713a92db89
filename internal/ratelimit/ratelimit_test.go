package ratelimit

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/macrodesk/macrobrief/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter(io.Discard)
	m.Run()
}

func TestBudgetPerProviderLimit(t *testing.T) {
	b := NewBudget(map[string]int{"gemini": 2}, 0)

	require.True(t, b.Allow("gemini"))
	require.NoError(t, b.Use("gemini"))
	require.NoError(t, b.Use("gemini"))
	require.False(t, b.Allow("gemini"))
	require.Error(t, b.Use("gemini"))
}

func TestBudgetTotalLimit(t *testing.T) {
	b := NewBudget(map[string]int{}, 2)

	require.NoError(t, b.Use("finnhub"))
	require.NoError(t, b.Use("newsapi"))
	require.False(t, b.Allow("finnhub"))
	require.Error(t, b.Use("marketaux"))
}

func TestBudgetUnregisteredProviderUnlimited(t *testing.T) {
	b := NewBudget(map[string]int{"gemini": 1}, 0)
	for i := 0; i < 50; i++ {
		require.NoError(t, b.Use("yahoo"))
	}
	require.True(t, b.Allow("yahoo"))
}

func TestBudgetStats(t *testing.T) {
	b := NewBudget(map[string]int{"gemini": 5}, 10)
	require.NoError(t, b.Use("gemini"))

	stats := b.GetStats()
	require.Equal(t, 1, stats["gemini_used"])
	require.Equal(t, 5, stats["gemini_limit"])
	require.Equal(t, 1, stats["total_used"])
}
