package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_MatchesPackageFunctions(t *testing.T) {
	rule := mustRule(t, Draft{
		Frequency:   "monthly",
		Interval:    1,
		DaysOfMonth: []int{1, 15, 31},
		Anchor:      date(2024, 1, 1),
	})
	existing := []time.Time{date(2024, 2, 15), date(2024, 2, 29), date(2024, 3, 31)}
	window := Window{Start: date(2024, 2, 1), End: date(2024, 3, 31)}

	configs := map[string]EngineConfig{
		"Default":          DefaultEngineConfig,
		"High performance": HighPerformanceConfig,
		"Low memory":       LowMemoryConfig,
		"Disabled cache":   DisabledCacheConfig,
	}

	for name, config := range configs {
		t.Run(name, func(t *testing.T) {
			engine := NewEngineWithConfig(config)
			defer engine.Close()
			opts := engine.Options(date(2024, 6, 30))

			want, err := Generate(rule, opts)
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				got, err := engine.Generate(rule, opts)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}

			wantConflicts, err := FindConflicts(rule, existing, window, 100)
			require.NoError(t, err)
			gotConflicts, err := engine.FindConflicts(rule, existing, window, 100)
			require.NoError(t, err)
			assert.Equal(t, wantConflicts, gotConflicts)
			assert.Equal(t, []time.Time{date(2024, 2, 15), date(2024, 3, 31)}, gotConflicts)

			clash, err := engine.HasConflict(rule, existing, window, 100)
			require.NoError(t, err)
			assert.True(t, clash)

			next, ok, err := engine.Next(rule, date(2024, 1, 31), opts)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, date(2024, 2, 1), next)
		})
	}
}

func TestEngine_CachedResultsAreIsolated(t *testing.T) {
	engine := NewEngineWithConfig(DefaultEngineConfig)
	defer engine.Close()
	rule := mustRule(t, Draft{Frequency: "daily", Interval: 1, Anchor: date(2024, 1, 1)})
	opts := ExpansionOptions{Horizon: date(2024, 1, 3), MaxOccurrences: 10}

	first, err := engine.Generate(rule, opts)
	require.NoError(t, err)
	first[0] = date(1999, 1, 1)

	second, err := engine.Generate(rule, opts)
	require.NoError(t, err)
	assert.Equal(t, dates(2024, 1, 1, 2, 3), second)
	assert.Equal(t, 1, engine.Stats().TotalEntries)
}

func TestEngine_ErrorsAreNotCached(t *testing.T) {
	engine := NewEngineWithConfig(DefaultEngineConfig)
	defer engine.Close()
	rule := mustRule(t, Draft{Frequency: "daily", Interval: 1, Anchor: date(2024, 1, 1)})

	_, err := engine.Generate(rule, ExpansionOptions{MaxOccurrences: 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = engine.FindConflicts(rule, nil, Window{Start: date(2024, 1, 1)}, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, engine.Stats().TotalEntries)
}

func TestEngine_CapShortOfWindow(t *testing.T) {
	rule := mustRule(t, Draft{Frequency: "daily", Interval: 1, Anchor: date(2023, 1, 1)})
	existing := dates(2024, 1, 15)
	window := Window{Start: date(2024, 1, 1), End: date(2024, 1, 31)}

	for name, config := range map[string]EngineConfig{"Cached": DefaultEngineConfig, "Uncached": DisabledCacheConfig} {
		t.Run(name, func(t *testing.T) {
			engine := NewEngineWithConfig(config)
			defer engine.Close()

			_, err := engine.FindConflicts(rule, existing, window, 100)
			assert.ErrorIs(t, err, ErrLimitExceeded)

			_, err = engine.HasConflict(rule, existing, window, 100)
			assert.ErrorIs(t, err, ErrLimitExceeded)
		})
	}
}

func TestNewEngine(t *testing.T) {
	engine := NewEngine()
	defer engine.Close()

	assert.Equal(t, 1000, engine.MaxOccurrences())
	assert.Equal(t, CacheStats{}, engine.Stats())

	engine = NewEngineWithConfig(EngineConfig{MaxOccurrences: -5})
	defer engine.Close()
	assert.Equal(t, DefaultExpansionOptions.MaxOccurrences, engine.MaxOccurrences())
}
