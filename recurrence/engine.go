package recurrence

import (
	"time"
)

// Engine runs the package functions behind an optional expansion cache. The
// package-level functions are the reference behaviour; an Engine returns the
// same results and is safe for concurrent use.
type Engine struct {
	cache  *ExpansionCache
	config EngineConfig
}

// NewEngine creates an engine without a cache
func NewEngine() *Engine {
	return NewEngineWithConfig(DisabledCacheConfig)
}

// Options returns expansion options bounded by horizon and the configured cap
func (e *Engine) Options(horizon time.Time) ExpansionOptions {
	return ExpansionOptions{Horizon: horizon, MaxOccurrences: e.config.MaxOccurrences}
}

// MaxOccurrences returns the configured occurrence cap
func (e *Engine) MaxOccurrences() int {
	return e.config.MaxOccurrences
}

// Generate is the cached form of the package-level Generate
func (e *Engine) Generate(rule Rule, opts ExpansionOptions) ([]time.Time, error) {
	if e.cache != nil {
		if occurrences, ok := e.cache.Get(rule, opts); ok {
			return occurrences, nil
		}
	}

	occurrences, err := Generate(rule, opts)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(rule, opts, occurrences)
	}
	return occurrences, nil
}

// Next is the package-level Next; it is not cached since after varies per call
func (e *Engine) Next(rule Rule, after time.Time, opts ExpansionOptions) (time.Time, bool, error) {
	return Next(rule, after, opts)
}

// HasConflict matches the package-level HasConflict, reusing a cached
// expansion of the window when there is one
func (e *Engine) HasConflict(rule Rule, existing []time.Time, window Window, maxCount int) (bool, error) {
	if e.cache == nil {
		return HasConflict(rule, existing, window, maxCount)
	}
	conflicts, err := e.FindConflicts(rule, existing, window, maxCount)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindConflicts matches the package-level FindConflicts
func (e *Engine) FindConflicts(rule Rule, existing []time.Time, window Window, maxCount int) ([]time.Time, error) {
	if e.cache == nil {
		return FindConflicts(rule, existing, window, maxCount)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	occurrences, err := e.Generate(rule, window.options(maxCount))
	if err != nil {
		return nil, err
	}
	if n := len(occurrences); n >= maxCount && cutShort(rule, window, occurrences[n-1], n) {
		return nil, limitExceeded(window, maxCount)
	}

	days := make(map[dateKey]struct{}, len(occurrences))
	for _, t := range occurrences {
		if window.Contains(t) {
			days[keyOf(t)] = struct{}{}
		}
	}
	return matching(existing, days), nil
}

// Stats reports cache occupancy; it is zero when caching is disabled
func (e *Engine) Stats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Close releases the cache
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}
