package config

import (
	"sort"

	"github.com/storyloom/jobpulse"
)

// BuildOptions converts parsed configuration into SDK options for
// [jobpulse.New].
//
// Only values that were actually set in the config produce options, so SDK
// defaults apply to everything left out.
func BuildOptions(cfg *Config) []jobpulse.Option {
	var opts []jobpulse.Option

	if len(cfg.Headers) > 0 {
		opts = append(opts, jobpulse.WithHeaders(mapToKeyValuePairs(cfg.Headers)...))
	}

	if cfg.RequestTimeout != 0 {
		opts = append(opts, jobpulse.WithRequestTimeout(cfg.RequestTimeout.Duration()))
	}

	if cfg.MaxAttempts != 0 {
		opts = append(opts, jobpulse.WithMaxAttempts(cfg.MaxAttempts))
	}

	if cfg.TotalTimeout != 0 {
		opts = append(opts, jobpulse.WithTotalTimeout(cfg.TotalTimeout.Duration()))
	}

	if cfg.InitialDelay != 0 {
		opts = append(opts, jobpulse.WithInitialDelay(cfg.InitialDelay.Duration()))
	}

	if cfg.MaxDelay != 0 {
		opts = append(opts, jobpulse.WithMaxDelay(cfg.MaxDelay.Duration()))
	}

	if cfg.ReloadDelay != 0 {
		opts = append(opts, jobpulse.WithReloadDelay(cfg.ReloadDelay.Duration()))
	}

	if decoder := buildDecoder(cfg.Decoder); decoder != nil {
		opts = append(opts, jobpulse.WithDecoder(decoder))
	}

	return opts
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildDecoder converts DecoderConfig to a StatusDecoder function.
// Returns nil for default/empty decoders (SDK uses DefaultDecoder).
func buildDecoder(dc DecoderConfig) jobpulse.StatusDecoder {
	switch dc.Type {
	case "", "default":
		// nil signals SDK to use DefaultDecoder
		return nil
	case "json":
		errorPath := dc.ErrorPath
		if errorPath == "" {
			errorPath = "error_message"
		}
		return jobpulse.JSONFieldDecoder(dc.StatusPath, errorPath)
	default:
		// validation should catch this, but return nil as fallback
		return nil
	}
}
