// Package slog decorates libdoc services with log/slog logging. Each
// decorator logs one record per call with its duration and error; failed
// calls are logged at warn level.
package slog

import "log/slog"

// levelFor returns lvl for successful calls and warn for failed ones.
func levelFor(lvl slog.Level, err error) slog.Level {
	if err != nil {
		return slog.LevelWarn
	}
	return lvl
}
