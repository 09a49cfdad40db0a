// Package xlog holds the process-wide zap logger shared by godto packages.
package xlog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Pointer[zap.Logger]

func init() { current.Store(zap.NewNop()) }

// L returns the current logger. It never returns nil.
func L() *zap.Logger { return current.Load() }

// Set replaces the logger; nil restores the no-op logger.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l.Named("godto"))
}
