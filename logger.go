package godto

import (
	"go.uber.org/zap"

	"github.com/reoring/godto/internal/xlog"
)

// SetLogger installs the logger used by every godto package. Swallowed
// computed-field failures are logged at warn level, permissive decode and
// coercion failures at debug. nil restores the default no-op logger.
func SetLogger(l *zap.Logger) { xlog.Set(l) }
