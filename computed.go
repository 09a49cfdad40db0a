package godto

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/reoring/godto/internal/xlog"
)

// computedResult is the outcome of one computed method call. A failed
// result renders as nil.
type computedResult struct {
	value  any
	failed bool
}

type computedCache struct {
	mu   sync.Mutex
	vals map[string]computedResult
}

func newComputedCache() *computedCache {
	return &computedCache{vals: map[string]computedResult{}}
}

func (c *computedCache) clear() {
	c.mu.Lock()
	c.vals = map[string]computedResult{}
	c.mu.Unlock()
}

// value returns the computed field, consulting the cache when the field is
// cacheable. A nil cache disables memoization.
func (c *computedCache) value(typeName string, cm *ComputedMeta, ptr reflect.Value) computedResult {
	if c == nil || !cm.Cache {
		return evalComputed(typeName, cm, ptr)
	}
	c.mu.Lock()
	r, ok := c.vals[cm.Key]
	c.mu.Unlock()
	if ok {
		return r
	}
	r = evalComputed(typeName, cm, ptr)
	c.mu.Lock()
	c.vals[cm.Key] = r
	c.mu.Unlock()
	return r
}

// evalComputed calls the method; returned errors and panics are logged and
// turned into a failed result.
func evalComputed(typeName string, cm *ComputedMeta, ptr reflect.Value) (res computedResult) {
	defer func() {
		if r := recover(); r != nil {
			computedFailed(typeName, cm, fmt.Errorf("panic: %v", r))
			res = computedResult{failed: true}
		}
	}()
	out := cm.fn.Call([]reflect.Value{ptr})
	if cm.withErr && !out[1].IsNil() {
		computedFailed(typeName, cm, out[1].Interface().(error))
		return computedResult{failed: true}
	}
	return computedResult{value: out[0].Interface()}
}

func computedFailed(typeName string, cm *ComputedMeta, err error) {
	xlog.L().Warn("computed field failed, rendering null",
		zap.String("type", typeName),
		zap.String("method", cm.Method),
		zap.String("key", cm.Key),
		zap.Error(err),
	)
}
