// Package pool provides object pooling for QuillGraph to reduce GC pressure
// on high-frequency paths: query result rows, node/edge scratch slices,
// string builders, byte buffers, and parameter maps.
//
// Usage:
//
//	rows := pool.GetRowSlice()
//	defer pool.PutRowSlice(rows)
//	rows = append(rows, newRow)
package pool

import "sync"

// PoolConfig configures object pooling behavior.
type PoolConfig struct {
	Enabled bool // whether pooling is active at all
	MaxSize int  // objects larger than this are discarded instead of pooled
}

var globalConfig = PoolConfig{Enabled: true, MaxSize: 1000}

// slicePool is a sync.Pool specialized for zero-length, reusable-capacity
// slices. Every Get/Put pool below (rows, nodes, strings, interfaces)
// follows this exact shape, so it's factored out once instead of repeated
// per element type.
type slicePool[T any] struct {
	pool         sync.Pool
	initialCap   int
	clearOnPut bool // true for element types holding references (GC needs them nil'd)
}

func newSlicePool[T any](initialCap int, clearOnPut bool) *slicePool[T] {
	p := &slicePool[T]{initialCap: initialCap, clearOnPut: clearOnPut}
	p.pool = sync.Pool{New: func() any { return make([]T, 0, initialCap) }}
	return p
}

func (p *slicePool[T]) get() []T {
	if !globalConfig.Enabled {
		return make([]T, 0, p.initialCap)
	}
	return p.pool.Get().([]T)[:0]
}

func (p *slicePool[T]) put(s []T) {
	if !globalConfig.Enabled || cap(s) > globalConfig.MaxSize {
		return
	}
	if p.clearOnPut {
		var zero T
		for i := range s {
			s[i] = zero
		}
	}
	p.pool.Put(s[:0])
}

var (
	rowPool       *slicePool[[]interface{}]
	nodePool      *slicePool[*PooledNode]
	stringPool    *slicePool[string]
	interfacePool *slicePool[interface{}]

	stringBuilderPool sync.Pool
	byteBufferPool    sync.Pool
	mapPool           sync.Pool
)

func init() {
	initPools()
}

// Configure sets global pool configuration. Call early during
// initialization; it also rebuilds every pool so each picks up the new
// MaxSize/Enabled state from a clean slate.
func Configure(config PoolConfig) {
	globalConfig = config
	initPools()
}

func initPools() {
	rowPool = newSlicePool[[]interface{}](64, true)
	nodePool = newSlicePool[*PooledNode](64, true)
	stringPool = newSlicePool[string](16, false)
	interfacePool = newSlicePool[interface{}](16, true)

	stringBuilderPool = sync.Pool{
		New: func() any { return &PooledStringBuilder{buf: make([]byte, 0, 256)} },
	}
	byteBufferPool = sync.Pool{
		New: func() any { return make([]byte, 0, 1024) },
	}
	mapPool = sync.Pool{
		New: func() any { return make(map[string]interface{}, 8) },
	}
}

// IsEnabled returns whether pooling is enabled.
func IsEnabled() bool { return globalConfig.Enabled }

// --- row slices (query results) ---

// GetRowSlice returns a zero-length row slice from the pool.
func GetRowSlice() [][]interface{} {
	return rowPool.get()
}

// PutRowSlice returns a row slice to the pool, clearing references first so
// row contents can still be garbage collected.
func PutRowSlice(rows [][]interface{}) {
	rowPool.put(rows)
}

// --- node slices ---

// PooledNode is a minimal node representation for pooling.
type PooledNode struct {
	ID         string
	Labels     []string
	Properties map[string]interface{}
}

// GetNodeSlice returns a zero-length node slice from the pool.
func GetNodeSlice() []*PooledNode {
	return nodePool.get()
}

// PutNodeSlice returns a node slice to the pool.
func PutNodeSlice(nodes []*PooledNode) {
	nodePool.put(nodes)
}

// --- string builder ---

// PooledStringBuilder is a poolable string builder; unlike strings.Builder
// it exposes Reset so the pool can recycle its backing array.
type PooledStringBuilder struct {
	buf []byte
}

func (b *PooledStringBuilder) WriteString(s string) { b.buf = append(b.buf, s...) }
func (b *PooledStringBuilder) WriteByte(c byte)      { b.buf = append(b.buf, c) }
func (b *PooledStringBuilder) String() string        { return string(b.buf) }
func (b *PooledStringBuilder) Len() int              { return len(b.buf) }
func (b *PooledStringBuilder) Reset()                { b.buf = b.buf[:0] }

// GetStringBuilder returns a reset string builder from the pool.
func GetStringBuilder() *PooledStringBuilder {
	if !globalConfig.Enabled {
		return &PooledStringBuilder{buf: make([]byte, 0, 256)}
	}
	b := stringBuilderPool.Get().(*PooledStringBuilder)
	b.Reset()
	return b
}

// PutStringBuilder returns a string builder to the pool. Builders that grew
// past 64KB are discarded rather than pooled, so one large query doesn't
// inflate the pool's steady-state memory.
func PutStringBuilder(b *PooledStringBuilder) {
	const maxPooledBuilder = 64 * 1024
	if !globalConfig.Enabled || b == nil || cap(b.buf) > maxPooledBuilder {
		return
	}
	b.Reset()
	stringBuilderPool.Put(b)
}

// --- byte buffer ---

// GetByteBuffer returns a zero-length byte buffer from the pool.
func GetByteBuffer() []byte {
	if !globalConfig.Enabled {
		return make([]byte, 0, 1024)
	}
	return byteBufferPool.Get().([]byte)[:0]
}

// PutByteBuffer returns a byte buffer to the pool, discarding buffers over
// 1MB.
func PutByteBuffer(buf []byte) {
	const maxPooledBuffer = 1024 * 1024
	if !globalConfig.Enabled || cap(buf) > maxPooledBuffer {
		return
	}
	byteBufferPool.Put(buf[:0])
}

// --- parameter/property maps ---

// GetMap returns an empty map from the pool.
func GetMap() map[string]interface{} {
	if !globalConfig.Enabled {
		return make(map[string]interface{}, 8)
	}
	m := mapPool.Get().(map[string]interface{})
	clearMap(m)
	return m
}

// PutMap returns a map to the pool, clearing its entries first.
func PutMap(m map[string]interface{}) {
	if !globalConfig.Enabled || m == nil || len(m) > globalConfig.MaxSize {
		return
	}
	clearMap(m)
	mapPool.Put(m)
}

func clearMap(m map[string]interface{}) {
	for k := range m {
		delete(m, k)
	}
}

// --- string / interface slices ---

// GetStringSlice returns a zero-length string slice from the pool.
func GetStringSlice() []string {
	return stringPool.get()
}

// PutStringSlice returns a string slice to the pool.
func PutStringSlice(s []string) {
	stringPool.put(s)
}

// GetInterfaceSlice returns a zero-length interface slice from the pool,
// used for query result rows.
func GetInterfaceSlice() []interface{} {
	return interfacePool.get()
}

// PutInterfaceSlice returns an interface slice to the pool.
func PutInterfaceSlice(s []interface{}) {
	if s == nil {
		return
	}
	interfacePool.put(s)
}
