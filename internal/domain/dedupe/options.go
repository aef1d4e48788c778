package dedupe

// Option configures a Deduper built by New.
type Option func(*fifoDeduper)

// WithMaxSize caps how many ids are remembered. When full, the oldest id is
// forgotten first. maxSize <= 0 keeps every id.
func WithMaxSize(maxSize int) Option {
	return func(d *fifoDeduper) {
		d.maxSize = maxSize
	}
}

// WithEvictHook is called with every id forgotten to make room.
func WithEvictHook(fn func(id string)) Option {
	return func(d *fifoDeduper) {
		d.onEvict = fn
	}
}
