package dedupe

type options struct {
	expected int
}

// Option applies a configuration option to the in-memory deduper.
type Option func(*options)

// WithExpectedSize pre-sizes the key set for an import of n rows.
func WithExpectedSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.expected = n
		}
	}
}
