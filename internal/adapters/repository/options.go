package repository

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithHistorySize bounds how many runs are kept, newest first.
func WithHistorySize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historySize = n
		}
	}
}
