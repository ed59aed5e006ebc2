// SPDX-License-Identifier: MPL-2.0

package serverbase

// Option configures a Base instance.
type Option func(*Base)

// WithErrorChannel replaces the error channel with one buffering size
// errors. The default buffer size is 1.
func WithErrorChannel(size int) Option {
	return func(b *Base) {
		b.errCh = make(chan error, size)
	}
}
