//go:build !linux

package notify

// Dial fails outside Linux; there is no session bus to announce on.
func Dial() (Sender, error) {
	return nil, ErrUnsupported
}
