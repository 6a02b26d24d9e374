//go:build nogpu

package compute

// Available reports whether this build can create devices.
func Available() bool { return false }

func requestAdapter() error { return ErrNoAdapter }
