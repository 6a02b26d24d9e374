//go:build !nogpu

package compute

// Available reports whether this build can create devices.
func Available() bool { return true }

func requestAdapter() error { return nil }
