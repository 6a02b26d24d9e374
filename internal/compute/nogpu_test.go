//go:build nogpu

package compute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestDeviceWithoutAdapter(t *testing.T) {
	assert.False(t, Available())
	_, err := RequestDevice(context.Background(), Limits{})
	assert.ErrorIs(t, err, ErrNoAdapter)
}
