package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherIsNoOp(t *testing.T) {
	p, err := NewPublisher(PublisherConfig{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, p.PublishReport(nil))
	assert.NoError(t, p.PublishLive(nil))
	assert.False(t, p.IsConnected())
	p.Close()
}

func TestNilPublisherIsSafe(t *testing.T) {
	// A failed broker connection can leave callers holding a nil
	// publisher; every method must tolerate that on shutdown.
	var p *Publisher

	assert.NotPanics(t, func() { p.Close() })
	assert.NoError(t, p.PublishReport(nil))
	assert.NoError(t, p.PublishLive(nil))
	assert.False(t, p.IsConnected())
}
