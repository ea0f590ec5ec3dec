package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pharmawms/backend/internal/domain/outbound"
)

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	waves := &recordingHandler{}
	audit := &recordingHandler{}

	r.Register(waves, outbound.EventTypeWaveCreated, outbound.EventTypeWaveStatusChanged)
	r.Register(waves, outbound.EventTypeWaveCreated)
	r.Register(audit)
	r.Register(audit)

	handlers := r.GetHandlers(outbound.EventTypeWaveCreated)
	assert.Len(t, handlers, 2)
	assert.Same(t, waves, handlers[0])
	assert.Same(t, audit, handlers[1])

	assert.Equal(t, []string{outbound.EventTypeWaveCreated, outbound.EventTypeWaveStatusChanged}, r.Types())
	assert.Len(t, r.GetHandlers(outbound.EventTypePickShortfall), 1)

	r.Unregister(waves)
	assert.Empty(t, r.Types())
	assert.Len(t, r.GetHandlers(outbound.EventTypeWaveCreated), 1)

	r.Unregister(audit)
	assert.Empty(t, r.GetHandlers(outbound.EventTypeWaveCreated))
}
