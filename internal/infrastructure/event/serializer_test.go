package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/domain/conference"
	"github.com/pharmawms/backend/internal/domain/inventory"
)

func TestEventSerializer_AllEventsRegistered(t *testing.T) {
	types := AllEventTypes()
	assert.Len(t, types, 11)
	assert.Contains(t, types, inventory.EventTypeMovementRecorded)
	assert.Contains(t, types, conference.EventTypeDivergenceDetected)
}

func TestEventSerializer_RestoresConcreteType(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	evt := movementEvent()
	to := uuid.New()
	evt.ToLocationID = &to

	data, err := s.Serialize(evt)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"movement_type":"receiving"`)

	decoded, err := s.Deserialize(inventory.EventTypeMovementRecorded, data)
	require.NoError(t, err)
	got, ok := decoded.(*inventory.MovementRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, evt.EventID(), got.EventID())
	assert.Equal(t, evt.TenantID(), got.TenantID())
	assert.Equal(t, int64(12), got.Quantity)
	assert.Equal(t, to, *got.ToLocationID)
	assert.WithinDuration(t, evt.OccurredAt(), got.OccurredAt(), time.Millisecond)
}

func TestEventSerializer_Errors(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	_, err := s.Deserialize("outbound.unknown", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = s.Deserialize(inventory.EventTypeMovementRecorded, []byte(`{not json`))
	assert.Error(t, err)
	assert.False(t, s.IsRegistered("outbound.unknown"))
}
