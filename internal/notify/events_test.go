package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/agrolink/backend/internal/kafka"
)

func TestEnvelopePayloadUnwrap(t *testing.T) {
	p := RequestedPayload{
		UserIDs: []string{"f1", "f2"},
		Event: Event{
			Kind:          "commande",
			Title:         "Nouvelle demande de produit",
			Message:       "Une nouvelle demande de tomates a été créée près de chez vous",
			Link:          "/orders/o1",
			ReferenceID:   "o1",
			ReferenceType: "commande",
		},
	}
	env := Envelope{
		EventID:      "ev1",
		EventType:    EventNotificationRequested,
		EventVersion: 1,
		Payload:      kafkax.MustMarshal(p),
	}

	var decoded Envelope
	require.NoError(t, json.Unmarshal(kafkax.MustMarshal(env), &decoded))
	assert.Equal(t, EventNotificationRequested, decoded.EventType)

	got, err := kafkax.UnwrapPayload[RequestedPayload](decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, []byte("o1"), PartitionKey("o1"))
}
