package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherWithoutBrokersIsNop(t *testing.T) {
	publisher := NewPublisher(nil, "biteback.reservations")
	_, ok := publisher.(NopPublisher)
	require.True(t, ok)
	assert.NoError(t, publisher.Publish(context.Background(), Event{Type: TypeReservationCreated}))
	assert.NoError(t, publisher.Close())
}

func TestNewPublisherWithBrokers(t *testing.T) {
	publisher := NewPublisher([]string{"localhost:9092"}, "biteback.reservations")
	kafkaPublisher, ok := publisher.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "biteback.reservations", kafkaPublisher.writer.Topic)
	assert.True(t, kafkaPublisher.writer.Async)
	assert.NotNil(t, kafkaPublisher.writer.Completion)
	assert.NoError(t, publisher.Close())
}

func TestPublishDoesNotWaitForBroker(t *testing.T) {
	publisher := NewPublisher([]string{"127.0.0.1:1"}, "biteback.reservations")

	started := time.Now()
	err := publisher.Publish(context.Background(), Event{Type: TypeReservationCreated, ReservationID: "res_1"})
	elapsed := time.Since(started)

	assert.NoError(t, err)
	assert.Less(t, elapsed, time.Second)
}

func TestLogDeliveryFailure(t *testing.T) {
	assert.NotPanics(t, func() {
		logDeliveryFailure(nil, nil)
		logDeliveryFailure([]kafka.Message{{Key: []byte("res_1")}}, errors.New("broker unreachable"))
	})
}

func TestEncode(t *testing.T) {
	occurred := time.Date(2026, 6, 1, 19, 30, 0, 0, time.UTC)
	message, err := encode(Event{
		Type:          TypeReservationStatusChanged,
		ReservationID: "res_1",
		RestaurantID:  "rst_1",
		UserID:        "usr_1",
		Status:        "confirmed",
		OccurredAt:    occurred,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("res_1"), message.Key)
	assert.Equal(t, occurred, message.Time)
	require.Len(t, message.Headers, 1)
	assert.Equal(t, TypeReservationStatusChanged, string(message.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(message.Value, &decoded))
	assert.Equal(t, "confirmed", decoded.Status)
	assert.True(t, decoded.OccurredAt.Equal(occurred))
}

func TestEncodeStampsMissingTime(t *testing.T) {
	message, err := encode(Event{Type: TypeReservationCreated, ReservationID: "res_2"})
	require.NoError(t, err)
	assert.False(t, message.Time.IsZero())
}
