package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherPublish(t *testing.T) {
	fw := &fakeWriter{}
	p := &KafkaPublisher{w: fw, timeout: time.Second}

	err := p.Publish(context.Background(), TopicCarts, "42", Event{
		Type:    CartItemAdded,
		ActorID: 42,
		Payload: map[string]any{"product_id": 1, "num_items": 3},
	})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, TopicCarts, msg.Topic)
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, CartItemAdded, string(msg.Headers[0].Value))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, CartItemAdded, ev.Type)
	assert.EqualValues(t, 42, ev.ActorID)
	assert.False(t, ev.OccurredAt.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &fakeWriter{err: boom}, timeout: time.Second}

	err := p.Publish(context.Background(), TopicUsers, "1", Event{Type: UserLoggedIn})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "user_logged_in")
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"kafka:9092"})
	w, ok := p.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Contains(t, w.Addr.String(), "kafka:9092")
	assert.True(t, w.AllowAutoTopicCreation)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), TopicProducts, "SKU001", Event{Type: ProductCreated}))
	assert.Equal(t, []string{ProductCreated}, r.Types())

	r.Err = errors.New("nope")
	require.Error(t, r.Publish(context.Background(), TopicProducts, "SKU001", Event{Type: ProductDeleted}))
	assert.Len(t, r.Events(), 1)

	require.NoError(t, Nop{}.Publish(context.Background(), "t", "k", Event{}))
}
