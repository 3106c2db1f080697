package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishLogin(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), LoginTopic)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubSub)
	require.NoError(t, publisher.PublishLogin(context.Background(), "0xabc", "nonce123", "token-id"))

	select {
	case msg := <-messages:
		var event LoginEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "0xabc", event.Address)
		assert.Equal(t, "nonce123", event.Nonce)
		assert.Equal(t, "token-id", event.TokenID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no login event received")
	}
}
