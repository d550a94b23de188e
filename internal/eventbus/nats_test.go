package eventbus_test

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/notifier/internal/eventbus"
)

func runNATSServer(t *testing.T) string {
	t.Helper()
	s := natsserver.RunRandClientPortServer()
	t.Cleanup(s.Shutdown)
	return s.ClientURL()
}

func newNATSBus(t *testing.T, url, queue string) eventbus.EventBus {
	t.Helper()
	bus, err := eventbus.NewNATS(url, "", queue, nil)
	require.NoError(t, err)
	return bus
}

func TestNATS_PublishAndReceive(t *testing.T) {
	bus := newNATSBus(t, runNATSServer(t), "notifier")

	var received []eventbus.Event
	var mu sync.Mutex
	bus.Subscribe(func(e eventbus.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	bus.Publish("notification.message.sent", map[string]string{"id": "abc"})
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "notification.message.sent", received[0].Type)
	assert.Equal(t, "abc", received[0].Payload["id"])
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestNATS_CloseWaitsForEveryEvent(t *testing.T) {
	url := runNATSServer(t)

	for round := 0; round < 5; round++ {
		bus := newNATSBus(t, url, "notifier")

		var handled int32
		bus.Subscribe(func(eventbus.Event) {
			atomic.AddInt32(&handled, 1)
		})
		for i := 0; i < 200; i++ {
			bus.Publish("notification.message.sent", map[string]string{"id": strconv.Itoa(i)})
		}
		bus.Close()

		assert.EqualValues(t, 200, atomic.LoadInt32(&handled), "round %d", round)
	}
}

func TestNATS_QueueGroupDeliversOnce(t *testing.T) {
	url := runNATSServer(t)
	first := newNATSBus(t, url, "notifier")
	second := newNATSBus(t, url, "notifier")

	var total int32
	count := func(eventbus.Event) { atomic.AddInt32(&total, 1) }
	first.Subscribe(count)
	second.Subscribe(count)

	for i := 0; i < 100; i++ {
		first.Publish("notification.message.sent", nil)
	}
	first.Close()
	second.Close()

	assert.EqualValues(t, 100, atomic.LoadInt32(&total))
}

func TestNATS_WithoutQueueEverySubscriberReceives(t *testing.T) {
	url := runNATSServer(t)
	first := newNATSBus(t, url, "")
	second := newNATSBus(t, url, "")

	var a, b int32
	first.Subscribe(func(eventbus.Event) { atomic.AddInt32(&a, 1) })
	second.Subscribe(func(eventbus.Event) { atomic.AddInt32(&b, 1) })

	first.Publish("broadcast", nil)
	first.Close()
	second.Close()

	assert.EqualValues(t, 1, atomic.LoadInt32(&a))
	assert.EqualValues(t, 1, atomic.LoadInt32(&b))
}

func TestNATS_Unsubscribe(t *testing.T) {
	bus := newNATSBus(t, runNATSServer(t), "")

	var kept, removed int32
	bus.Subscribe(func(eventbus.Event) { atomic.AddInt32(&kept, 1) })
	sub := bus.Subscribe(func(eventbus.Event) { atomic.AddInt32(&removed, 1) })

	sub.Unsubscribe()
	sub.Unsubscribe()

	bus.Publish("after-unsubscribe", nil)
	bus.Close()

	assert.EqualValues(t, 1, atomic.LoadInt32(&kept))
	assert.EqualValues(t, 0, atomic.LoadInt32(&removed))
}

func TestNATS_UseAfterClose(t *testing.T) {
	bus := newNATSBus(t, runNATSServer(t), "notifier")

	var handled int32
	sub := bus.Subscribe(func(eventbus.Event) { atomic.AddInt32(&handled, 1) })
	bus.Close()

	assert.NotPanics(t, func() {
		sub.Unsubscribe()
		bus.Publish("late", nil)
		bus.Close()
	})
	assert.EqualValues(t, 0, atomic.LoadInt32(&handled))
}

func TestNewNATS_ConnectError(t *testing.T) {
	_, err := eventbus.NewNATS("nats://127.0.0.1:1", "", "", nil)
	assert.Error(t, err)
}
