package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClient(room string, buffer int) *Client {
	return &Client{
		room: room,
		send: make(chan []byte, buffer),
	}
}

func TestJoinLeaveRoomSize(t *testing.T) {
	h := NewHub()
	room := BookingChannel("b-1")

	a := testClient(room, 1)
	b := testClient(room, 1)

	h.Join(room, a)
	h.Join(room, b)
	assert.Equal(t, 2, h.RoomSize(room))

	h.Leave(a)
	assert.Equal(t, 1, h.RoomSize(room))

	// Empty rooms are dropped entirely.
	h.Leave(b)
	assert.Equal(t, 0, h.RoomSize(room))
	assert.Empty(t, h.rooms)
}

func TestLeaveUnknownClientIsNoop(t *testing.T) {
	h := NewHub()
	h.Leave(testClient("booking:ghost", 1))
	assert.Equal(t, 0, h.RoomSize("booking:ghost"))
}

func TestBroadcastReachesOnlyTheRoom(t *testing.T) {
	h := NewHub()

	inRoom := testClient("booking:b-1", 1)
	elsewhere := testClient("booking:b-2", 1)
	h.Join(inRoom.room, inRoom)
	h.Join(elsewhere.room, elsewhere)

	h.Broadcast("booking:b-1", []byte(`{"type":"timer_started"}`))

	assert.Len(t, inRoom.send, 1)
	assert.Equal(t, []byte(`{"type":"timer_started"}`), <-inRoom.send)
	assert.Empty(t, elsewhere.send)
}

func TestBroadcastDropsSlowConsumer(t *testing.T) {
	h := NewHub()

	slow := testClient("booking:b-1", 1)
	h.Join(slow.room, slow)

	h.Broadcast(slow.room, []byte("first"))
	// Buffer full: the second message is dropped, not queued.
	h.Broadcast(slow.room, []byte("second"))

	assert.Len(t, slow.send, 1)
	assert.Equal(t, []byte("first"), <-slow.send)
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "booking:abc-123", BookingChannel("abc-123"))
	assert.Equal(t, "owner:xyz-789", OwnerChannel("xyz-789"))
}
