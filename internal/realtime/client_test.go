package realtime

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(NewWebsocketHandler(hub, slog.New(slog.DiscardHandler)))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebsocketJoinAndPush(t *testing.T) {
	hub, tally := newTestHub(t)
	tally.set("p1", domain.TallyEntry{QuestionID: domain.SingleQuestionID, OptionID: "a", Text: "A"})

	conn := dialHub(t, hub)
	require.NoError(t, conn.WriteJSON(Message{Type: MessageJoin, PollID: "p1"}))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageResults, msg.Type)
	assert.Equal(t, int64(0), msg.Results[0].Count)

	tally.set("p1", domain.TallyEntry{QuestionID: domain.SingleQuestionID, OptionID: "a", Text: "A", Count: 1})
	hub.Notify("p1")
	hub.Wait()

	msg = readMessage(t, conn)
	assert.Equal(t, MessageResults, msg.Type)
	assert.Equal(t, int64(1), msg.Results[0].Count)
}

func TestWebsocketJoinUnknownPoll(t *testing.T) {
	hub, _ := newTestHub(t)

	conn := dialHub(t, hub)
	require.NoError(t, conn.WriteJSON(Message{Type: MessageJoin, PollID: "missing"}))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, domain.ErrPollNotFound.Error(), msg.Error)
}

func TestWebsocketDisconnectLeavesRooms(t *testing.T) {
	hub, tally := newTestHub(t)
	tally.set("p1", domain.TallyEntry{OptionID: "a"})

	conn := dialHub(t, hub)
	require.NoError(t, conn.WriteJSON(Message{Type: MessageJoin, PollID: "p1"}))
	readMessage(t, conn)
	require.Equal(t, 1, hub.RoomSize("p1"))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.RoomSize("p1") == 0 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Broadcast(context.Background(), "p1"))
}

func TestClientKeepsLatestResultPerPoll(t *testing.T) {
	hub, _ := newTestHub(t)
	c := &Client{
		id:      "c1",
		hub:     hub,
		pending: make(map[string]Message),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	require.NoError(t, c.Send(Message{Type: MessageResults, PollID: "p1", Results: []domain.TallyEntry{{Count: 1}}}))
	require.NoError(t, c.Send(Message{Type: MessageResults, PollID: "p2"}))
	require.NoError(t, c.Send(Message{Type: MessageResults, PollID: "p1", Results: []domain.TallyEntry{{Count: 2}}}))
	require.NoError(t, c.Send(Message{Type: MessageError, Error: "x"}))

	msgs := c.drain()
	require.Len(t, msgs, 3)
	assert.Equal(t, "p1", msgs[0].PollID)
	assert.Equal(t, int64(2), msgs[0].Results[0].Count)
	assert.Equal(t, "p2", msgs[1].PollID)
	assert.Equal(t, MessageError, msgs[2].Type)
	assert.Empty(t, c.drain())
}
