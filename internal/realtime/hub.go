// Package realtime keeps one room of subscribers per poll and pushes the
// poll's tally to every member whenever it changes.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/platform/keylock"
	"github.com/vncsmyrnk/livepoll/internal/platform/metrics"
)

const (
	MessageJoin    = "join"
	MessageLeave   = "leave"
	MessageResults = "results"
	MessageError   = "error"
)

type Message struct {
	Type    string              `json:"type"`
	PollID  string              `json:"pollId,omitempty"`
	Results []domain.TallyEntry `json:"results,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Subscriber receives tally pushes. Send must not block on slow peers.
type Subscriber interface {
	ID() string
	Send(msg Message) error
}

type Hub struct {
	tally         ports.TallyService
	metrics       *metrics.Metrics
	logger        *slog.Logger
	notifyTimeout time.Duration

	// sendLocks orders tally reads and sends per poll, so a subscriber never
	// receives an older tally after a newer one.
	sendLocks *keylock.Locker

	mu          sync.RWMutex
	rooms       map[string]map[string]Subscriber
	memberships map[string]map[string]struct{}
	// workers holds one entry per poll with a broadcast running; dirty is
	// set when another notification arrives meanwhile.
	workers map[string]*worker
	closed  bool

	inflight sync.WaitGroup
}

func NewHub(tally ports.TallyService, m *metrics.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		tally:         tally,
		metrics:       m,
		logger:        logger,
		notifyTimeout: 10 * time.Second,
		sendLocks:     keylock.New(),
		rooms:         make(map[string]map[string]Subscriber),
		memberships:   make(map[string]map[string]struct{}),
		workers:       make(map[string]*worker),
	}
}

type worker struct {
	dirty bool
}

// Join adds sub to the poll's room and sends it the current tally. Joining
// a room twice keeps a single membership.
func (h *Hub) Join(ctx context.Context, pollID string, sub Subscriber) error {
	created := h.add(pollID, sub)

	unlock := h.sendLocks.Lock(pollID)
	defer unlock()

	results, err := h.tally.Tally(ctx, pollID)
	if err != nil {
		if created {
			h.LeaveRoom(pollID, sub)
		}
		return err
	}

	if err := sub.Send(Message{Type: MessageResults, PollID: pollID, Results: results}); err != nil {
		h.Leave(sub)
		return err
	}
	return nil
}

// Broadcast computes the tally once and sends the same result to every
// member of the poll's room. An empty room is a no-op.
func (h *Hub) Broadcast(ctx context.Context, pollID string) error {
	unlock := h.sendLocks.Lock(pollID)
	defer unlock()

	members := h.members(pollID)
	if len(members) == 0 {
		return nil
	}

	results, err := h.tally.Tally(ctx, pollID)
	if err != nil {
		return err
	}

	msg := Message{Type: MessageResults, PollID: pollID, Results: results}
	for _, sub := range members {
		if err := sub.Send(msg); err != nil {
			h.logger.Debug("dropping subscriber", "subscriber", sub.ID(), "error", err)
			h.Leave(sub)
		}
	}
	h.metrics.IncrementBroadcasts()
	return nil
}

// Notify schedules a Broadcast without blocking the caller. Broadcasts of
// one poll run one at a time; a notification that arrives while one is
// running makes it tally again afterwards, so the last push always reads
// the store after the last notified vote.
func (h *Hub) Notify(pollID string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.logger.Warn("notify after hub closed", "poll_id", pollID)
		return
	}
	if w, ok := h.workers[pollID]; ok {
		w.dirty = true
		h.mu.Unlock()
		return
	}
	h.workers[pollID] = &worker{}
	h.inflight.Add(1)
	h.mu.Unlock()

	go h.runWorker(pollID)
}

func (h *Hub) runWorker(pollID string) {
	defer h.inflight.Done()

	for {
		ctx, cancel := context.WithTimeout(context.Background(), h.notifyTimeout)
		if err := h.Broadcast(ctx, pollID); err != nil {
			h.logger.Error("broadcast failed", "poll_id", pollID, "error", err)
		}
		cancel()

		h.mu.Lock()
		w := h.workers[pollID]
		if !w.dirty {
			delete(h.workers, pollID)
			h.mu.Unlock()
			return
		}
		w.dirty = false
		h.mu.Unlock()
	}
}

// Wait blocks until every scheduled notification has run.
func (h *Hub) Wait() {
	h.inflight.Wait()
}

// Close stops accepting notifications and drains the ones in flight.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.inflight.Wait()
}

// Leave removes sub from every room it is in.
func (h *Hub) Leave(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for pollID := range h.memberships[sub.ID()] {
		h.removeLocked(pollID, sub.ID())
	}
}

// LeaveRoom removes sub from one room. Leaving a room one is not in is fine.
func (h *Hub) LeaveRoom(pollID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(pollID, sub.ID())
}

func (h *Hub) RoomSize(pollID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[pollID])
}

// add reports whether the membership is new.
func (h *Hub) add(pollID string, sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[pollID]
	if !ok {
		room = make(map[string]Subscriber)
		h.rooms[pollID] = room
	}
	if _, ok := room[sub.ID()]; ok {
		return false
	}
	room[sub.ID()] = sub

	joined, ok := h.memberships[sub.ID()]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[sub.ID()] = joined
	}
	joined[pollID] = struct{}{}
	h.metrics.AddRoomSubscribers(1)
	return true
}

func (h *Hub) removeLocked(pollID, subID string) {
	room := h.rooms[pollID]
	if _, ok := room[subID]; !ok {
		return
	}
	delete(room, subID)
	if len(room) == 0 {
		delete(h.rooms, pollID)
	}

	joined := h.memberships[subID]
	delete(joined, pollID)
	if len(joined) == 0 {
		delete(h.memberships, subID)
	}
	h.metrics.AddRoomSubscribers(-1)
}

func (h *Hub) members(pollID string) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]Subscriber, 0, len(h.rooms[pollID]))
	for _, sub := range h.rooms[pollID] {
		members = append(members, sub)
	}
	return members
}
