package events

import (
	"context"
	"errors"
	"strings"
	"sync"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

type Message struct {
	Channel string
	Payload []byte
}

// MemoryTransport is an in-process hub. Each channel keeps a bounded buffer
// of recent messages and fans out to live subscribers without blocking.
type MemoryTransport struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []Message
	subs   map[uint64]chan Message
	nextID uint64
}

type Subscription struct {
	hub     *MemoryTransport
	channel string
	id      uint64
	ch      chan Message
	once    sync.Once
}

func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *MemoryTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	if h == nil {
		return ErrTransportUnavailable
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return errors.New("invalid_channel")
	}
	msg := Message{Channel: channel, Payload: append([]byte(nil), payload...)}

	stream := h.ensureStream(channel)
	stream.mu.Lock()
	stream.buffer = append(stream.buffer, msg)
	if len(stream.buffer) > h.bufferSize {
		stream.buffer = stream.buffer[len(stream.buffer)-h.bufferSize:]
	}
	subs := make([]chan Message, 0, len(stream.subs))
	for _, ch := range stream.subs {
		subs = append(subs, ch)
	}
	stream.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Recent returns the buffered messages of a channel, oldest first.
func (h *MemoryTransport) Recent(channel string) []Message {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	stream := h.streams[strings.TrimSpace(channel)]
	h.mu.RUnlock()
	if stream == nil {
		return nil
	}
	stream.mu.Lock()
	defer stream.mu.Unlock()
	return append([]Message(nil), stream.buffer...)
}

func (h *MemoryTransport) Subscribe(channel string) (*Subscription, error) {
	if h == nil {
		return nil, ErrTransportUnavailable
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errors.New("invalid_channel")
	}

	stream := h.ensureStream(channel)
	stream.mu.Lock()
	id := stream.nextID
	stream.nextID++
	ch := make(chan Message, h.subscriberBuffer)
	stream.subs[id] = ch
	stream.mu.Unlock()

	return &Subscription{hub: h, channel: channel, id: id, ch: ch}, nil
}

func (h *MemoryTransport) ensureStream(channel string) *stream {
	h.mu.RLock()
	current := h.streams[channel]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.streams[channel]
	if current == nil {
		current = &stream{subs: make(map[uint64]chan Message)}
		h.streams[channel] = current
	}
	return current
}

func (h *MemoryTransport) unsubscribe(channel string, id uint64) {
	h.mu.RLock()
	stream := h.streams[channel]
	h.mu.RUnlock()
	if stream == nil {
		return
	}
	stream.mu.Lock()
	delete(stream.subs, id)
	stream.mu.Unlock()
}

func (s *Subscription) Messages() <-chan Message {
	if s == nil {
		return nil
	}
	return s.ch
}

func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.channel, s.id)
	})
}
