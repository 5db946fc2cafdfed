package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// Delivery is the internal outcome of a unicast. On the wire delivery is
// fire-and-forget; the typed outcome exists so drop behavior stays
// observable in tests.
type Delivery int

const (
	Delivered Delivery = iota
	NoSubscriber
	ConnGone
)

func marshalEvent(event any) ([]byte, bool) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("event marshal failed")
		return nil, false
	}
	return payload, true
}

// BroadcastChannel serializes event once and enqueues it for every current
// subscriber of ch except exclude (zero means nobody is excluded). Closed
// connections are skipped. It returns the number of deliveries.
func (g *Gateway) BroadcastChannel(ch domain.ChannelID, event any, exclude ClientID) int {
	payload, ok := marshalEvent(event)
	if !ok {
		return 0
	}
	return g.fanout(g.collectChannel(ch, exclude), payload)
}

func (g *Gateway) BroadcastDM(dm domain.ChannelID, event any) int {
	payload, ok := marshalEvent(event)
	if !ok {
		return 0
	}
	return g.fanout(g.collectDM(dm), payload)
}

func (g *Gateway) BroadcastAll(event any, exclude ClientID) int {
	payload, ok := marshalEvent(event)
	if !ok {
		return 0
	}
	r := g.Registry
	r.mu.RLock()
	senders := make([]Sender, 0, len(r.conns))
	for id, c := range r.conns {
		if id == exclude {
			continue
		}
		senders = append(senders, c.sender)
	}
	r.mu.RUnlock()
	return g.fanout(senders, payload)
}

func (g *Gateway) SendTo(id ClientID, event any) Delivery {
	payload, ok := marshalEvent(event)
	if !ok {
		return ConnGone
	}
	r := g.Registry
	r.mu.RLock()
	c, found := r.conns[id]
	r.mu.RUnlock()
	if !found {
		return NoSubscriber
	}
	if !c.sender.Enqueue(payload) {
		return ConnGone
	}
	return Delivered
}

// SendToUser fans out to every connection the user currently owns.
func (g *Gateway) SendToUser(userID domain.UserID, event any) int {
	payload, ok := marshalEvent(event)
	if !ok {
		return 0
	}
	r := g.Registry
	r.mu.RLock()
	senders := make([]Sender, 0, 2)
	for _, c := range r.conns {
		if c.userID == userID {
			senders = append(senders, c.sender)
		}
	}
	r.mu.RUnlock()
	return g.fanout(senders, payload)
}

func (g *Gateway) collectChannel(ch domain.ChannelID, exclude ClientID) []Sender {
	r := g.Registry
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byChannel[ch]
	senders := make([]Sender, 0, len(set))
	for id := range set {
		if id == exclude {
			continue
		}
		if c, ok := r.conns[id]; ok {
			senders = append(senders, c.sender)
		}
	}
	return senders
}

func (g *Gateway) collectDM(dm domain.ChannelID) []Sender {
	r := g.Registry
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byDM[dm]
	senders := make([]Sender, 0, len(set))
	for id := range set {
		if c, ok := r.conns[id]; ok {
			senders = append(senders, c.sender)
		}
	}
	return senders
}

func (g *Gateway) fanout(senders []Sender, payload []byte) int {
	delivered := 0
	for _, s := range senders {
		if s.Enqueue(payload) {
			delivered++
		}
	}
	return delivered
}
