package network

import (
	"fmt"
	"sync"
)

type eventKind int

const (
	eventConnect eventKind = iota
	eventDisconnect
	eventMessage
)

type hostEvent struct {
	kind eventKind
	peer PeerID
	msg  any
}

// Loopback is an in-memory transport connecting one host to any number of
// local peers. Nothing is delivered until DeliverToHost or DeliverToClients
// is called, so tests decide exactly when each side observes traffic. Both
// directions are FIFO.
type Loopback struct {
	mu      sync.Mutex
	handler HostHandler
	toHost  []hostEvent
	peers   map[PeerID]*LoopbackPeer
	order   []PeerID
	closed  bool
}

// LoopbackPeer is the client end of a Loopback connection.
type LoopbackPeer struct {
	id      PeerID
	lb      *Loopback
	receive func(msg any)
	inbox   []any
	gone    bool
}

func NewLoopback() *Loopback {
	return &Loopback{peers: make(map[PeerID]*LoopbackPeer)}
}

// Bind sets the host that DeliverToHost feeds.
func (l *Loopback) Bind(h HostHandler) {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

// Connect opens a peer. receive is called from DeliverToClients with every
// message the host sent to it.
func (l *Loopback) Connect(id PeerID, receive func(msg any)) (*LoopbackPeer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if old, exists := l.peers[id]; exists && !old.gone {
		return nil, fmt.Errorf("peer %s already connected", id)
	} else if !exists {
		l.order = append(l.order, id)
	}
	p := &LoopbackPeer{id: id, lb: l, receive: receive}
	l.peers[id] = p
	l.toHost = append(l.toHost, hostEvent{kind: eventConnect, peer: id})
	return p, nil
}

// Send queues msg for one peer.
func (l *Loopback) Send(peer PeerID, msg any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	p, ok := l.peers[peer]
	if !ok || p.gone {
		return fmt.Errorf("peer %s: %w", peer, ErrNotConnected)
	}
	p.inbox = append(p.inbox, msg)
	return nil
}

// Broadcast queues msg for every connected peer.
func (l *Loopback) Broadcast(msg any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	for _, id := range l.order {
		if p := l.peers[id]; !p.gone {
			p.inbox = append(p.inbox, msg)
		}
	}
	return nil
}

// DeliverToHost hands every queued client event to the bound host in order
// and returns how many were delivered.
func (l *Loopback) DeliverToHost() int {
	l.mu.Lock()
	events := l.toHost
	l.toHost = nil
	handler := l.handler
	l.mu.Unlock()

	if handler == nil {
		return 0
	}
	for _, ev := range events {
		switch ev.kind {
		case eventConnect:
			handler.OnConnect(ev.peer)
		case eventDisconnect:
			handler.OnDisconnect(ev.peer)
		case eventMessage:
			handler.OnMessage(ev.peer, ev.msg)
		}
	}
	return len(events)
}

// DeliverToClients drains every peer inbox into its receive callback, peers
// in connection order, and returns how many messages were delivered.
func (l *Loopback) DeliverToClients() int {
	type batch struct {
		receive func(any)
		msgs    []any
	}

	l.mu.Lock()
	var batches []batch
	for _, id := range l.order {
		p := l.peers[id]
		if len(p.inbox) == 0 {
			continue
		}
		batches = append(batches, batch{receive: p.receive, msgs: p.inbox})
		p.inbox = nil
	}
	l.mu.Unlock()

	n := 0
	for _, b := range batches {
		for _, msg := range b.msgs {
			if b.receive != nil {
				b.receive(msg)
			}
			n++
		}
	}
	return n
}

// Close refuses further traffic.
func (l *Loopback) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// ID returns the peer identity the host sees.
func (p *LoopbackPeer) ID() PeerID { return p.id }

// SendMessage queues msg for the host.
func (p *LoopbackPeer) SendMessage(msg any) error {
	p.lb.mu.Lock()
	defer p.lb.mu.Unlock()
	if p.lb.closed {
		return ErrClosed
	}
	if p.gone {
		return ErrNotConnected
	}
	p.lb.toHost = append(p.lb.toHost, hostEvent{kind: eventMessage, peer: p.id, msg: msg})
	return nil
}

// Disconnect closes the peer; the host learns about it on the next DeliverToHost.
func (p *LoopbackPeer) Disconnect() {
	p.lb.mu.Lock()
	defer p.lb.mu.Unlock()
	if p.gone {
		return
	}
	p.gone = true
	p.inbox = nil
	p.lb.toHost = append(p.lb.toHost, hostEvent{kind: eventDisconnect, peer: p.id})
}
