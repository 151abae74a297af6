// Package sse streams dapp state changes to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types.
const (
	TypeStateUpdated  = "state.updated"
	TypeMintSucceeded = "mint.succeeded"
	TypeNetworkWrong  = "network.wrong"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// MintSucceeded is the payload of a mint.succeeded event.
type MintSucceeded struct {
	TxHash  string `json:"txHash"`
	Message string `json:"message"`
}

// NetworkWrong is the payload of a network.wrong event.
type NetworkWrong struct {
	WantChainID uint64 `json:"wantChainId"`
	GotChainID  uint64 `json:"gotChainId"`
	Message     string `json:"message"`
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop owns the client set and the latest state. State
// updates closer together than the coalesce interval are folded into one
// event carrying the newest state. New clients receive the latest state
// straight away.
type Broker struct {
	coalesce time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	stateCh       chan any
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. coalesce <= 0 defaults to 250ms.
func NewBroker(coalesce time.Duration) *Broker {
	if coalesce <= 0 {
		coalesce = 250 * time.Millisecond
	}

	b := &Broker{
		coalesce:      coalesce,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		stateCh:       make(chan any, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		latest    []byte
		pending   []byte
		lastState time.Time
		flush     *time.Timer
		flushCh   <-chan time.Time
	)

	send := func(ch chan []byte, raw []byte) {
		select {
		case ch <- raw:
		default:
			// Client buffer full; skip to avoid blocking broker loop.
		}
	}
	broadcast := func(raw []byte) {
		for ch := range clients {
			send(ch, raw)
		}
	}
	emitState := func(raw []byte) {
		latest = raw
		pending = nil
		lastState = time.Now()
		broadcast(raw)
	}

	for {
		select {
		case <-b.stopCh:
			if flush != nil {
				flush.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
			if latest != nil {
				send(ch, latest)
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			if raw, err := encode(event); err == nil {
				broadcast(raw)
			}

		case state := <-b.stateCh:
			raw, err := encode(Event{Type: TypeStateUpdated, Data: state})
			if err != nil {
				continue
			}
			wait := b.coalesce - time.Since(lastState)
			if wait <= 0 {
				emitState(raw)
				continue
			}
			pending = raw
			if flush == nil {
				flush = time.NewTimer(wait)
				flushCh = flush.C
			} else if flushCh == nil {
				flush.Reset(wait)
				flushCh = flush.C
			}

		case <-flushCh:
			flushCh = nil
			if pending != nil {
				emitState(pending)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishState broadcasts a state.updated event, coalescing bursts.
func (b *Broker) PublishState(state any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.stateCh <- state:
	case <-b.stopped:
	}
}

// PublishMint announces a successful mint.
func (b *Broker) PublishMint(txHash string) {
	b.Publish(Event{Type: TypeMintSucceeded, Data: MintSucceeded{
		TxHash:  txHash,
		Message: "You successfully minted a Crypto Dev!",
	}})
}

// PublishWrongNetwork tells clients the node is on the wrong chain.
func (b *Broker) PublishWrongNetwork(want, got uint64) {
	b.Publish(Event{Type: TypeNetworkWrong, Data: NetworkWrong{
		WantChainID: want,
		GotChainID:  got,
		Message:     fmt.Sprintf("Change the network to chain %d", want),
	}})
}

// ServeHTTP is the SSE endpoint handler (GET /dapp/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
