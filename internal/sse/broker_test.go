package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func drain(ch chan []byte, wait time.Duration) []string {
	var out []string
	timeout := time.After(wait)
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		case <-timeout:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishMint(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishMint("0xabc")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: mint.succeeded") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"txHash":"0xabc"`) || !strings.Contains(s, "You successfully minted a Crypto Dev!") {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishWrongNetwork(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishWrongNetwork(4, 1)

	msgs := drain(ch, 50*time.Millisecond)
	if len(msgs) != 1 {
		t.Fatalf("got %d events", len(msgs))
	}
	if !strings.Contains(msgs[0], "event: network.wrong") || !strings.Contains(msgs[0], `"wantChainId":4`) {
		t.Errorf("unexpected event %q", msgs[0])
	}
}

func TestPublishStateCoalesces(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// The first update goes out at once; the burst after it collapses into
	// one event with the newest value.
	b.PublishState(map[string]int{"minted": 1})
	b.PublishState(map[string]int{"minted": 2})
	b.PublishState(map[string]int{"minted": 3})

	msgs := drain(ch, 400*time.Millisecond)
	if len(msgs) != 2 {
		t.Fatalf("state events = %d, want 2: %q", len(msgs), msgs)
	}
	if !strings.Contains(msgs[0], `"minted":1`) {
		t.Errorf("first event = %q", msgs[0])
	}
	if !strings.Contains(msgs[1], `"minted":3`) {
		t.Errorf("coalesced event = %q, want newest state", msgs[1])
	}
}

func TestSubscribeReplaysLatestState(t *testing.T) {
	b := NewBroker(10 * time.Millisecond)
	defer b.Close()

	b.PublishState(map[string]int{"minted": 5})
	time.Sleep(20 * time.Millisecond)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	msgs := drain(ch, 50*time.Millisecond)
	if len(msgs) != 1 || !strings.Contains(msgs[0], "event: state.updated") || !strings.Contains(msgs[0], `"minted":5`) {
		t.Errorf("replay = %q", msgs)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/dapp/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishState(map[string]string{"view": "public_mint"})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: state.updated") {
		t.Errorf("handler output missing event: %q", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.PublishMint("0x1")
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.PublishState(map[string]string{})
	b.PublishWrongNetwork(4, 1)
}
