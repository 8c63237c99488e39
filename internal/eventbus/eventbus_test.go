package eventbus

import (
	"context"
	"testing"
)

type ping struct{ n int }
type pong struct{ n int }

func TestPublishRoutesByType(t *testing.T) {
	Use(New())
	defer Use(nil)

	var pings, pongs []int
	defer Subscribe(func(ctx context.Context, e ping) { pings = append(pings, e.n) })()
	defer Subscribe(func(ctx context.Context, e pong) { pongs = append(pongs, e.n) })()

	ctx := context.Background()
	Publish(ctx, ping{1})
	Publish(ctx, pong{2})
	Publish(ctx, ping{3})

	if len(pings) != 2 || pings[0] != 1 || pings[1] != 3 {
		t.Fatalf("ping handler saw %v", pings)
	}
	if len(pongs) != 1 || pongs[0] != 2 {
		t.Fatalf("pong handler saw %v", pongs)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	Use(New())
	defer Use(nil)

	var a, b int
	unsubA := Subscribe(func(ctx context.Context, e ping) { a++ })
	defer Subscribe(func(ctx context.Context, e ping) { b++ })()

	ctx := context.Background()
	Publish(ctx, ping{})
	unsubA()
	unsubA() // second call is harmless
	Publish(ctx, ping{})

	if a != 1 {
		t.Fatalf("unsubscribed handler fired %d times", a)
	}
	if b != 2 {
		t.Fatalf("remaining handler fired %d times", b)
	}
}

func TestNoGlobalBusIsSilent(t *testing.T) {
	Use(nil)
	unsub := Subscribe(func(ctx context.Context, e ping) { t.Fatal("no bus, no delivery") })
	defer unsub()
	Publish(context.Background(), ping{})
}
