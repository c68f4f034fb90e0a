package mq

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"reelops/live"
)

type chanSink chan live.Event

func (c chanSink) Publish(ev live.Event) { c <- ev }

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	conn := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { conn.Close() })
	return mr, conn
}

func TestRelayFansOut(t *testing.T) {
	_, conn := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// two instances sharing one Redis
	sinkA, sinkB := make(chanSink, 1), make(chanSink, 1)
	a, b := NewRelay(conn, sinkA), NewRelay(conn, sinkB)
	for _, r := range []*Relay{a, b} {
		if err := r.Subscribe(ctx); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		go r.Run(ctx)
	}

	a.Publish(live.Event{Action: "save", Records: 4, TechnicianName: "Asha"})

	for name, sink := range map[string]chanSink{"a": sinkA, "b": sinkB} {
		select {
		case ev := <-sink:
			if ev.Action != "save" || ev.Records != 4 || ev.Timestamp == 0 {
				t.Fatalf("%s got %+v", name, ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("%s never received the event", name)
		}
	}
}

func TestRelayFallsBackToLocal(t *testing.T) {
	mr, conn := setupRedis(t)
	sink := make(chanSink, 1)
	r := NewRelay(conn, sink)
	mr.Close()

	r.Publish(live.Event{Action: "delete"})
	select {
	case ev := <-sink:
		if ev.Action != "delete" {
			t.Fatalf("got %+v", ev)
		}
	default:
		t.Fatal("event was not delivered locally")
	}
}

func TestRunRequiresSubscribe(t *testing.T) {
	_, conn := setupRedis(t)
	if err := NewRelay(conn, make(chanSink)).Run(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}
