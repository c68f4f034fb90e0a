package mq

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"reelops/live"
)

// Channel carries operation-log events between API instances.
const Channel = "reelops:operation-events"

// Sink receives events that arrive over the relay.
type Sink interface {
	Publish(ev live.Event)
}

// Relay fans log events out through Redis pub/sub so that every instance's
// dashboards see saves made on any other instance.
type Relay struct {
	conn  *redis.Client
	local Sink
	sub   *redis.PubSub
}

func NewRelay(conn *redis.Client, local Sink) *Relay {
	return &Relay{conn: conn, local: local}
}

// Publish sends ev to every subscribed instance, this one included. If Redis
// is unreachable the event is still delivered locally.
func (r *Relay) Publish(ev live.Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Relay] marshal %s event: %v", ev.Action, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.conn.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("[Relay] publish failed, delivering locally: %v", err)
		r.local.Publish(ev)
	}
}

// Subscribe joins the channel and waits for Redis to confirm it.
func (r *Relay) Subscribe(ctx context.Context) error {
	sub := r.conn.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return err
	}
	r.sub = sub
	return nil
}

// Run forwards relayed events to the local sink until ctx ends.
func (r *Relay) Run(ctx context.Context) error {
	if r.sub == nil {
		return errors.New("relay: Run called before Subscribe")
	}
	defer r.sub.Close()

	ch := r.sub.Channel()
	log.Printf("[Relay] listening on %s", Channel)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev live.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[Relay] bad payload: %v", err)
				continue
			}
			r.local.Publish(ev)
		}
	}
}
