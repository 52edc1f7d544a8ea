package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/sweeney/stockwise/internal/telemetry"
)

// fakeReader serves queued messages, then blocks until ctx is done.
type fakeReader struct {
	queue     []kafkago.Message
	committed []int64
	fetchErr  error
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if f.fetchErr != nil {
		return kafkago.Message{}, f.fetchErr
	}
	if len(f.queue) == 0 {
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

type recordingSink struct {
	msgs   []telemetry.Message
	cancel context.CancelFunc
	want   int
}

func (s *recordingSink) Ingest(m telemetry.Message) error {
	s.msgs = append(s.msgs, m)
	if len(s.msgs) == s.want {
		s.cancel()
	}
	return nil
}

func TestConsumerRoutesKeys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{queue: []kafkago.Message{
		{Key: []byte("tenants/loc/inventory_live/s1"), Value: []byte(`{"quantity": 4}`), Offset: 1},
		{Key: []byte("bogus"), Value: []byte(`{}`), Offset: 2},
		{Key: []byte("tenants/loc/devices_live/b1"), Value: nil, Offset: 3},
	}}
	sink := &recordingSink{cancel: cancel, want: 2}
	c := newConsumer(r, Config{Topic: "stockwise.telemetry", TopicPrefix: "tenants", Logger: zerolog.Nop()}, sink)

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(sink.msgs))
	}
	if sink.msgs[0].Kind != telemetry.KindInventory || sink.msgs[0].LocationID != "loc" || sink.msgs[0].ID != "s1" {
		t.Errorf("first: got %+v", sink.msgs[0])
	}
	if sink.msgs[1].Kind != telemetry.KindBrains || len(sink.msgs[1].Payload) != 0 {
		t.Errorf("second: got %+v", sink.msgs[1])
	}
	// The bogus key is committed too so it is not redelivered.
	if len(r.committed) < 2 || r.committed[0] != 1 || r.committed[1] != 2 {
		t.Errorf("committed: got %v", r.committed)
	}
}

func TestConsumerFetchError(t *testing.T) {
	r := &fakeReader{fetchErr: errors.New("broker gone")}
	c := newConsumer(r, Config{Logger: zerolog.Nop()}, &recordingSink{})

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if err := c.Close(); err != nil || !r.closed {
		t.Errorf("Close: err=%v closed=%v", err, r.closed)
	}
}

func TestConsumerFeedsHub(t *testing.T) {
	hub := telemetry.NewHub(zerolog.Nop())
	c := newConsumer(&fakeReader{}, Config{TopicPrefix: "tenants", Logger: zerolog.Nop()}, hub)

	c.handle(kafkago.Message{Key: []byte("tenants/loc/nodes_live/aa"), Value: []byte(`{"rssi": -61}`)})

	if got := hub.Nodes("loc")["aa"].RSSI; got != -61 {
		t.Errorf("rssi: got %d, want -61", got)
	}
}
