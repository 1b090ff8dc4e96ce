package blog

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newULID() ulid.ULID {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
}

func receive(t *testing.T, sub *Subscriber) PostEvent {
	t.Helper()
	select {
	case ev := <-sub.Ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected an event")
		return PostEvent{}
	}
}

func assertSilent(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case ev := <-sub.Ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_ChannelClosedAfterUnsubscribe(t *testing.T) {
	hub := NewHub(8)
	conn := newULID()

	sub, cancel := hub.Subscribe(conn, bson.NewObjectID())
	require.NotNil(t, sub)
	require.NotNil(t, cancel)

	hub.Unsubscribe(conn)

	assert.Panics(t, func() {
		sub.Ch <- PostEvent{Type: EventCreated}
	}, "should panic when sending to closed channel")

	select {
	case <-sub.Done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Done channel should be closed")
	}

	// second unsubscribe and the cancel func are harmless
	hub.Unsubscribe(conn)
	cancel()
	assert.Equal(t, 0, hub.GetSubscriberCount())
}

func TestHub_FiltersByPost(t *testing.T) {
	hub := NewHub(8)
	postA, postB := bson.NewObjectID(), bson.NewObjectID()

	subA, cancelA := hub.Subscribe(newULID(), postA)
	defer cancelA()
	subB, cancelB := hub.Subscribe(newULID(), postB)
	defer cancelB()
	subAll, cancelAll := hub.Subscribe(newULID(), AllPosts)
	defer cancelAll()

	hub.Broadcast(context.Background(), PostEvent{Type: EventCommented, PostID: postA})

	ev := receive(t, subA)
	assert.Equal(t, EventCommented, ev.Type)
	assert.Equal(t, postA, ev.PostID)

	ev = receive(t, subAll)
	assert.Equal(t, postA, ev.PostID)

	assertSilent(t, subB)
}

func TestHub_IgnoresEventsWithoutPost(t *testing.T) {
	hub := NewHub(8)
	sub, cancel := hub.Subscribe(newULID(), AllPosts)
	defer cancel()

	hub.Broadcast(context.Background(), PostEvent{Type: EventCreated})
	assertSilent(t, sub)
}

func TestHub_DropsWhenOutboxFull(t *testing.T) {
	hub := NewHub(2)
	post := bson.NewObjectID()
	_, cancel := hub.Subscribe(newULID(), post)
	defer cancel()

	for range 5 {
		hub.Broadcast(context.Background(), PostEvent{Type: EventUpdated, PostID: post})
	}

	subs, dropped := hub.Stats()
	assert.Equal(t, 1, subs)
	assert.Equal(t, uint64(3), dropped)
}

func TestHub_BucketRemovedWhenEmpty(t *testing.T) {
	hub := NewHub(1)
	post := bson.NewObjectID()

	_, cancel1 := hub.Subscribe(newULID(), post)
	_, cancel2 := hub.Subscribe(newULID(), post)
	assert.Equal(t, 2, hub.GetSubscriberCount())

	cancel1()
	assert.NotNil(t, hub.bucket(post))
	cancel2()
	assert.Nil(t, hub.bucket(post))
}

func TestHub_ConcurrentSubscribeBroadcast(t *testing.T) {
	hub := NewHub(16)
	post := bson.NewObjectID()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub, cancel := hub.Subscribe(newULID(), post)
			go func() {
				for range sub.Ch {
				}
			}()
			time.Sleep(time.Millisecond)
			cancel()
		}()
		go func() {
			defer wg.Done()
			for range 10 {
				hub.Broadcast(context.Background(), PostEvent{Type: EventUpdated, PostID: post})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.GetSubscriberCount())
}
