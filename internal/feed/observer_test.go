package feed

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/blog-publication-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver_PublishReachesPostSubscribers(t *testing.T) {
	o := NewObserver()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := o.Subscribe(ctx, 1)
	ch2 := o.Subscribe(ctx, 2)

	n := o.Publish(&domain.Comment{ID: 10, PostID: 1, Text: "hi"})
	assert.Equal(t, 1, n)

	select {
	case c := <-ch1:
		assert.Equal(t, uint(10), c.ID)
	case <-time.After(time.Second):
		t.Fatal("comment not delivered")
	}

	select {
	case <-ch2:
		t.Fatal("subscriber of another post got the comment")
	default:
	}
}

func TestObserver_UnsubscribeOnCancel(t *testing.T) {
	o := NewObserver()
	ctx, cancel := context.WithCancel(context.Background())

	ch := o.Subscribe(ctx, 3)
	require.Equal(t, 1, o.Subscribers(3))

	cancel()
	assert.Eventually(t, func() bool { return o.Subscribers(3) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, o.Publish(&domain.Comment{PostID: 3}))
}

func TestObserver_SlowSubscriberDoesNotBlock(t *testing.T) {
	o := NewObserver()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = o.Subscribe(ctx, 4)
	for i := 0; i < 20; i++ {
		o.Publish(&domain.Comment{PostID: 4})
	}
	// буфер 8, остальное отброшено
	assert.Equal(t, 0, o.Publish(&domain.Comment{PostID: 4}))
}
