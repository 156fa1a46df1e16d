package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatcherSealsOnQuiescence(t *testing.T) {
	source := make(chan Event)
	builds := make(chan []Event, 4)
	go NewBatcher(20 * time.Millisecond).Run(source, builds)

	source <- Event{Op: OpRemove, Path: "content/a.md"}
	source <- Event{Op: OpRemove, Path: "content/b.md"}

	select {
	case batch := <-builds:
		require.Len(t, batch, 2)
		assert.Equal(t, "content/a.md", batch[0].Path)
		assert.Equal(t, "content/b.md", batch[1].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("batch not sealed after quiescence window")
	}

	// Next burst starts a fresh batch.
	source <- Event{Op: OpRemove, Path: "content/c.md"}
	select {
	case batch := <-builds:
		require.Len(t, batch, 1)
		assert.Equal(t, "content/c.md", batch[0].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("second batch not sealed")
	}

	close(source)
	_, ok := <-builds
	assert.False(t, ok, "builds should close when the source closes")
}

func TestBatcherFlushesPendingOnClose(t *testing.T) {
	source := make(chan Event, 2)
	builds := make(chan []Event, 1)
	source <- Event{Op: OpRemove, Path: "content/a.md"}
	close(source)

	NewBatcher(time.Hour).Run(source, builds)

	batch, ok := <-builds
	require.True(t, ok)
	require.Len(t, batch, 1)
	assert.Equal(t, "content/a.md", batch[0].Path)

	_, ok = <-builds
	assert.False(t, ok)
}

func TestBatcherEmptyWindowEmitsNothing(t *testing.T) {
	source := make(chan Event)
	builds := make(chan []Event, 1)
	done := make(chan struct{})
	go func() {
		NewBatcher(10 * time.Millisecond).Run(source, builds)
		close(done)
	}()

	// Let several empty windows elapse, then close with nothing queued.
	time.Sleep(50 * time.Millisecond)
	close(source)
	<-done

	_, ok := <-builds
	assert.False(t, ok, "no events means no batches")
}
