package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLastWriterWins(t *testing.T) {
	s := NewStore()

	s.SetCartCount("a", 3)
	s.SetCartCount("a", 1)
	s.SetCartCount("b", 7)

	assert.Equal(t, 1, s.CartCount("a"))
	assert.Equal(t, 7, s.CartCount("b"))
	assert.Zero(t, s.CartCount("unknown"))
}

func TestNegativeCountIsZero(t *testing.T) {
	s := NewStore()
	s.SetCartCount("a", -2)
	assert.Zero(t, s.CartCount("a"))
}

func TestSubscribeSeesCurrentThenLatest(t *testing.T) {
	s := NewStore()
	s.SetCartCount("a", 2)

	ch, cancel := s.Subscribe("a")
	defer cancel()

	require.Equal(t, 2, <-ch)

	s.SetCartCount("a", 4)
	s.SetCartCount("a", 5)
	s.SetCartCount("b", 9)

	assert.Equal(t, 5, <-ch, "unread values are replaced")
	select {
	case n := <-ch:
		t.Fatalf("unexpected value %d", n)
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	s := NewStore()

	ch, cancel := s.Subscribe("a")
	<-ch
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	s.SetCartCount("a", 1)
	assert.Empty(t, s.subs)
}

func TestForget(t *testing.T) {
	s := NewStore()
	s.SetCartCount("a", 3)

	ch, cancel := s.Subscribe("a")
	defer cancel()
	<-ch

	s.Forget("a")
	assert.Equal(t, 0, <-ch)
	assert.NotContains(t, s.counts, "a")
}

func TestConcurrentWriters(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe("a")
	defer cancel()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.SetCartCount("a", n)
		}(i)
	}
	wg.Wait()

	last := s.CartCount("a")
	assert.Equal(t, last, <-ch)
}
