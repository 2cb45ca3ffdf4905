package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/logger"
	"github.com/tejashwikalptaru/tunestream/internal/testutil"
)

func TestLoop_RunsInPostOrder(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	loop := NewLoop(logger.NewTestLogger())
	defer loop.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, loop.Do(func() {}))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoop_DoWaitsForResult(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	loop := NewLoop(logger.NewTestLogger())
	defer loop.Close()

	var value int
	err := loop.Do(func() { value = 42 })
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestLoop_SerializesConcurrentCallers(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	loop := NewLoop(logger.NewTestLogger())
	defer loop.Close()

	// counter is only touched on the loop goroutine, so no lock is needed
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = loop.Do(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	require.NoError(t, loop.Do(func() {}))
	assert.Equal(t, 1000, counter)
}

func TestLoop_SurvivesPanics(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	loop := NewLoop(logger.NewTestLogger())
	defer loop.Close()

	require.NoError(t, loop.Do(func() { panic("boom") }))

	ran := false
	require.NoError(t, loop.Do(func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_CloseDrainsAndRejects(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	loop := NewLoop(logger.NewTestLogger())

	ran := 0
	for i := 0; i < 10; i++ {
		loop.Post(func() { ran++ })
	}
	loop.Close()
	assert.Equal(t, 10, ran)

	assert.False(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Do(func() {}), domain.ErrSessionClosed)

	// Closing twice is safe
	loop.Close()
}
