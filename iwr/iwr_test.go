package iwr

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_Transitions(t *testing.T) {
	var l Lifecycle
	require.Equal(t, Init, l.State())
	require.NoError(t, l.DoneInit(nil))
	require.Equal(t, Write, l.State())
	require.ErrorIs(t, l.DoneInit(nil), ErrAlreadyInit)
	require.NoError(t, l.DoneWrite(nil))
	require.Equal(t, Read, l.State())
	require.ErrorIs(t, l.DoneWrite(nil), ErrNotWritable)
	require.ErrorIs(t, l.DoneInit(nil), ErrAlreadyInit)
}

func TestLifecycle_InitStraightToRead(t *testing.T) {
	var l Lifecycle
	require.NoError(t, l.DoneWrite(nil))
	assert.Equal(t, Read, l.State())
	assert.NoError(t, l.EnsureRead(nil))
}

func TestLifecycle_HookAbortsTransition(t *testing.T) {
	var l Lifecycle
	boom := errors.New("boom")
	var seen []State
	hook := func(next State) error {
		seen = append(seen, next)
		if next == Read {
			return boom
		}
		return nil
	}
	require.NoError(t, l.DoneInit(hook))
	require.ErrorIs(t, l.DoneWrite(hook), boom)
	assert.Equal(t, Write, l.State())
	assert.Equal(t, []State{Write, Read}, seen)
}

func TestLifecycle_MutateRejectsRead(t *testing.T) {
	var l Lifecycle
	calls := 0
	fn := func(State) error { calls++; return nil }
	require.NoError(t, l.Mutate(fn))
	require.NoError(t, l.DoneWrite(nil))
	require.ErrorIs(t, l.Mutate(fn), ErrNotWritable)
	assert.Equal(t, 1, calls)
}

func TestLifecycle_Restore(t *testing.T) {
	cases := []struct {
		from, target State
	}{
		{Init, Init}, {Init, Write}, {Init, Read},
		{Write, Init}, {Write, Write}, {Write, Read},
		{Read, Init}, {Read, Write},
	}
	for _, c := range cases {
		var l Lifecycle
		var hooked []State
		err := l.Restore(c.from, c.target, func(next State) error {
			hooked = append(hooked, next)
			return nil
		})
		require.NoError(t, err, "%s -> %s", c.from, c.target)
		assert.Equal(t, c.target, l.State(), "%s -> %s", c.from, c.target)
		if c.target == Read || (c.target == Write && c.from == Init) {
			assert.Equal(t, []State{c.target}, hooked)
		} else {
			assert.Empty(t, hooked)
		}
	}
}

func TestLifecycle_ConcurrentDoneInitHasOneWinner(t *testing.T) {
	var l Lifecycle
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.DoneInit(nil)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, ErrAlreadyInit) {
				losses++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 15, losses)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "INIT", Init.String())
	assert.Equal(t, "WRITE", Write.String())
	assert.Equal(t, "READ", Read.String())
}
