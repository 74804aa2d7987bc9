package options

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpin(t *testing.T) {
	r := New()
	var got []int
	r.AddSpin(Hash, 16, 1, 1024, func(n int) error {
		got = append(got, n)
		return nil
	})

	assert.Equal(t, 16, r.Int(Hash))

	require.NoError(t, r.Set("hash", " 64 "))
	assert.Equal(t, 64, r.Int(Hash))
	assert.Equal(t, []int{64}, got)

	for _, bad := range []string{"0", "1025", "abc", ""} {
		require.ErrorIs(t, r.Set(Hash, bad), ErrInvalidValue, bad)
	}
	assert.Equal(t, 64, r.Int(Hash))
	assert.Equal(t, []int{64}, got)
}

func TestHookFailureRestoresValue(t *testing.T) {
	r := New()
	boom := errors.New("boom")
	r.AddSpin(Threads, 1, 1, 64, func(n int) error {
		if n == 13 {
			return boom
		}
		return nil
	})

	require.NoError(t, r.Set(Threads, "4"))
	require.ErrorIs(t, r.Set(Threads, "13"), boom)
	assert.Equal(t, 4, r.Threads())
}

func TestUnknownOption(t *testing.T) {
	r := New()
	require.ErrorIs(t, r.Set("Nope", "1"), ErrUnknownOption)
	assert.Equal(t, "", r.Value("Nope"))
	assert.Zero(t, r.Int("Nope"))
}

func TestButton(t *testing.T) {
	r := New()

	presses := 0
	r.AddButton(ClearHash, func() error { presses++; return nil })

	require.NoError(t, r.Set("clear hash", ""))
	require.NoError(t, r.Set(ClearHash, "ignored"))
	assert.Equal(t, 2, presses)
	assert.Equal(t, "", r.Value(ClearHash))
}

func TestThreadsDefault(t *testing.T) {
	r := New()
	assert.Equal(t, 1, r.Threads())
	r.AddSpin(Threads, 3, 1, 64, nil)
	assert.Equal(t, 3, r.Threads())
}

func TestWriteUCI(t *testing.T) {
	r := New()
	r.AddSpin(Threads, 1, 1, 1024, nil)
	r.AddSpin(Hash, 16, 1, 4096, nil)
	r.AddButton(ClearHash, nil)

	var sb strings.Builder
	require.NoError(t, r.WriteUCI(&sb))
	assert.Equal(t, strings.Join([]string{
		"option name Threads type spin default 1 min 1 max 1024",
		"option name Hash type spin default 16 min 1 max 4096",
		"option name Clear Hash type button",
		"",
	}, "\n"), sb.String())
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "spin", Spin.String())
	assert.Equal(t, "button", Button.String())
}

func TestDuplicatePanics(t *testing.T) {
	r := New()
	r.AddButton(ClearHash, nil)
	assert.Panics(t, func() { r.AddButton("clear HASH", nil) })
}
