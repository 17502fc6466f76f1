package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/app/commands"
)

type ping struct{ n int }

func (ping) Key() string { return "test.ping" }

type other struct{}

func (other) Key() string { return "test.other" }

func TestRegistry_DispatchTyped(t *testing.T) {
	reg := commands.NewRegistry()
	commands.Register[ping, int](reg, "test.ping", commands.HandlerFunc[ping, int](func(_ context.Context, c ping) (int, error) {
		return c.n * 2, nil
	}))

	got, err := commands.Dispatch[ping, int](context.Background(), reg, ping{n: 21})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"test.ping"}, reg.Keys())
}

func TestRegistry_UnknownKey(t *testing.T) {
	_, err := commands.NewRegistry().Dispatch(context.Background(), other{})

	assert.ErrorIs(t, err, commands.ErrHandlerNotFound)
}

func TestDispatch_ResultTypeMismatch(t *testing.T) {
	reg := commands.NewRegistry()
	commands.Register[ping, int](reg, "test.ping", commands.HandlerFunc[ping, int](func(context.Context, ping) (int, error) {
		return 1, nil
	}))

	_, err := commands.Dispatch[ping, string](context.Background(), reg, ping{})

	assert.ErrorIs(t, err, commands.ErrResultType)
}

func TestDispatch_NilBus(t *testing.T) {
	_, err := commands.Dispatch[ping, int](context.Background(), nil, ping{})

	assert.ErrorIs(t, err, commands.ErrNilBus)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	reg := commands.NewRegistry()
	h := commands.HandlerFunc[ping, int](func(context.Context, ping) (int, error) { return 0, nil })
	commands.Register[ping, int](reg, "test.ping", h)

	assert.Panics(t, func() { commands.Register[ping, int](reg, "test.ping", h) })
}
