package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribeEmitUnsubscribe(t *testing.T) {
	b := NewBus(nil)
	var got []int
	token := b.Subscribe("core:tick", func(ev Event) {
		got = append(got, ev.Payload.(int))
	})

	b.Emit(Event{Name: "core:tick", Payload: 1})
	b.Unsubscribe("core:tick", token)
	b.Emit(Event{Name: "core:tick", Payload: 2})

	require.Equal(t, []int{1}, got)
}

func TestEmitRecoversHandlerPanic(t *testing.T) {
	b := NewBus(nil)
	var ranSecond bool
	b.Subscribe("x", func(Event) { panic("boom") })
	b.Subscribe("x", func(Event) { ranSecond = true })

	require.NotPanics(t, func() { b.Emit(Event{Name: "x"}) })
	require.True(t, ranSecond)
}

func TestDeferredEmissionFiresOnReplicationSync(t *testing.T) {
	b := NewBus(nil)
	var fired bool
	b.Subscribe("voxelworld:node_voxel_data_updated", func(Event) { fired = true })

	b.DeferUntilReplicationSync(Event{Name: "voxelworld:node_voxel_data_updated", Payload: int32(5)})
	require.False(t, fired, "must not fire before FireDeferred")

	b.FireDeferred()
	require.True(t, fired)
}
