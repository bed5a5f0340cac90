package core

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	SetLogOutput(io.Discard)
}

func TestEventSystem_FiresInRegistrationOrder(t *testing.T) {
	es := NewEventSystem()

	var got []string
	es.Register(EVENT_CODE_GROUP_LOADED, func(ctx EventContext) { got = append(got, "first:"+ctx.Data.(GroupEvent).Name) })
	es.Register(EVENT_CODE_GROUP_LOADED, func(ctx EventContext) { got = append(got, "second:"+ctx.Data.(GroupEvent).Name) })
	es.Register(EVENT_CODE_GROUP_UNLOADED, func(EventContext) { got = append(got, "other") })

	n := es.Fire(EventContext{Type: EVENT_CODE_GROUP_LOADED, Data: GroupEvent{Name: "menu"}})

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"first:menu", "second:menu"}, got)
}

func TestEventSystem_Unregister(t *testing.T) {
	es := NewEventSystem()

	calls := 0
	id := es.Register(EVENT_CODE_RESOURCE_LOADED, func(EventContext) { calls++ })
	keep := es.Register(EVENT_CODE_RESOURCE_LOADED, func(EventContext) { calls += 10 })
	require.NotEqual(t, id, keep)

	assert.True(t, es.Unregister(id))
	assert.False(t, es.Unregister(id))
	assert.False(t, es.Unregister("missing"))
	assert.Equal(t, 1, es.ListenerCount(EVENT_CODE_RESOURCE_LOADED))

	es.Fire(EventContext{Type: EVENT_CODE_RESOURCE_LOADED})
	assert.Equal(t, 10, calls)
}

func TestEventSystem_PanickingListenerIsSkipped(t *testing.T) {
	es := NewEventSystem()

	reached := false
	es.Register(EVENT_CODE_ASSET_CHANGED, func(EventContext) { panic("boom") })
	es.Register(EVENT_CODE_ASSET_CHANGED, func(EventContext) { reached = true })

	assert.NotPanics(t, func() {
		es.Fire(EventContext{Type: EVENT_CODE_ASSET_CHANGED, Data: "menu.toml"})
	})
	assert.True(t, reached)
}

func TestEventSystem_ListenerMayUnregisterDuringFire(t *testing.T) {
	es := NewEventSystem()

	var id string
	calls := 0
	id = es.Register(EVENT_CODE_GROUP_LOADED, func(EventContext) {
		calls++
		es.Unregister(id)
	})

	es.Fire(EventContext{Type: EVENT_CODE_GROUP_LOADED})
	es.Fire(EventContext{Type: EVENT_CODE_GROUP_LOADED})
	assert.Equal(t, 1, calls)
}

func TestEventSystem_Shutdown(t *testing.T) {
	es := NewEventSystem()
	es.Register(EVENT_CODE_APPLICATION_QUIT, func(EventContext) {})

	require.NoError(t, es.Shutdown())
	assert.Zero(t, es.ListenerCount(EVENT_CODE_APPLICATION_QUIT))
	assert.Zero(t, es.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
}
