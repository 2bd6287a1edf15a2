package plugin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chengxue2020/Cat-ports/core/source"
	"github.com/chengxue2020/Cat-ports/model"
)

func newTestManager() *Manager {
	m := NewManager(source.GDStudio)
	for _, agg := range source.Builtins(source.BuiltinOptions{}) {
		m.Register(source.NewDispatcher(agg))
	}
	return m
}

func TestManager_RegisterAndGet(t *testing.T) {
	m := newTestManager()

	assert.Equal(t, []string{"gdstudio", "lanyin", "lerd"}, m.Names())

	src, ok := m.Get(source.Lerd)
	require.True(t, ok)
	assert.Equal(t, "聚合API接口", src.Label())

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManager_GetDefault(t *testing.T) {
	m := newTestManager()

	src, err := m.GetDefault()
	require.NoError(t, err)
	assert.Equal(t, source.GDStudio, src.Name())

	_, err = NewManager("nothing").GetDefault()
	assert.Error(t, err)
}

func TestManager_HandleUsesDefault(t *testing.T) {
	m := newTestManager()

	_, err := m.Handle(context.Background(), &model.RequestEnvelope{
		Action: model.ActionMusicURL,
		Source: "wy",
		Info: &model.RequestInfo{
			MusicInfo: json.RawMessage(`{"name":"x"}`),
			Type:      "flac",
		},
	})
	assert.ErrorIs(t, err, source.ErrMissingIdentifier)
}

func TestManager_RegisterReplaces(t *testing.T) {
	m := NewManager(source.GDStudio)
	m.Register(source.NewDispatcher(source.NewGDStudio("")))
	m.Register(source.NewDispatcher(source.NewGDStudio("http://127.0.0.1:1/api.php")))

	assert.Len(t, m.Names(), 1)
}
