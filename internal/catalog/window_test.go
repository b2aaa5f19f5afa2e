package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
)

func TestWindow(t *testing.T) {
	items := make([]domain.Resource, 30)
	w := catalog.NewWindow(0, 0)

	assert.Len(t, w.Visible(items), catalog.DefaultWindowInitial)
	assert.True(t, w.HasMore(len(items)))

	assert.True(t, w.Advance(len(items)))
	assert.Len(t, w.Visible(items), 30, "advance is capped at the total")
	assert.False(t, w.HasMore(len(items)))
	assert.False(t, w.Advance(len(items)))

	w.Reset()
	assert.Len(t, w.Visible(items), catalog.DefaultWindowInitial)
}

func TestWindow_ShortList(t *testing.T) {
	w := catalog.NewWindow(5, 2)
	items := make([]domain.Resource, 3)

	assert.Len(t, w.Visible(items), 3)
	assert.False(t, w.HasMore(3))
	assert.Equal(t, 0, w.Limit(0))
}

func TestWindow_ZeroValue(t *testing.T) {
	var w catalog.Window
	items := make([]domain.Resource, 40)

	assert.Len(t, w.Visible(items), catalog.DefaultWindowInitial)
	require.True(t, w.Advance(len(items)))
	assert.Len(t, w.Visible(items), catalog.DefaultWindowInitial+catalog.DefaultWindowStep)

	w.Reset()
	assert.Len(t, w.Visible(items), catalog.DefaultWindowInitial)
}

func TestWindow_ExplicitSizes(t *testing.T) {
	w := &catalog.Window{Initial: 2, Step: 1}
	items := make([]domain.Resource, 4)

	assert.Len(t, w.Visible(items), 2)
	w.Advance(4)
	assert.Len(t, w.Visible(items), 3)
}
