package bookmarks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/marksync/errors"
)

func TestParseOutline(t *testing.T) {
	o, err := ParseOutline(strings.NewReader(sampleOutline))
	require.NoError(t, err)

	require.Len(t, o.BookmarkBar, 2)
	assert.False(t, o.BookmarkBar[0].IsFolder())
	assert.True(t, o.BookmarkBar[1].IsFolder())
	assert.True(t, o.BookmarkBar[1].Children[1].IsFolder(), "folder: true marks an empty folder")
	assert.Len(t, o.Section(TypeMobile), 1)
	assert.Nil(t, o.Section(TypeFolder))
}

func TestParseOutline_UnknownField(t *testing.T) {
	_, err := ParseOutline(strings.NewReader("toolbar: []\n"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestParseOutline_Empty(t *testing.T) {
	o, err := ParseOutline(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, o.BookmarkBar)
}

func TestImport(t *testing.T) {
	o, err := ParseOutline(strings.NewReader(sampleOutline))
	require.NoError(t, err)

	m := NewModel()
	created, err := m.Import(o)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	bar := m.PermanentNode(TypeBookmarkBar)
	assert.Equal(t, []string{"Go", "Reading"}, titles(bar))
	assert.Equal(t, []string{"Blog", "Empty"}, titles(bar.Child(1)))
	assert.True(t, m.PermanentNode(TypeMobile).IsVisible(), "importing mobile entries shows the folder")
}

func TestOutlineRoundTripsThroughYAML(t *testing.T) {
	o, err := ParseOutline(strings.NewReader(sampleOutline))
	require.NoError(t, err)
	m := NewModel()
	_, err = m.Import(o)
	require.NoError(t, err)

	data, err := yaml.Marshal(m.Outline())
	require.NoError(t, err)

	again, err := ParseOutline(strings.NewReader(string(data)))
	require.NoError(t, err)
	m2 := NewModel()
	_, err = m2.Import(again)
	require.NoError(t, err)

	assert.Equal(t, m.Outline(), m2.Outline())
}
