package library

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKeepsInsertionOrder(t *testing.T) {
	lib := New()

	lib.Add(Artifact{Kind: KindDocument, Title: "A", Payload: "pdf-a"})
	lib.Add(Artifact{Kind: KindImage, Title: "B", Payload: "img-b"})
	lib.Add(Artifact{Kind: KindSite, Title: "C", Payload: "<html>c</html>"})

	list := lib.List()
	require.Len(t, list, 3)
	assert.Equal(t, "A", list[0].Title)
	assert.Equal(t, "B", list[1].Title)
	assert.Equal(t, "C", list[2].Title)
	for _, a := range list {
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.False(t, a.CreatedAt.IsZero())
	}
}

func TestSiteArtifactsAreDeduplicated(t *testing.T) {
	lib := New()

	_, first := lib.Add(Artifact{Kind: KindSite, Payload: "```html\n<p>oi</p>\n```"})
	_, second := lib.Add(Artifact{Kind: KindSite, Payload: "```html\n<p>oi</p>\n```"})
	_, other := lib.Add(Artifact{Kind: KindSite, Payload: "```html\n<p>tchau</p>\n```"})

	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, other)
	assert.Equal(t, 2, lib.Len())
}

func TestDocumentsAndImagesAreNeverDeduplicated(t *testing.T) {
	lib := New()

	for i := 0; i < 2; i++ {
		_, ok := lib.Add(Artifact{Kind: KindDocument, Title: "GATOS", Payload: "same"})
		assert.True(t, ok)
		_, ok = lib.Add(Artifact{Kind: KindImage, Title: "gato", Payload: "same"})
		assert.True(t, ok)
	}

	assert.Equal(t, 4, lib.Len())
}

func TestListReturnsCopy(t *testing.T) {
	lib := New()
	lib.Add(Artifact{Kind: KindDocument, Title: "original"})

	list := lib.List()
	list[0].Title = "mutated"

	assert.Equal(t, "original", lib.List()[0].Title)
}

func TestGet(t *testing.T) {
	lib := New()
	stored, _ := lib.Add(Artifact{Kind: KindImage, Title: "gato"})

	got, err := lib.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "gato", got.Title)

	_, err = lib.Get(uuid.New())
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}
