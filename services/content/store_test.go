package content

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinreport-web/web"
)

func TestLoad_EmbeddedContent(t *testing.T) {
	s, err := Load(web.FS)
	require.NoError(t, err)

	require.NotEmpty(t, s.Posts())
	require.NotEmpty(t, s.FAQ())

	for i := 1; i < len(s.Posts()); i++ {
		assert.False(t, s.Posts()[i].Published.After(s.Posts()[i-1].Published), "posts are newest first")
	}

	first := s.Posts()[0]
	p, err := s.Post(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, p.Title)

	_, err = s.Post("no-such-post")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestLoad_Errors(t *testing.T) {
	faq := &fstest.MapFile{Data: []byte("entries: []\n")}

	_, err := Load(fstest.MapFS{faqFile: faq})
	assert.ErrorContains(t, err, "failed to read content/blog.yaml")

	_, err = Load(fstest.MapFS{
		blogFile: {Data: []byte("posts: [\n")},
		faqFile:  faq,
	})
	assert.ErrorContains(t, err, "failed to parse")

	_, err = Load(fstest.MapFS{
		blogFile: {Data: []byte("posts:\n  - id: a\n    title: A\n  - id: a\n    title: B\n")},
		faqFile:  faq,
	})
	assert.ErrorContains(t, err, "duplicate post id")
}
