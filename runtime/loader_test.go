package runtime

import (
	"cipher-chat/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)
	files := fstest.MapFS{
		"censored/en.txt":    {Data: []byte("spam\r\nscam\n\n# comment\n")},
		"censored/fr.txt":    {Data: []byte("arnaque\nspam\n")},
		"censored/README.md": {Data: []byte("ignored")},
	}

	data, err := NewCensoredLoader(files).LoadAll("censored")

	req.NoError(err)
	req.Equal([]string{"en", "fr"}, data.Languages)
	req.Equal([]string{"arnaque", "scam", "spam"}, data.Words)
}

func TestCensoredLoader_Empty(t *testing.T) {
	files := fstest.MapFS{"censored/en.txt": {Data: []byte("\n\n")}}

	_, err := NewCensoredLoader(files).LoadAll("censored")

	require.ErrorIs(t, err, errors.ErrEmptyWords)
}

func TestCensoredLoader_Embedded(t *testing.T) {
	req := require.New(t)

	data, err := NewCensoredLoader(CensoredFolder).LoadAll("censored")

	req.NoError(err)
	req.Contains(data.Words, "spam")
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
}
