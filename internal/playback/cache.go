package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sosostris/german-english-bilingual-reader/internal/storage"
	"github.com/sosostris/german-english-bilingual-reader/pkg/types"
)

// AudioCache stores synthesized audio in blob storage so repeated
// playback of the same sentence with the same voice and speed never
// re-synthesizes. Keys use the stable sentence location, not display
// indices, so they survive page navigation.
type AudioCache struct {
	store  storage.Adapter
	prefix string
}

// NewAudioCache creates an audio cache under the given storage prefix
func NewAudioCache(store storage.Adapter, prefix string) *AudioCache {
	return &AudioCache{store: store, prefix: strings.TrimSuffix(prefix, "/")}
}

func (c *AudioCache) path(loc types.SentenceLocation, voice string, speed float64, format string) string {
	return fmt.Sprintf("%s/%s/page-%03d/p%03d-s%03d-%s-%.2f.%s",
		c.prefix, loc.TextID, loc.Page+1, loc.ParagraphID, loc.SentenceID, voice, speed, format)
}

// Get returns cached audio for the location, if present
func (c *AudioCache) Get(ctx context.Context, loc types.SentenceLocation, voice string, speed float64) ([]byte, string, bool) {
	// mp3 is the only format the synthesis backends emit today
	format := "mp3"
	path := c.path(loc, voice, speed, format)

	exists, err := c.store.Exists(ctx, path)
	if err != nil || !exists {
		return nil, "", false
	}

	reader, err := c.store.Get(ctx, path)
	if err != nil {
		return nil, "", false
	}
	data, err := readAll(reader)
	if err != nil {
		return nil, "", false
	}
	return data, format, true
}

// Put stores synthesized audio for the location
func (c *AudioCache) Put(ctx context.Context, loc types.SentenceLocation, voice string, speed float64, format string, data []byte) error {
	return c.store.Put(ctx, c.path(loc, voice, speed, format), bytes.NewReader(data))
}

func readAll(r io.ReadCloser) ([]byte, error) {
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
