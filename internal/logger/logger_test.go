package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoster struct {
	tags    []string
	records []map[string]interface{}
}

func (f *fakePoster) Post(tag string, message interface{}) error {
	f.tags = append(f.tags, tag)
	f.records = append(f.records, message.(map[string]interface{}))
	return nil
}

func (f *fakePoster) Close() error { return nil }

func TestFluentWriterTagsByLevel(t *testing.T) {
	poster := &fakePoster{}
	l := zerolog.New(NewFluentWriter(poster))

	l.Warn().Str("collection_id", "c1").Msg("Collection deleted with membership stragglers")
	l.Log().Msg("no level")

	require.Len(t, poster.tags, 2)
	assert.Equal(t, "warn", poster.tags[0])
	assert.Equal(t, "c1", poster.records[0]["collection_id"])
	assert.Equal(t, "Collection deleted with membership stragglers", poster.records[0]["message"])
	assert.Equal(t, "log", poster.tags[1])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
