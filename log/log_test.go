package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	l.WithFields(Fields{"team": 3, "event": "joined_team"}).Infof("membership %d changed", 7)
	l.Debugf("debug lines are filtered at info level")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), "only one json line should be written")
	assert.Equal(t, "membership 7 changed", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, float64(3), line["team"])
	assert.Equal(t, "joined_team", line["event"])
}

func TestNewWithWriterInvalidLevel(t *testing.T) {
	_, err := NewWithWriter(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}
