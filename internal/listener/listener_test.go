package listener

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/matchplay/internal/events"
)

func TestDecodeRoundTripsNotifierPayload(t *testing.T) {
	at := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	sent := events.Event{Kind: events.Regenerated, GroupID: "g1", SeasonID: "s1", At: at}
	payload, err := json.Marshal(sent)
	require.NoError(t, err)

	got, err := Decode(string(payload))
	require.NoError(t, err)
	assert.Equal(t, sent, got)
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	_, err := Decode("not json")
	assert.Error(t, err)

	_, err = Decode(`{"kind":"regenerated"}`)
	assert.Error(t, err)
}
