package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTicketRequestTriState(t *testing.T) {
	var absent UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"OPEN"}`), &absent))
	assert.False(t, absent.Assignee.Set, "missing key leaves the field untouched")

	var cleared UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assignee":null}`), &cleared))
	assert.True(t, cleared.Assignee.Set)
	assert.Nil(t, cleared.Assignee.Value)

	var set UpdateTicketRequest
	require.NoError(t, json.Unmarshal([]byte(`{"assignee":"agent-3"}`), &set))
	assert.True(t, set.Assignee.Set)
	require.NotNil(t, set.Assignee.Value)
	assert.Equal(t, "agent-3", *set.Assignee.Value)
}
