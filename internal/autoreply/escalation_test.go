package autoreply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEscalation(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"please connect to agent", true},
		{"I want a REAL AGENT now", true},
		{"can i talk to human?", true},
		{"give me a real person", true},
		{"I'd like to speak to agent", true},
		{"live agent please", true},
		{"my order is late", false},
		{"the agent in the movie was great", false},
		{"", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DetectEscalation(tc.message), "message: %q", tc.message)
	}
}

func TestDetectEscalationIsSubstringBased(t *testing.T) {
	// the phrase may be embedded anywhere in the message
	assert.True(t, DetectEscalation("nothing works anymore so just connect to agent already"))
}
