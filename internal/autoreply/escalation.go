package autoreply

import "strings"

// escalationPhrases is the fixed set of hand-off requests. Pure substring
// containment against the lowercased message, no synonyms beyond this list.
var escalationPhrases = []string{
	"connect to agent",
	"real agent",
	"talk to human",
	"real person",
	"speak to agent",
	"live agent",
}

// EscalationNotice is the system reply appended when a conversation is
// handed off to a human agent.
const EscalationNotice = "Got it — we're connecting you with a human agent. " +
	"Someone from our support team will reply here shortly."

// DetectEscalation reports whether the customer is asking for a human agent.
func DetectEscalation(message string) bool {
	lowered := strings.ToLower(message)
	for _, phrase := range escalationPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}
