package teams

import (
	"fmt"
	"net/url"
	"strings"

	"teamsbridge/pkg/session"
)

const externalIDPrefix = "teams"

// Target is where activities for a conversation are posted.
type Target struct {
	BaseURL  string `json:"base_url"`
	Endpoint string `json:"endpoint"`
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool {
	return t.BaseURL == "" && t.Endpoint == ""
}

// ActivitiesURL is the Bot Framework endpoint receiving outbound activities.
func (t Target) ActivitiesURL() string {
	return strings.TrimSuffix(t.BaseURL, "/") + "/v3/conversations/" + url.PathEscape(t.Endpoint) + "/activities"
}

// Conversation is the routing state of one Teams conversation.
type Conversation struct {
	Sender   Account
	Channel  string
	Activity Activity
	Target   Target
}

// InitConversation resolves the conversation routing data. Values already in
// the session win over the event so replies keep going to the original
// conversation; whatever was resolved is written back.
func InitConversation(sess session.Session, ev Event) (Conversation, error) {
	var conv Conversation

	if _, err := sess.Get(session.KeySender, &conv.Sender); err != nil {
		return Conversation{}, fmt.Errorf("load sender: %w", err)
	}
	if conv.Sender.IsZero() {
		conv.Sender = ev.From
	}

	if _, err := sess.Get(session.KeyChannel, &conv.Channel); err != nil {
		return Conversation{}, fmt.Errorf("load channel: %w", err)
	}
	if conv.Channel == "" {
		conv.Channel = ev.Conversation.ID
	}

	if _, err := sess.Get(session.KeyActivity, &conv.Activity); err != nil {
		return Conversation{}, fmt.Errorf("load activity template: %w", err)
	}
	if conv.Activity.IsZero() {
		conv.Activity = TemplateFromEvent(ev)
	}

	if _, err := sess.Get(session.KeyTarget, &conv.Target); err != nil {
		return Conversation{}, fmt.Errorf("load target: %w", err)
	}
	if conv.Target.IsZero() {
		conv.Target = Target{BaseURL: ev.ServiceURL, Endpoint: ev.Conversation.ID}
	}

	for key, value := range map[string]any{
		session.KeySender:   conv.Sender,
		session.KeyChannel:  conv.Channel,
		session.KeyActivity: conv.Activity,
		session.KeyTarget:   conv.Target,
	} {
		if err := sess.Set(key, value); err != nil {
			return Conversation{}, fmt.Errorf("store %s: %w", key, err)
		}
	}

	return conv, nil
}

// ExternalID identifies the user within a conversation. It is empty when the
// event lacks either identifier.
func ExternalID(ev Event) string {
	if ev.From.ID == "" || ev.Conversation.ID == "" {
		return ""
	}
	return externalIDPrefix + "-" + ev.Conversation.ID + "-" + ev.From.ID
}

// SessionID strips an external id down to the characters allowed in session keys.
func SessionID(externalID string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, externalID)
}
