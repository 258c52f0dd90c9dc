package teams

import (
	"strings"

	"teamsbridge/pkg/card"
	"teamsbridge/pkg/message"
)

// Activity is an outbound Bot Framework activity.
type Activity struct {
	Type         string            `json:"type"`
	From         Account           `json:"from"`
	Recipient    Account           `json:"recipient"`
	ChannelID    string            `json:"channelId"`
	Conversation Account           `json:"conversation"`
	Text         string            `json:"text"`
	Attachments  []card.Attachment `json:"attachments,omitempty"`
}

// IsZero reports whether the activity template was never initialized.
func (a Activity) IsZero() bool {
	return a.Type == "" && a.From.IsZero() && a.Recipient.IsZero() && a.ChannelID == "" && a.Conversation.IsZero()
}

// TemplateFromEvent builds the reply template for an inbound event: the bot
// answers from the recipient to the sender on the same conversation.
func TemplateFromEvent(ev Event) Activity {
	return Activity{
		Type:         TypeMessage,
		From:         ev.Recipient,
		Recipient:    ev.From,
		ChannelID:    ev.ChannelID,
		Conversation: ev.Conversation,
	}
}

// TypingActivity builds the "bot is typing" indicator.
func TypingActivity(tmpl Activity) Activity {
	tmpl.Type = TypeTyping
	tmpl.Text = ""
	tmpl.Attachments = nil
	return tmpl
}

// BuildActivities turns one rich message into the activities to post. A body
// becomes an Adaptive Card; otherwise attachments are sent as they are. Messages
// with nothing to show produce no activity. Related content follows in a
// second activity whose text is the related list title.
func BuildActivities(tmpl Activity, msg message.Rich) []Activity {
	main := tmpl
	main.Type = TypeMessage
	main.Text = msg.Text
	main.Attachments = nil

	switch {
	case len(msg.Body) > 0:
		main.Attachments = []card.Attachment{card.AdaptiveCard(msg.Body, msg.Actions)}
	case len(msg.Attachments) > 0:
		main.Attachments = msg.Attachments
	}

	if strings.TrimSpace(main.Text) == "" && len(main.Attachments) == 0 {
		return nil
	}

	activities := []Activity{main}
	if len(msg.Related) > 0 {
		activities = append(activities, relatedActivity(tmpl, msg.Related))
	}
	return activities
}

func relatedActivity(tmpl Activity, related []card.Attachment) Activity {
	out := tmpl
	out.Type = TypeMessage
	out.Text = ""
	out.Attachments = append([]card.Attachment(nil), related...)

	if first := out.Attachments[0]; first.Content != nil && first.Content.Title != "" {
		content := *first.Content
		out.Text = content.Title
		content.Title = ""
		first.Content = &content
		out.Attachments[0] = first
	}
	return out
}
