package channel

import (
	"context"

	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/message"
	"teamsbridge/pkg/teams"
)

// BotClient is the conversational backend the relay talks to.
type BotClient interface {
	Send(context.Context, message.Inbound) (chatbot.Response, error)
	TrackEvent(context.Context, message.RatingData) error
}

// Sender posts activities to a Teams conversation.
type Sender interface {
	Send(ctx context.Context, target teams.Target, activity teams.Activity) error
}
