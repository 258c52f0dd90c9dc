package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/config"
	"teamsbridge/pkg/digester"
	"teamsbridge/pkg/lang"
	"teamsbridge/pkg/message"
	"teamsbridge/pkg/session"
	"teamsbridge/pkg/teams"
)

// Relay carries one Teams event through the digester to the backend and
// posts the digested answers back to the conversation.
type Relay struct {
	digester *digester.Digester
	bot      BotClient
	sender   Sender
	ratings  config.ContentRatingsConfig
	lang     lang.Translator
	log      *slog.Logger
}

// NewRelay wires a relay. A nil translator uses the default catalog.
func NewRelay(d *digester.Digester, bot BotClient, sender Sender, ratings config.ContentRatingsConfig, translator lang.Translator, log *slog.Logger) (*Relay, error) {
	if d == nil {
		return nil, errors.New("digester is required")
	}
	if bot == nil {
		return nil, errors.New("bot client is required")
	}
	if sender == nil {
		return nil, errors.New("sender is required")
	}
	if translator == nil {
		translator = lang.MustLoad()
	}
	if log == nil {
		log = slog.Default()
	}

	return &Relay{
		digester: d,
		bot:      bot,
		sender:   sender,
		ratings:  ratings,
		lang:     translator,
		log:      log.With("component", "channel.relay"),
	}, nil
}

// Handle processes one raw inbound activity. sess must be scoped to the
// conversation the activity belongs to. Every normalized message is handled
// even when an earlier one fails; failures are joined in the returned error.
func (r *Relay) Handle(ctx context.Context, sess session.Session, raw []byte) error {
	log := r.log.With("request_id", uuid.NewString())

	ev, err := teams.ParseEvent(raw)
	if err != nil {
		return fmt.Errorf("parse event: %w", err)
	}

	conv, err := teams.InitConversation(sess, ev)
	if err != nil {
		return fmt.Errorf("init conversation: %w", err)
	}

	inbound := r.digester.DigestToAPI(ev)
	log.Debug("Inbound event digested", "type", ev.Type, "kind", string(r.digester.ClassifyInbound(ev)), "messages", len(inbound))

	var errs []error
	typing := false
	for _, msg := range inbound {
		if msg.IsEmpty() {
			continue
		}
		if !typing {
			typing = true
			if err := r.sender.Send(ctx, conv.Target, teams.TypingActivity(conv.Activity)); err != nil {
				log.Warn("Typing indicator failed", "error", err)
			}
		}

		replies, err := r.process(ctx, sess, msg)
		if err != nil {
			log.Error("Message handling failed", "error", err, "category", digester.CategoryFromError(err))
			errs = append(errs, err)
		}
		if err := r.deliver(ctx, conv, replies); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (r *Relay) process(ctx context.Context, sess session.Session, msg message.Inbound) ([]message.Rich, error) {
	switch {
	case msg.IsRating():
		return r.rate(ctx, sess, msg)
	case msg.IsEscalation():
		if *msg.EscalateOption {
			return []message.Rich{message.Text(r.lang.Translate("no_agents"))}, nil
		}
		return []message.Rich{message.Text(r.lang.Translate("escalation_rejected"))}, nil
	case msg.ExtendedContentAnswer != nil:
		return r.subAnswer(sess, *msg.ExtendedContentAnswer)
	}

	if msg.Message != "" {
		pending, err := pendingRating(sess)
		if err != nil {
			return nil, err
		}
		if pending != nil {
			return r.comment(ctx, sess, *pending, msg.Message)
		}
	}

	return r.ask(ctx, sess, msg)
}

func (r *Relay) ask(ctx context.Context, sess session.Session, msg message.Inbound) ([]message.Rich, error) {
	resp, err := r.bot.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send to chatbot: %w", err)
	}

	replies, err := r.digester.DigestFromAPI(sess, resp)
	if !r.ratings.Enabled {
		return replies, err
	}
	if code, ok := digester.RateCode(resp); ok {
		if prompt := r.digester.BuildContentRatingsMessage(r.ratings.Ratings, code); !prompt.IsEmpty() {
			replies = append(replies, prompt)
		}
	}
	return replies, err
}

func (r *Relay) rate(ctx context.Context, sess session.Session, msg message.Inbound) ([]message.Rich, error) {
	if err := r.bot.TrackEvent(ctx, *msg.RatingData); err != nil {
		return nil, fmt.Errorf("track rating: %w", err)
	}

	if msg.AskRatingComment == nil || !*msg.AskRatingComment {
		return []message.Rich{message.Text(r.lang.Translate("thanks"))}, nil
	}
	if err := sess.Set(session.KeyPendingRating, msg.RatingData); err != nil {
		return nil, fmt.Errorf("store pending rating: %w", err)
	}
	return []message.Rich{message.Text(r.lang.Translate("ask_rating_comment"))}, nil
}

func (r *Relay) comment(ctx context.Context, sess session.Session, rating message.RatingData, text string) ([]message.Rich, error) {
	data := maps.Clone(rating.Data)
	if data == nil {
		data = map[string]any{}
	}
	data["comment"] = text
	rating.Data = data

	if err := r.bot.TrackEvent(ctx, rating); err != nil {
		return nil, fmt.Errorf("track rating comment: %w", err)
	}
	if err := sess.Set(session.KeyPendingRating, nil); err != nil {
		return nil, fmt.Errorf("clear pending rating: %w", err)
	}
	return []message.Rich{message.Text(r.lang.Translate("thanks"))}, nil
}

func (r *Relay) subAnswer(sess session.Session, index int) ([]message.Rich, error) {
	answer, ok, err := digester.SubAnswer(sess, index)
	if err != nil {
		return nil, err
	}
	if !ok {
		r.log.Warn("Unknown sub-answer selected", "index", index)
		return nil, nil
	}

	reply, err := r.digester.DigestAnswer(sess, answer)
	if err != nil {
		return nil, err
	}
	return []message.Rich{reply}, nil
}

func (r *Relay) deliver(ctx context.Context, conv teams.Conversation, replies []message.Rich) error {
	for _, reply := range replies {
		for _, activity := range teams.BuildActivities(conv.Activity, reply) {
			if err := r.sender.Send(ctx, conv.Target, activity); err != nil {
				return fmt.Errorf("send activity: %w", err)
			}
		}
	}
	return nil
}

func pendingRating(sess session.Session) (*message.RatingData, error) {
	var pending *message.RatingData
	if _, err := sess.Get(session.KeyPendingRating, &pending); err != nil {
		return nil, fmt.Errorf("load pending rating: %w", err)
	}
	return pending, nil
}

// StaticBot answers every message with the same response. It backs the CLI
// relay command, where the backend reply is read from a file.
type StaticBot struct {
	Response chatbot.Response
	Tracked  []message.RatingData
}

func (b *StaticBot) Send(context.Context, message.Inbound) (chatbot.Response, error) {
	return b.Response, nil
}

func (b *StaticBot) TrackEvent(_ context.Context, rating message.RatingData) error {
	b.Tracked = append(b.Tracked, rating)
	return nil
}
