package digester

import (
	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/message"
	"teamsbridge/pkg/teams"
)

// InboundKind names the semantic kind of a Teams event.
type InboundKind string

const (
	InboundCardItem        InboundKind = "cardItem"
	InboundButton          InboundKind = "button"
	InboundPayload         InboundKind = "payload"
	InboundQuickReply      InboundKind = "quickReply"
	InboundAttachment      InboundKind = "attachment"
	InboundMessageReaction InboundKind = "messageReaction"
	InboundText            InboundKind = "text"
	InboundUnknown         InboundKind = ""
)

// inboundTransform returns false when the event must not produce a message.
type inboundTransform func(teams.Event) (message.Inbound, bool)

type inboundRoute struct {
	kind      InboundKind
	match     func(teams.Event) bool
	transform inboundTransform
}

var positiveReactions = map[string]bool{"like": true, "heart": true, "laugh": true}

// inboundRoutes lists the kinds in priority order. Predicates overlap, so
// the order decides.
func (d *Digester) inboundRoutes() []inboundRoute {
	return []inboundRoute{
		{kind: InboundCardItem, match: isCardItem, transform: d.fromCardItem},
		{kind: InboundButton, match: isButton, transform: d.fromOption},
		{kind: InboundPayload, match: isPayload, transform: d.fromPayload},
		{kind: InboundQuickReply, match: isQuickReply, transform: d.fromOption},
		{kind: InboundAttachment, match: isAttachment, transform: d.fromAttachment},
		{kind: InboundMessageReaction, match: isMessageReaction, transform: d.fromReaction},
		{kind: InboundText, match: isText, transform: d.fromText},
	}
}

func isCardItem(ev teams.Event) bool   { return ev.Value != nil && ev.Value.HasAction }
func isButton(ev teams.Event) bool     { return ev.Type == teams.TypeButton }
func isPayload(ev teams.Event) bool    { return ev.PostBack }
func isQuickReply(ev teams.Event) bool { return ev.Value != nil && ev.Value.HasOption }

func isAttachment(ev teams.Event) bool {
	return ev.Type == teams.TypeMessage && len(ev.Attachments) > 0
}

func isMessageReaction(ev teams.Event) bool { return ev.Type == teams.TypeMessageReaction }

func isText(ev teams.Event) bool { return ev.Type == teams.TypeMessage && ev.Text != nil }

// ClassifyInbound returns the first kind whose predicate matches, or InboundUnknown.
func (d *Digester) ClassifyInbound(ev teams.Event) InboundKind {
	if route, ok := d.routeInbound(ev); ok {
		return route.kind
	}
	return InboundUnknown
}

func (d *Digester) routeInbound(ev teams.Event) (inboundRoute, bool) {
	for _, route := range d.inbound {
		if route.match(ev) {
			return route, true
		}
	}
	return inboundRoute{}, false
}

// DigestToAPI converts one Teams event into the messages to send to the
// backend. Multiple-output results are flattened in order. Housekeeping events
// and unsupported reactions yield nothing; unrecognized events yield a single
// empty placeholder.
func (d *Digester) DigestToAPI(ev teams.Event) []message.Inbound {
	if ev.ServiceURL == "" && (ev.Text == nil || ev.Value == nil) {
		return nil
	}

	route, ok := d.routeInbound(ev)
	if !ok {
		d.log.Debug("unclassified inbound event", "type", ev.Type)
		return []message.Inbound{{}}
	}

	msg, ok := route.transform(ev)
	if !ok {
		return nil
	}
	return msg.Flatten()
}

func (d *Digester) fromCardItem(ev teams.Event) (message.Inbound, bool) {
	if msg, ok := actionFieldSubmission(ev); ok {
		return msg, true
	}
	return message.Inbound{Value: ev.Value.Fields}, true
}

func (d *Digester) fromOption(ev teams.Event) (message.Inbound, bool) {
	if ev.Value == nil || !ev.Value.HasOption {
		d.log.Warn("option event without option", "type", ev.Type)
		return message.Inbound{}, true
	}
	return message.Inbound{Option: ev.Value.Option}, true
}

func (d *Digester) fromPayload(ev teams.Event) (message.Inbound, bool) {
	if msg, ok := actionFieldSubmission(ev); ok {
		return msg, true
	}
	fields := map[string]any{}
	if ev.Value != nil && ev.Value.Fields != nil {
		fields = ev.Value.Fields
	}
	return message.Inbound{Option: fields}, true
}

func (d *Digester) fromAttachment(ev teams.Event) (message.Inbound, bool) {
	out := message.Inbound{MultipleOutput: make([]message.Inbound, 0, len(ev.Attachments))}
	for _, att := range ev.Attachments {
		out.MultipleOutput = append(out.MultipleOutput, message.Inbound{Message: att.URL})
	}
	return out, true
}

func (d *Digester) fromReaction(ev teams.Event) (message.Inbound, bool) {
	if len(ev.ReactionsAdded) == 0 || !positiveReactions[ev.ReactionsAdded[0].Type] {
		return message.Inbound{}, false
	}
	return message.Inbound{Message: d.lang.Translate("thanks")}, true
}

func (d *Digester) fromText(ev teams.Event) (message.Inbound, bool) {
	if msg, ok := actionFieldSubmission(ev); ok {
		return msg, true
	}

	value := ev.Value
	if !value.HasSignals() {
		return message.Inbound{Message: *ev.Text}, true
	}

	// Control events: the literal text is the button caption, not user input.
	signals := message.Inbound{
		RatingData:            value.RatingData,
		AskRatingComment:      value.AskRatingComment,
		IsNegativeRating:      value.IsNegativeRating,
		EscalateOption:        value.EscalateOption,
		ExtendedContentAnswer: value.ExtendedContentAnswer,
	}
	if !value.HasOption {
		return signals, true
	}
	// Unreachable from DigestToAPI while quickReply claims every option value.
	return message.Inbound{MultipleOutput: []message.Inbound{
		signals,
		{Option: value.Option},
	}}, true
}

// actionFieldSubmission recognizes the answer to an action field, which is
// forwarded to the backend as the user's text.
func actionFieldSubmission(ev teams.Event) (message.Inbound, bool) {
	if ev.Value == nil || !ev.Value.HasActionField {
		return message.Inbound{}, false
	}
	return message.Inbound{Message: chatbot.ValueString(ev.Value.ActionField)}, true
}
