// Package teams models the Bot Framework activities exchanged with Microsoft
// Teams: inbound events, outbound activities and the per-conversation routing
// data kept in the session.
package teams

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/message"
)

// Activity types.
const (
	TypeMessage         = "message"
	TypeTyping          = "typing"
	TypeButton          = "button"
	TypeMessageReaction = "messageReaction"
)

// ErrInvalidEvent reports a request body that is not a JSON object.
var ErrInvalidEvent = errors.New("invalid teams event")

// Account identifies a user, bot or conversation.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// IsZero reports whether the account carries no identity.
func (a Account) IsZero() bool {
	return a.ID == "" && a.Name == ""
}

// Reaction is one entry of reactionsAdded.
type Reaction struct {
	Type string
}

// FileAttachment is a file the user attached to a message.
type FileAttachment struct {
	ContentType string
	URL         string
	Name        string
}

// Event is an inbound Teams activity. Optional fields are pointers so that
// "absent" and "zero" stay distinguishable for the classifier.
type Event struct {
	Type           string
	Text           *string
	Value          *Value
	PostBack       bool
	ReactionsAdded []Reaction
	Attachments    []FileAttachment
	From           Account
	Recipient      Account
	Conversation   Account
	ChannelID      string
	ServiceURL     string
}

// Value is the structured payload of a card submit or postback.
type Value struct {
	HasAction             bool
	Action                any
	HasOption             bool
	Option                any
	HasActionField        bool
	ActionField           any
	ExtendedContentAnswer *int
	AskRatingComment      *bool
	IsNegativeRating      *bool
	EscalateOption        *bool
	// HasRatingData is set whenever ratingData is present; RatingData only
	// when it is well formed.
	HasRatingData bool
	RatingData    *message.RatingData
	Fields        map[string]any
}

// HasSignals reports whether the value carries a rating, escalation or
// extended-content selection.
func (v *Value) HasSignals() bool {
	if v == nil {
		return false
	}
	return v.HasRatingData || v.EscalateOption != nil || v.ExtendedContentAnswer != nil ||
		v.AskRatingComment != nil || v.IsNegativeRating != nil
}

// ParseEvent decodes a raw inbound activity. This is the only place the
// loosely typed payload is probed.
func ParseEvent(raw []byte) (Event, error) {
	if !gjson.ValidBytes(raw) {
		return Event{}, ErrInvalidEvent
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Event{}, ErrInvalidEvent
	}

	ev := Event{
		Type:         root.Get("type").String(),
		PostBack:     root.Get("channelData.postBack").Type == gjson.True,
		From:         account(root.Get("from")),
		Recipient:    account(root.Get("recipient")),
		Conversation: account(root.Get("conversation")),
		ChannelID:    root.Get("channelId").String(),
		ServiceURL:   root.Get("serviceUrl").String(),
	}

	if text := root.Get("text"); present(text) {
		value := text.String()
		ev.Text = &value
	}

	if value := root.Get("value"); present(value) {
		ev.Value = parseValue(value)
	} else if ev.Text != nil {
		// Postbacks with an encoded value arrive as text only.
		ev.Value = encodedValue(*ev.Text)
	}

	for _, reaction := range root.Get("reactionsAdded").Array() {
		ev.ReactionsAdded = append(ev.ReactionsAdded, Reaction{Type: reaction.Get("type").String()})
	}

	for _, att := range root.Get("attachments").Array() {
		file := FileAttachment{
			ContentType: att.Get("contentType").String(),
			URL:         att.Get("content.downloadUrl").String(),
			Name:        att.Get("name").String(),
		}
		if file.URL == "" {
			file.URL = att.Get("contentUrl").String()
		}
		if file.URL != "" {
			ev.Attachments = append(ev.Attachments, file)
		}
	}

	return ev, nil
}

func parseValue(value gjson.Result) *Value {
	if value.Type == gjson.String {
		decoded := gjson.Parse(value.String())
		if !decoded.IsObject() {
			return nil
		}
		value = decoded
	}
	if !value.IsObject() {
		return nil
	}

	v := &Value{}
	if fields, ok := value.Value().(map[string]any); ok {
		v.Fields = fields
	}

	if action := value.Get("action"); present(action) {
		v.HasAction, v.Action = true, action.Value()
	}
	if option := value.Get("option"); present(option) {
		v.HasOption, v.Option = true, option.Value()
	}
	if field := value.Get(chatbot.ActionFieldPayloadKey); present(field) {
		v.HasActionField, v.ActionField = true, field.Value()
	}
	if index := value.Get("extendedContentAnswer"); present(index) {
		n := int(index.Int())
		v.ExtendedContentAnswer = &n
	}
	v.AskRatingComment = boolField(value, "askRatingComment")
	v.IsNegativeRating = boolField(value, "isNegativeRating")
	v.EscalateOption = boolField(value, "escalateOption")

	if rating := value.Get("ratingData"); present(rating) {
		v.HasRatingData = true
		kind, data := rating.Get("type"), rating.Get("data")
		if present(kind) && present(data) {
			fields, _ := data.Value().(map[string]any)
			v.RatingData = &message.RatingData{Type: kind.String(), Data: fields}
		}
	}

	return v
}

// encodedValue recognizes postback payloads that Teams echoed back as text.
func encodedValue(text string) *Value {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return nil
	}

	payload := gjson.Parse(trimmed)
	for _, key := range []string{"option", "escalateOption", "ratingData", "extendedContentAnswer", chatbot.ActionFieldPayloadKey} {
		if payload.Get(key).Exists() {
			return parseValue(payload)
		}
	}
	return nil
}

func boolField(value gjson.Result, key string) *bool {
	field := value.Get(key)
	if !present(field) {
		return nil
	}
	b := field.Bool()
	return &b
}

func account(value gjson.Result) Account {
	return Account{ID: value.Get("id").String(), Name: value.Get("name").String()}
}

// present mirrors "set and not null".
func present(value gjson.Result) bool {
	return value.Exists() && value.Type != gjson.Null
}
