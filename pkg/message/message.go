package message

import "teamsbridge/pkg/card"

// Inbound is the normalized message handed to the chatbot API client.
//
// Outside of MultipleOutput, exactly one of the plain text, option selection,
// rating event, escalation event or extended-content selection is meaningful.
// When MultipleOutput is set it supersedes every other field.
type Inbound struct {
	Message               string         `json:"message"`
	Option                any            `json:"option,omitempty"`
	Value                 map[string]any `json:"value,omitempty"`
	RatingData            *RatingData    `json:"ratingData,omitempty"`
	AskRatingComment      *bool          `json:"askRatingComment,omitempty"`
	IsNegativeRating      *bool          `json:"isNegativeRating,omitempty"`
	EscalateOption        *bool          `json:"escalateOption,omitempty"`
	ExtendedContentAnswer *int           `json:"extendedContentAnswer,omitempty"`
	MultipleOutput        []Inbound      `json:"multipleOutput,omitempty"`
}

// RatingData is the tracking event reported when the user rates an answer.
type RatingData struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// IsRating reports whether the message is a content-rating event.
func (m Inbound) IsRating() bool {
	return m.RatingData != nil
}

// IsEscalation reports whether the message answers the escalation prompt.
func (m Inbound) IsEscalation() bool {
	return m.EscalateOption != nil
}

// IsEmpty reports whether the message carries nothing for the backend, as
// produced for unrecognized events.
func (m Inbound) IsEmpty() bool {
	return m.Message == "" && m.Option == nil && len(m.Value) == 0 && m.RatingData == nil &&
		m.AskRatingComment == nil && m.IsNegativeRating == nil && m.EscalateOption == nil &&
		m.ExtendedContentAnswer == nil && len(m.MultipleOutput) == 0
}

// Flatten expands MultipleOutput into a flat list, preserving order.
func (m Inbound) Flatten() []Inbound {
	if len(m.MultipleOutput) == 0 {
		return []Inbound{m}
	}

	out := make([]Inbound, 0, len(m.MultipleOutput))
	for _, item := range m.MultipleOutput {
		out = append(out, item.Flatten()...)
	}
	return out
}

// Rich is one platform-native outbound message.
//
// A Rich message with a Body is sent as an Adaptive Card; otherwise Attachments
// are sent as-is. Related attachments go out as a separate follow-up activity.
type Rich struct {
	Text        string            `json:"text,omitempty"`
	Body        []card.Element    `json:"body,omitempty"`
	Attachments []card.Attachment `json:"attachments,omitempty"`
	Actions     []card.Action     `json:"actions,omitempty"`
	Related     []card.Attachment `json:"related,omitempty"`
}

// IsEmpty reports whether the message has nothing to render.
func (r Rich) IsEmpty() bool {
	return r.Text == "" && len(r.Body) == 0 && len(r.Attachments) == 0 && len(r.Related) == 0
}

// Text builds a plain text message.
func Text(text string) Rich {
	return Rich{Text: text}
}
