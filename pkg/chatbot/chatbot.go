// Package chatbot models the answer protocol of the conversational backend.
// Values are decoded once at the boundary and treated as read-only afterwards.
package chatbot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Answer types sent by the backend.
const (
	TypeAnswer                 = "answer"
	TypePolarQuestion          = "polarQuestion"
	TypeMultipleChoiceQuestion = "multipleChoiceQuestion"
	TypeExtendedContentsAnswer = "extendedContentsAnswer"
)

// Flags that suppress the content-rating prompt.
const (
	FlagEscalate         = "escalate"
	FlagNoRating         = "no-rating"
	FlagFollowUpQuestion = "follow-up-question"
	FlagEndForm          = "end-form"
)

const (
	// AttributeSideBubble holds text appended below the answer body.
	AttributeSideBubble = "SIDEBUBBLE_TEXT"

	DisplayTypeDropdown = "dropdown"
	DisplayTypeButtons  = "buttons"
	FieldTypeDatePicker = "datePicker"

	// ActionFieldPayloadKey tags postbacks answering an action field.
	ActionFieldPayloadKey = "ACTIONFIELD"
)

// Response is the body of a backend reply. The backend sends either an
// object with an "answers" list or a single bare answer.
type Response struct {
	Answers []Answer `json:"answers"`
}

// UnmarshalJSON accepts both the list form and the single-answer form.
func (r *Response) UnmarshalJSON(data []byte) error {
	var probe struct {
		Answers json.RawMessage `json:"answers"`
		Type    *string         `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode chatbot response: %w", err)
	}

	if len(probe.Answers) > 0 && !bytes.Equal(probe.Answers, []byte("null")) {
		var answers []Answer
		if err := json.Unmarshal(probe.Answers, &answers); err != nil {
			return fmt.Errorf("decode chatbot answers: %w", err)
		}
		r.Answers = answers
		return nil
	}

	if probe.Type == nil {
		return fmt.Errorf("unknown chatbot response: %s", compact(data))
	}

	var single Answer
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("decode chatbot answer: %w", err)
	}
	r.Answers = []Answer{single}
	return nil
}

// Decode parses a backend response.
func Decode(data []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Answer is one backend answer.
type Answer struct {
	Type        string         `json:"type"`
	Message     string         `json:"message"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Parameters  Parameters     `json:"parameters"`
	ActionField ActionField    `json:"actionField,omitzero"`
	Options     []Option       `json:"options,omitempty"`
	SubAnswers  []Answer       `json:"subAnswers,omitempty"`
	Flags       []string       `json:"flags,omitempty"`
}

// Parameters wraps the answer contents.
type Parameters struct {
	Contents Contents `json:"contents"`
}

// Contents carries the answer title, related items and tracking codes.
type Contents struct {
	Title        string       `json:"title,omitempty"`
	Related      *Related     `json:"related,omitempty"`
	TrackingCode TrackingCode `json:"trackingCode,omitzero"`
}

// Related is the "you may also be interested in" block of an answer.
type Related struct {
	RelatedTitle    string           `json:"relatedTitle"`
	RelatedContents []RelatedContent `json:"relatedContents"`
}

// RelatedContent is one related item. ID is kept raw so it round-trips as sent.
type RelatedContent struct {
	ID    any    `json:"id"`
	Title string `json:"title"`
}

// TrackingCode holds the opaque codes used to report events on an answer.
type TrackingCode struct {
	RateCode string `json:"rateCode,omitempty"`
}

// Option is a selectable option of a polar or multiple-choice question.
type Option struct {
	Label      string         `json:"label"`
	Value      any            `json:"value"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// ActionField describes a form field the user must fill in.
type ActionField struct {
	FieldType  string      `json:"fieldType,omitempty"`
	ListValues *ListValues `json:"listValues,omitempty"`

	raw json.RawMessage
}

// UnmarshalJSON keeps the raw descriptor so emptiness can be judged on what was sent.
func (f *ActionField) UnmarshalJSON(data []byte) error {
	f.raw = append(json.RawMessage(nil), data...)
	if f.IsEmpty() {
		return nil
	}

	type plain ActionField
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decode action field: %w", err)
	}
	*f = ActionField(decoded)
	f.raw = append(json.RawMessage(nil), data...)
	return nil
}

// IsEmpty reports whether the descriptor is absent, null, false, or an empty object, array or string.
func (f ActionField) IsEmpty() bool {
	if len(f.raw) == 0 {
		return f.FieldType == "" && f.ListValues == nil
	}
	switch strings.TrimSpace(string(f.raw)) {
	case "", "null", "false", "{}", "[]", `""`, "0":
		return true
	}
	return false
}

// ListValues describes how the field values are presented.
type ListValues struct {
	DisplayType string      `json:"displayType"`
	Values      []ListValue `json:"values"`
}

// ListValue is one selectable action-field value.
type ListValue struct {
	Label  []string `json:"label"`
	Option any      `json:"option"`
}

// Title returns the first label, which is the one shown to the user.
func (v ListValue) Title() string {
	if len(v.Label) == 0 {
		return ""
	}
	return v.Label[0]
}

// StringAttribute returns a string attribute of the answer.
func (a Answer) StringAttribute(name string) (string, bool) {
	return stringAttribute(a.Attributes, name)
}

// HasFlag reports whether the answer carries flag.
func (a Answer) HasFlag(flag string) bool {
	return slices.Contains(a.Flags, flag)
}

// StringAttribute returns a string attribute of the option.
func (o Option) StringAttribute(name string) (string, bool) {
	return stringAttribute(o.Attributes, name)
}

func stringAttribute(attrs map[string]any, name string) (string, bool) {
	if name == "" || attrs == nil {
		return "", false
	}
	value, ok := attrs[name].(string)
	if !ok {
		return "", false
	}
	return value, true
}

// ValueString renders an option or identifier value as the text the user sees.
func ValueString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func compact(data []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return string(data)
	}
	return buf.String()
}
