// Package card builds the Microsoft Teams UI primitives the digester emits:
// Adaptive Card elements, card attachments, buttons and list items.
package card

import "encoding/json"

// Attachment content types understood by Teams.
const (
	ContentTypeAdaptive  = "application/vnd.microsoft.card.adaptive"
	ContentTypeThumbnail = "application/vnd.microsoft.card.thumbnail"
	ContentTypeHero      = "application/vnd.microsoft.card.hero"
	ContentTypeList      = "application/vnd.microsoft.teams.card.list"
)

// Adaptive Card element types.
const (
	TypeTextBlock     = "TextBlock"
	TypeRichTextBlock = "RichTextBlock"
	TypeTextRun       = "TextRun"
	TypeImage         = "Image"
	TypeMedia         = "Media"
	TypeChoiceSet     = "Input.ChoiceSet"
	TypeSubmit        = "Action.Submit"
	TypePostBack      = "postBack"
	TypeResultItem    = "resultItem"

	adaptiveCardVersion = "1.0"
	defaultImageAlt     = "image"
	// MediaPoster is shown by Teams before a media element starts playing.
	MediaPoster = "https://adaptivecards.io/content/poster-video.png"
)

// Element is one Adaptive Card body element. Only the fields relevant to Type are set.
type Element struct {
	Type          string        `json:"type"`
	ID            string        `json:"id,omitempty"`
	Text          string        `json:"text,omitempty"`
	Wrap          bool          `json:"wrap,omitempty"`
	DataContext   string        `json:"$data,omitempty"`
	URL           string        `json:"url,omitempty"`
	AltText       string        `json:"altText,omitempty"`
	Poster        string        `json:"poster,omitempty"`
	Sources       []MediaSource `json:"sources,omitempty"`
	Inlines       []Inline      `json:"inlines,omitempty"`
	IsMultiSelect *bool         `json:"isMultiSelect,omitempty"`
	Value         string        `json:"value,omitempty"`
	Choices       []Choice      `json:"choices,omitempty"`
}

// MediaSource is one playable source of a Media element.
type MediaSource struct {
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
}

// Inline is one run of text inside a RichTextBlock.
type Inline struct {
	Type string `json:"type"`
	Wrap bool   `json:"wrap,omitempty"`
	Text string `json:"text"`
}

// Choice is one selectable entry of an Input.ChoiceSet.
type Choice struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Action is an Adaptive Card action, e.g. the submit button under a choice set.
type Action struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Data  map[string]string `json:"data,omitempty"`
}

// Attachment is a Bot Framework activity attachment.
type Attachment struct {
	ContentType string   `json:"contentType"`
	ContentURL  string   `json:"contentUrl,omitempty"`
	Name        string   `json:"name,omitempty"`
	Content     *Content `json:"content,omitempty"`
}

// Content is the union of the card payloads used by the digester
// (thumbnail, hero, list and adaptive cards).
type Content struct {
	Type    string     `json:"type,omitempty"`
	Version string     `json:"version,omitempty"`
	Title   string     `json:"title,omitempty"`
	Text    string     `json:"text,omitempty"`
	Wrap    bool       `json:"wrap,omitempty"`
	Buttons []Button   `json:"buttons,omitempty"`
	Items   []ListItem `json:"items,omitempty"`
	Body    []Element  `json:"body,omitempty"`
	Actions []Action   `json:"actions,omitempty"`
}

// Button is a card button. Value is either a plain value or an encoded payload.
type Button struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Value any    `json:"value"`
}

// ListItem is one entry of a Teams list card.
type ListItem struct {
	Type  string `json:"type"`
	Icon  string `json:"icon,omitempty"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Tap   Tap    `json:"tap"`
}

// Tap is the action fired when a list item is selected.
type Tap struct {
	Type        string `json:"type"`
	DisplayText string `json:"displayText"`
	Value       string `json:"value"`
}

// TextBlockOption customizes a TextBlock or RichTextBlock.
type TextBlockOption func(*Element)

// WithID sets the element identifier.
func WithID(id string) TextBlockOption {
	return func(e *Element) { e.ID = id }
}

// WithDataContext sets the templating data context ($data).
func WithDataContext(data string) TextBlockOption {
	return func(e *Element) { e.DataContext = data }
}

// TextBlock builds a wrapping TextBlock.
func TextBlock(text string, opts ...TextBlockOption) Element {
	el := Element{Type: TypeTextBlock, Text: text, Wrap: true}
	for _, opt := range opts {
		opt(&el)
	}
	return el
}

// RichTextBlock builds a RichTextBlock with one TextRun per non-empty string.
func RichTextBlock(texts []string, opts ...TextBlockOption) Element {
	el := Element{Type: TypeRichTextBlock, Wrap: true, Inlines: []Inline{}}
	for _, text := range texts {
		if text == "" {
			continue
		}
		el.Inlines = append(el.Inlines, Inline{Type: TypeTextRun, Wrap: true, Text: text})
	}
	for _, opt := range opts {
		opt(&el)
	}
	return el
}

// ChoiceSet builds a single-select Input.ChoiceSet.
func ChoiceSet(id string, choices []Choice) Element {
	single := false
	return Element{
		Type:          TypeChoiceSet,
		ID:            id,
		Wrap:          true,
		IsMultiSelect: &single,
		Value:         "1",
		Choices:       choices,
	}
}

// Image builds an Image element; an empty alt falls back to a generic label.
func Image(url, alt string) Element {
	if alt == "" {
		alt = defaultImageAlt
	}
	return Element{Type: TypeImage, AltText: alt, URL: url}
}

// Media builds a Media element with a single source.
func Media(url, mimeType string) Element {
	return Element{
		Type:    TypeMedia,
		Poster:  MediaPoster,
		Sources: []MediaSource{{MimeType: mimeType, URL: url}},
	}
}

// Submit builds the Action.Submit posting data back to the bot.
func Submit(title string, data map[string]string) Action {
	return Action{Type: TypeSubmit, Title: title, Data: data}
}

// PostBack builds a postBack button.
func PostBack(title string, value any) Button {
	return Button{Type: TypePostBack, Title: title, Value: value}
}

// EncodedPostBack builds a postBack button whose value is payload encoded as a JSON string.
func EncodedPostBack(title string, payload any) Button {
	return PostBack(title, Encode(payload))
}

// ResultItem builds a list-card item that posts back {"option": value} when tapped.
func ResultItem(icon, id, title string, value any) ListItem {
	return ListItem{
		Type:  TypeResultItem,
		Icon:  icon,
		ID:    id,
		Title: title,
		Tap: Tap{
			Type:        TypePostBack,
			DisplayText: title,
			Value:       Encode(map[string]any{"option": value}),
		},
	}
}

// ThumbnailCard builds a thumbnail card attachment.
func ThumbnailCard(text string, buttons []Button) Attachment {
	return Attachment{
		ContentType: ContentTypeThumbnail,
		Content:     &Content{Text: text, Wrap: text != "", Buttons: buttons},
	}
}

// HeroCard builds a hero card attachment.
func HeroCard(text string, buttons []Button) Attachment {
	return Attachment{
		ContentType: ContentTypeHero,
		Content:     &Content{Text: text, Wrap: true, Buttons: buttons},
	}
}

// ListCard builds a Teams list card attachment.
func ListCard(title string, items []ListItem) Attachment {
	return Attachment{
		ContentType: ContentTypeList,
		Content:     &Content{Title: title, Items: items},
	}
}

// AdaptiveCard wraps body elements and actions into an Adaptive Card attachment.
func AdaptiveCard(body []Element, actions []Action) Attachment {
	return Attachment{
		ContentType: ContentTypeAdaptive,
		Content: &Content{
			Type:    "AdaptiveCard",
			Version: adaptiveCardVersion,
			Body:    body,
			Actions: actions,
		},
	}
}

// Encode marshals a postback payload to its JSON string form.
func Encode(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}
