package digester

import (
	"errors"
	"fmt"
	"strings"

	"teamsbridge/pkg/card"
	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/htmlblock"
	"teamsbridge/pkg/markdown"
	"teamsbridge/pkg/message"
	"teamsbridge/pkg/session"
)

// OutboundKind names the kind of a backend answer.
type OutboundKind string

const (
	OutboundActionField     OutboundKind = "actionField"
	OutboundAnswer          OutboundKind = "answer"
	OutboundPolarQuestion   OutboundKind = "polarQuestion"
	OutboundMultipleChoice  OutboundKind = "multipleChoiceQuestion"
	OutboundExtendedContent OutboundKind = "extendedContentsAnswer"
)

// MaxSubAnswers caps the extended-content buttons shown at once.
const MaxSubAnswers = 3

const (
	textJoin      = "<br><br>"
	sideBubbleSep = "\n"
)

type outboundTransform func(session.Session, chatbot.Answer) (message.Rich, error)

type outboundRoute struct {
	kind      OutboundKind
	match     func(chatbot.Answer) bool
	transform outboundTransform
}

func (d *Digester) outboundRoutes() []outboundRoute {
	return []outboundRoute{
		{kind: OutboundActionField, match: isActionField, transform: d.fromActionField},
		{kind: OutboundAnswer, match: isType(chatbot.TypeAnswer), transform: d.fromAnswer},
		{kind: OutboundPolarQuestion, match: isType(chatbot.TypePolarQuestion), transform: d.fromPolarQuestion},
		{kind: OutboundMultipleChoice, match: isType(chatbot.TypeMultipleChoiceQuestion), transform: d.fromMultipleChoice},
		{kind: OutboundExtendedContent, match: isType(chatbot.TypeExtendedContentsAnswer), transform: d.fromExtendedContents},
	}
}

func isActionField(a chatbot.Answer) bool {
	return a.Type == chatbot.TypeAnswer && !a.ActionField.IsEmpty()
}

func isType(kind string) func(chatbot.Answer) bool {
	return func(a chatbot.Answer) bool { return a.Type == kind }
}

// ClassifyOutbound returns the kind of an answer. Answers no kind accepts
// yield an error matching ErrUnclassifiedAnswer.
func (d *Digester) ClassifyOutbound(a chatbot.Answer) (OutboundKind, error) {
	route, err := d.routeOutbound(a)
	if err != nil {
		return "", err
	}
	return route.kind, nil
}

func (d *Digester) routeOutbound(a chatbot.Answer) (outboundRoute, error) {
	for _, route := range d.outbound {
		if route.match(a) {
			return route, nil
		}
	}
	return outboundRoute{}, NewError(ErrorUnclassifiedAnswer, fmt.Sprintf("answer type %q", a.Type))
}

// DigestFromAPI converts every answer of a response. Answers are digested
// independently: failures are joined into the returned error while the
// messages of the other answers are still returned, in order.
func (d *Digester) DigestFromAPI(sess session.Session, resp chatbot.Response) ([]message.Rich, error) {
	out := make([]message.Rich, 0, len(resp.Answers))
	var errs []error
	for i, answer := range resp.Answers {
		msg, err := d.DigestAnswer(sess, answer)
		if err != nil {
			d.log.Error("digest answer", "index", i, "type", answer.Type, "error", err)
			errs = append(errs, fmt.Errorf("answer %d: %w", i, err))
			continue
		}
		out = append(out, msg)
	}
	return out, errors.Join(errs...)
}

// DigestAnswer converts a single answer.
func (d *Digester) DigestAnswer(sess session.Session, a chatbot.Answer) (message.Rich, error) {
	route, err := d.routeOutbound(a)
	if err != nil {
		return message.Rich{}, err
	}
	return route.transform(sess, a)
}

func (d *Digester) fromAnswer(_ session.Session, a chatbot.Answer) (message.Rich, error) {
	text := a.Message
	if side, ok := a.StringAttribute(chatbot.AttributeSideBubble); ok && strings.TrimSpace(side) != "" {
		text += sideBubbleSep + side
	}

	var out message.Rich
	if !markdown.HasMarkup(text) {
		out.Text = text
	} else {
		body := d.renderBlocks(d.extractor.Extract(text))
		if texts, ok := onlyText(body); ok {
			out.Text = strings.Join(texts, textJoin)
		} else {
			out.Body = body
		}
	}

	out.Related = d.relatedAttachments(a.Parameters.Contents.Related)
	return out, nil
}

func (d *Digester) renderBlocks(blocks []htmlblock.Block) []card.Element {
	body := make([]card.Element, 0, len(blocks))
	for _, block := range blocks {
		switch block.Kind {
		case htmlblock.KindMedia:
			body = append(body, card.Media(block.Src, block.MimeType))
		case htmlblock.KindImage:
			body = append(body, card.Image(block.Src, block.Alt))
		case htmlblock.KindLink:
			body = append(body, card.TextBlock("["+block.Src+"]("+block.Src+")"))
		default:
			if text := markdown.ToMarkdown(block.HTML); strings.TrimSpace(text) != "" {
				body = append(body, card.TextBlock(text))
			}
		}
	}
	return body
}

// onlyText returns the texts of body when every element is a text block.
func onlyText(body []card.Element) ([]string, bool) {
	texts := make([]string, 0, len(body))
	for _, el := range body {
		if el.Type != card.TypeTextBlock {
			return nil, false
		}
		texts = append(texts, el.Text)
	}
	return texts, true
}

func (d *Digester) relatedAttachments(related *chatbot.Related) []card.Attachment {
	if related == nil || len(related.RelatedContents) == 0 {
		return nil
	}

	items := make([]card.ListItem, 0, len(related.RelatedContents))
	for _, content := range related.RelatedContents {
		items = append(items, card.ResultItem(d.cfg.IconMultiOptions, chatbot.ValueString(content.ID), content.Title, content.ID))
	}
	return []card.Attachment{card.ListCard(related.RelatedTitle, items)}
}

func (d *Digester) fromActionField(_ session.Session, a chatbot.Answer) (message.Rich, error) {
	out := message.Rich{Text: a.Message}
	field := a.ActionField

	if field.ListValues != nil {
		values := field.ListValues.Values
		switch field.ListValues.DisplayType {
		case chatbot.DisplayTypeDropdown:
			choices := make([]card.Choice, 0, len(values))
			for _, value := range values {
				choices = append(choices, card.Choice{Title: value.Title(), Value: chatbot.ValueString(value.Option)})
			}
			out.Body = []card.Element{card.ChoiceSet(chatbot.ActionFieldPayloadKey, choices)}
			out.Actions = []card.Action{card.Submit(d.lang.Translate("validate"), map[string]string{
				"action": chatbot.ActionFieldPayloadKey,
			})}
		case chatbot.DisplayTypeButtons:
			if len(values) == 0 {
				if err := d.violation(OutboundActionField, "buttons without values"); err != nil {
					return message.Rich{}, err
				}
				break
			}
			buttons := make([]card.Button, 0, len(values))
			for _, value := range values {
				buttons = append(buttons, card.EncodedPostBack(value.Title(), map[string]any{
					chatbot.ActionFieldPayloadKey: value.Option,
				}))
			}
			out.Attachments = []card.Attachment{card.ThumbnailCard(a.Message, buttons)}
		}
	}

	if field.FieldType == chatbot.FieldTypeDatePicker {
		out.Text += " (" + d.lang.Translate("date_format") + ")"
	}
	return out, nil
}

func (d *Digester) fromMultipleChoice(_ session.Session, a chatbot.Answer) (message.Rich, error) {
	out := message.Rich{Text: a.Message}
	if len(a.Options) == 0 {
		return out, d.violation(OutboundMultipleChoice, "no options")
	}

	items := make([]card.ListItem, 0, len(a.Options))
	for _, option := range a.Options {
		title := option.Label
		if custom, ok := option.StringAttribute(d.cfg.ButtonTitle); ok {
			title = custom
		}
		items = append(items, card.ResultItem(d.cfg.IconMultiOptions, chatbot.ValueString(option.Value), title, option.Value))
	}
	out.Attachments = []card.Attachment{card.ListCard("", items)}
	return out, nil
}

func (d *Digester) fromPolarQuestion(_ session.Session, a chatbot.Answer) (message.Rich, error) {
	if len(a.Options) == 0 {
		if err := d.violation(OutboundPolarQuestion, "no options"); err != nil {
			return message.Rich{}, err
		}
	}

	buttons := make([]card.Button, 0, len(a.Options))
	for _, option := range a.Options {
		buttons = append(buttons, card.PostBack(d.lang.Translate(option.Label), option.Value))
	}
	return message.Rich{Attachments: []card.Attachment{card.HeroCard(a.Message, buttons)}}, nil
}

func (d *Digester) fromExtendedContents(sess session.Session, a chatbot.Answer) (message.Rich, error) {
	if sess == nil {
		return message.Rich{}, NewError(ErrorSession, "extended contents need a session")
	}

	subAnswers := a.SubAnswers[:min(len(a.SubAnswers), MaxSubAnswers)]
	if err := sess.Set(session.KeySubAnswers, subAnswers); err != nil {
		return message.Rich{}, &Error{Category: ErrorSession, Detail: "store sub-answers", Err: err}
	}

	buttons := make([]card.Button, 0, len(subAnswers))
	for i, sub := range subAnswers {
		title := sub.Parameters.Contents.Title
		if custom, ok := sub.StringAttribute(d.cfg.ButtonTitle); ok {
			title = custom
		}
		if title == "" {
			if err := d.violation(OutboundExtendedContent, fmt.Sprintf("sub-answer %d has no title", i)); err != nil {
				return message.Rich{}, err
			}
			title = d.lang.Translate("read_answer")
		}
		buttons = append(buttons, card.PostBack(title, map[string]int{"extendedContentAnswer": i}))
	}

	return message.Rich{
		Text:        a.Message,
		Attachments: []card.Attachment{card.ThumbnailCard("", buttons)},
	}, nil
}

// SubAnswer returns the extended-content sub-answer selected by index, as
// stored by the last extended contents answer.
func SubAnswer(sess session.Session, index int) (chatbot.Answer, bool, error) {
	var subAnswers []chatbot.Answer
	found, err := sess.Get(session.KeySubAnswers, &subAnswers)
	if err != nil {
		return chatbot.Answer{}, false, &Error{Category: ErrorSession, Detail: "load sub-answers", Err: err}
	}
	if !found || index < 0 || index >= len(subAnswers) {
		return chatbot.Answer{}, false, nil
	}
	return subAnswers[index], true, nil
}
