package digester

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"teamsbridge/pkg/card"
	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/config"
	"teamsbridge/pkg/session"
)

func decode(t *testing.T, raw string) chatbot.Response {
	t.Helper()

	resp, err := chatbot.Decode([]byte(raw))
	require.NoError(t, err)
	return resp
}

func TestClassifyOutbound(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	tests := []struct {
		raw  string
		want OutboundKind
	}{
		{`{"type":"answer","message":"hi","actionField":{"fieldType":"datePicker"}}`, OutboundActionField},
		{`{"type":"answer","message":"hi","actionField":false}`, OutboundAnswer},
		{`{"type":"answer","message":"hi"}`, OutboundAnswer},
		{`{"type":"polarQuestion","message":"ok?"}`, OutboundPolarQuestion},
		{`{"type":"multipleChoiceQuestion","message":"which?"}`, OutboundMultipleChoice},
		{`{"type":"extendedContentsAnswer","message":"see"}`, OutboundExtendedContent},
	}

	for _, tt := range tests {
		got, err := d.ClassifyOutbound(decode(t, tt.raw).Answers[0])
		if err != nil {
			t.Fatalf("ClassifyOutbound(%s) error = %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ClassifyOutbound(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	_, err := d.ClassifyOutbound(chatbot.Answer{Type: "carousel"})
	if !errors.Is(err, ErrUnclassifiedAnswer) {
		t.Fatalf("expected ErrUnclassifiedAnswer, got %v", err)
	}
}

func TestAnswerPlainText(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:       chatbot.TypeAnswer,
		Message:    "hello",
		Attributes: map[string]any{chatbot.AttributeSideBubble: "more"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello\nmore", msg.Text)
	require.Empty(t, msg.Body)
}

func TestAnswerIgnoresBlankSideBubble(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:       chatbot.TypeAnswer,
		Message:    "hello",
		Attributes: map[string]any{chatbot.AttributeSideBubble: "  "},
	})
	require.NoError(t, err)
	require.Equal(t, "hello", msg.Text)
}

func TestAnswerCollapsesTextBlocks(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:    chatbot.TypeAnswer,
		Message: "<p>Hello <b>you</b></p><p>World</p>",
	})
	require.NoError(t, err)
	require.Empty(t, msg.Body)
	require.Equal(t, "Hello **you**\r"+textJoin+"World\r", msg.Text)
}

func TestAnswerKeepsBodyWithImage(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:    chatbot.TypeAnswer,
		Message: `<p>Look</p><img src="https://x/a.png" alt="A diagram">`,
	})
	require.NoError(t, err)
	require.Empty(t, msg.Text)
	require.Equal(t, []card.Element{
		card.TextBlock("Look\r"),
		card.Image("https://x/a.png", "A diagram"),
	}, msg.Body)
}

func TestAnswerRendersTableAndIframe(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:    chatbot.TypeAnswer,
		Message: `<table><tr><td>a</td><td>b</td></tr></table><iframe src="https://v/1"></iframe>`,
	})
	require.NoError(t, err)
	require.Len(t, msg.Body, 2)

	require.Equal(t, card.TypeImage, msg.Body[0].Type)
	require.Equal(t, "table data", msg.Body[0].AltText)
	require.True(t, strings.HasPrefix(msg.Body[0].URL, "data:image/jpeg;base64,"))

	require.Equal(t, card.TextBlock("[https://v/1](https://v/1)"), msg.Body[1])
}

func TestAnswerSkipsEmptyTextBlocks(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:    chatbot.TypeAnswer,
		Message: `<div><span></span></div><img src="https://x/a.png">`,
	})
	require.NoError(t, err)
	require.Equal(t, []card.Element{card.Image("https://x/a.png", "")}, msg.Body)
}

func TestAnswerRelatedContent(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{IconMultiOptions: "https://icons/opt.png"})

	resp := decode(t, `{"type":"answer","message":"<p>Main</p>","parameters":{"contents":{
		"related":{"relatedTitle":"See also","relatedContents":[{"id":12,"title":"First"},{"id":"x","title":"Second"}]}
	}}}`)

	msg, err := d.DigestAnswer(nil, resp.Answers[0])
	require.NoError(t, err)
	require.Equal(t, "Main\r", msg.Text)
	require.Len(t, msg.Related, 1)

	list := msg.Related[0]
	require.Equal(t, card.ContentTypeList, list.ContentType)
	require.Equal(t, "See also", list.Content.Title)
	require.Len(t, list.Content.Items, 2)
	require.Equal(t, "12", list.Content.Items[0].ID)
	require.Equal(t, "https://icons/opt.png", list.Content.Items[0].Icon)
	require.Equal(t, `{"option":12}`, list.Content.Items[0].Tap.Value)
	require.Equal(t, `{"option":"x"}`, list.Content.Items[1].Tap.Value)
}

func TestActionFieldDropdown(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	resp := decode(t, `{"type":"answer","message":"Pick a color","actionField":{
		"fieldType":"list",
		"listValues":{"displayType":"dropdown","values":[
			{"label":["Red","Rouge"],"option":"r"},
			{"label":["Blue"],"option":"b"}
		]}
	}}`)

	msg, err := d.DigestAnswer(nil, resp.Answers[0])
	require.NoError(t, err)
	require.Equal(t, "Pick a color", msg.Text)
	require.Equal(t, []card.Element{card.ChoiceSet("ACTIONFIELD", []card.Choice{
		{Title: "Red", Value: "r"},
		{Title: "Blue", Value: "b"},
	})}, msg.Body)
	require.Equal(t, []card.Action{card.Submit("Confirm", map[string]string{"action": "ACTIONFIELD"})}, msg.Actions)
}

func TestActionFieldButtons(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	resp := decode(t, `{"type":"answer","message":"Size?","actionField":{
		"fieldType":"list",
		"listValues":{"displayType":"buttons","values":[{"label":["S"],"option":"s"},{"label":["L"],"option":2}]}
	}}`)

	msg, err := d.DigestAnswer(nil, resp.Answers[0])
	require.NoError(t, err)
	require.Equal(t, "Size?", msg.Text)
	require.Len(t, msg.Attachments, 1)

	thumb := msg.Attachments[0]
	require.Equal(t, card.ContentTypeThumbnail, thumb.ContentType)
	require.Equal(t, "Size?", thumb.Content.Text)
	require.Equal(t, []card.Button{
		card.PostBack("S", `{"ACTIONFIELD":"s"}`),
		card.PostBack("L", `{"ACTIONFIELD":2}`),
	}, thumb.Content.Buttons)
}

func TestActionFieldDatePicker(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	resp := decode(t, `{"type":"answer","message":"When?","actionField":{"fieldType":"datePicker"}}`)

	msg, err := d.DigestAnswer(nil, resp.Answers[0])
	require.NoError(t, err)
	require.Equal(t, "When? (date format: mm/dd/YYYY)", msg.Text)
	require.Empty(t, msg.Attachments)
}

func TestMultipleChoiceRoundTrip(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	resp := decode(t, `{"type":"multipleChoiceQuestion","message":"Which one?","options":[
		{"label":"A","value":"1"},
		{"label":"B","value":"2"}
	]}`)

	msg, err := d.DigestAnswer(nil, resp.Answers[0])
	require.NoError(t, err)
	require.Equal(t, "Which one?", msg.Text)
	require.Len(t, msg.Attachments, 1)

	items := msg.Attachments[0].Content.Items
	require.Len(t, items, 2)
	require.Equal(t, `{"option":"1"}`, items[0].Tap.Value)
	require.Equal(t, `{"option":"2"}`, items[1].Tap.Value)
	require.Equal(t, "A", items[0].Title)
}

func TestMultipleChoicePrefersConfiguredTitle(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{ButtonTitle: "short"})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:    chatbot.TypeMultipleChoiceQuestion,
		Message: "Which one?",
		Options: []chatbot.Option{
			{Label: "A long label", Value: "1", Attributes: map[string]any{"short": "A"}},
			{Label: "B", Value: "2"},
		},
	})
	require.NoError(t, err)

	items := msg.Attachments[0].Content.Items
	require.Equal(t, "A", items[0].Title)
	require.Equal(t, "B", items[1].Title)
}

func TestPolarQuestion(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	msg, err := d.DigestAnswer(nil, chatbot.Answer{
		Type:    chatbot.TypePolarQuestion,
		Message: "Did it work?",
		Options: []chatbot.Option{{Label: "yes", Value: "yes"}, {Label: "no", Value: "no"}},
	})
	require.NoError(t, err)
	require.Empty(t, msg.Text)
	require.Equal(t, []card.Attachment{card.HeroCard("Did it work?", []card.Button{
		card.PostBack("Yes", "yes"),
		card.PostBack("No", "no"),
	})}, msg.Attachments)
}

func TestExtendedContentsCap(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	for _, n := range []int{0, 1, 3, 10} {
		t.Run(fmt.Sprintf("%d sub-answers", n), func(t *testing.T) {
			answer := chatbot.Answer{Type: chatbot.TypeExtendedContentsAnswer, Message: "Pick one"}
			for i := range n {
				sub := chatbot.Answer{Type: chatbot.TypeAnswer, Message: fmt.Sprintf("body %d", i)}
				sub.Parameters.Contents.Title = fmt.Sprintf("Title %d", i)
				answer.SubAnswers = append(answer.SubAnswers, sub)
			}

			sess := session.NewMemory()
			msg, err := d.DigestAnswer(sess, answer)
			require.NoError(t, err)

			want := min(n, MaxSubAnswers)
			require.Equal(t, "Pick one", msg.Text)
			require.Len(t, msg.Attachments, 1)
			buttons := msg.Attachments[0].Content.Buttons
			require.Len(t, buttons, want)
			for i, button := range buttons {
				require.Equal(t, fmt.Sprintf("Title %d", i), button.Title)
				require.Equal(t, map[string]int{"extendedContentAnswer": i}, button.Value)
			}

			var stored []chatbot.Answer
			found, err := sess.Get(session.KeySubAnswers, &stored)
			require.NoError(t, err)
			require.True(t, found)
			require.Len(t, stored, want)
		})
	}
}

func TestSubAnswerLookup(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{ButtonTitle: "button"})
	sess := session.NewMemory()

	answer := chatbot.Answer{Type: chatbot.TypeExtendedContentsAnswer, SubAnswers: []chatbot.Answer{
		{Type: chatbot.TypeAnswer, Message: "first", Attributes: map[string]any{"button": "One"}},
		{Type: chatbot.TypeAnswer, Message: "second"},
	}}

	msg, err := d.DigestAnswer(sess, answer)
	require.NoError(t, err)

	buttons := msg.Attachments[0].Content.Buttons
	require.Equal(t, "One", buttons[0].Title)
	require.Equal(t, "Read this response", buttons[1].Title)

	sub, ok, err := SubAnswer(sess, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", sub.Message)

	_, ok, err = SubAnswer(sess, 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExtendedContentsNeedSession(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	_, err := d.DigestAnswer(nil, chatbot.Answer{Type: chatbot.TypeExtendedContentsAnswer})
	require.Error(t, err)
	require.Equal(t, ErrorSession, CategoryFromError(err))
}

func TestDigestFromAPIKeepsGoodAnswers(t *testing.T) {
	d := newTestDigester(t, config.DigesterConfig{})

	resp := decode(t, `{"answers":[
		{"type":"answer","message":"first"},
		{"type":"carousel","message":"?"},
		{"type":"answer","message":"third"}
	]}`)

	msgs, err := d.DigestFromAPI(nil, resp)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnclassifiedAnswer))
	require.Equal(t, ErrorUnclassifiedAnswer, CategoryFromError(err))

	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Text)
	require.Equal(t, "third", msgs[1].Text)
}

func TestStrictModeRejectsContractViolations(t *testing.T) {
	answer := chatbot.Answer{Type: chatbot.TypeMultipleChoiceQuestion, Message: "Which?"}

	lenient := newTestDigester(t, config.DigesterConfig{})
	msg, err := lenient.DigestAnswer(nil, answer)
	require.NoError(t, err)
	require.Equal(t, "Which?", msg.Text)
	require.Empty(t, msg.Attachments)

	strict := newTestDigester(t, config.DigesterConfig{Strict: true})
	_, err = strict.DigestAnswer(nil, answer)
	require.Error(t, err)
	require.Equal(t, ErrorContractViolation, CategoryFromError(err))
}
