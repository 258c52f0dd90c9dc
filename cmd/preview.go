package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"teamsbridge/pkg/card"
	"teamsbridge/pkg/message"
)

const dataURIPreview = 32

// previewTheme groups the styles of the terminal preview.
type previewTheme struct {
	box    lipgloss.Style
	title  lipgloss.Style
	text   lipgloss.Style
	meta   lipgloss.Style
	button lipgloss.Style
}

func defaultPreviewTheme() previewTheme {
	return previewTheme{
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("44")).
			Padding(0, 1),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("44")).
			Padding(0, 1),
		text: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		meta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("109")).
			Italic(true),
		button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
	}
}

// renderPreview draws one box per message, roughly as Teams would lay it out.
func renderPreview(msgs []message.Rich) string {
	theme := defaultPreviewTheme()
	if len(msgs) == 0 {
		return theme.meta.Render("(no messages)")
	}

	boxes := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		lines := []string{theme.title.Render(fmt.Sprintf("message %d", i+1))}
		lines = append(lines, previewMessage(theme, msg)...)
		boxes = append(boxes, theme.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func previewMessage(theme previewTheme, msg message.Rich) []string {
	var lines []string
	if text := strings.TrimSpace(msg.Text); text != "" {
		lines = append(lines, theme.text.Render(readableText(text)))
	}
	for _, el := range msg.Body {
		lines = append(lines, previewElement(theme, el)...)
	}
	for _, action := range msg.Actions {
		lines = append(lines, theme.button.Render("[ "+action.Title+" ]"))
	}
	for _, att := range msg.Attachments {
		lines = append(lines, previewAttachment(theme, att)...)
	}
	for _, att := range msg.Related {
		lines = append(lines, theme.meta.Render("related"))
		lines = append(lines, previewAttachment(theme, att)...)
	}
	return lines
}

func previewElement(theme previewTheme, el card.Element) []string {
	switch el.Type {
	case card.TypeTextBlock:
		return []string{theme.text.Render(readableText(el.Text))}
	case card.TypeImage:
		return []string{theme.meta.Render(fmt.Sprintf("[image: %s] %s", el.AltText, shortURL(el.URL)))}
	case card.TypeMedia:
		lines := make([]string, 0, len(el.Sources))
		for _, src := range el.Sources {
			lines = append(lines, theme.meta.Render(fmt.Sprintf("[media: %s] %s", src.MimeType, shortURL(src.URL))))
		}
		return lines
	case card.TypeChoiceSet:
		lines := make([]string, 0, len(el.Choices))
		for _, choice := range el.Choices {
			lines = append(lines, theme.text.Render("( ) "+choice.Title))
		}
		return lines
	default:
		return []string{theme.meta.Render("[" + el.Type + "]")}
	}
}

func previewAttachment(theme previewTheme, att card.Attachment) []string {
	if att.Content == nil {
		return []string{theme.meta.Render(fmt.Sprintf("[%s] %s", att.ContentType, shortURL(att.ContentURL)))}
	}

	var lines []string
	content := att.Content
	if content.Title != "" {
		lines = append(lines, theme.text.Bold(true).Render(content.Title))
	}
	if content.Text != "" {
		lines = append(lines, theme.text.Render(readableText(content.Text)))
	}
	for _, el := range content.Body {
		lines = append(lines, previewElement(theme, el)...)
	}
	for _, item := range content.Items {
		lines = append(lines, theme.text.Render("• "+item.Title))
	}
	for _, button := range content.Buttons {
		lines = append(lines, theme.button.Render("[ "+button.Title+" ]"))
	}
	for _, action := range content.Actions {
		lines = append(lines, theme.button.Render("[ "+action.Title+" ]"))
	}
	return lines
}

// readableText turns the line breaks Teams understands into terminal ones.
func readableText(text string) string {
	return strings.NewReplacer("<br><br>", "\n\n", "<br>", "\n", "\r", "\n").Replace(text)
}

func shortURL(url string) string {
	if !strings.HasPrefix(url, "data:") || len(url) <= dataURIPreview {
		return url
	}
	return fmt.Sprintf("%s... (%d bytes)", url[:dataURIPreview], len(url))
}
