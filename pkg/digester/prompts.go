package digester

import (
	"teamsbridge/pkg/card"
	"teamsbridge/pkg/config"
	"teamsbridge/pkg/message"
)

type escalationPayload struct {
	EscalateOption bool `json:"escalateOption"`
}

type ratingPayload struct {
	AskRatingComment bool        `json:"askRatingComment"`
	IsNegativeRating bool        `json:"isNegativeRating"`
	RatingData       ratingEvent `json:"ratingData"`
}

type ratingEvent struct {
	Type string     `json:"type"`
	Data ratingInfo `json:"data"`
}

type ratingInfo struct {
	Type    string  `json:"type"`
	Code    string  `json:"code"`
	Value   int     `json:"value"`
	Comment *string `json:"comment"`
}

// BuildEscalationMessage asks the user whether to talk to a human agent.
func (d *Digester) BuildEscalationMessage() message.Rich {
	buttons := []card.Button{
		card.EncodedPostBack(d.lang.Translate("yes"), escalationPayload{EscalateOption: true}),
		card.EncodedPostBack(d.lang.Translate("no"), escalationPayload{EscalateOption: false}),
	}
	return message.Rich{Attachments: []card.Attachment{
		card.ThumbnailCard(d.lang.Translate("ask-to-escalate"), buttons),
	}}
}

// BuildContentRatingsMessage asks the user to rate the answer identified by
// rateCode, with one button per rating option. No options yield an empty message.
func (d *Digester) BuildContentRatingsMessage(ratings []config.RatingOption, rateCode string) message.Rich {
	if len(ratings) == 0 {
		return message.Rich{}
	}

	buttons := make([]card.Button, 0, len(ratings))
	for _, rating := range ratings {
		buttons = append(buttons, card.EncodedPostBack(d.lang.Translate(rating.Label), ratingPayload{
			AskRatingComment: rating.Comment,
			IsNegativeRating: rating.IsNegative,
			RatingData: ratingEvent{
				Type: "rate",
				Data: ratingInfo{Type: "rate", Code: rateCode, Value: rating.ID},
			},
		}))
	}
	return message.Rich{Attachments: []card.Attachment{
		card.ThumbnailCard(d.lang.Translate("rate-content-intro"), buttons),
	}}
}
