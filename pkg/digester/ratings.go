package digester

import "teamsbridge/pkg/chatbot"

var noRatingFlags = []string{
	chatbot.FlagEscalate,
	chatbot.FlagNoRating,
	chatbot.FlagFollowUpQuestion,
	chatbot.FlagEndForm,
}

// RateCode returns the code to rate a response with. Only plain answers
// carrying a rate code and none of the flags that suppress rating qualify;
// when several do, the last one wins.
func RateCode(resp chatbot.Response) (string, bool) {
	var code string
	for _, answer := range resp.Answers {
		if c, ok := answerRateCode(answer); ok {
			code = c
		}
	}
	return code, code != ""
}

func answerRateCode(a chatbot.Answer) (string, bool) {
	if a.Type != chatbot.TypeAnswer {
		return "", false
	}
	code := a.Parameters.Contents.TrackingCode.RateCode
	if code == "" {
		return "", false
	}
	for _, flag := range noRatingFlags {
		if a.HasFlag(flag) {
			return "", false
		}
	}
	return code, true
}
