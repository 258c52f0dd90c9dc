package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/digester"
	"teamsbridge/pkg/message"
	"teamsbridge/pkg/session"
	"teamsbridge/pkg/teams"
)

type outputMode int

const (
	outputMessages outputMode = iota
	outputActivities
	outputPreview
)

var (
	outboundActivities bool
	outboundPreview    bool
	outboundStrict     bool
)

var outboundCmd = &cobra.Command{
	Use:   "outbound [file]",
	Short: "Digest a chatbot API response into Teams messages",
	Long: "Reads one chatbot API response as JSON and prints the rich messages built from it, " +
		"the Teams activities carrying them, or a terminal preview.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if outboundActivities && outboundPreview {
			return errors.New("--activities and --preview are mutually exclusive")
		}

		data, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		rt, err := loadRuntime("cmd.outbound", outboundStrict)
		if err != nil {
			return err
		}

		mode := outputMessages
		switch {
		case outboundActivities:
			mode = outputActivities
		case outboundPreview:
			mode = outputPreview
		}
		return runOutbound(cmd.OutOrStdout(), rt, data, mode)
	},
}

func init() {
	rootCmd.AddCommand(outboundCmd)
	outboundCmd.Flags().BoolVar(&outboundActivities, "activities", false, "print the Teams activities instead of the rich messages")
	outboundCmd.Flags().BoolVar(&outboundPreview, "preview", false, "render a terminal preview of the messages")
	outboundCmd.Flags().BoolVar(&outboundStrict, "strict", false, "fail on malformed answers instead of degrading them")
}

// runOutbound prints what could be digested before reporting answers that failed.
func runOutbound(out io.Writer, rt *runtime, data []byte, mode outputMode) error {
	resp, err := chatbot.Decode(data)
	if err != nil {
		return err
	}

	msgs, digestErr := rt.digester.DigestFromAPI(session.NewMemory(), resp)
	if rt.cfg.ContentRatings.Enabled {
		if code, ok := digester.RateCode(resp); ok {
			if prompt := rt.digester.BuildContentRatingsMessage(rt.cfg.ContentRatings.Ratings, code); !prompt.IsEmpty() {
				msgs = append(msgs, prompt)
			}
		}
	}

	switch mode {
	case outputPreview:
		if _, err := fmt.Fprintln(out, renderPreview(msgs)); err != nil {
			return err
		}
	case outputActivities:
		if err := writeJSON(out, activitiesFor(msgs)); err != nil {
			return err
		}
	default:
		if err := writeJSON(out, msgs); err != nil {
			return err
		}
	}

	if digestErr != nil {
		rt.log.Error("Some answers could not be digested", "error", digestErr, "category", digester.CategoryFromError(digestErr))
	}
	return digestErr
}

func activitiesFor(msgs []message.Rich) []teams.Activity {
	activities := []teams.Activity{}
	for _, msg := range msgs {
		activities = append(activities, teams.BuildActivities(teams.Activity{}, msg)...)
	}
	return activities
}
