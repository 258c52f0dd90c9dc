package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"teamsbridge/pkg/channel"
	"teamsbridge/pkg/chatbot"
	"teamsbridge/pkg/session"
	"teamsbridge/pkg/teams"
)

var relayResponsePath string

var relayCmd = &cobra.Command{
	Use:   "relay [event-file]",
	Short: "Replay a Teams activity through the full relay",
	Long: "Handles one Teams activity end to end against a canned chatbot response. " +
		"Conversation state is kept in the configured session database, so consecutive runs " +
		"behave like one conversation. Outgoing activities are printed instead of posted.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(relayResponsePath) == "" {
			return errors.New("--response is required")
		}

		event, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		response, err := os.ReadFile(relayResponsePath)
		if err != nil {
			return fmt.Errorf("read %s: %w", relayResponsePath, err)
		}

		rt, err := loadRuntime("cmd.relay", false)
		if err != nil {
			return err
		}

		store, err := session.OpenBolt(rt.cfg.Session.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runRelay(ctx, cmd.OutOrStdout(), rt, store, event, response)
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().StringVarP(&relayResponsePath, "response", "r", "", "file holding the chatbot API response to answer with")
}

func runRelay(ctx context.Context, out io.Writer, rt *runtime, store *session.BoltStore, event, response []byte) error {
	resp, err := chatbot.Decode(response)
	if err != nil {
		return err
	}

	ev, err := teams.ParseEvent(event)
	if err != nil {
		return fmt.Errorf("parse event: %w", err)
	}
	sessionID := teams.SessionID(teams.ExternalID(ev))
	if sessionID == "" {
		return errors.New("event has no conversation or sender id")
	}

	bot := &channel.StaticBot{Response: resp}
	relay, err := channel.NewRelay(rt.digester, bot, &printSender{out: out}, rt.cfg.ContentRatings, rt.lang, rt.log)
	if err != nil {
		return err
	}

	if err := relay.Handle(ctx, store.Session(sessionID), event); err != nil {
		return err
	}
	for _, rating := range bot.Tracked {
		rt.log.Info("Rating tracked", "type", rating.Type, "data", rating.Data)
	}
	return nil
}

// printSender writes activities as JSON instead of posting them.
type printSender struct {
	out io.Writer
}

func (p *printSender) Send(_ context.Context, target teams.Target, activity teams.Activity) error {
	return writeJSON(p.out, struct {
		URL      string         `json:"url"`
		Activity teams.Activity `json:"activity"`
	}{URL: target.ActivitiesURL(), Activity: activity})
}
