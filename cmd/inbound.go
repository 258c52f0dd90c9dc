package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"teamsbridge/pkg/digester"
	"teamsbridge/pkg/message"
	"teamsbridge/pkg/teams"
)

var inboundCmd = &cobra.Command{
	Use:   "inbound [file]",
	Short: "Digest a Teams activity into chatbot API messages",
	Long:  "Reads one Teams activity as JSON and prints the normalized messages that would be sent to the chatbot API.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		rt, err := loadRuntime("cmd.inbound", false)
		if err != nil {
			return err
		}

		return runInbound(cmd.OutOrStdout(), rt.digester, data)
	},
}

func init() {
	rootCmd.AddCommand(inboundCmd)
}

func runInbound(out io.Writer, d *digester.Digester, data []byte) error {
	ev, err := teams.ParseEvent(data)
	if err != nil {
		return fmt.Errorf("parse event: %w", err)
	}

	result := struct {
		Kind     digester.InboundKind `json:"kind"`
		Messages []message.Inbound    `json:"messages"`
	}{
		Kind:     d.ClassifyInbound(ev),
		Messages: d.DigestToAPI(ev),
	}

	return writeJSON(out, result)
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}
