package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask the model a question without writing to the document",
	Long:  `Sends question (or the configured market prompt when omitted) to the model and prints the answer and its web sources.`,
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	logger.Info().Str("question", question).Msg("Querying model")

	ctx := cmd.Context()
	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	_, err = application.Query(ctx, question)
	return logFailure(err, "Query failed")
}
