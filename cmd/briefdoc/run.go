package main

import (
	"github.com/spf13/cobra"
	"github.com/ternarybob/briefdoc/internal/common"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Query the model and append the brief to the report document",
	Long: `Runs one brief: asks the configured model (Gemini with Google Search grounding by
default) for the market summary, prints it with its sources, then appends it as a new
timestamped section at the end of the report document.`,
	Args: cobra.NoArgs,
	RunE: runBrief,
}

func runBrief(cmd *cobra.Command, args []string) error {
	common.PrintBanner(common.GetVersion())

	ctx := cmd.Context()
	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	_, err = application.RunBrief(ctx)
	return logFailure(err, "Brief run failed")
}
