package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Append text to the report document without querying a model",
	Long:  `Appends the contents of file (or stdin when file is "-" or omitted) as a new section of the report document.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	body, err := readBody(args)
	if err != nil {
		return logFailure(err, "Failed to read text to publish")
	}

	ctx := cmd.Context()
	application, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	_, err = application.PublishText(ctx, body)
	return logFailure(err, "Publish failed")
}

func readBody(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}
