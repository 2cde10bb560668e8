package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run a single message through the pipeline and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return extractOne(cmd)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("subject", "", "message subject")
	extractCmd.Flags().String("sender", "", "message sender address")
	extractCmd.Flags().String("body-file", "", "file with the raw message body (markup or plain text)")
	extractCmd.Flags().String("message-id", "cli", "message id reported in the output")

	extractCmd.MarkFlagRequired("body-file")
}

func extractOne(cmd *cobra.Command) error {
	ctx := context.Background()

	logger, err := newLogger(cmd)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	body, err := os.ReadFile(cmd.Flag("body-file").Value.String())
	if err != nil {
		return fmt.Errorf("reading message body: %w", err)
	}

	msg := drive.Message{
		ID:      cmd.Flag("message-id").Value.String(),
		Sender:  cmd.Flag("sender").Value.String(),
		Subject: cmd.Flag("subject").Value.String(),
		RawBody: string(body),
	}

	stored, err := store.Load(config.DrivesFile)
	if err != nil {
		return fmt.Errorf("loading stored drives: %w", err)
	}

	p, err := newPipeline(ctx, config, logger)
	if err != nil {
		return err
	}

	rec := p.Run(ctx, msg, stored.Summaries())
	logger.Debug("extracted message", zap.String("status", string(rec.Status)))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec.Output())
}
