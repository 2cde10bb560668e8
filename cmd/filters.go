package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/inbox"
	"github.com/spigell/drive-extractor/internal/intake"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Show the intake filters and, with --messages, how many messages each one drops",
	Run: func(cmd *cobra.Command, _ []string) {
		logger, err := newLogger(cmd)
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		chain, err := intake.Default(config.Intake, logger)
		if err != nil {
			logger.Fatal("building intake filters", zap.Error(err))
		}

		for _, status := range chain.Describe() {
			fields := []zap.Field{
				zap.String("name", status.Name),
				zap.Bool("enabled", status.Enabled),
			}
			if status.Reason != "" {
				fields = append(fields, zap.String("reason", status.Reason))
			}
			for k, v := range status.Details {
				fields = append(fields, zap.String(k, v))
			}
			logger.Info("intake filter", fields...)
		}

		messagesFile := cmd.Flag("messages").Value.String()
		if messagesFile == "" {
			return
		}

		msgs, err := inbox.Load(messagesFile)
		if err != nil {
			logger.Fatal("loading messages", zap.Error(err), zap.String("file", messagesFile))
		}

		admitted := chain.Run(msgs)
		logger.Info("intake finished",
			zap.Int("messages", len(msgs)),
			zap.Int("admitted", len(admitted)),
		)
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)

	filtersCmd.Flags().StringP("messages", "m", "", "JSON or YAML file with messages to run through the filters")
}
