package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/inbox"
	"github.com/spigell/drive-extractor/internal/logger"
	"github.com/spigell/drive-extractor/internal/merge"
	"github.com/spigell/drive-extractor/internal/pipeline"
	"github.com/spigell/drive-extractor/internal/store"
)

const (
	PromptSave            = "Save drives"
	PromptNo              = "No"
	PromptReportByCompany = "Report by company"
	PromptReviewFlagged   = "Review flagged messages"
	PromptDrivesToFile    = "Dump drives to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptSave, PromptNo, PromptReportByCompany, PromptReviewFlagged, PromptDrivesToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract drives from a messages file and append the new ones to the drives file",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("messages", "m", "", "JSON or YAML file with messages to process")
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before saving new drives")
	runCmd.Flags().StringP("drives-file", "f", "", "JSON file with stored drives. Default is drives.json.")
	runCmd.Flags().String("log-file", "", "write logs to this file instead of stdout")

	runCmd.MarkFlagRequired("messages")

	viper.BindPFlag("drives-file", runCmd.Flags().Lookup("drives-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger(cmd)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the drive-extractor", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	messagesFile := cmd.Flag("messages").Value.String()
	msgs, err := inbox.Load(messagesFile)
	if err != nil {
		logger.Fatal("loading messages", zap.Error(err), zap.String("file", messagesFile))
	}

	if len(msgs) == 0 {
		logger.Info("exiting", zap.String("reason", "no messages found"))
		return
	}

	stored, err := store.Load(config.DrivesFile)
	if err != nil {
		logger.Fatal("loading stored drives", zap.Error(err), zap.String("file", config.DrivesFile))
	}

	logger.Info("processing messages",
		zap.Int("count", len(msgs)),
		zap.Int("stored drives", stored.Len()),
	)

	p, err := newPipeline(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	records := p.RunBatch(ctx, msgs, stored.Summaries(), config.Workers)

	drives := store.FromCandidates(merge.Merge(pipeline.Ready(records)), time.Now())
	flagged := pipeline.Flagged(records)

	if drives.Len() == 0 && len(flagged) == 0 {
		logger.Info("exiting", zap.String("reason", "no new drives found"))
		return
	}

	action := PromptSave
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of new drives", zap.Int("count", drives.Len()))

		if err := handleAction(action, logger, config, stored, drives, flagged); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, stored, drives *store.Drives, flagged []*pipeline.Record) error {
	switch action {
	case PromptSave:
		if drives.Len() == 0 {
			logger.Info("exiting", zap.String("reason", "nothing to save"))
			return errExit
		}
		stored.Append(drives)
		if err := stored.ToFile(config.DrivesFile); err != nil {
			return fmt.Errorf("save drives: %w", err)
		}
		logger.Info("successfully saved drives",
			zap.Int("count", drives.Len()),
			zap.String("file", config.DrivesFile),
		)
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByCompany:
		report, err := drives.ReportByCompany()
		if err != nil {
			return err
		}
		pretty, _ := json.MarshalIndent(report, "", "  ")
		logger.Info(string(pretty), zap.Int("drives count", drives.Len()))
		return nil
	case PromptReviewFlagged:
		outputs := make([]pipeline.Output, 0, len(flagged))
		for _, rec := range flagged {
			outputs = append(outputs, rec.Output())
		}
		pretty, _ := json.MarshalIndent(outputs, "", "  ")
		logger.Info(string(pretty), zap.Int("flagged count", len(flagged)))
		return nil
	case PromptDrivesToFile:
		filename, err := drives.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	json, debug := viper.GetBool("json"), viper.GetBool("debug")

	if flag := cmd.Flag("log-file"); flag != nil && flag.Value.String() != "" {
		return logger.NewToFile(json, debug, flag.Value.String())
	}
	return logger.New(json, debug)
}
