package recorder_cli

import (
	"io"

	"github.com/rufaelfekadu/ramsalab-light/config"
	"github.com/rufaelfekadu/ramsalab-light/pkg/commons"
	"github.com/spf13/cobra"
)

type Dependencies struct {
	Config *config.AppConfig
	Logger commons.Logger
	In     io.Reader
	Out    io.Writer
}

// answerFlags identify the survey answer being recorded.
type answerFlags struct {
	questionID string
	surveyID   string
	csrfToken  string
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "recorder",
		Short:         "Record or upload survey audio answers",
		Long:          "Records a spoken survey answer from the microphone, or takes an existing audio file, previews it and submits it to the survey server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Version = deps.Config.Version

	answer := &answerFlags{}
	rootCmd.PersistentFlags().StringVarP(&answer.questionID, "question", "q", "", "Question identifier")
	rootCmd.PersistentFlags().StringVarP(&answer.surveyID, "survey", "s", "", "Survey identifier")
	rootCmd.PersistentFlags().StringVar(&answer.csrfToken, "csrf-token", deps.Config.CSRFToken, "Anti-forgery token sent with the upload")
	rootCmd.PersistentFlags().StringVar(&deps.Config.SubmitURL, "submit-url", deps.Config.SubmitURL, "Submission endpoint")
	rootCmd.PersistentFlags().StringVar(&deps.Config.Locale, "locale", deps.Config.Locale, "Status message language (ar, en)")

	rootCmd.AddCommand(NewRecordCmd(deps, answer))
	rootCmd.AddCommand(NewUploadCmd(deps, answer))
	rootCmd.AddCommand(NewServeCmd(deps))
	return rootCmd
}
