package recorder_cli

import (
	"os/signal"
	"syscall"

	internal_fileinput "github.com/rufaelfekadu/ramsalab-light/api/recorder-api/internal/fileinput"
	"github.com/spf13/cobra"
)

func NewUploadCmd(deps *Dependencies, answer *answerFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Submit an existing audio file as the answer",
		Long:  "Validates a wav, mp3, webm, ogg or m4a file (16 MB maximum) and submits it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := newSession(deps, answer, nil)
			if err != nil {
				return err
			}
			defer s.ctrl.Close()

			sel, err := internal_fileinput.FromPath(args[0], deps.Config.MaxFileSize)
			if err != nil {
				return err
			}
			if err := s.ctrl.ChooseFile(ctx, sel); err != nil {
				return err
			}
			if err := s.ctrl.Submit(ctx); err != nil {
				return err
			}
			s.awaitRedirect(ctx, deps.Config.RedirectDelay)
			return nil
		},
	}
}
