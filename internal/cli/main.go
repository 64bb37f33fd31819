package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "vidcap <video>",
		Short:        "Transcribe a video and caption it with subtitles",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}
	root.SilenceErrors = true

	root.Flags().Bool("soft", false, "Embed a toggleable subtitle track instead of burning captions in")
	root.Flags().Bool("no-grammar", false, "Skip grammar correction")
	root.Flags().Bool("check", false, "Check external dependencies and exit")
	root.Flags().String("config", "", "Config file (default ~/.config/vidcap/config.toml)")
	root.Flags().String("out", "", "Output directory (overrides config)")
	root.Flags().String("model", "", "Whisper model tier: tiny, base, small, medium, large")

	return root
}
