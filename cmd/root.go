package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/wintercollection/internal/constants"
)

func Start() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str(constants.KEY_APP_NAME, constants.APP_MAIN).
		Str(constants.KEY_TAG, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{
		Use:          "wintercollection",
		Short:        "Winter Collection cart service and storefront client",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "cart",
			Short: "Run cart service",
			Run: func(cmd *cobra.Command, args []string) {
				runCartService(cmd.Context())
			},
		},
		newStorefrontCommand(),
	)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
