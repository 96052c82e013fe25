package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
	"github.com/Alturino/wintercollection/internal/log"
	storefrontCmd "github.com/Alturino/wintercollection/storefront/cmd"
)

func newStorefrontCommand() *cobra.Command {
	cmd := storefrontCmd.NewStorefrontCommand(func(c context.Context) *config.Config {
		return config.Get(c, constants.APP_STOREFRONT)
	})
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		c := cmd.Context()
		cfg := config.Get(c, constants.APP_STOREFRONT)
		logger := log.Get(cfg.Application.LogPath, cfg.Application, true).
			With().
			Str(constants.KEY_APP_NAME, constants.APP_STOREFRONT).
			Logger()
		cmd.SetContext(logger.WithContext(c))
	}
	return cmd
}
