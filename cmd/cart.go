package cmd

import (
	"context"

	cartCmd "github.com/Alturino/wintercollection/cart/cmd"
	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
	"github.com/Alturino/wintercollection/internal/log"
)

func runCartService(c context.Context) {
	cfg := config.Get(c, constants.APP_CART_SERVICE)

	logger := log.Get(cfg.Application.LogPath, cfg.Application, false).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_CART_SERVICE).
		Logger()
	c = logger.WithContext(c)

	cartCmd.RunCartService(c, cfg)
}
