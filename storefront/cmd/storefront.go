package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/wintercollection/cart/pkg/client"
	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
	"github.com/Alturino/wintercollection/internal/infra"
	"github.com/Alturino/wintercollection/internal/otel"
	storefrontOtel "github.com/Alturino/wintercollection/storefront/internal/otel"
	"github.com/Alturino/wintercollection/storefront/pkg/cartcache"
)

// NewStorefrontCommand returns the storefront command tree. Every subcommand
// loads the cart through a cartcache.Manager, performs one action and prints the
// resulting cart.
func NewStorefrontCommand(cfg func(c context.Context) *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Browse and edit the cart the way the storefront pages do",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the cart and its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, cfg(cmd.Context()), func(context.Context, *cartcache.Manager) error {
				return nil
			})
		},
	}

	var candidate cartcache.Candidate
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, cfg(cmd.Context()), func(c context.Context, m *cartcache.Manager) error {
				return m.AddItem(c, candidate)
			})
		},
	}
	add.Flags().StringVar(&candidate.ID, "id", "", "product id")
	add.Flags().StringVar(&candidate.Name, "name", "", "product name")
	add.Flags().StringVar(&candidate.Price, "price", "", "display price, for example $34.99")
	add.Flags().StringVar(&candidate.Image, "image", "", "product image path")
	_ = add.MarkFlagRequired("id")
	_ = add.MarkFlagRequired("price")

	var itemID string
	var quantity int32
	update := &cobra.Command{
		Use:   "update",
		Short: "Set the quantity of a cart item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, cfg(cmd.Context()), func(c context.Context, m *cartcache.Manager) error {
				return m.UpdateQuantity(c, itemID, quantity)
			})
		},
	}
	update.Flags().StringVar(&itemID, "item", "", "item id or product id")
	update.Flags().Int32Var(&quantity, "quantity", 1, "new quantity")
	_ = update.MarkFlagRequired("item")

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove an item from the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, cfg(cmd.Context()), func(c context.Context, m *cartcache.Manager) error {
				return m.RemoveItem(c, itemID)
			})
		},
	}
	remove.Flags().StringVar(&itemID, "item", "", "item id or product id")
	_ = remove.MarkFlagRequired("item")

	clearCart := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, cfg(cmd.Context()), func(c context.Context, m *cartcache.Manager) error {
				return m.Clear(c)
			})
		},
	}

	root.AddCommand(show, add, update, remove, clearCart)
	return root
}

func withManager(
	cmd *cobra.Command,
	cfg *config.Config,
	action func(c context.Context, m *cartcache.Manager) error,
) error {
	c, span := storefrontOtel.Tracer.Start(cmd.Context(), "storefront "+cmd.Name())
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_APP_NAME, constants.APP_STOREFRONT).
		Str(constants.KEY_TAG, "storefront withManager").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing otel sdk").Logger()
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.APP_STOREFRONT, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		if err := otel.ShutdownOtel(context.WithoutCancel(c), otelShutdowns); err != nil {
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	logger = logger.With().
		Str(constants.KEY_PROCESS, "initializing storage").
		Str(constants.KEY_DB_DRIVER, cfg.Client.StorageDriver).
		Logger()
	logger.Info().Msg("initializing storage")
	c = logger.WithContext(c)
	storage, closeStorage, err := newStorage(c, cfg)
	if err != nil {
		err = fmt.Errorf("failed initializing storage with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer closeStorage()
	logger.Info().Msg("initialized storage")

	manager := cartcache.New(c, storage, client.New(cfg.Client.BaseURL, cfg.Client.Timeout))
	out := cmd.OutOrStdout()
	unsubscribe := manager.Subscribe(func(event cartcache.Event) {
		if event.Notification != nil {
			fmt.Fprintf(out, "[%s] %s\n", event.Notification.Level, event.Notification.Message)
		}
	})
	defer unsubscribe()

	logger = logger.With().
		Str(constants.KEY_PROCESS, "running "+cmd.Name()).
		Str(constants.KEY_USER_ID, manager.UserID()).
		Logger()
	logger.Info().Msgf("running %s", cmd.Name())
	c = logger.WithContext(c)
	manager.Load(c)
	err = action(c, manager)
	manager.Wait()
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	} else {
		logger.Info().Msgf("ran %s", cmd.Name())
	}

	printCart(out, manager.UserID(), manager.Items(), manager.Summary())
	return err
}

func newStorage(c context.Context, cfg *config.Config) (cartcache.Storage, func(), error) {
	switch cfg.Client.StorageDriver {
	case "sqlite":
		storage, err := cartcache.NewSQLiteStorage(c, cfg.Client.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() { _ = storage.Close() }, nil
	case "redis":
		redisClient, err := infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			return nil, nil, err
		}
		return cartcache.NewRedisStorage(redisClient, "storefront:"), func() { _ = redisClient.Close() }, nil
	case "memory":
		return cartcache.NewMemoryStorage(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver=%s", cfg.Client.StorageDriver)
	}
}

func printCart(w io.Writer, userID string, items []cartcache.Item, summary cartcache.Summary) {
	fmt.Fprintf(w, "cart of %s\n", userID)
	if len(items) == 0 {
		fmt.Fprintln(w, "your cart is empty")
	} else {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Product", "Name", "Price", "Qty"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		for _, item := range items {
			table.Append([]string{
				item.ID,
				item.ProductID,
				item.Name,
				"$" + item.Price.StringFixed(2),
				strconv.Itoa(int(item.Quantity)),
			})
		}
		table.Render()
	}

	shipping := "Free"
	if !summary.ShippingCost.IsZero() {
		shipping = "$" + summary.ShippingCost.StringFixed(2)
	}
	totals := tablewriter.NewWriter(w)
	totals.SetAutoWrapText(false)
	totals.SetBorder(false)
	totals.AppendBulk([][]string{
		{"items", strconv.Itoa(int(summary.TotalItemCount))},
		{"subtotal", "$" + summary.Subtotal.StringFixed(2)},
		{"shipping", shipping},
		{"tax", "$" + summary.Tax.StringFixed(2)},
		{"total", "$" + summary.Total.StringFixed(2)},
	})
	totals.Render()
}
