package cmd

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartCmd "github.com/Alturino/wintercollection/cart/cmd"
	"github.com/Alturino/wintercollection/internal/config"
)

func summaryLine(label string, value string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + label + `\s+\|\s+` + regexp.QuoteMeta(value))
}

func TestStorefrontCommand(t *testing.T) {
	c := zerolog.New(io.Discard).WithContext(context.Background())

	serviceCfg := &config.Config{
		Database: config.Database{Driver: "memory"},
	}
	handler, closeHandler, err := cartCmd.NewHandler(c, serviceCfg)
	require.NoError(t, err)
	t.Cleanup(closeHandler)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Client: config.Client{
			BaseURL:       server.URL + "/api/cart",
			StorageDriver: "sqlite",
			StoragePath:   filepath.Join(t.TempDir(), "storefront.db"),
			Timeout:       5 * time.Second,
		},
	}

	// rows share one local store and one service, so each builds on the previous
	tests := []struct {
		name     string
		args     []string
		contains []string
		lines    []*regexp.Regexp
	}{
		{
			name:     "given empty cart when show should print empty cart",
			args:     []string{"show"},
			contains: []string{"cart of user_", "your cart is empty"},
			lines: []*regexp.Regexp{
				summaryLine("items", "0"),
				summaryLine("shipping", "Free"),
				summaryLine("total", "$0.00"),
			},
		},
		{
			name:     "given new product when add should notify and charge shipping",
			args:     []string{"add", "--id", "p1", "--name", "Scarf", "--price", "$34.99"},
			contains: []string{"[success] Item added to cart!", "Scarf"},
			lines: []*regexp.Regexp{
				summaryLine("items", "1"),
				summaryLine("subtotal", "$34.99"),
				summaryLine("shipping", "$9.99"),
				summaryLine("tax", "$2.80"),
				summaryLine("total", "$47.78"),
			},
		},
		{
			name:     "given product already in cart when add should increment quantity and ship free",
			args:     []string{"add", "--id", "p1", "--name", "Scarf", "--price", "$34.99"},
			contains: []string{"[success] Item added to cart!"},
			lines: []*regexp.Regexp{
				summaryLine("items", "2"),
				summaryLine("subtotal", "$69.98"),
				summaryLine("shipping", "Free"),
				summaryLine("tax", "$5.60"),
				summaryLine("total", "$75.58"),
			},
		},
		{
			name:     "given item in cart when update should set quantity",
			args:     []string{"update", "--item", "p1", "--quantity", "3"},
			contains: []string{"[success] Quantity updated!"},
			lines: []*regexp.Regexp{
				regexp.MustCompile(`p1\s+\|\s+Scarf\s+\|\s+\$34\.99\s+\|\s+3`),
				summaryLine("items", "3"),
				summaryLine("subtotal", "$104.97"),
				summaryLine("tax", "$8.40"),
				summaryLine("total", "$113.37"),
			},
		},
		{
			name:     "given cart stored on service when show should print it",
			args:     []string{"show"},
			contains: []string{"Scarf"},
			lines:    []*regexp.Regexp{summaryLine("total", "$113.37")},
		},
		{
			name:     "given item in cart when remove should empty cart",
			args:     []string{"remove", "--item", "p1"},
			contains: []string{"[success] Item removed from cart!", "your cart is empty"},
			lines:    []*regexp.Regexp{summaryLine("total", "$0.00")},
		},
		{
			name:     "given another product when add should notify",
			args:     []string{"add", "--id", "p2", "--name", "Mittens", "--price", "$12.00"},
			contains: []string{"[success] Item added to cart!", "Mittens"},
			lines: []*regexp.Regexp{
				summaryLine("subtotal", "$12.00"),
				summaryLine("shipping", "$9.99"),
				summaryLine("total", "$22.95"),
			},
		},
		{
			name:     "given items in cart when clear should empty cart",
			args:     []string{"clear"},
			contains: []string{"[success] Cart cleared!", "your cart is empty"},
			lines:    []*regexp.Regexp{summaryLine("items", "0"), summaryLine("total", "$0.00")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewStorefrontCommand(func(context.Context) *config.Config { return cfg })
			cmd.SetArgs(tt.args)
			cmd.SetOut(&out)
			cmd.SetErr(&out)

			require.NoError(t, cmd.ExecuteContext(c))

			printed := out.String()
			for _, expected := range tt.contains {
				assert.Contains(t, printed, expected)
			}
			for _, line := range tt.lines {
				assert.Regexp(t, line, printed)
			}
			assert.NotContains(t, printed, "[error]")
			assert.NotContains(t, printed, "[warning]")
		})
	}
}
