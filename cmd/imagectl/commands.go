package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/imrenagi/go-product-images/asset"
	"github.com/imrenagi/go-product-images/config"
	"github.com/imrenagi/go-product-images/mirror"
	"github.com/imrenagi/go-product-images/product"
	"github.com/imrenagi/go-product-images/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	root      string
	logLevel  string
	gcsBucket string
	gcsPrefix string
}

func newRootCmd() *cobra.Command {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Config{StorageRoot: "./data/images", LogLevel: "info", GCSPrefix: "products/"}
	}
	o := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "imagectl",
		Short:         "Manage product images in a local storage root",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return fmt.Errorf("load config: %w", cfgErr)
			}
			return server.InitializeLogger(o.logLevel, "console")
		},
	}
	cmd.PersistentFlags().StringVar(&o.root, "root", cfg.StorageRoot, "storage root directory")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(
		newStoreCmd(o, "save", "Copy an image into the store for a product", (*asset.Store).Save),
		newStoreCmd(o, "update", "Replace the stored image of a product", (*asset.Store).Update),
		newRemoveCmd(o),
		newFindCmd(o),
		newSyncCmd(o, cfg),
	)
	return cmd
}

func openStore(o *rootOptions) (*asset.Store, error) {
	return asset.New(o.root, asset.WithLogger(log.Logger))
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

func newStoreCmd(o *rootOptions, use, short string, op func(*asset.Store, asset.Entity) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <product-id> <image>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(o)
			if err != nil {
				return err
			}
			p := &product.Product{ID: id, Image: args[1]}
			if err := op(store, p); err != nil {
				return fmt.Errorf("%s %d: %w", use, id, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Image)
			return nil
		},
	}
}

func newRemoveCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Delete the stored image of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(o)
			if err != nil {
				return err
			}
			return store.Remove(id)
		},
	}
}

func newFindCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <product-id>",
		Short: "Print the stored image path of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := openStore(o)
			if err != nil {
				return err
			}
			path, found := store.Find(id)
			if !found {
				return fmt.Errorf("no image stored for product %d", id)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// newSyncCmd uploads every stored image to the configured bucket.
func newSyncCmd(o *rootOptions, cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror every stored image to a Cloud Storage bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.gcsBucket == "" {
				return fmt.Errorf("--bucket is required")
			}
			store, err := openStore(o)
			if err != nil {
				return err
			}
			gcs, err := mirror.NewGCS(cmd.Context(), o.gcsBucket, o.gcsPrefix)
			if err != nil {
				return err
			}
			defer gcs.Close()

			n, err := syncImages(cmd, store, gcs)
			fmt.Fprintf(cmd.OutOrStdout(), "mirrored %d images\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&o.gcsBucket, "bucket", cfg.GCSBucket, "destination bucket")
	cmd.Flags().StringVar(&o.gcsPrefix, "prefix", cfg.GCSPrefix, "object name prefix")
	return cmd
}

func syncImages(cmd *cobra.Command, store *asset.Store, m mirror.Mirror) (int, error) {
	entries, err := os.ReadDir(store.Root())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := m.Upload(cmd.Context(), e.Name(), filepath.Join(store.Root(), e.Name())); err != nil {
			return n, fmt.Errorf("mirror %s: %w", e.Name(), err)
		}
		n++
	}
	return n, nil
}
