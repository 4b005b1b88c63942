package main

import (
	"fmt"

	"github.com/punchamoorthee/estatedocs/internal/artifact"
	"github.com/punchamoorthee/estatedocs/internal/config"
	"github.com/punchamoorthee/estatedocs/internal/domain"
	"github.com/punchamoorthee/estatedocs/internal/store"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var (
		dsn      string
		backfill bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres token registry schema",
		Long: `Create the artifact_tokens table used when REGISTRY_DSN is set.

With --backfill, the tokens of PDFs already present in DOWNLOAD_DIR are
recorded so they are never handed out again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadEnv()
			if err != nil {
				return err
			}
			if dsn == "" {
				dsn = cfg.RegistryDSN
			}
			if dsn == "" {
				return fmt.Errorf("REGISTRY_DSN or --dsn is required")
			}

			pg, err := store.NewStore(dsn)
			if err != nil {
				return err
			}
			defer pg.Close()

			ctx := cmd.Context()
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "registry schema ready")

			if !backfill {
				return nil
			}
			fs, err := artifact.NewFileStore(cfg.DownloadDir)
			if err != nil {
				return err
			}
			infos, err := fs.List(ctx)
			if err != nil {
				return err
			}
			var pairs []domain.ArtifactPair
			for _, info := range infos {
				if pair, ok := artifact.ParseName(info.Name); ok {
					pairs = append(pairs, pair)
				}
			}
			n, err := pg.Backfill(ctx, pairs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backfilled %d tokens from %d artifacts\n", n, len(infos))
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (defaults to REGISTRY_DSN)")
	cmd.Flags().BoolVar(&backfill, "backfill", false, "record tokens of artifacts already in DOWNLOAD_DIR")
	return cmd
}
