package main

import (
	"fmt"

	"github.com/punchamoorthee/estatedocs/internal/catalog"
	"github.com/punchamoorthee/estatedocs/internal/config"
	"github.com/punchamoorthee/estatedocs/internal/logger"
	"github.com/punchamoorthee/estatedocs/internal/request"
	"github.com/spf13/cobra"
)

// renderFields maps flag names to request keys.
var renderFields = []struct{ flag, key, usage string }{
	{"type", "document_type", "document type key"},
	{"buyer", "buyer_name", "buyer name"},
	{"seller", "seller_name", "seller name"},
	{"client", "client_name", "client name"},
	{"address", "property_address", "property address"},
	{"price", "purchase_price", "purchase price"},
	{"closing", "closing_date", "closing date"},
	{"role", "party_role", "party role"},
	{"state", "property_state", "property state"},
	{"transaction", "transaction_type", "transaction type"},
	{"instructions", "additional_instructions", "additional instructions"},
}

var renderClauses = []struct{ flag, key string }{
	{"inspection", "clause_inspection"},
	{"financing", "clause_financing"},
	{"appraisal", "clause_appraisal"},
	{"hoa", "clause_hoa"},
}

func renderCmd() *cobra.Command {
	var (
		backend string
		outDir  string
		values  = make(map[string]*string, len(renderFields))
		clauses = make(map[string]*bool, len(renderClauses))
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Generate one preview/final pair to a local directory",
		Example: `  estatedocs render --type lease_agreement --buyer Alice --seller Bob --hoa
  estatedocs render --backend openai --type sales_contract --out ./out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadEnv()
			if err != nil {
				return err
			}
			cfg.GeneratorBackend = backend
			cfg.StorageBackend = "filesystem"
			cfg.RegistryDSN = ""
			if outDir != "" {
				cfg.DownloadDir = outDir
			}
			if err := cfg.ValidateGenerator(); err != nil {
				return err
			}

			src := request.JSONSource{}
			for _, f := range renderFields {
				if v := *values[f.flag]; v != "" {
					src[f.key] = v
				}
			}
			for _, c := range renderClauses {
				src[c.key] = *clauses[c.flag]
			}

			log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})
			svc, closeRegistry, err := buildService(cmd.Context(), cfg, catalog.Default(), log)
			if err != nil {
				return err
			}
			defer closeRegistry()

			res, err := svc.Generate(cmd.Context(), request.Normalize(src))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "preview: %s\nfinal:   %s\n", res.PreviewURL, res.FinalFilename)
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "mock", "generator backend (mock or openai)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (defaults to DOWNLOAD_DIR)")
	for _, f := range renderFields {
		values[f.flag] = cmd.Flags().String(f.flag, "", f.usage)
	}
	for _, c := range renderClauses {
		clauses[c.flag] = cmd.Flags().Bool(c.flag, false, "include the "+c.flag+" clause")
	}
	return cmd
}
