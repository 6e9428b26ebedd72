package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlmentor/mlmentor/ai"
	"github.com/mlmentor/mlmentor/ai/core/embedding"
	"github.com/mlmentor/mlmentor/ai/retrieval"
	"github.com/mlmentor/mlmentor/store"
	"github.com/mlmentor/mlmentor/store/db"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Embed and store the course markdown documents from a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceProfile := loadProfile()
		if instanceProfile.Driver != "postgres" {
			return fmt.Errorf("course document ingestion requires the postgres driver (got %q)", instanceProfile.Driver)
		}

		cfg := ai.NewConfigFromProfile(instanceProfile)
		if cfg.Embedding.APIKey == "" {
			return fmt.Errorf("embedding API key is required, set MLMENTOR_AI_EMBEDDING_API_KEY")
		}

		ctx := context.Background()
		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return err
		}
		st := store.New(dbDriver, instanceProfile)
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		embedder, err := embedding.NewService(&cfg.Embedding)
		if err != nil {
			return err
		}

		ingestor := retrieval.NewIngestor(st, embedder, cfg.Embedding.Model)
		n, err := ingestor.IngestDir(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Ingested %d chunks from %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	_ = viper.BindPFlags(ingestCmd.Flags())
}
