package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/fecmatch/fecmatch/internal/config"
	"github.com/fecmatch/fecmatch/internal/group"
	"github.com/fecmatch/fecmatch/internal/storage"
	"github.com/fecmatch/fecmatch/internal/suggest"
)

// openStore opens the configured database and brings it up to date.
func openStore(ctx context.Context) (*storage.Store, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func suggestConfig() suggest.Config {
	return suggest.Config{
		MinOccurrences: viper.GetInt("suggest.min_occurrences"),
		FuzzyThreshold: viper.GetInt("suggest.fuzzy_threshold"),
		Limit:          viper.GetInt("suggest.limit"),
		MaxNGramWords:  viper.GetInt("suggest.max_ngram_words"),
	}
}

func groupConfig() group.Config {
	return group.Config{
		SimilarityThreshold: viper.GetFloat64("group.similarity_threshold"),
		MinGroupSize:        viper.GetInt("group.min_group_size"),
	}
}
