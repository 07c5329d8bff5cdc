package config

import "github.com/spf13/viper"

// SetDefaults registers the default values for every tunable setting.
// Any of them can be overridden by the config file, an environment
// variable or a flag.
func SetDefaults() {
	viper.SetDefault("database.path", "$HOME/.local/share/fecmatch/fecmatch.db")

	viper.SetDefault("suggest.min_occurrences", 3)
	viper.SetDefault("suggest.fuzzy_threshold", 80)
	viper.SetDefault("suggest.limit", 3)
	viper.SetDefault("suggest.max_ngram_words", 5)

	viper.SetDefault("group.similarity_threshold", 0.70)
	viper.SetDefault("group.min_group_size", 3)
}
