package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Datasets.Backend == "" {
		cfg.Datasets.Backend = "sqlite"
	}
	if cfg.Datasets.DataDir == "" {
		cfg.Datasets.DataDir = "./data"
	}
	if cfg.Datasets.MySQL.Host == "" {
		cfg.Datasets.MySQL.Host = "localhost"
	}
	if cfg.Datasets.MySQL.Port == 0 {
		cfg.Datasets.MySQL.Port = 3306
	}
	if cfg.Datasets.MySQL.Database == "" {
		cfg.Datasets.MySQL.Database = "linkrecommendation"
	}
	if cfg.Linker.Threshold == 0 {
		cfg.Linker.Threshold = 0.5
	}
	if cfg.Linker.MaxRecommendations == 0 {
		cfg.Linker.MaxRecommendations = 15
	}
	if cfg.Linker.ContextChars == 0 {
		cfg.Linker.ContextChars = 10
	}
	if cfg.Linker.TimeBudgetSeconds == 0 {
		cfg.Linker.TimeBudgetSeconds = 30
	}
	if cfg.Linker.MaxSectionsToExclude == 0 {
		cfg.Linker.MaxSectionsToExclude = 25
	}
}
