package config

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Ownership OwnershipConfig `yaml:"ownership"`
	Tree      TreeConfig      `yaml:"tree"`
}

// LogConfig selects the logger level and output format
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" validate:"oneof=json console"`
}

// DatabaseConfig holds the store options shared by both flows
type DatabaseConfig struct {
	ForeignKeys      bool `yaml:"foreign_keys" env:"FOREIGN_KEYS"`
	SharedConnection bool `yaml:"shared_connection" env:"SHARED_CONNECTION"`
	Fresh            bool `yaml:"fresh" env:"FRESH"` // remove database files before opening
}

// OwnershipConfig configures the users/items flow
type OwnershipConfig struct {
	Database string `yaml:"database" env:"OWNERSHIP_DB" validate:"required"`
}

// TreeConfig configures the self-referential tree flow
type TreeConfig struct {
	Database string `yaml:"database" env:"TREE_DB" validate:"required"`
	Seed     string `yaml:"seed,omitempty" env:"TREE_SEED"` // empty = built-in seed
}
