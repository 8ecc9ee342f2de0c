package shared

type ServerConfig struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Mongo    MongoConfig    `mapstructure:"mongo" validate:"required"`
	Listener ListenerConfig `mapstructure:"listener" validate:"required"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri" validate:"required"`
	Database string `mapstructure:"database" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

type AuditConfig struct {
	Enabled  interface{} `mapstructure:"enabled" validate:"omitempty,bool"`
	Interval string      `mapstructure:"interval"`
}
