package config

// MongoConfig holds the MongoDB settings for the mongo identity repository
type MongoConfig struct {
	URI      string `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `env:"MONGO_DATABASE" env-default:"device_idm"`
}

func (m MongoConfig) Validate() ValidationErrors {
	return CollectErrors(
		RequireValidURL("MONGO_URI", m.URI),
		RequireNonEmpty("MONGO_DATABASE", m.Database),
	)
}
