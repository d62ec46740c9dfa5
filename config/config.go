package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type MongoConfig struct {
	URI     string        `mapstructure:"uri"`
	DBName  string        `mapstructure:"dbName"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// RedisConfig is optional. With no address, logout revocations are kept in
// process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// S3Config is optional. With no bucket, attachment uploads are disabled.
type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// SeedConfig describes the admin account created on an empty database.
type SeedConfig struct {
	AdminEmail    string `mapstructure:"adminEmail"`
	AdminPassword string `mapstructure:"adminPassword"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Redis   RedisConfig   `mapstructure:"redis"`
	S3      S3Config      `mapstructure:"s3"`
	Logging LoggingConfig `mapstructure:"logging"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

// LoadConfig reads config.yaml from path, then lets environment variables
// (and a .env file, when present) override it.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.dbName", "military_logistics")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.filename", "logs/api.log")
	v.SetDefault("logging.maxSize", 100)
	v.SetDefault("logging.maxBackups", 5)
	v.SetDefault("logging.maxAge", 30)
	v.SetDefault("seed.adminEmail", "admin@military.gov")

	v.AutomaticEnv()
	bindings := map[string]string{
		"server.port":           "PORT",
		"server.mode":           "GIN_MODE",
		"server.allowedOrigins": "CORS_ALLOWED_ORIGINS",
		"mongo.uri":             "MONGO_URI",
		"mongo.dbName":          "MONGO_DBNAME",
		"jwt.secret":            "JWT_SECRET",
		"jwt.expiration":        "JWT_EXPIRATION",
		"redis.addr":            "REDIS_ADDR",
		"redis.password":        "REDIS_PASSWORD",
		"redis.db":              "REDIS_DB",
		"s3.bucket":             "S3_BUCKET",
		"s3.region":             "S3_REGION",
		"s3.accessKeyID":        "S3_ACCESS_KEY_ID",
		"s3.secretAccessKey":    "S3_SECRET_ACCESS_KEY",
		"s3.cloudFrontDomain":   "S3_CLOUDFRONT_DOMAIN",
		"logging.level":         "LOG_LEVEL",
		"logging.format":        "LOG_FORMAT",
		"logging.filename":      "LOG_FILE",
		"seed.adminEmail":       "SEED_ADMIN_EMAIL",
		"seed.adminPassword":    "SEED_ADMIN_PASSWORD",
	}
	for key, env := range bindings {
		if err = v.BindEnv(key, env); err != nil {
			return
		}
	}

	// A missing file is fine: defaults and the environment are enough.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if config.JWT.Secret == "" {
		err = errors.New("jwt.secret (JWT_SECRET) must be set")
	}
	return
}
