package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
)

type (
	serverConfig struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	databaseConfig struct {
		Engine        string // memory | postgres
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	sessionConfig struct {
		Store      string // memory | redis | bolt
		CookieName string
		TTL        time.Duration
		BoltPath   string
	}

	redisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	storageConfig struct {
		Backend       string // local | s3 | b2
		LocalDir      string
		Bucket        string
		Region        string
		Endpoint      string
		AccessKey     string
		SecretKey     string
		MaxUploadSize int64
	}

	seedConfig struct {
		AdminEmail    string
		AdminPassword string
	}

	Config struct {
		AppName          string
		Build            string
		Env              string // DEV (default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		SecretKey        string
		FrontendBaseURL  string
		SendgridApiKey   string
		RollbarToken     string
		defaultFromEmail string

		Server   serverConfig
		Database databaseConfig
		Session  sessionConfig
		Redis    redisConfig
		Storage  storageConfig
		Seed     seedConfig
	}
)

// NewConfig loads the configuration of the current ENV.
// Values are read from `<ENV>_<KEY>` environment variables, optionally seeded from `config/.env.<env>`.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Ecole")
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "c7#x0p!2tq$e9ml^4zr&8hw(uv3k)b6n_dy+1gj@fs5oa")
	conf.SetDefault("defaultFromEmail", "Ecole <noreply@ecole.com>")
	conf.SetDefault("frontendBaseURL", "http://localhost:5000")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("database.engine", EngineMemory)
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.user", "ecole")
	conf.SetDefault("database.password", "ecole")
	conf.SetDefault("database.adminUser", "postgres")
	conf.SetDefault("database.adminPassword", "postgres")
	conf.SetDefault("database.name", "ecole")
	conf.SetDefault("database.disableTLS", true)

	conf.SetDefault("session.store", "memory")
	conf.SetDefault("session.cookieName", "ecole.sid")
	conf.SetDefault("session.ttl", 24*time.Hour)
	conf.SetDefault("session.boltPath", "sessions.db")

	conf.SetDefault("redis.addr", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)

	conf.SetDefault("storage.backend", "local")
	conf.SetDefault("storage.localDir", "uploads")
	conf.SetDefault("storage.bucket", "")
	conf.SetDefault("storage.region", "us-east-1")
	conf.SetDefault("storage.endpoint", "")
	conf.SetDefault("storage.accessKey", "")
	conf.SetDefault("storage.secretKey", "")
	conf.SetDefault("storage.maxUploadSize", int64(50*1024*1024))

	conf.SetDefault("seed.adminEmail", "admin@ecole.com")
	conf.SetDefault("seed.adminPassword", "admin23")

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		Env:              env,
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		Server: serverConfig{
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		Database: databaseConfig{
			Engine:        strings.ToLower(conf.GetString("database.engine")),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			Name:          conf.GetString("database.name"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
		Session: sessionConfig{
			Store:      strings.ToLower(conf.GetString("session.store")),
			CookieName: conf.GetString("session.cookieName"),
			TTL:        conf.GetDuration("session.ttl"),
			BoltPath:   conf.GetString("session.boltPath"),
		},
		Redis: redisConfig{
			Addr:     conf.GetString("redis.addr"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
		},
		Storage: storageConfig{
			Backend:       strings.ToLower(conf.GetString("storage.backend")),
			LocalDir:      conf.GetString("storage.localDir"),
			Bucket:        conf.GetString("storage.bucket"),
			Region:        conf.GetString("storage.region"),
			Endpoint:      conf.GetString("storage.endpoint"),
			AccessKey:     conf.GetString("storage.accessKey"),
			SecretKey:     conf.GetString("storage.secretKey"),
			MaxUploadSize: conf.GetInt64("storage.maxUploadSize"),
		},
		Seed: seedConfig{
			AdminEmail:    conf.GetString("seed.adminEmail"),
			AdminPassword: conf.GetString("seed.adminPassword"),
		},
	}
}

// IsProduction reports whether cookies and other transport settings must be hardened.
func (c *Config) IsProduction() bool {
	return c.Env == "PROD"
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

func (d databaseConfig) Address() string {
	return net.JoinHostPort(d.Host, d.Port)
}
