package configuration

import (
	"fmt"
	"os"
	"strconv"

	"social-publisher/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
	OAuth       OAuth       `json:"oauth"`
	Publish     Publish     `json:"publish"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	BaseURL     string `json:"baseURL"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Logger struct {
	Format string `json:"format"`
}

// OAuth holds third-party platform OAuth client credentials.
type OAuth struct {
	Facebook  OAuthClient `json:"facebook"`
	Instagram OAuthClient `json:"instagram"`
	Twitter   OAuthClient `json:"twitter"`
	LinkedIn  OAuthClient `json:"linkedin"`
	TikTok    OAuthClient `json:"tiktok"`
	YouTube   OAuthClient `json:"youtube"`
}

type OAuthClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

// Publish holds orchestrator policy knobs. Zero values fall back to the
// defaults applied in initPublish.
type Publish struct {
	PollIntervalSeconds      int `json:"pollIntervalSeconds"`
	ContainerDeadlineSeconds int `json:"containerDeadlineSeconds"`
	RefreshMarginSeconds     int `json:"refreshMarginSeconds"`
	StateTTLMinutes          int `json:"stateTTLMinutes"`
	RecoveryBatchSize        int `json:"recoveryBatchSize"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initPublish(&C)
	initOAuthEnv(&C)
	// Prefer https redirect URIs locally when TLS enabled
	if C.App.TLSEnabled {
		for _, oc := range []*OAuthClient{
			&C.OAuth.Facebook, &C.OAuth.Instagram, &C.OAuth.Twitter,
			&C.OAuth.LinkedIn, &C.OAuth.TikTok, &C.OAuth.YouTube,
		} {
			if oc.RedirectURI != "" && !hasHTTPS(oc.RedirectURI) {
				oc.RedirectURI = toHTTPSCallback(oc.RedirectURI)
			}
		}
	}
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}

	// Optional MSSQL config via environment variables (Azure SQL in production)
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if C.Database.Mssql.Port == "" {
		if v := os.Getenv("MSSQL_PORT"); v != "" {
			C.Database.Mssql.Port = v
		} else {
			C.Database.Mssql.Port = "1433"
		}
	}
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("APP_BASE_URL"); v != "" {
		C.App.BaseURL = v
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initPublish(C *Config) {
	if C.Publish.PollIntervalSeconds <= 0 {
		C.Publish.PollIntervalSeconds = 2
	}
	if C.Publish.ContainerDeadlineSeconds <= 0 {
		C.Publish.ContainerDeadlineSeconds = 60
	}
	if C.Publish.RefreshMarginSeconds <= 0 {
		C.Publish.RefreshMarginSeconds = 300
	}
	if C.Publish.StateTTLMinutes <= 0 {
		C.Publish.StateTTLMinutes = 10
	}
	if C.Publish.RecoveryBatchSize <= 0 {
		C.Publish.RecoveryBatchSize = 10
	}
}

// initOAuthEnv overlays OAUTH_<PLATFORM>_CLIENT_ID / _CLIENT_SECRET /
// _REDIRECT_URI environment variables onto the config file values.
func initOAuthEnv(C *Config) {
	overlay := func(oc *OAuthClient, prefix string) {
		if v := os.Getenv(prefix + "_CLIENT_ID"); v != "" {
			oc.ClientID = v
		}
		if v := os.Getenv(prefix + "_CLIENT_SECRET"); v != "" {
			oc.ClientSecret = v
		}
		if v := os.Getenv(prefix + "_REDIRECT_URI"); v != "" {
			oc.RedirectURI = v
		}
	}
	overlay(&C.OAuth.Facebook, "OAUTH_FACEBOOK")
	overlay(&C.OAuth.Instagram, "OAUTH_INSTAGRAM")
	overlay(&C.OAuth.Twitter, "OAUTH_TWITTER")
	overlay(&C.OAuth.LinkedIn, "OAUTH_LINKEDIN")
	overlay(&C.OAuth.TikTok, "OAUTH_TIKTOK")
	overlay(&C.OAuth.YouTube, "OAUTH_YOUTUBE")
}

// helpers to coerce local callback to https
func hasHTTPS(u string) bool { return len(u) >= 8 && u[:8] == "https://" }
func toHTTPSCallback(u string) string {
	if len(u) >= 7 && u[:7] == "http://" {
		return "https://" + u[7:]
	}
	return u
}
