package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Mail     MailConfig
	Payment  PaymentConfig
	Meta     MetaConfig
	Google   GoogleConfig
	Storage  StorageConfig
	Shop     ShopConfig
}

type ServerConfig struct {
	AppEnv         string
	HTTPPort       string
	GRPCPort       string
	PublicBaseURL  string
	AllowedOrigins []string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// JWTConfig holds the Supabase project JWT secret used to verify session tokens.
type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type MailConfig struct {
	SendGridAPIKey string
	FromAddress    string
	FromName       string
	StaffInbox     string
}

type PaymentConfig struct {
	MollieAPIKey  string
	MollieBaseURL string
	RedirectURL   string
	WebhookURL    string
}

type MetaConfig struct {
	GraphBaseURL string
	APIVersion   string
	CatalogID    string
	AccessToken  string
}

type GoogleConfig struct {
	MerchantID      uint64
	CredentialsFile string
	TargetCountry   string
	ContentLanguage string
}

type StorageConfig struct {
	Bucket        string
	PublicBaseURL string
}

type ShopConfig struct {
	Name                       string
	DefaultCountry             string
	ShippingDomesticCents      int64
	ShippingEUCents            int64
	FreeShippingThresholdCents int64
	VendorBaseURL              string
}

func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:         getEnv("APP_ENV", "dev"),
			HTTPPort:       getEnv("HTTP_PORT", ":8080"),
			GRPCPort:       getEnv("GRPC_PORT", ":8082"),
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
			AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "postgres"),
			Password:        getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:          getEnv("POSTGRES_DB", "cave"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("SUPABASE_JWT_SECRET", "your-secret-key-change-this-in-prod"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			GroupID: getEnv("KAFKA_GROUP_NOTIFICATIONS", "notifications"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_INDEX", "wine_products"),
		},
		Mail: MailConfig{
			SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
			FromAddress:    getEnv("MAIL_FROM_ADDRESS", "boutique@example.com"),
			FromName:       getEnv("MAIL_FROM_NAME", "La Cave"),
			StaffInbox:     getEnv("MAIL_STAFF_INBOX", "contact@example.com"),
		},
		Payment: PaymentConfig{
			MollieAPIKey:  getEnv("MOLLIE_API_KEY", ""),
			MollieBaseURL: getEnv("MOLLIE_BASE_URL", "https://api.mollie.com/v2"),
			RedirectURL:   getEnv("PAYMENT_REDIRECT_URL", "http://localhost:3000/commande/confirmation"),
			WebhookURL:    getEnv("PAYMENT_WEBHOOK_URL", ""),
		},
		Meta: MetaConfig{
			GraphBaseURL: getEnv("META_GRAPH_BASE_URL", "https://graph.facebook.com"),
			APIVersion:   getEnv("META_API_VERSION", "v19.0"),
			CatalogID:    getEnv("META_CATALOG_ID", ""),
			AccessToken:  getEnv("META_ACCESS_TOKEN", ""),
		},
		Google: GoogleConfig{
			MerchantID:      getEnvUint64("GOOGLE_MERCHANT_ID", 0),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			TargetCountry:   getEnv("GOOGLE_TARGET_COUNTRY", "FR"),
			ContentLanguage: getEnv("GOOGLE_CONTENT_LANGUAGE", "fr"),
		},
		Storage: StorageConfig{
			Bucket:        getEnv("GCS_BUCKET", ""),
			PublicBaseURL: strings.TrimRight(getEnv("GCS_PUBLIC_BASE_URL", "https://storage.googleapis.com"), "/"),
		},
		Shop: ShopConfig{
			Name:                       getEnv("SHOP_NAME", "La Cave"),
			DefaultCountry:             getEnv("SHOP_DEFAULT_COUNTRY", "FR"),
			ShippingDomesticCents:      int64(getEnvInt("SHIPPING_DOMESTIC_CENTS", 990)),
			ShippingEUCents:            int64(getEnvInt("SHIPPING_EU_CENTS", 1500)),
			FreeShippingThresholdCents: int64(getEnvInt("FREE_SHIPPING_THRESHOLD_CENTS", 15000)),
			VendorBaseURL:              getEnv("VENDOR_BASE_URL", "https://www.example-vignoble.fr"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvUint64(key string, fallback uint64) uint64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseUint(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}
