package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StoreDriver    string // persistence backend: "mysql" or "memory"
	DBUser         string // database username (mysql driver only)
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	RazorpayKeyID  string // payment gateway key id ("" selects the fake gateway)
	RazorpaySecret string // payment gateway key secret, also signs verification payloads
	Currency       string // ISO currency code for orders (default INR)
	AMQPURL        string // RabbitMQ connection URL for booking notifications
	ResendAPIKey   string // Resend API key for emails ("" enables mock mode)
	EmailFrom      string // From address used for notification emails
}

// Load reads configuration values from environment variables and returns a
// Config.  Database variables are only required when the mysql store driver
// is selected; the memory driver needs none of them.
func Load() Config {
	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("APP_PORT", "8080"),
		StoreDriver:    getenv("STORE_DRIVER", "mysql"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		RazorpayKeyID:  os.Getenv("RAZORPAY_KEY_ID"),
		RazorpaySecret: must("RAZORPAY_KEY_SECRET"),
		Currency:       getenv("PAYMENT_CURRENCY", "INR"),
		AMQPURL:        os.Getenv("RABBITMQ_URL"),
		ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
		EmailFrom:      os.Getenv("EMAIL_FROM"),
	}
	if cfg.StoreDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
