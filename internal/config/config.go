package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Required values are enforced by must();
// the booking tunables default to sensible fleet-operation values so a
// bare environment still boots a working service.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify access tokens

	// Booking window and slot rules.
	MaxAdvanceDays   int     // how far ahead bookings open
	MinNoticeHours   float64 // minimum notice before a charter starts
	BufferMinutes    int     // turnaround margin between charters on the same unit
	OpenMinute       int     // operating window start, minutes from midnight
	CloseMinute      int     // operating window end, minutes from midnight
	MinDurationHours float64 // shortest bookable charter
	MaxDurationHours float64 // longest bookable charter
	SlotStepMinutes  int     // stride used when suggesting alternative slots
	FleetSize        int     // fallback unit count when the boats table is empty

	// Pricing.
	BaseRate     float64 // hourly rate per unit before adjustments
	TaxPercent   float64 // tax percentage applied to the subtotal
	TaxInclusive bool    // whether BaseRate already includes tax

	// Cancellation refund policy.
	RefundUnit       string  // "hours" or "days" before start
	FullRefundAt     float64 // at or above this distance, refund 100%
	PartialRefundAt  float64 // at or above this distance, refund PartialRefundPct
	PartialRefundPct float64 // percentage refunded in the middle tier

	// Marine forecast provider.
	WeatherURL      string // forecast endpoint (empty disables the client)
	WeatherLat      string // harbor latitude
	WeatherLon      string // harbor longitude
	WeatherCacheTTL int    // forecast cache lifetime in minutes
}

// Load reads configuration values from environment variables and returns a
// Config. Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),

		MaxAdvanceDays:   envInt("MAX_ADVANCE_DAYS", 60),
		MinNoticeHours:   envFloat("MIN_NOTICE_HOURS", 2),
		BufferMinutes:    envInt("BUFFER_MINUTES", 30),
		OpenMinute:       envInt("OPEN_MINUTE", 8*60),
		CloseMinute:      envInt("CLOSE_MINUTE", 20*60),
		MinDurationHours: envFloat("MIN_DURATION_HOURS", 1),
		MaxDurationHours: envFloat("MAX_DURATION_HOURS", 8),
		SlotStepMinutes:  envInt("SLOT_STEP_MINUTES", 60),
		FleetSize:        envInt("FLEET_SIZE", 3),

		BaseRate:     envFloat("BASE_RATE", 2000),
		TaxPercent:   envFloat("TAX_PERCENT", 18),
		TaxInclusive: envBool("TAX_INCLUSIVE", false),

		RefundUnit:       envStr("REFUND_UNIT", "hours"),
		FullRefundAt:     envFloat("FULL_REFUND_THRESHOLD", 48),
		PartialRefundAt:  envFloat("PARTIAL_REFUND_THRESHOLD", 24),
		PartialRefundPct: envFloat("PARTIAL_REFUND_PERCENT", 50),

		WeatherURL:      os.Getenv("WEATHER_URL"), // optional collaborator
		WeatherLat:      envStr("WEATHER_LAT", "0"),
		WeatherLon:      envStr("WEATHER_LON", "0"),
		WeatherCacheTTL: envInt("WEATHER_CACHE_TTL_MIN", 60),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envFloat is like envInt but for decimal values such as durations in
// hours and monetary rates.
func envFloat(k string, d float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return d
}
