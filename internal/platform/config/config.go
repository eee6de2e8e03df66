package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	// Script voting cadence and gating.
	VotingCadence        string // weekly, daily, immediate
	VotingWeekday        time.Weekday
	VotingHourUTC        int
	VotingImmediateDelay time.Duration
	VotingPeriodLength   time.Duration
	MinScriptsPerPeriod  int

	// Production queue tuning.
	TickInterval       time.Duration
	WorkerMaxJobs      int
	WorkerMaxRuntime   time.Duration
	JobMaxAttempts     int
	StuckJobThreshold  time.Duration
	ClipWindowDuration time.Duration

	// Collaborator endpoints.
	ModalVideoEndpoint  string
	ModalRefineEndpoint string
	GradientTTSEndpoint string
	GradientAPIKey      string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	EnableScriptSelectedConsumer bool
	EnableStuckJobSweep          bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "showrunner"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	cadence := strings.TrimSpace(strings.ToLower(os.Getenv("VOTING_CADENCE")))
	switch cadence {
	case "weekly", "daily", "immediate":
	default:
		cadence = "weekly"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		VotingCadence:        cadence,
		VotingWeekday:        time.Weekday(envInt("VOTING_WEEKDAY", int(time.Friday))),
		VotingHourUTC:        envInt("VOTING_HOUR_UTC", 18),
		VotingImmediateDelay: envDuration("VOTING_IMMEDIATE_DELAY", 5*time.Minute),
		VotingPeriodLength:   envDuration("VOTING_PERIOD_LENGTH", 72*time.Hour),
		MinScriptsPerPeriod:  envInt("MIN_SCRIPTS_PER_PERIOD", 3),

		TickInterval:       envDuration("TICK_INTERVAL", 30*time.Second),
		WorkerMaxJobs:      envInt("WORKER_MAX_JOBS", 5),
		WorkerMaxRuntime:   envDuration("WORKER_MAX_RUNTIME", 10*time.Minute),
		JobMaxAttempts:     envInt("JOB_MAX_ATTEMPTS", 3),
		StuckJobThreshold:  envDuration("STUCK_JOB_THRESHOLD", 30*time.Minute),
		ClipWindowDuration: envDuration("CLIP_WINDOW_DURATION", 24*time.Hour),

		ModalVideoEndpoint:  os.Getenv("MODAL_VIDEO_ENDPOINT"),
		ModalRefineEndpoint: os.Getenv("MODAL_REFINE_ENDPOINT"),
		GradientTTSEndpoint: os.Getenv("GRADIENT_TTS_ENDPOINT"),
		GradientAPIKey:      os.Getenv("GRADIENT_API_KEY"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    envString("MINIO_BUCKET", "showrunner-media"),
		MinioUseSSL:    envBool("MINIO_USE_SSL", false),

		EnableScriptSelectedConsumer: envBool("ENABLE_SCRIPT_SELECTED_CONSUMER", true),
		EnableStuckJobSweep:          envBool("ENABLE_STUCK_JOB_SWEEP", true),
	}, nil
}

func envString(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
