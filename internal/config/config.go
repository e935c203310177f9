package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RunModeOnce       = "once"
	RunModeContinuous = "continuous"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	LogFile  string

	// Aqualink cloud credentials. Both are required; everything else has a
	// working default.
	AqualinkUsername string
	AqualinkPassword string

	// Endpoint overrides for the vendor cloud. Empty means production;
	// the e2e suite points these at a local stub.
	AqualinkLoginURL   string
	AqualinkDevicesURL string
	AqualinkSessionURL string

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	Interval time.Duration
	RunMode  string

	// Optional sinks. Empty broker / address disables the sink.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
	RedisAddr    string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "INFO"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	// Unset means the default file; explicitly empty disables the file and
	// logs to stdout only.
	logFile := "pool_logger.log"
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		logFile = strings.TrimSpace(v)
	}

	username := strings.TrimSpace(os.Getenv("AQUALINK_USERNAME"))
	password := os.Getenv("AQUALINK_PASSWORD")
	if username == "" || password == "" {
		return Config{}, fmt.Errorf("AQUALINK_USERNAME and AQUALINK_PASSWORD environment variables are required")
	}

	dbHost := strings.TrimSpace(os.Getenv("DB_HOST"))
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbName := strings.TrimSpace(os.Getenv("DB_NAME"))
	if dbName == "" {
		dbName = "atticdb"
	}
	dbUser := strings.TrimSpace(os.Getenv("DB_USER"))
	if dbUser == "" {
		dbUser = "postgres"
	}
	dbPassword := os.Getenv("DB_PASSWORD")

	dbPortStr := strings.TrimSpace(os.Getenv("DB_PORT"))
	if dbPortStr == "" {
		dbPortStr = "5432"
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil || dbPort <= 0 {
		return Config{}, fmt.Errorf("invalid DB_PORT %q", dbPortStr)
	}

	intervalStr := strings.TrimSpace(os.Getenv("INTERVAL_MINUTES"))
	if intervalStr == "" {
		intervalStr = "60"
	}
	intervalMinutes, err := strconv.Atoi(intervalStr)
	if err != nil || intervalMinutes <= 0 {
		return Config{}, fmt.Errorf("invalid INTERVAL_MINUTES %q", intervalStr)
	}

	runMode := strings.ToLower(strings.TrimSpace(os.Getenv("RUN_MODE")))
	if runMode == "" {
		runMode = RunModeContinuous
	}
	switch runMode {
	case RunModeOnce, RunModeContinuous:
	default:
		return Config{}, fmt.Errorf("invalid RUN_MODE %q (allowed: once, continuous)", runMode)
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil || mqttPort <= 0 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q", mqttPortStr)
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "pool-logger"
	}
	mqttTopic := strings.TrimSpace(os.Getenv("MQTT_TOPIC"))
	if mqttTopic == "" {
		mqttTopic = "pool/readings"
	}

	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		LogFile:            logFile,
		AqualinkUsername:   username,
		AqualinkPassword:   password,
		AqualinkLoginURL:   strings.TrimSpace(os.Getenv("AQUALINK_LOGIN_URL")),
		AqualinkDevicesURL: strings.TrimSpace(os.Getenv("AQUALINK_DEVICES_URL")),
		AqualinkSessionURL: strings.TrimSpace(os.Getenv("AQUALINK_SESSION_URL")),
		DBHost:             dbHost,
		DBPort:             dbPort,
		DBName:             dbName,
		DBUser:             dbUser,
		DBPassword:         dbPassword,
		Interval:           time.Duration(intervalMinutes) * time.Minute,
		RunMode:            runMode,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTClientID:       mqttClientID,
		MQTTTopic:          mqttTopic,
		RedisAddr:          redisAddr,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
