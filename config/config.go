package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/camden-git/attendsysbackend/recognition"
)

const (
	DefaultCapturesSubDir = "captures"
)

const (
	defaultCaptureMaxSize        = 640
	defaultRecognitionIntervalMS = 1000
	defaultJWTExpirationHours    = 24
)

type Config struct {
	// database path
	DatabasePath string

	// media storage configuration
	MediaStoragePath string // primary root for stored capture frames
	CapturesSubDir   string // subdirectory under MediaStoragePath
	CaptureMaxSize   int    // longest side of a stored capture

	// recognition tuning
	RecognitionThreshold  float64 // minimum confidence to consider a candidate at all
	ConfidenceThreshold   float64 // minimum confidence for automatic marking
	RecognitionIntervalMS int     // continuous loop tick period

	// face detection model paths (DNN)
	FaceDNNNetConfigPath string
	FaceDNNNetModelPath  string
	FaceEmbedModelPath   string

	// auth
	JWTSecret          string
	JWTExpirationHours int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val < 0 || val > 1 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "attendance.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := Config{
		DatabasePath:          dbPath,
		MediaStoragePath:      absMediaStorage,
		CapturesSubDir:        getEnvOrDefault("CAPTURES_SUBDIR", DefaultCapturesSubDir),
		CaptureMaxSize:        getEnvIntOrDefault("CAPTURE_MAX_SIZE", defaultCaptureMaxSize),
		RecognitionThreshold:  getEnvFloatOrDefault("RECOGNITION_THRESHOLD", recognition.DefaultRecognitionThreshold),
		ConfidenceThreshold:   getEnvFloatOrDefault("CONFIDENCE_THRESHOLD", recognition.DefaultConfidenceThreshold),
		RecognitionIntervalMS: getEnvIntOrDefault("RECOGNITION_INTERVAL_MS", defaultRecognitionIntervalMS),
		FaceDNNNetConfigPath:  getEnvOrDefault("FACE_DNN_CONFIG_PATH", "./models/deploy.prototxt.txt"),
		FaceDNNNetModelPath:   getEnvOrDefault("FACE_DNN_MODEL_PATH", "./models/res10_300x300_ssd_iter_140000_fp16.caffemodel"),
		FaceEmbedModelPath:    getEnvOrDefault("FACE_EMBED_MODEL_PATH", "./models/arcface_r18.onnx"),
		JWTSecret:             jwtSecret,
		JWTExpirationHours:    getEnvIntOrDefault("JWT_EXPIRATION_HOURS", defaultJWTExpirationHours),
	}

	return cfg, nil
}

// Thresholds returns the configured recognition decision cutoffs.
func (c Config) Thresholds() recognition.Thresholds {
	return recognition.Thresholds{
		Recognition: c.RecognitionThreshold,
		Confidence:  c.ConfidenceThreshold,
	}
}
