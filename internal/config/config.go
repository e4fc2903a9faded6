package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server and CLI read from the environment.
type Config struct {
	Port                 string
	OutputDir            string
	AssetsDir            string
	WorkDir              string
	ImageGenURL          string
	AiEnabled            bool
	TTSBaseURL           string
	TTSAPIKey            string
	TTSVoiceID           string
	MongoURI             string
	MongoDatabase        string
	MaxConcurrentRenders int64
	VideoWidth           int
	VideoHeight          int
	VideoFPS             int
}

// Load reads .env when present, then the environment, filling defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		OutputDir:            getEnv("OUTPUT_DIR", "output"),
		AssetsDir:            getEnv("ASSETS_DIR", "assets"),
		WorkDir:              getEnv("WORK_DIR", os.TempDir()),
		ImageGenURL:          getEnv("IMAGE_GEN_URL", "https://image.pollinations.ai/prompt"),
		AiEnabled:            getEnvBool("AI_BACKGROUNDS_ENABLED", true),
		TTSBaseURL:           getEnv("TTS_BASE_URL", ""),
		TTSAPIKey:            getEnv("ELEVENLABS_API_KEY", ""),
		TTSVoiceID:           getEnv("VOICE_ID", ""),
		MongoURI:             getEnv("MONGODB_URI", ""),
		MongoDatabase:        getEnv("MONGODB_DATABASE", "filmmagix"),
		MaxConcurrentRenders: int64(getEnvInt("MAX_CONCURRENT_RENDERS", 2)),
		VideoWidth:           getEnvInt("VIDEO_WIDTH", 1280),
		VideoHeight:          getEnvInt("VIDEO_HEIGHT", 720),
		VideoFPS:             getEnvInt("VIDEO_FPS", 30),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("invalid boolean for %s, using default %t", key, fallback)
	}
	return fallback
}
