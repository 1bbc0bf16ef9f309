package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config estructura de configuración
type Config struct {
	JWTSecret        string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	Puerto           string
	PuertoWS         string
	RutaPrefs        string
	AppEnv           string
}

// DatabaseConfig contiene la configuración de la base de datos
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig contiene la configuración de Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
}

// LoadConfig carga las variables desde .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env no encontrado, usamos variables de entorno")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "trueque_user"),
		Password: getEnv("PGPASSWORD", "trueque_pass"),
		Name:     getEnv("PGDATABASE", "trueque"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Formamos la cadena de conexión a la base de datos
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "trueque_mvp"),
	}

	cfg := &Config{
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: cloudinaryConfig,
		Puerto:           getEnv("PORT", "8080"),
		PuertoWS:         getEnv("WS_PORT", "8081"),
		RutaPrefs:        getEnv("PREFS_PATH", "trueque_prefs.db"),
		AppEnv:           getEnv("APP_ENV", "production"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("❌ Error: falta la variable de entorno JWT_SECRET")
	}

	return cfg
}

// getEnv obtiene una variable de entorno o usa el valor por defecto
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
