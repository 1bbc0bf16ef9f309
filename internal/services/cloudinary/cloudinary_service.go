package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/config"
)

// CloudinaryService genera las firmas para subir imágenes de trueques
type CloudinaryService struct {
	cfg          *config.Config
	uploadPreset string
	jwtService   *auth.JWTService
}

// NewCloudinaryService crea el servicio de Cloudinary
func NewCloudinaryService(cfg *config.Config) *CloudinaryService {
	return &CloudinaryService{
		cfg:          cfg,
		uploadPreset: cfg.CloudinaryConfig.UploadPreset,
		jwtService:   auth.NewJWTService(cfg.JWTSecret),
	}
}

// GenerateSignature crea la firma SHA-1 que exige Cloudinary
func (s *CloudinaryService) GenerateSignature(params map[string]string) string {
	// Ordenamos las claves de los parámetros
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Montamos la cadena a firmar
	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// El API secret va al final de la cadena
	signatureString += s.cfg.CloudinaryConfig.APISecret

	h := sha1.New()
	h.Write([]byte(signatureString))

	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams devuelve los parámetros firmados para subir la imagen
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	// Generamos un ID para el trueque si no viene en la petición
	truequeID := c.Query("trueque_id")
	if truequeID == "" {
		truequeID = uuid.New().String()
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Parámetros que entran en la firma
	params := map[string]string{
		"timestamp": timestamp,
	}
	if s.uploadPreset != "" {
		params["upload_preset"] = s.uploadPreset
	}

	signature := s.GenerateSignature(params)

	respuesta := fiber.Map{
		"timestamp":  timestamp,
		"signature":  signature,
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
		"trueque_id": truequeID,
	}
	if s.uploadPreset != "" {
		respuesta["upload_preset"] = s.uploadPreset
	}

	return c.JSON(respuesta)
}
