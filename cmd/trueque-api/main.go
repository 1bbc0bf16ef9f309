package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	autenticacion "github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/config"
	"github.com/truequeapp/trueque-api/internal/prefs"
	"github.com/truequeapp/trueque-api/internal/services/auth"
	"github.com/truequeapp/trueque-api/internal/services/cloudinary"
	"github.com/truequeapp/trueque-api/internal/services/solicitudes"
	"github.com/truequeapp/trueque-api/internal/services/trueques"
	"github.com/truequeapp/trueque-api/internal/store/postgres"
	"github.com/truequeapp/trueque-api/internal/websocket"
)

func main() {
	// Cargamos la configuración
	cfg := config.LoadConfig()

	// Inicializamos el almacén de documentos
	st, err := postgres.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Error al inicializar el almacén de documentos: %v", err)
	}
	defer st.Close()
	log.Println("✅ Almacén de documentos conectado")

	// Preferencias locales (remember_me)
	preferidas, err := prefs.Open(cfg.RutaPrefs)
	if err != nil {
		log.Fatalf("❌ Error al abrir las preferencias: %v", err)
	}
	defer preferidas.Close()

	// Creamos la instancia de Fiber
	app := fiber.New(fiber.Config{
		AppName:      "TruequeApp API",
		ErrorHandler: errorHandler,
	})

	// Middleware global
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Creamos los servicios
	identidad := autenticacion.New(st)
	authService := auth.NewAuthService(cfg, identidad, st, preferidas)
	truequesService := trueques.NewTruequesService(cfg, st)
	solicitudesService := solicitudes.NewSolicitudesService(cfg, st)
	cloudinaryService := cloudinary.NewCloudinaryService(cfg)

	// Registramos las rutas. El listado público de trueques va primero: los
	// middlewares de grupo casan por prefijo y no deben tapar las rutas abiertas.
	truequesService.SetupRoutes(app)
	solicitudesService.SetupRoutes(app)
	authService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)

	// Feed en vivo por WebSocket en su propio puerto
	feed := websocket.NewHandler(cfg, st)
	defer feed.Shutdown()
	go func() {
		log.Printf("✅ Feed WebSocket escuchando en el puerto %s", cfg.PuertoWS)
		if err := feed.Serve(":" + cfg.PuertoWS); err != nil {
			log.Printf("❌ Feed WebSocket detenido: %v", err)
		}
	}()

	// Arrancamos el servidor
	log.Printf("✅ TruequeApp API escuchando en el puerto %s", cfg.Puerto)
	log.Fatal(app.Listen(":" + cfg.Puerto))
}

// errorHandler transforma los errores de Fiber en respuestas JSON
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
