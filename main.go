package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/attendsysbackend/config"
	"github.com/camden-git/attendsysbackend/database"
	"github.com/camden-git/attendsysbackend/handlers"
	"github.com/camden-git/attendsysbackend/media"
	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/realtime"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.MediaStoragePath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("FATAL: Failed to get underlying sql.DB: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	faceRepo := repository.NewFaceProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	logRepo := repository.NewAttendanceLogRepository(db)

	captureStore, err := media.NewLocalCaptureStore(cfg.MediaStoragePath, cfg.CapturesSubDir, cfg.CaptureMaxSize)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize capture store: %v", err)
	}

	detector := media.NewDNNFaceDetector(cfg.FaceDNNNetConfigPath, cfg.FaceDNNNetModelPath, cfg.FaceEmbedModelPath)

	hub := realtime.NewHub()
	go hub.Run()
	notifier := realtime.NewNotifier(hub)

	attendanceSvc := services.NewAttendanceService(sessionRepo, logRepo, classRepo)
	rosterSvc := services.NewRosterService(classRepo, faceRepo)
	recognitionSvc := services.NewRecognitionService(
		detector,
		rosterSvc,
		attendanceSvc,
		sessionRepo,
		captureStore,
		notifier,
		cfg.Thresholds(),
		time.Duration(cfg.RecognitionIntervalMS)*time.Millisecond,
	)

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing captures in: %s", filepath.Join(cfg.MediaStoragePath, cfg.CapturesSubDir))
	log.Printf("Recognition thresholds: match %.2f, auto-mark %.2f, interval %dms",
		cfg.RecognitionThreshold, cfg.ConfidenceThreshold, cfg.RecognitionIntervalMS)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(userRepo, cfg)
	userHandler := &handlers.UserHandler{UserRepo: userRepo}
	classHandler := &handlers.ClassHandler{ClassRepo: classRepo, UserRepo: userRepo}
	sessionHandler := &handlers.SessionHandler{
		SessionRepo: sessionRepo,
		LogRepo:     logRepo,
		ClassRepo:   classRepo,
		Attendance:  attendanceSvc,
		Recognition: recognitionSvc,
	}
	faceHandler := &handlers.FaceHandler{FaceRepo: faceRepo, UserRepo: userRepo, Recognition: recognitionSvc}
	reportHandler := &handlers.ReportHandler{DB: sqlDB}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(userRepo, cfg.JWTSecret))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/users", func(r chi.Router) {
				r.With(handlers.RequireRole(models.RoleAdmin, models.RoleTeacher)).Get("/", userHandler.ListUsers)
				r.With(handlers.RequireRole(models.RoleAdmin)).Post("/", authHandler.Register)
				r.Route("/{user_id}", func(r chi.Router) {
					r.With(handlers.RequireRole(models.RoleAdmin, models.RoleTeacher)).Get("/", userHandler.GetUser)
					r.With(handlers.RequireRole(models.RoleAdmin)).Delete("/", userHandler.DeleteUser)
				})
			})

			r.Route("/classes", func(r chi.Router) {
				r.Use(handlers.RequireRole(models.RoleAdmin, models.RoleTeacher))
				r.Post("/", classHandler.CreateClass)
				r.Get("/", classHandler.ListClasses)
				r.Route("/{class_id}", func(r chi.Router) {
					r.Get("/", classHandler.GetClass)
					r.Put("/", classHandler.UpdateClass)
					r.Delete("/", classHandler.DeleteClass)
					r.Get("/roster", classHandler.GetRoster)
					r.Post("/enrollments", classHandler.EnrollStudent)
					r.Delete("/enrollments/{student_id}", classHandler.UnenrollStudent)
					r.Post("/sessions", sessionHandler.CreateSession)
					r.Get("/sessions", sessionHandler.ListSessions)
					r.Get("/report", reportHandler.ClassReport)
				})
			})

			r.Route("/sessions/{session_id}", func(r chi.Router) {
				r.Use(handlers.RequireRole(models.RoleAdmin, models.RoleTeacher))
				r.Get("/", sessionHandler.GetSession)
				r.Post("/start", sessionHandler.StartSession)
				r.Post("/complete", sessionHandler.CompleteSession)
				r.Get("/logs", sessionHandler.ListLogs)
				r.Get("/absent", sessionHandler.ListAbsent)
				r.Post("/mark", sessionHandler.MarkManual)
				r.Get("/report", reportHandler.SessionReport)
				r.Post("/recognize", faceHandler.Recognize)
				r.Post("/loop/start", faceHandler.StartLoop)
				r.Post("/loop/stop", faceHandler.StopLoop)
				r.Post("/frames", faceHandler.SubmitFrame)
			})

			r.Route("/students/{student_id}/face", func(r chi.Router) {
				r.Use(handlers.RequireRole(models.RoleAdmin, models.RoleTeacher))
				r.Post("/", faceHandler.RegisterDescriptors)
				r.Get("/", faceHandler.GetProfile)
				r.Delete("/", faceHandler.DeleteProfile)
			})
		})

		r.Get(fmt.Sprintf("/%s/*", cfg.CapturesSubDir), handlers.AssetServer(cfg.MediaStoragePath, cfg.CapturesSubDir))
		log.Printf("Registered capture server at /%s/*", cfg.CapturesSubDir)
	})

	r.Get("/ws/recognition", hub.ServeWS)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
