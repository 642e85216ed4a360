package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	ort "github.com/yalue/onnxruntime_go"
	"gorm.io/gorm"

	"vision-backend/cmd"
	"vision-backend/internal/api"
	"vision-backend/internal/core"
	"vision-backend/internal/database"
	"vision-backend/internal/storage"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8000"`
	AppDataDir  string `env:"APP_DATA_DIR" envDefault:"./visionsense"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:""`
	DefaultTopK int    `env:"DEFAULT_TOP_K" envDefault:"5"`

	ModelPath  string `env:"MODEL_PATH" envDefault:"models/resnet18.onnx"`
	LabelsPath string `env:"LABELS_PATH" envDefault:"models/labels.json"`

	OnnxRuntimeDylib string `env:"ONNX_RUNTIME_DYLIB"`

	// When ModelBucket is set the artifacts are pulled from an object
	// store into the local cache instead of read from ModelPath.
	ModelBucket       string `env:"MODEL_BUCKET" envDefault:""`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
}

func setupLogFile(root string) *os.File {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}

	log.SetOutput(io.MultiWriter(f, os.Stderr))
	return f
}

func resolveArtifacts(cfg Config) (string, string) {
	if cfg.ModelBucket == "" {
		return cfg.ModelPath, cfg.LabelsPath
	}

	var store storage.Provider
	if cfg.S3EndpointURL != "" || cfg.S3AccessKeyID != "" {
		s3Store, err := storage.NewS3Provider(&storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		store = s3Store
	} else {
		localStore, err := storage.NewLocalProvider(filepath.Join(cfg.AppDataDir, "storage"))
		if err != nil {
			log.Fatalf("Failed to create local storage provider: %v", err)
		}
		store = localStore
	}

	modelPath, labelsPath, err := core.FetchArtifacts(
		context.Background(), store, cfg.ModelBucket, filepath.Join(cfg.AppDataDir, "models"))
	if err != nil {
		log.Fatalf("Failed to fetch model artifacts: %v", err)
	}
	return modelPath, labelsPath
}

func createServer(db *gorm.DB, classifier *core.Classifier, modelName string, cfg Config) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	apiHandler := api.NewClassifierService(db, classifier, modelName, cfg.DefaultTopK)
	apiHandler.AddRoutes(r)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	logFile := setupLogFile(cfg.AppDataDir)
	defer logFile.Close()

	if cfg.OnnxRuntimeDylib != "" {
		ort.SetSharedLibraryPath(cfg.OnnxRuntimeDylib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		log.Fatalf("could not init ONNX Runtime: %v", err)
	}
	defer func() {
		if err := ort.DestroyEnvironment(); err != nil {
			log.Printf("error destroying onnx env: %v", err)
		}
	}()

	db, err := database.New(cfg.DatabaseURL, cfg.AppDataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	modelPath, labelsPath := resolveArtifacts(cfg)

	slog.Info("loading classifier", "model", modelPath, "labels", labelsPath)
	classifier, err := core.LoadClassifier(modelPath, labelsPath)
	if err != nil {
		log.Fatalf("Failed to load classifier: %v", err)
	}
	defer classifier.Release()

	server := createServer(db, classifier, filepath.Base(modelPath), cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server listening", "port", cfg.Port, "classes", len(classifier.Labels()))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on port %d: %v", cfg.Port, err)
	}

	slog.Info("server stopped")
}
