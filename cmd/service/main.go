// cmd/service/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"goods-return-service/internal/common/aws"
	"goods-return-service/internal/common/config"
	"goods-return-service/internal/common/database"
	stderrors "goods-return-service/internal/common/errors"
	"goods-return-service/internal/common/logger"
	"goods-return-service/internal/directory"
	"goods-return-service/internal/messaging"
	"goods-return-service/internal/models"
	"goods-return-service/internal/returns"
	"goods-return-service/internal/template"
	"goods-return-service/internal/users"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrapLog := logger.New("info", "console")
		bootstrapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting goods-return-service",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	// --- Persistence Gateway ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()

	err = retryWithBackoff(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "postgres ping")
	if err != nil {
		zapLog.Fatal("postgres unreachable", zap.Error(err))
	}

	// --- Collaborators ---
	entityDir := directory.NewPostgresDirectory(pg.GetDB(), log)
	renderer := template.NewRegistry()

	var messages messaging.MessagesClient = messaging.NewDisabledMessagesClient(log)
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES init failed", zap.Error(err))
		}
		messages = messaging.NewSESMessagesClient(sesClient, log)
	}

	var manager messaging.NotificationManager = messaging.NewDisabledNotificationManager(log)
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS init failed", zap.Error(err))
		}
		manager = messaging.NewSNSNotificationManager(
			snsClient, entityDir, cfg.Integrations.AWS.SNS.DefaultSMSSenderID, log)
	}

	// --- Services ---
	userService := users.NewService(pg.GetDB(), log)

	returnsCfg := &returns.Config{
		EmployeePermit: cfg.Notifications.EmployeePermit,
		Timeout:        time.Duration(cfg.Notifications.Timeout) * time.Millisecond,
	}
	handler := returns.NewHandler(returnsCfg, entityDir, renderer, messages, manager, log)

	// --- HTTP surface ---
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pg.Ping(pingCtx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/v1/returns/notification", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, stderrors.NewInvalidArgumentError("cannot read request body", err.Error()))
			return
		}
		result, err := handler.ProcessPayload(r.Context(), body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})
	mux.HandleFunc("/api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleGetUsers(w, r, userService)
		case http.MethodPost:
			handleAddUsers(w, r, userService)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
}

func handleGetUsers(w http.ResponseWriter, r *http.Request, svc *users.Service) {
	query := r.URL.Query()

	if raw := query.Get("age_from"); raw != "" {
		ageFrom, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, stderrors.NewInvalidArgumentError("age_from must be an integer", raw))
			return
		}
		result, err := svc.ListUsersOlderThan(r.Context(), ageFrom)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"users": result})
		return
	}

	if raw := query.Get("names"); raw != "" {
		names := strings.Split(raw, ",")
		result, err := svc.GetUsersByNames(r.Context(), names)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"users": result})
		return
	}

	writeError(w, stderrors.NewInvalidArgumentError("either age_from or names is required", ""))
}

func handleAddUsers(w http.ResponseWriter, r *http.Request, svc *users.Service) {
	var payload struct {
		Users []models.NewUser `json:"users"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, stderrors.NewInvalidArgumentError("request body does not decode", err.Error()))
		return
	}

	ids, err := svc.AddUsers(r.Context(), payload.Users)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"ids": ids})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP status codes. Entity lookups
// answer 400 (not 404), matching the source system's status usage.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.IsInvalidArgument(err), stderrors.IsNotFound(err):
		status = http.StatusBadRequest
	case stderrors.IsConflict(err):
		status = http.StatusConflict
	case stderrors.IsInvalidState(err):
		status = http.StatusInternalServerError
	}

	body := map[string]interface{}{"error": err.Error()}
	if code := stderrors.CodeOf(err); code != "" {
		body["code"] = string(code)
	}
	writeJSON(w, status, body)
}
