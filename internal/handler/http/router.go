package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/annam-hrm/attendance-ingest-go/internal/handler/http/middleware"
	"github.com/annam-hrm/attendance-ingest-go/internal/handler/http/response"
	"github.com/annam-hrm/attendance-ingest-go/internal/pkg/jwt"
)

func NewRouter(env string, jwtService jwt.Service, iclock *IclockHandler, operator *OperatorHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-ingest"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(chiMiddleware.RealIP)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, "ok", nil)
	})

	// Push protocol. Devices speak plain text and expect HTTP 200 on
	// every path, so none of these routes use the JSON envelope.
	r.Route("/iclock", func(r chi.Router) {
		r.Get("/getrequest", iclock.GetRequest)
		r.Get("/cdata", iclock.CData)
		r.Post("/cdata", iclock.CData)
		r.Get("/devicecmd", iclock.DeviceCmd)
		r.Post("/devicecmd", iclock.DeviceCmd)
		r.Get("/fdata", iclock.FData)
		r.Post("/fdata", iclock.FData)
		r.Get("/public", iclock.Public)
		r.Post("/public", iclock.Public)
		r.Get("/ping", iclock.Ping)
		r.Get("/serverinfo", iclock.ServerInfo)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowCredentials: true,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Link"},
			MaxAge:           300,
		}))

		r.Post("/auth/login", operator.Login)

		// Requires an operator token
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.OperatorAuthenticator(jwtService.JWTAuth()))

			r.Route("/attendances", func(r chi.Router) {
				r.Get("/", operator.ListAttendances)
				r.Get("/{id}", operator.GetAttendance)
				r.Patch("/{id}/discharge", operator.SetDischargeShift)
				r.Post("/{id}/recompute", operator.RecomputeAttendance)
			})
			r.Route("/unknown-punches", func(r chi.Router) {
				r.Get("/", operator.ListUnknownPunches)
				r.Post("/{id}/assign", operator.AssignUnknownPunch)
				r.Post("/{id}/ignore", operator.IgnoreUnknownPunch)
			})
			r.Route("/processing-logs", func(r chi.Router) {
				r.Get("/", operator.ListProcessingLogs)
				r.Post("/{id}/replay", operator.ReplayProcessingLog)
			})
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", operator.ListDevices)
				r.Post("/{serial}/commands", operator.EnqueueCommand)
			})
		})
	})

	return r
}
