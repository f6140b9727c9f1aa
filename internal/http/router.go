package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/ouvidoria/internal/complaint"
	"github.com/urbanbyte/ouvidoria/internal/config"
	"github.com/urbanbyte/ouvidoria/internal/department"
	httpmiddleware "github.com/urbanbyte/ouvidoria/internal/http/middleware"
	"github.com/urbanbyte/ouvidoria/internal/notify"
	"github.com/urbanbyte/ouvidoria/internal/repo"
	"github.com/urbanbyte/ouvidoria/internal/review"
	"github.com/urbanbyte/ouvidoria/internal/service"
	"github.com/urbanbyte/ouvidoria/internal/storage"
)

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	users         *repo.Queries
	complaints    *complaint.Service
	departments   *department.Service
	reviews       *review.Service
	hub           *notify.Hub
	storage       storage.Uploader
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService, hub *notify.Hub) (http.Handler, error) {
	repository := repo.New(pool)

	publisher := notify.NewRedisPublisher(redisClient, log.With().Str("component", "notify").Logger())

	var alerter notify.Alerter
	if wa := notify.NewWebhookAlerter(cfg.AlertWebhookURL); wa != nil {
		alerter = wa
	}

	var uploader storage.Uploader = storage.NoopUploader{}
	switch cfg.Storage.Provider {
	case "", "noop":
		// mantém uploader padrão
	case "s3", "r2", "cloudflare-r2":
		s3Cfg := storage.S3Config{
			Endpoint:     cfg.Storage.S3Endpoint,
			Region:       cfg.Storage.S3Region,
			Bucket:       cfg.Storage.S3Bucket,
			AccessKey:    cfg.Storage.S3AccessKey,
			SecretKey:    cfg.Storage.S3SecretKey,
			PublicDomain: cfg.Storage.S3PublicURL,
		}
		s3Uploader, err := storage.NewS3Uploader(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		uploader = s3Uploader
	default:
		return nil, fmt.Errorf("storage: provedor %s não suportado", cfg.Storage.Provider)
	}

	departmentRepo := department.NewRepository(pool)
	departmentService := department.NewService(departmentRepo, repository)

	complaintRepo := complaint.NewRepository(pool)
	complaintService := complaint.NewService(
		complaintRepo,
		departmentService,
		repository,
		publisher,
		alerter,
		log.With().Str("component", "complaint").Logger(),
	)

	reviewRepo := review.NewRepository(pool)
	reviewService := review.NewService(reviewRepo)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		users:         repository,
		complaints:    complaintService,
		departments:   departmentService,
		reviews:       reviewService,
		hub:           hub,
		storage:       uploader,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Register)
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	// Websocket autentica por token na query string; fica fora do grupo com
	// middleware de Authorization.
	r.Get("/ws", h.Watch)

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)

		private.Route("/complaints", func(c chi.Router) {
			c.Post("/", h.CreateComplaint)
			c.Get("/", h.ListComplaints)
			c.Get("/{id}", h.GetComplaint)
			c.Get("/{id}/updates", h.ListComplaintUpdates)
			c.Get("/{id}/attachments", h.ListComplaintAttachments)
			c.Post("/{id}/attachments", h.UploadComplaintAttachment)
			c.Post("/{id}/review", h.SubmitComplaintReview)
			c.Get("/{id}/reviews", h.ListComplaintReviews)

			c.Group(func(staff chi.Router) {
				staff.Use(httpmiddleware.RequireRoles(repo.RoleProvider, repo.RoleAdmin))
				staff.Post("/{id}/status", h.TransitionComplaint)
				staff.Post("/{id}/updates", h.AddComplaintUpdate)
			})

			c.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRoles(repo.RoleAdmin))
				admin.Get("/stats", h.ComplaintStats)
				admin.Post("/{id}/assign", h.AssignComplaint)
				admin.Delete("/{id}", h.ArchiveComplaint)
			})
		})

		private.Route("/departments", func(d chi.Router) {
			d.Get("/", h.ListDepartments)
			d.Get("/{id}", h.GetDepartment)

			d.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRoles(repo.RoleAdmin))
				admin.Post("/", h.CreateDepartment)
				admin.Patch("/{id}", h.UpdateDepartment)
				admin.Post("/{id}/activate", h.ActivateDepartment)
				admin.Post("/{id}/deactivate", h.DeactivateDepartment)
				admin.Put("/{id}/head", h.SetDepartmentHead)
				admin.Get("/{id}/staff", h.ListDepartmentStaff)
				admin.Post("/{id}/staff", h.AddDepartmentStaff)
				admin.Delete("/{id}/staff/{userID}", h.RemoveDepartmentStaff)
			})
		})

		private.Route("/reviews", func(rev chi.Router) {
			rev.Post("/system", h.CreateSystemReview)
			rev.Get("/system", h.ListSystemReviews)
		})

		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireRoles(repo.RoleAdmin))
			admin.Get("/users", h.ListUsers)
			admin.Post("/users/{id}/active", h.SetUserActive)
		})
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (h *Handler) subjectUUID(r *http.Request) (uuid.UUID, error) {
	subject := httpmiddleware.GetSubject(r.Context())
	if subject == "" {
		return uuid.Nil, errors.New("subject ausente")
	}
	return uuid.Parse(subject)
}

func (h *Handler) actor(r *http.Request) (complaint.Actor, error) {
	id, err := h.subjectUUID(r)
	if err != nil {
		return complaint.Actor{}, err
	}
	return complaint.Actor{ID: id, Role: httpmiddleware.GetRole(r.Context())}, nil
}
