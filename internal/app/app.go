// Package app builds the application context: every connection, client,
// service and handler the API and its tools share, created once at startup
// and passed explicitly to whatever needs it.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/config"
	"github.com/photostream/photostream-api/internal/domain/auth"
	"github.com/photostream/photostream-api/internal/domain/comment"
	"github.com/photostream/photostream-api/internal/domain/discovery"
	"github.com/photostream/photostream-api/internal/domain/feed"
	"github.com/photostream/photostream-api/internal/domain/like"
	"github.com/photostream/photostream-api/internal/domain/photo"
	"github.com/photostream/photostream-api/internal/domain/rating"
	"github.com/photostream/photostream-api/internal/domain/user"
	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/cache"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/geoip"
	"github.com/photostream/photostream-api/internal/pkg/imaging"
	"github.com/photostream/photostream-api/internal/pkg/jwt"
	"github.com/photostream/photostream-api/internal/pkg/media"
	"github.com/photostream/photostream-api/internal/pkg/storage"
	"github.com/photostream/photostream-api/internal/pkg/vision"
)

const requestTimeout = 60 * time.Second

// App owns the shared resources. Close releases them.
type App struct {
	Config *config.Config

	DB    *sqlx.DB
	Redis *redis.Client // nil when caching is disabled
	Cache *cache.Cache

	Store    storage.Storage
	Media    media.Host
	Analyzer vision.Analyzer // nil when analysis is not configured
	JWT      *jwt.Service

	Users     *user.Service
	Auth      *auth.Service
	Photos    *photo.Service
	Comments  *comment.Service
	Ratings   *rating.Service
	Likes     *like.Service
	Discovery *discovery.Service
	Feed      *feed.Hub
}

// New connects to Postgres and Redis and wires every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			database.ClosePostgres(db)
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	store, err := storage.New(ctx, storage.Config{
		Driver:      cfg.StorageDriver,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PublicURL: cfg.S3PublicURL,
		LocalPath:   cfg.LocalStoragePath,
		LocalURL:    cfg.LocalStorageURL,
	})
	if err != nil {
		database.ClosePostgres(db)
		return nil, fmt.Errorf("storage: %w", err)
	}

	c := cache.NewFromURL(cfg.RedisURL, cfg.CacheEnabled, cfg.CacheTTL)
	return Assemble(cfg, db, c, store), nil
}

// Assemble wires services over already opened resources.
func Assemble(cfg *config.Config, db *sqlx.DB, c *cache.Cache, store storage.Storage) *App {
	a := &App{
		Config: cfg,
		DB:     db,
		Redis:  c.Client(),
		Cache:  c,
		Store:  store,
		Media:  media.NewStorageHost(store, imaging.NewProcessor(imaging.DefaultConfig()), cfg.MediaTimeout),
		JWT:    jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL),
	}

	// a nil *vision.Client must not become a non-nil Analyzer
	if client := vision.NewClient(cfg.VisionEndpoint, cfg.VisionKey, cfg.VisionTimeout); client != nil {
		a.Analyzer = client
		log.Info().Msg("Image analysis enabled")
	}

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	photoRepo := photo.NewRepository(db)

	// ---------- Services ----------
	a.Users = user.NewService(userRepo, c, cfg.CacheUserTTL)
	a.Auth = auth.NewService(userRepo, a.Users, a.JWT, a.Redis, a.Media)
	a.Photos = photo.NewService(photoRepo, a.Media, a.Analyzer, c, photo.NewRedisNotifier(a.Redis))
	a.Feed = feed.NewHub(a.Redis)
	go a.Feed.Run()
	a.Photos.SetEventPublisher(a.Feed)
	a.Comments = comment.NewService(comment.NewRepository(db), a.Photos, a.Users)
	a.Ratings = rating.NewService(rating.NewRepository(db), a.Photos, c)
	a.Likes = like.NewService(like.NewRepository(db), a.Photos, c)

	var cachePing discovery.Pinger
	if c.Enabled() {
		cachePing = c.Ping
	}
	a.Discovery = discovery.NewService(geoip.NewClient(cfg.GeoLookupURL, cfg.GeoTimeout), discovery.Config{
		Regions: discovery.Regions{
			{Name: discovery.RegionUSWest, URL: cfg.ServerUSWest},
			{Name: discovery.RegionUSEast, URL: cfg.ServerUSEast},
			{Name: discovery.RegionEUCentral, URL: cfg.ServerEU},
		},
		CurrentRegion:  cfg.RegionName,
		RegionsTimeout: cfg.RegionsTimeout,
		Database:       func(ctx context.Context) error { return database.Ping(ctx, db) },
		Cache:          cachePing,
	})

	return a
}

// Router builds the HTTP handler tree.
func (a *App) Router() http.Handler {
	authMiddleware := middleware.Auth(a.JWT)

	authHandler := auth.NewHandler(a.Auth, a.Config.MaxUploadSize)
	photoHandler := photo.NewHandler(a.Photos, a.Config.MaxUploadSize)
	commentHandler := comment.NewHandler(a.Comments)
	ratingHandler := rating.NewHandler(a.Ratings)
	likeHandler := like.NewHandler(a.Likes)
	discoveryHandler := discovery.NewHandler(a.Discovery)
	feedHandler := feed.NewHandler(a.Feed, a.Config.AllowedOrigins)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(a.Config.AllowedOrigins))

	// WebSocket endpoint (before Timeout and Compress)
	r.Get("/ws/photos", feedHandler.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(chimw.Compress(5))

		r.Get("/", discoveryHandler.Root)

		// Locally stored media is served by the API itself
		if local, ok := a.Store.(*storage.LocalStorage); ok {
			r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.BasePath()))))
		}

		r.Route("/api", func(r chi.Router) {
			discoveryHandler.Routes(r)

			r.Mount("/auth", authHandler.Routes(authMiddleware))
			r.Mount("/creator/photos", photoHandler.CreatorRoutes(authMiddleware))
			r.Mount("/photos", photoHandler.Routes(map[string]http.Handler{
				"comments": commentHandler.Routes(authMiddleware),
				"ratings":  ratingHandler.Routes(authMiddleware),
				"likes":    likeHandler.Routes(authMiddleware),
			}))
		})
	})

	return r
}

// Close releases connections.
func (a *App) Close() {
	if a.Feed != nil {
		a.Feed.Shutdown()
	}
	database.CloseRedis(a.Redis)
	database.ClosePostgres(a.DB)
}
