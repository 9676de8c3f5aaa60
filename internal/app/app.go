package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Trinaxus/TON.BAND/internal/archive"
	"github.com/Trinaxus/TON.BAND/internal/config"
	"github.com/Trinaxus/TON.BAND/internal/credential"
	"github.com/Trinaxus/TON.BAND/internal/db"
	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/gate"
	"github.com/Trinaxus/TON.BAND/internal/middleware"
	"github.com/Trinaxus/TON.BAND/internal/preview"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/service"
	"github.com/Trinaxus/TON.BAND/internal/storage"
	"github.com/Trinaxus/TON.BAND/internal/tablestore"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
	previewSize    = 32
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	AuthService      *service.AuthService
	UserService      *service.UserService
	EmailService     *service.EmailService
	FileService      *service.FileService
	BlogService      *service.BlogService
	LegalService     *service.LegalService
	GalleryService   *service.GalleryService
	PortfolioService *service.PortfolioService
	VisitorService   *service.VisitorService
	ArchiveService   *archive.Service
	Previews         *preview.Renderer
	Gate             *gate.Gate
	GalleryCookies   *gate.CookieStore
	AuthLimiter      *middleware.RateLimiter

	stop chan struct{}
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(ctx, database.DB, cfg.DBDriver); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Upstream clients. Writes to the user table use the admin token.
	tableStore := tablestore.NewClient(cfg.BaserowAPIURL, cfg.BaserowToken, nil, cfg.UpstreamTimeout)
	adminStore := tableStore.WithToken(cfg.BaserowAdminToken)
	files := fileapi.NewClient(fileapi.ClientConfig{
		BaseURL:             cfg.FileAPIBaseURL,
		Token:               cfg.FileAPIToken,
		FileOperationsToken: cfg.FileOperationsToken,
		Timeout:             cfg.UpstreamTimeout,
	})

	// Repositories
	userRepository := repository.NewUserRepository(tableStore, adminStore, cfg.BaserowUserTableID, cfg.UserFields)
	blogRepository := repository.NewBlogRepository(adminStore, cfg.BaserowBlogTableID)
	visitorRepository := repository.NewVisitorRepository(database)
	var portfolioRepository repository.PortfolioRepository
	switch strings.ToLower(cfg.PortfolioStore) {
	case "tablestore":
		portfolioRepository = repository.NewPortfolioTableRepository(adminStore, cfg.BaserowPortfolioTableID)
	case "db", "":
		portfolioRepository = repository.NewPortfolioRepository(database)
	default:
		database.Close()
		return nil, fmt.Errorf("unknown PORTFOLIO_STORE %q", cfg.PortfolioStore)
	}

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	legacy, err := credential.LoadLegacyAllowList(cfg.LegacyCredentialsFile)
	if err != nil {
		database.Close()
		return nil, err
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AdminEmail,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		legacy,
		emailService,
		cfg.SessionSecret,
		cfg.SessionExpiry,
		cfg.IsProduction(),
	)
	galleryGate := gate.New(files, gate.FailClosed(cfg.GalleryFailClosed))
	galleryService := service.NewGalleryService(files, galleryGate)
	blogService := service.NewBlogService(blogRepository)

	// Media fetches are bounded by the request context only.
	mediaClient := &http.Client{}

	a := &App{
		Cfg:              cfg,
		DB:               database,
		AuthService:      authService,
		UserService:      service.NewUserService(userRepository),
		EmailService:     emailService,
		FileService:      service.NewFileService(fileStorage),
		BlogService:      blogService,
		LegalService:     service.NewLegalService(cfg.ContentPath),
		GalleryService:   galleryService,
		PortfolioService: service.NewPortfolioService(portfolioRepository, galleryService),
		VisitorService:   service.NewVisitorService(visitorRepository),
		ArchiveService:   archive.NewService(mediaClient, cfg.ArchiveAllowedHosts),
		Previews:         preview.NewRenderer(&http.Client{Timeout: cfg.UpstreamTimeout}, previewSize),
		Gate:             galleryGate,
		GalleryCookies:   gate.NewCookieStore(cfg.SessionSecret, cfg.IsProduction()),
		AuthLimiter:      middleware.NewRateLimiter(authRateLimit, authRateWindow),
		stop:             make(chan struct{}),
	}
	go a.AuthLimiter.RunCleanup(5*time.Minute, a.stop)

	return a, nil
}

func (a *App) Close() error {
	close(a.stop)
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
