package routes

import (
	"io/fs"
	"net/http"

	"github.com/Trinaxus/TON.BAND/assets"
	"github.com/Trinaxus/TON.BAND/internal/app"
	"github.com/Trinaxus/TON.BAND/internal/handler"
	"github.com/Trinaxus/TON.BAND/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.GalleryService)
	seo := handler.NewSEOHandler(app.BlogService, app.Cfg.AppURL)
	blog := handler.NewBlogHandler(app.BlogService, app.FileService)
	legal := handler.NewLegalHandler(app.LegalService)
	auth := handler.NewAuthHandler(app.AuthService)
	users := handler.NewUserHandler(app.UserService)
	galleries := handler.NewGalleryHandler(app.GalleryService, app.Previews, app.Cfg.CORSAllowOrigin)
	galleryPages := handler.NewGalleryPageHandler(app.GalleryService, app.Gate, app.GalleryCookies)
	archive := handler.NewArchiveHandler(app.ArchiveService)
	portfolio := handler.NewPortfolioHandler(app.PortfolioService)
	visitors := handler.NewVisitorHandler(app.VisitorService)

	admin := middleware.RequireAdmin
	rateLimiter := middleware.RateLimit(app.AuthLimiter)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC PAGES
	// ============================================================================

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))

	// SEO
	mux.HandleFunc("GET /robots.txt", seo.Robots)
	mux.HandleFunc("GET /sitemap.xml", seo.Sitemap)

	// Home and galleries
	mux.HandleFunc("GET /{$}", home.HomePage)
	mux.HandleFunc("GET /galerie/{year}/{name}", galleryPages.Show)
	mux.HandleFunc("POST /galerie/{year}/{name}/unlock", galleryPages.Unlock)

	// Content
	mux.HandleFunc("GET /blog", blog.ListPosts)
	mux.HandleFunc("GET /blog/{slug}", blog.ShowPost)
	mux.HandleFunc("GET /impressum", legal.Page("impressum"))
	mux.HandleFunc("GET /datenschutz", legal.Page("datenschutz"))

	// ============================================================================
	// AUTH API
	// ============================================================================

	mux.HandleFunc("POST /api/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/logout", auth.Logout)
	mux.HandleFunc("GET /api/session", auth.Session)

	// ============================================================================
	// GALLERY API
	// ============================================================================

	mux.HandleFunc("GET /api/galleries", galleries.List)
	mux.HandleFunc("DELETE /api/galleries", admin(galleries.Delete))
	mux.HandleFunc("POST /api/delete-gallery", admin(galleries.DeleteByBody))
	mux.HandleFunc("GET /api/gallery-meta", galleries.Meta)
	mux.HandleFunc("POST /api/gallery-meta", admin(galleries.SetMeta))
	mux.HandleFunc("POST /api/verify-gallery-password", galleries.VerifyPassword)
	mux.HandleFunc("POST /api/set-gallery-password", admin(galleries.SetPassword))
	mux.HandleFunc("POST /api/delete-image", admin(galleries.DeleteImage))
	mux.HandleFunc("OPTIONS /api/upload", galleries.UploadOptions)
	mux.HandleFunc("POST /api/upload", admin(galleries.Upload))
	mux.HandleFunc("GET /api/file-operations", admin(galleries.GalleryFiles))
	mux.HandleFunc("POST /api/file-operations", admin(galleries.FileOperation))
	mux.HandleFunc("GET /api/gallery-preview", galleries.Preview)
	mux.HandleFunc("POST /api/download-gallery", archive.Download)

	// ============================================================================
	// PORTFOLIO AND VISITORS
	// ============================================================================

	mux.HandleFunc("GET /api/portfolio", portfolio.List)
	mux.HandleFunc("POST /api/portfolio/add", admin(portfolio.Add))
	mux.HandleFunc("POST /api/sync-gallery-meta", admin(portfolio.SyncGallery))
	mux.HandleFunc("GET /api/sync-all-galleries", admin(portfolio.SyncAll))
	mux.HandleFunc("GET /api/visitors", visitors.Stats)
	mux.HandleFunc("POST /api/visitors", visitors.Track)

	// ============================================================================
	// ADMIN API
	// ============================================================================

	// Users
	mux.HandleFunc("GET /api/users", admin(users.List))
	mux.HandleFunc("POST /api/users", admin(users.Create))
	mux.HandleFunc("GET /api/users/{id}", admin(users.Get))
	mux.HandleFunc("PUT /api/users/{id}", admin(users.Update))
	mux.HandleFunc("DELETE /api/users/{id}", admin(users.Delete))

	// Blog
	mux.HandleFunc("GET /api/admin/blogPosts", admin(blog.AdminPosts))
	mux.HandleFunc("GET /api/admin/getBlogPost", admin(blog.AdminPost))
	mux.HandleFunc("POST /api/admin/createBlogPost", admin(blog.CreatePost))
	mux.HandleFunc("POST /api/admin/updateBlogPost", admin(blog.UpdatePost))
	mux.HandleFunc("PUT /api/admin/updateBlogPost", admin(blog.UpdatePost))
	mux.HandleFunc("POST /api/admin/deleteBlogPost", admin(blog.DeletePost))
	mux.HandleFunc("DELETE /api/admin/deleteBlogPost", admin(blog.DeletePost))
	mux.HandleFunc("POST /api/admin/blog-cover", admin(blog.UploadCover))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders for the media origins)
		middleware.NonceMiddleware, // must be before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection, // form posts only; /api/ is exempt
		middleware.Auth(app.AuthService),
		middleware.WithURLPath,
	)

	return handler
}
