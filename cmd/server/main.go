package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rootline/internal/config"
	"rootline/internal/database"
	"rootline/internal/docstore"
	"rootline/internal/handlers"
	"rootline/internal/insights"
	"rootline/internal/repository"
	"rootline/internal/security"
	"rootline/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories and the document store
	userRepo := repository.NewUserRepository(db)
	store := docstore.NewSQLStore(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.SessionDuration)
	treeService := service.NewTreeService(store)
	shareService := service.NewShareService(store)
	codeService := service.NewCodeService(store, shareService)
	matchService := service.NewMatchService(store, insights.NewHeuristicAnalyzer(store))
	backupService := service.NewBackupService(db)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	if !emailService.IsEnabled() {
		log.Println("Email sending disabled (no SES_FROM_EMAIL configured)")
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://appleid.apple.com/auth/authorize",
					TokenURL: "https://appleid.apple.com/auth/token",
				},
				Scopes: []string{"name", "email"},
			},
			AuthParams: map[string]string{
				"response_mode": "query",
			},
		},
	}

	// Initialize handlers
	csrfSecret := cfg.CSRFSecret
	if csrfSecret == "" {
		csrfSecret = security.GenerateSessionID()
		log.Println("Warning: CSRF_SECRET not set, tokens will not survive restarts")
	}
	middleware := handlers.NewMiddleware(
		authService,
		security.NewCSRFGenerator(csrfSecret),
		security.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow),
	)
	authHandler := handlers.NewAuthHandler(authService, codeService, emailService, middleware, oauthProviders, cfg.OAuthRedirectBaseURL)
	treeHandler := handlers.NewTreeHandler(treeService, shareService)
	subfamilyHandler := handlers.NewSubfamilyHandler(treeService, shareService)
	shareHandler := handlers.NewShareHandler(shareService, emailService)
	codeHandler := handlers.NewCodeHandler(codeService, emailService)
	matchHandler := handlers.NewMatchHandler(matchService)
	adminHandler := handlers.NewAdminHandler(backupService, userRepo, treeService)

	// Setup routes
	mux := http.NewServeMux()

	// Static files (the SPA frontend)
	mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticFilesPath)))

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/auth/forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", middleware.RateLimit(authHandler.ResetPassword))
	mux.HandleFunc("GET /api/auth/providers", authHandler.ListOAuthProviders)
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Tree routes
	mux.HandleFunc("GET /api/tree", middleware.RequireAuth(treeHandler.GetTree))
	mux.HandleFunc("PUT /api/tree", middleware.RequireAuth(middleware.CSRFProtect(treeHandler.SaveTree)))
	mux.HandleFunc("DELETE /api/tree", middleware.RequireAuth(middleware.CSRFProtect(treeHandler.DeleteTree)))
	mux.HandleFunc("GET /api/tree/warnings", middleware.RequireAuth(treeHandler.GetWarnings))
	mux.HandleFunc("POST /api/tree/members", middleware.RequireAuth(middleware.CSRFProtect(treeHandler.AddMember)))
	mux.HandleFunc("PUT /api/tree/members/{memberId}", middleware.RequireAuth(middleware.CSRFProtect(treeHandler.UpdateMember)))
	mux.HandleFunc("DELETE /api/tree/members/{memberId}", middleware.RequireAuth(middleware.CSRFProtect(treeHandler.RemoveMember)))
	mux.HandleFunc("POST /api/tree/edges", middleware.RequireAuth(middleware.CSRFProtect(treeHandler.AddEdge)))
	mux.HandleFunc("DELETE /api/tree/edges/{edgeId}", middleware.RequireAuth(middleware.CSRFProtect(treeHandler.RemoveEdge)))

	// Subfamily routes
	mux.HandleFunc("GET /api/tree/subfamilies", middleware.RequireAuth(subfamilyHandler.List))
	mux.HandleFunc("POST /api/tree/subfamilies", middleware.RequireAuth(middleware.CSRFProtect(subfamilyHandler.Create)))
	mux.HandleFunc("PUT /api/tree/subfamilies/{subfamilyId}", middleware.RequireAuth(middleware.CSRFProtect(subfamilyHandler.Update)))
	mux.HandleFunc("DELETE /api/tree/subfamilies/{subfamilyId}", middleware.RequireAuth(middleware.CSRFProtect(subfamilyHandler.Delete)))

	// Share routes
	mux.HandleFunc("GET /api/shares", middleware.RequireAuth(shareHandler.List))
	mux.HandleFunc("GET /api/shares/with-me", middleware.RequireAuth(shareHandler.ListSharedWithMe))
	mux.HandleFunc("POST /api/shares", middleware.RequireAuth(middleware.CSRFProtect(shareHandler.Grant)))
	mux.HandleFunc("PUT /api/shares/{shareId}", middleware.RequireAuth(middleware.CSRFProtect(shareHandler.UpdateRole)))
	mux.HandleFunc("DELETE /api/shares/{shareId}", middleware.RequireAuth(middleware.CSRFProtect(shareHandler.Revoke)))

	// Family code routes
	mux.HandleFunc("GET /api/codes", middleware.RequireAuth(codeHandler.List))
	mux.HandleFunc("POST /api/codes", middleware.RequireAuth(middleware.CSRFProtect(codeHandler.Generate)))
	mux.HandleFunc("POST /api/codes/redeem", middleware.RequireAuth(middleware.CSRFProtect(codeHandler.Redeem)))
	mux.HandleFunc("POST /api/codes/{code}/deactivate", middleware.RequireAuth(middleware.CSRFProtect(codeHandler.Deactivate)))

	// DNA match routes
	mux.HandleFunc("GET /api/matches", middleware.RequireAuth(matchHandler.GetAnalysis))
	mux.HandleFunc("POST /api/matches/refresh", middleware.RequireAuth(middleware.CSRFProtect(matchHandler.RefreshMatches)))
	mux.HandleFunc("DELETE /api/matches", middleware.RequireAuth(middleware.CSRFProtect(matchHandler.DeleteAnalysis)))

	// Admin routes
	mux.HandleFunc("GET /admin/stats", middleware.RequireAdmin(adminHandler.Stats))
	mux.HandleFunc("GET /admin/users", middleware.RequireAdmin(adminHandler.ListUsers))
	mux.HandleFunc("PUT /admin/users/{userId}", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.UpdateUser)))
	mux.HandleFunc("DELETE /admin/users/{userId}", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.DeleteUser)))
	mux.HandleFunc("GET /admin/export", middleware.RequireAdmin(adminHandler.ExportDatabase))
	mux.HandleFunc("POST /admin/import", middleware.RequireAdmin(middleware.CSRFProtect(adminHandler.ImportDatabase)))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background cleanup of expired sessions and reset tokens
	go cleanupExpired(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

// cleanupExpired periodically removes expired sessions and password
// reset tokens
func cleanupExpired(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired sessions cleaned up")
		}

		if err := authService.CleanupExpiredPasswordResetTokens(); err != nil {
			log.Printf("Error cleaning up expired reset tokens: %v", err)
		}
	}
}
