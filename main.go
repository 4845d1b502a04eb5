package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/duchm/foliogate/internal/admins"
	"github.com/duchm/foliogate/internal/audit"
	"github.com/duchm/foliogate/internal/common"
	"github.com/duchm/foliogate/internal/config"
	"github.com/duchm/foliogate/internal/csrf"
	"github.com/duchm/foliogate/internal/handlers/api"
	"github.com/duchm/foliogate/internal/mail"
	"github.com/duchm/foliogate/internal/middlewares"
	"github.com/duchm/foliogate/internal/otp"
	"github.com/duchm/foliogate/internal/token"
	"github.com/duchm/foliogate/model"
	"github.com/duchm/foliogate/params"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gopkg.in/gomail.v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	usernameFlag = &cli.StringFlag{
		Name:  "username",
		Usage: "Admin username (email)",
	}
	passwordFlag = &cli.StringFlag{
		Name:  "password",
		Usage: "Admin password",
	}
	retentionDaysFlag = &cli.IntFlag{
		Name:  "days",
		Usage: "Audit retention period in days",
	}
	confirmFlag = &cli.BoolFlag{
		Name:  "confirm",
		Usage: "Actually delete old audit entries (default is a dry run)",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "foliogate - credential and session backend for the portfolio CMS"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
		{
			Name:   "create-admin",
			Usage:  "Provision the administrator account",
			Flags:  []cli.Flag{usernameFlag, passwordFlag},
			Action: createAdmin,
		},
		{
			Name:   "reset-admin",
			Usage:  "Force-reset the administrator password",
			Flags:  []cli.Flag{usernameFlag, passwordFlag},
			Action: resetAdmin,
		},
		{
			Name:   "cleanup-audit",
			Usage:  "Delete audit entries past the retention window",
			Flags:  []cli.Flag{retentionDaysFlag, confirmFlag},
			Action: cleanupAudit,
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	switch mailCfg.Backend {
	case "smtp":
		smtpCfg := mailCfg.SMTP
		dialer := gomail.NewDialer(smtpCfg.Host, smtpCfg.Port, smtpCfg.Username, smtpCfg.Password)
		return mail.NewSMTPMailSender(dialer, smtpCfg.From)
	case "", "none":
		slog.Warn("No mail backend configured, otp and reset delivery will fail")
		return mail.NewNullSender()
	}
	slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
	os.Exit(1)
	return nil
}

func mustInitCSRFStore(cfg *config.Config) (csrf.Store, redis.UniversalClient) {
	if cfg.CSRF.Backend == "redis" {
		storage := fiberredis.New(fiberredis.Config{
			URL:           cfg.Redis.URL,
			PoolSize:      cfg.Redis.PoolSize,
			IsClusterMode: cfg.Redis.ClusterMode,
		})
		return csrf.NewStorageStore(storage), storage.Conn()
	}
	return csrf.NewMemoryStore(), nil
}

func setupAPIRoutes(
	router fiber.Router,
	adminService *admins.AdminService,
	otpIssuer *otp.Issuer,
	tokenIssuer *token.Issuer,
	csrfStore csrf.Store,
	mailSender mail.MailSender,
	recorder *audit.Recorder,
	activityRepo audit.ActivityRepository,
	frontendURL string,
) {
	authHandler := api.NewAuthHandler(adminService, otpIssuer, tokenIssuer, csrfStore, mailSender, recorder, frontendURL)
	activityHandler := api.NewActivityHandler(activityRepo)

	auth := router.Group("/api/auth")
	auth.Post("/login",
		middlewares.RateLimit(params.LoginRateLimit, params.LoginRateWindow),
		authHandler.PostLogin)
	auth.Post("/verify-otp",
		middlewares.RateLimit(params.VerifyOTPRateLimit, params.VerifyOTPRateWindow),
		authHandler.PostVerifyOTP)
	auth.Post("/resend-otp",
		middlewares.RateLimit(params.ResendOTPRateLimit, params.ResendOTPRateWindow),
		authHandler.PostResendOTP)
	auth.Post("/forgot-password",
		middlewares.RateLimit(params.ForgotPasswordRateLimit, params.ForgotPasswordRateWindow),
		authHandler.PostForgotPassword)
	auth.Post("/reset-password",
		middlewares.RateLimit(params.ResetPasswordRateLimit, params.ResetPasswordRateWindow),
		authHandler.PostResetPassword)

	guard := middlewares.Authenticate(tokenIssuer, adminService)
	protect := middlewares.CSRFProtect(csrfStore)
	auth.Get("/csrf-token", guard, authHandler.GetCSRFToken)
	auth.Post("/change-password", guard, protect, authHandler.PostChangePassword)
	auth.Put("/change-username", guard, protect, authHandler.PutChangeUsername)
	auth.Post("/logout", guard, protect, authHandler.PostLogout)

	router.Get("/api/activity", guard, activityHandler.GetActivity)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	db := mustInitDatabase(cfg.MySQL)
	mailSender := mustInitMailSender(cfg.Mail)
	csrfStore, rdb := mustInitCSRFStore(cfg)

	// repositories
	var (
		adminRepo    = admins.NewAdminRepository(db)
		activityRepo = audit.NewActivityRepository(db)
	)

	// services
	var (
		adminService = admins.NewAdminService(adminRepo)
		otpIssuer    = otp.NewIssuer(adminService, mailSender)
		tokenIssuer  = token.NewIssuer(cfg.Token.Secret, cfg.TokenExpiry())
		recorder     = audit.NewRecorder(activityRepo)
	)
	defer recorder.Close()

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.NewErrorHandler(cfg.Debug),
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middlewares.CSRFTokenHeader,
	}))

	setupAPIRoutes(router, adminService, otpIssuer, tokenIssuer, csrfStore, mailSender, recorder, activityRepo, cfg.FrontendURL)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go common.StartHealthCheckServer(healthCheckCtx, done, db, rdb)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(cfg.ListenAddr)
}

func createAdmin(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		return err
	}
	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))
	db := mustInitDatabase(cfg.MySQL)

	adminService := admins.NewAdminService(admins.NewAdminRepository(db))
	admin, err := adminService.CreateAdmin(ctx.Context, ctx.String(usernameFlag.Name), ctx.String(passwordFlag.Name))
	if err != nil {
		return err
	}
	fmt.Printf("Created admin account %q (id %d)\n", admin.Username, admin.ID)
	return nil
}

func resetAdmin(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		return err
	}
	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))
	db := mustInitDatabase(cfg.MySQL)

	adminService := admins.NewAdminService(admins.NewAdminRepository(db))
	username := ctx.String(usernameFlag.Name)
	if err := adminService.ResetAdminPassword(ctx.Context, username, ctx.String(passwordFlag.Name)); err != nil {
		return err
	}
	fmt.Printf("Password reset for %q. All existing sessions are invalidated.\n", username)
	return nil
}

func cleanupAudit(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		return err
	}
	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))
	db := mustInitDatabase(cfg.MySQL)

	days := cfg.Audit.RetentionDays
	if ctx.IsSet(retentionDaysFlag.Name) {
		days = ctx.Int(retentionDaysFlag.Name)
	}
	dryRun := !ctx.Bool(confirmFlag.Name)

	report, err := audit.Cleanup(ctx.Context, audit.NewActivityRepository(db), days, dryRun)
	if err != nil {
		return err
	}

	mode := "LIVE"
	if report.DryRun {
		mode = "DRY RUN"
	}
	fmt.Printf("Audit cleanup (%s)\n", mode)
	fmt.Printf("  Retention: %d days (cutoff %s)\n", report.RetentionDays, report.Cutoff.Format(time.RFC3339))
	fmt.Printf("  Total entries:    %d\n", report.Total)
	fmt.Printf("  Eligible entries: %d\n", report.Eligible)
	for i, activity := range report.Sample {
		fmt.Printf("  %d. %s - %s\n", i+1, activity.Action, activity.CreatedAt.Format(time.RFC3339))
	}
	if report.DryRun {
		if report.Eligible > 0 {
			fmt.Println("No entries were deleted. Re-run with --confirm to delete.")
		}
		return nil
	}
	fmt.Printf("  Deleted: %d, remaining: %d\n", report.Deleted, report.Remaining())
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
