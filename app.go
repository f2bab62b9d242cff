package main

import (
	"buildtrack/config"
	"buildtrack/handlers"
	"buildtrack/middleware"
	"buildtrack/repository"
	"buildtrack/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// app wires the services shared by the router and the background jobs.
type app struct {
	cfg *config.Config
	log *logrus.Logger

	store    *repository.Store
	activity *services.ActivityService
	users    *services.UserService
	projects *services.ProjectService
	phases   *services.PhaseService
	boq      *services.BOQService
	payments *services.PaymentService
	reports  *services.ReportService
	ledger   *services.LedgerService
	digest   *services.DigestService

	uploads *handlers.Uploads
	limiter *middleware.RateLimiter
}

func newApp(cfg *config.Config, log *logrus.Logger, db *gorm.DB) *app {
	store := repository.New(db)
	activity := services.NewActivityService(store, log)

	var mailer services.Mailer = services.NewLogMailer(log)
	if cfg.SMTP.Enabled() {
		mailer = services.NewSMTPMailer(cfg.SMTP)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		activity: activity,
		users:    services.NewUserService(store, activity, cfg.JWT.Secret, cfg.JWT.TTL),
		projects: services.NewProjectService(store, activity),
		phases:   services.NewPhaseService(store, activity),
		boq:      services.NewBOQService(store, activity),
		payments: services.NewPaymentService(store, activity),
		reports:  services.NewReportService(store),
		ledger:   services.NewLedgerService(store, log),
		digest:   services.NewDigestService(store, mailer, cfg.SMTP.Recipients, log),
		uploads:  handlers.NewUploads(cfg.UploadDir),
		limiter:  middleware.NewRateLimiter(cfg.Login.Rate, cfg.Login.Burst, log),
	}
}
