package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aubertin/purchasing-backend/app/auth"
	"github.com/aubertin/purchasing-backend/app/catalog"
	"github.com/aubertin/purchasing-backend/app/categories"
	"github.com/aubertin/purchasing-backend/app/orders"
	"github.com/aubertin/purchasing-backend/app/server"
	"github.com/aubertin/purchasing-backend/app/users"
	"github.com/aubertin/purchasing-backend/config"
	"github.com/aubertin/purchasing-backend/models"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderLine{},
	); err != nil {
		log.WithError(err).Fatal("Failed to migrate schema")
	}

	usersRepo := models.NewUsersRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)
	productsRepo := models.NewProductsRepository(db)
	ordersRepo := models.NewOrdersRepository(db)

	if err := seedAdmin(usersRepo, cfg); err != nil {
		log.WithError(err).Fatal("Failed to seed admin user")
	}

	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour)

	handlers := server.Handlers{
		Auth:       auth.NewHandler(usersRepo, issuer),
		AuthMW:     auth.NewMiddleware(issuer, usersRepo),
		Users:      users.NewHandler(usersRepo),
		Catalog:    catalog.NewCatalogHandler(productsRepo, categoriesRepo),
		Categories: categories.NewCategoryHandler(categoriesRepo),
		Orders: orders.NewHandler(
			orders.NewService(productsRepo, ordersRepo, usersRepo),
			ordersRepo,
		),
	}

	log.WithFields(log.Fields{"addr": cfg.HTTPAddr}).Info("Starting server")

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(handlers, cfg.AllowedOrigins),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	killSignalChan := make(chan os.Signal, 1)
	signal.Notify(killSignalChan, os.Interrupt, syscall.SIGTERM)
	<-killSignalChan

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Shutdown failed")
	}
}

// seedAdmin creates the configured administrator account once.
func seedAdmin(repo *models.UsersRepository, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	if _, err := repo.GetByEmail(cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:     cfg.AdminEmail,
		Password:  string(hash),
		FirstName: "Admin",
		LastName:  "Admin",
		Roles:     []string{models.RoleAdmin, models.RoleUser},
		IsActive:  true,
	}
	if err := repo.Create(admin); err != nil {
		return err
	}

	log.WithFields(log.Fields{"email": cfg.AdminEmail}).Info("Seeded admin user")
	return nil
}
