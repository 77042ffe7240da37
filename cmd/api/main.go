package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/otoservice/workshop-scheduler/internal/config"
	dbpkg "github.com/otoservice/workshop-scheduler/internal/db"
	"github.com/otoservice/workshop-scheduler/internal/routes"
)

func main() {

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment")
	}

	cfg := config.Load()
	db := dbpkg.NewDB(cfg, log)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if err := routes.RegisterRoutes(r, db, cfg, log); err != nil {
		log.WithError(err).Fatal("failed to initialize routes")
	}

	log.WithField("addr", cfg.Addr()).Info("server running")
	if err := r.Run(cfg.Addr()); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
