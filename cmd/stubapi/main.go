package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/webgate-io/authgate/internal/config"
	"github.com/webgate-io/authgate/internal/stubapi"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)

	server := stubapi.New(stubapi.Config{
		ResultField: os.Getenv("AUTHGATE_RESULT_FIELD"),
	})
	server.AddUser("demo", "demo")

	log.Printf("stub backend listening on %s", cfg.ListenAddr)
	if err := server.Router().Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
