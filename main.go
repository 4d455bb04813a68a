package main

import (
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"boqwizard/collections"
	"boqwizard/config"
	"boqwizard/handlers"
)

func main() {
	app := pocketbase.New()

	cfg := config.FromEnv(nil)
	cfg.AddFlags(app.RootCmd.PersistentFlags())
	app.RootCmd.AddCommand(newEstimateCommand())

	// Create collections and prune idle sessions on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.GeminiAPIKey == "" {
			log.Printf("Warning: BOQ_GEMINI_API_KEY is not set; image extraction is disabled")
		}
		collections.Setup(app)
		if _, err := collections.PruneStaleSessions(app, cfg.SessionTTL, time.Now()); err != nil {
			log.Printf("Warning: session pruning failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		handlers.RegisterRoutes(se, handlers.NewDeps(app, cfg))
		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
