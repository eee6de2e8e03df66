package main

import (
	"context"
	"log"

	"showrunner/internal/app/bootstrap"
)

// API process entrypoint.
func main() {
	log.Println("showrunner api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("showrunner api stopped with error: %v", err)
	}
}
