package main

import (
	"log"

	"github.com/owtlabs/owt/internal/auth/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		log.Fatalf("auth service init: %v", err)
	}
	if err := application.Run(); err != nil {
		log.Fatalf("auth service: %v", err)
	}
}
