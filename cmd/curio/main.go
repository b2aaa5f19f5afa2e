package main

import (
	"log"

	"github.com/MrSnakeDoc/curio/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ curio failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ curio stopped with error: %v", err)
	}
}
