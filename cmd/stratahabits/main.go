// cmd/stratahabits/main.go

// Command stratahabits serves the habit dashboard and the /api/habits JSON API.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/stratahabits/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
