package main

import (
	"context"
	"log"

	"github.com/fortislabs/fortis/internal/server"
	"github.com/fortislabs/fortis/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.MustLoad()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
