package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/atlist/internal/buildinfo"
	"github.com/dmitrijs2005/atlist/internal/server"
	"github.com/dmitrijs2005/atlist/internal/server/config"
)

func main() {
	log.Printf("atlist record store %s", buildinfo.Version())

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
