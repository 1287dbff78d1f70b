// Command setup installs or uninstalls the customer profile_picture attribute.
//
//	setup install
//	setup uninstall
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lof/customer-profile/internal/core/service"
	mongodb "github.com/lof/customer-profile/internal/infrastructure/db/mongo"
	"github.com/lof/customer-profile/internal/pkg/config"
	"github.com/lof/customer-profile/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "overall timeout of the setup run")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-timeout d] install|uninstall\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad(".env")
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "customer-profile-setup",
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	attributes := mongodb.NewAttributeRepository(db)
	setup := service.NewSetupService(mongodb.NewSchemaSetup(db), attributes, logger.Component("setup"))

	switch action := flag.Arg(0); action {
	case "install":
		if err := mongodb.EnsureIndexes(ctx, attributes); err != nil {
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		err = setup.Install(ctx)
	case "uninstall":
		err = setup.Uninstall(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("setup failed")
		os.Exit(1)
	}
}
