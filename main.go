package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/techagentng/lankawatch/config"
	"github.com/techagentng/lankawatch/db"
	"github.com/techagentng/lankawatch/metrics"
	"github.com/techagentng/lankawatch/server"
	"github.com/techagentng/lankawatch/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	setupLogging(conf)

	if err := run(conf); err != nil {
		log.WithError(err).Error("server exited")
		os.Exit(1)
	}
}

func run(conf *config.Config) error {
	gormDB, err := db.Open(conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := gormDB.Close(); err != nil {
			log.WithError(err).Warn("closing database")
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(registry)

	reportRepo := db.NewReportRepo(gormDB)
	reportService := services.NewIncidentService(reportRepo, recorder, conf)

	s := &server.Server{
		Config:           conf,
		ReportService:    reportService,
		ReportRepository: reportRepo,
		Gatherer:         registry,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return s.Start(ctx)
}

func setupLogging(conf *config.Config) {
	log.SetOutput(os.Stdout)
	if conf.IsProd() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
