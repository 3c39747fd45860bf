package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/grpcserver"
	"zweigbib/internal/source"
	"zweigbib/pkg/utils"
)

func main() {
	cfgFile := flag.String("config", "", "config file")
	flag.Parse()

	cfg, err := utils.LoadConfig(*cfgFile)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := bibliography.NewStore(source.NewMux(cfg.FetchTimeout, cfg.FetchAttempts), logger)
	if err := store.Load(ctx, cfg.Source); err != nil {
		log.Fatalf("load %s failed: %v", cfg.Source, err)
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen failed: %v", err)
	}

	grpcServer := grpc.NewServer()
	grpcserver.RegisterBibliographyServer(grpcServer, grpcserver.NewServer(store, logger))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down grpc server")
		grpcServer.GracefulStop()
	}()

	logger.Info("grpc server listening", "addr", cfg.GRPCAddr)
	if err := grpcServer.Serve(listener); err != nil {
		log.Fatalf("grpc server stopped: %v", err)
	}
}
