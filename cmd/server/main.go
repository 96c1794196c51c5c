package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"matchbook/api/grpcserver"
	"matchbook/config"
	"matchbook/domain/book"
	"matchbook/infra/logging"
	"matchbook/infra/outbox"
	"matchbook/infra/sequence"
	"matchbook/infra/wal"
	"matchbook/jobs/reporter"
	"matchbook/service"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.File)

	// ---------------- Durability ----------------

	journal, err := wal.Open(wal.Config{
		Dir:         cfg.WAL.Dir,
		SegmentSize: cfg.WAL.SegmentSize,
	})
	if err != nil {
		logger.Error("wal init failed", "err", err)
		os.Exit(1)
	}
	defer journal.Close()

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Error("outbox init failed", "err", err)
		os.Exit(1)
	}
	defer ob.Close()

	// ---------------- Domain ----------------

	b := book.New(
		cfg.Symbol,
		sequence.New(0),
		sequence.New(0),
		service.NewSink(ob),
	)

	// ---------------- Replay before traffic ----------------

	lastSeq, err := service.Replay(cfg.WAL.Dir, b, logger)
	if err != nil {
		logger.Error("wal replay failed", "err", err)
		os.Exit(1)
	}
	journal.Resume(lastSeq)

	// ---------------- Service ----------------

	engine := service.NewEngine(logger, b, journal)
	engine.Start()
	defer engine.Stop()

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Kafka.Brokers) > 0 {
		rep, err := reporter.New(logger, ob, reporter.Config{
			Brokers:      cfg.Kafka.Brokers,
			ReportsTopic: cfg.Kafka.ReportsTopic,
			TapeTopic:    cfg.Kafka.TapeTopic,
			Interval:     time.Duration(cfg.Kafka.ReportIntervalMS) * time.Millisecond,
		})
		if err != nil {
			logger.Error("reporter init failed", "err", err)
			os.Exit(1)
		}
		defer rep.Close()
		go rep.Run(ctx)
	} else {
		logger.Warn("no kafka brokers configured, executions stay in the outbox")
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Listen, "err", err)
		os.Exit(1)
	}

	grpcSrv := grpc.NewServer(grpc.ForceServerCodec(grpcserver.Codec{}))
	grpcserver.RegisterEngineServer(grpcSrv, grpcserver.NewServer(logger, engine))

	go func() {
		logger.Info("engine listening", "symbol", cfg.Symbol, "addr", cfg.Listen)
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server exited", "err", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "sig", sig.String())
	case <-ctx.Done():
	}

	grpcSrv.GracefulStop()
}
