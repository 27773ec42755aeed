package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	repo "github.com/joseph-ayodele/invoice-ledger/internal/repository"
)

// IngestService is the health service name reported for the ingestion pipeline.
const IngestService = "invoice-ledger.Ingest"

// NewGRPCServer returns a server exposing health and reflection only.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(IngestService, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(grpcServer)
	return grpcServer, hs
}

// WatchDatabase pings the database every interval and flips the ingest
// service between SERVING and NOT_SERVING until ctx is done.
func WatchDatabase(ctx context.Context, hs *health.Server, db *repo.DB, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	last := healthpb.HealthCheckResponse_SERVING
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		st := healthpb.HealthCheckResponse_SERVING
		if err := PingDB(ctx, db, logger, interval/2); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if st != last {
			logger.Warn("ingest health changed", "status", st.String())
			hs.SetServingStatus(IngestService, st)
			last = st
		}
	}
}
