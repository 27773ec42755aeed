package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/invoice-ledger/internal/common"
	"github.com/joseph-ayodele/invoice-ledger/internal/storage"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *common.Config {
	return &common.Config{
		Database: common.DatabaseConfig{InMemory: true},
		Storage:  common.StorageConfig{Backend: "local", LocalRoot: t.TempDir()},
		Ingest:   common.IngestConfig{Bucket: "invoices", DefaultCurrency: "RON", Workers: 1},
		Server:   common.ServerConfig{GRPCAddr: ":0"},
	}
}

func TestNewAppProcessesWithRulesFile(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Ingest.RulesFile = filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(cfg.Ingest.RulesFile, []byte(`
invoice_numbers:
  - name: acme
    priority: 1
    pattern: 'ACME-\d+'
`), 0o600))

	app, err := NewApp(ctx, cfg, false, discard)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	assert.Nil(t, app.Recognizer)
	assert.IsType(t, &storage.LocalStore{}, app.Objects)

	path := filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pages": [{"blocks": [{"lines": [{"words": [{"value": "ACME-991"}]}]}]}]}`), 0o600))
	report := app.Processor.ProcessFiles(ctx, []string{path})
	require.Len(t, report.Successful, 1)
	assert.Equal(t, "ACME-991", report.Successful[0].InvoiceNumber)
	assert.Equal(t, "RON", report.Successful[0].Currency)

	doc, err := app.Store.Repos().Documents.GetByID(ctx, report.Successful[0].DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "invoices", doc.Bucket)

	require.NoError(t, PingDB(ctx, app.DB, discard, 0))
}

func TestNewAppRejectsBadRulesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ingest.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewApp(context.Background(), cfg, true, discard)
	assert.Error(t, err)
}

func TestNewObjectStore(t *testing.T) {
	_, err := NewObjectStore(context.Background(), common.StorageConfig{Backend: "gcs"}, discard)
	assert.Error(t, err)

	s, err := NewObjectStore(context.Background(), common.StorageConfig{
		Backend:   "s3",
		Region:    "eu-central-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		PathStyle: true,
	}, discard)
	require.NoError(t, err)
	assert.IsType(t, &storage.S3Store{}, s)
}

func TestNewGRPCServerReportsServing(t *testing.T) {
	srv, hs := NewGRPCServer()
	t.Cleanup(srv.Stop)

	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: IngestService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
