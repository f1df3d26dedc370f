package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const baseYAML = `
app:
  name: storefront-api
  http_addr: ":8080"
  log_file: "./logs/app.log"
mysql:
  dsn: "root:root@tcp(127.0.0.1:3306)/storefront?parseTime=true"
  max_open_conns: 10
redis:
  addr: "127.0.0.1:6379"
idempotency:
  ttl: 24h
outbox:
  interval: 5s
  batch_size: 50
kafka:
  brokers: ["127.0.0.1:9092"]
  topic: "inventory.replenishment"
  group_id: "storefront-api"
security:
  jwt_secret: "base-secret"
  issuer: "storefront-api"
  audience: "storefront-clients"
  ttl: 1h
`

const devYAML = `
security:
  jwt_secret: "dev-secret"
`

func writeConfigs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(baseYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dev.yaml"), []byte(devYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadLayersBaseAndEnvFile(t *testing.T) {
	dir := writeConfigs(t)

	cfg, err := Load(dir, "dev")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.HTTPAddr != ":8080" {
		t.Errorf("http_addr = %q", cfg.App.HTTPAddr)
	}
	if cfg.Security.JWTSecret != "dev-secret" {
		t.Errorf("jwt_secret = %q, want the dev overlay", cfg.Security.JWTSecret)
	}
	if cfg.Idempotency.TTL != 24*time.Hour {
		t.Errorf("idempotency ttl = %v", cfg.Idempotency.TTL)
	}
	if cfg.Outbox.BatchSize != 50 {
		t.Errorf("outbox batch_size = %d", cfg.Outbox.BatchSize)
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "127.0.0.1:9092" {
		t.Errorf("kafka brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadMissingEnvFileFallsBackToBase(t *testing.T) {
	dir := writeConfigs(t)

	cfg, err := Load(dir, "staging") // no staging.yaml on disk
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Security.JWTSecret != "base-secret" {
		t.Errorf("jwt_secret = %q, want the base value", cfg.Security.JWTSecret)
	}
}

func TestLoadEnvVarsWinOverFiles(t *testing.T) {
	dir := writeConfigs(t)

	t.Setenv("STOREFRONT_MYSQL__DSN", "root:env@tcp(db:3306)/storefront?parseTime=true")
	t.Setenv("STOREFRONT_REDIS__PASSWORD", "env-redis-pass")

	cfg, err := Load(dir, "dev")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MySQL.DSN != "root:env@tcp(db:3306)/storefront?parseTime=true" {
		t.Errorf("mysql dsn = %q, want the env override", cfg.MySQL.DSN)
	}
	if cfg.Redis.Password != "env-redis-pass" {
		t.Errorf("redis password = %q", cfg.Redis.Password)
	}
}

func TestValidateRejectsIncompleteConfig(t *testing.T) {
	dir := t.TempDir()
	missingDSN := `
app:
  http_addr: ":8080"
kafka:
  brokers: ["127.0.0.1:9092"]
security:
  jwt_secret: "s"
`
	if err := os.WriteFile(filepath.Join(dir, "base.yaml"), []byte(missingDSN), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, "dev"); err == nil {
		t.Fatal("expected validation error for missing mysql.dsn")
	}
}
