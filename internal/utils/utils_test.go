package utils

import (
	"context"
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"tz-api/internal/config"
)

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "certs", "server.crt")
	key := filepath.Join(dir, "keys", "server.key")
	if err := EnsureSelfSignedCert(cert, key, "tz-api.test"); err != nil {
		t.Fatal(err)
	}
	if _, err := tls.LoadX509KeyPair(cert, key); err != nil {
		t.Fatalf("generated pair unusable: %v", err)
	}
	st, err := os.Stat(cert)
	if err != nil {
		t.Fatal(err)
	}
	// 已存在时不重新生成
	if err := EnsureSelfSignedCert(cert, key, "other"); err != nil {
		t.Fatal(err)
	}
	st2, _ := os.Stat(cert)
	if !st.ModTime().Equal(st2.ModTime()) {
		t.Fatal("existing certificate regenerated")
	}
}

func TestOptionalBackendsDisabled(t *testing.T) {
	c := config.Default()
	ctx := context.Background()
	if OpenRedisFromConfig(ctx, c) != nil {
		t.Fatal("redis opened without host")
	}
	if OpenStatsStore(ctx, c) != nil {
		t.Fatal("stats store opened without host")
	}
	c.PG.Host = "db.local"
	if OpenStatsStore(ctx, c) != nil {
		t.Fatal("stats store opened with stats disabled")
	}
}
