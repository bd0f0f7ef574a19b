package serverconfig

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CacheCapacity != defaultCacheCapacity || cfg.Threads != defaultThreads {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPositionalArgs(t *testing.T) {
	cfg, err := Load([]string{"500", "8"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CacheCapacity != 500 || cfg.Threads != 8 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsNonNumeric(t *testing.T) {
	if _, err := Load([]string{"not-a-number"}); err == nil {
		t.Fatal("expected error for non-numeric cache_capacity")
	}
}

func TestLoadRejectsExtraArgs(t *testing.T) {
	if _, err := Load([]string{"1", "2", "3"}); err == nil {
		t.Fatal("expected error for unexpected extra argument")
	}
}

func TestLoadMySQLDSNEnvOverride(t *testing.T) {
	t.Setenv("MYSQL_DSN", "custom:dsn@tcp(db:3306)/custom")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MySQLDSN != "custom:dsn@tcp(db:3306)/custom" {
		t.Fatalf("env override not applied: %q", cfg.MySQLDSN)
	}
}
