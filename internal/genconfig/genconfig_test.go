package genconfig

import (
	"flag"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Parse(fs, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://kv_server:8080/kv" || cfg.Threads != 4 || cfg.Duration != 20*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.MixGet != 60 || cfg.MixPost != 30 || cfg.MixDelete != 10 {
		t.Fatalf("unexpected mix defaults: %+v", cfg)
	}
}

func TestParseOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Parse(fs, []string{"--workload", "get-popular", "--popular-size", "10", "--threads", "2", "--duration", "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workload != WorkloadGetPopular || cfg.PopularSize != 10 || cfg.Threads != 2 || cfg.Duration != 3*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseRejectsMixNotSummingTo100(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := Parse(fs, []string{"--mix", "50,30,10"})
	if err == nil {
		t.Fatal("expected error for mix not summing to 100")
	}
}

func TestParseRejectsUnknownWorkload(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := Parse(fs, []string{"--workload", "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown workload")
	}
}

func TestParseMixSumNotValidatedOutsideMixMode(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := Parse(fs, []string{"--workload", "get-all", "--mix", "10,10,10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
