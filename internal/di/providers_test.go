package di

import (
	"testing"
	"time"

	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/config"
	applogger "MarketPulse/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("environment: test\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestProvideGroupsKeepsOrder(t *testing.T) {
	cfg := testConfig(t)
	groups := ProvideGroups(cfg)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	for i, want := range []string{"Global", "Crypto", "Europe"} {
		if groups[i].Name != want {
			t.Fatalf("groups[%d] = %q, want %q", i, groups[i].Name, want)
		}
	}
	groups[0].Tickers[0] = "changed"
	if cfg.Groups[0].Tickers[0] == "changed" {
		t.Fatalf("domain groups share ticker slices with config")
	}
}

func TestKafkaDisabledProviders(t *testing.T) {
	cfg := testConfig(t)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil || producer != nil {
		t.Fatalf("disabled kafka: producer=%v err=%v", producer, err)
	}
	if _, ok := ProvideSnapshotPublisher(cfg, nil).(internalrepo.NopSnapshotPublisher); !ok {
		t.Fatalf("expected nop publisher without a producer")
	}
}

func TestKafkaEnabledWithoutBrokers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil
	if _, err := ProvideKafkaProducer(cfg); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestProvideResponseCacheMemory(t *testing.T) {
	cfg := testConfig(t)
	c, err := ProvideResponseCache(cfg)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	defer c.Close()
	if _, ok := c.(*cache.MemoryCache); !ok {
		t.Fatalf("cache type %T, want *cache.MemoryCache", c)
	}
}

func TestProvideRefresherFollowsInterval(t *testing.T) {
	cfg := testConfig(t)
	if ProvideRefresher(cfg, nil, nil, nopLogger()).Enabled() {
		t.Fatalf("refresher enabled with zero interval")
	}
	cfg.Snapshot.RefreshInterval = time.Minute
	if !ProvideRefresher(cfg, nil, nil, nopLogger()).Enabled() {
		t.Fatalf("refresher disabled with interval set")
	}
}

func nopLogger() *applogger.Logger { return applogger.Nop() }
