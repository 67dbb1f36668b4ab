package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/reelrank/reelrank/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaults(t *testing.T) {
	Convey("Given no file and no environment overrides", t, func() {
		cfg, err := config.Load(context.Background())
		So(err, ShouldBeNil)

		Convey("Then defaults apply", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.SessionTTLMinutes, ShouldEqual, 30)
			So(cfg.RefreshQueueSize, ShouldEqual, 10_000)
			So(cfg.MaxListLimit, ShouldEqual, 100)
			So(cfg.CatalogTimeoutMS, ShouldEqual, 5000)
			So(cfg.RefreshWorkerCount, ShouldBeGreaterThan, 0)
		})

		Convey("And external stores are off by default", func() {
			So(cfg.RedisAddr, ShouldBeBlank)
			So(cfg.PostgresDSN, ShouldBeBlank)
			So(cfg.CatalogBaseURL, ShouldBeBlank)
		})
	})
}

func TestEnvOverrides(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("REELRANK_ADDR", ":8081")
		t.Setenv("REELRANK_LOG_LEVEL", "debug")
		t.Setenv("REELRANK_SESSION_TTL_MINUTES", "5")
		t.Setenv("REELRANK_REDIS_ADDR", "localhost:6379")

		cfg, err := config.Load(context.Background())
		So(err, ShouldBeNil)

		Convey("Then env values win over defaults", func() {
			So(cfg.Addr, ShouldEqual, ":8081")
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.SessionTTLMinutes, ShouldEqual, 5)
			So(cfg.RedisAddr, ShouldEqual, "localhost:6379")
		})

		Convey("And untouched keys keep their defaults", func() {
			So(cfg.MaxListLimit, ShouldEqual, 100)
		})
	})
}

func TestFileOverrides(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		body := []byte("addr: \":7070\"\nmax_list_limit: 50\n")
		So(os.WriteFile(path, body, 0o600), ShouldBeNil)
		t.Setenv("REELRANK_CONFIG", path)

		Convey("When loading without env overrides", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.MaxListLimit, ShouldEqual, 50)
		})

		Convey("When env overrides the file", func() {
			t.Setenv("REELRANK_ADDR", ":6060")
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.MaxListLimit, ShouldEqual, 50)
		})
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("REELRANK_CONFIG", "/nonexistent/config.yaml")
		_, err := config.Load(context.Background())
		So(err, ShouldWrap, config.ErrLoadConfig)
	})
}

func TestValidation(t *testing.T) {
	Convey("Given invalid settings", t, func() {
		Convey("An empty addr is rejected", func() {
			t.Setenv("REELRANK_ADDR", "")
			_, err := config.Load(context.Background())
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})

		Convey("A non-positive TTL is rejected", func() {
			t.Setenv("REELRANK_SESSION_TTL_MINUTES", "0")
			_, err := config.Load(context.Background())
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})

		Convey("A non-positive queue size is rejected", func() {
			t.Setenv("REELRANK_REFRESH_QUEUE_SIZE", "-1")
			_, err := config.Load(context.Background())
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}
