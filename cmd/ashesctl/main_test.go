package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/ashes-void/internal/auth"
	"github.com/talgya/ashes-void/internal/campaign"
	"github.com/talgya/ashes-void/internal/config"
	"github.com/talgya/ashes-void/internal/persistence"
	"github.com/talgya/ashes-void/internal/world"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		DBDialect:  "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "ashes.db"),
		MapLayout:  config.LayoutFixed,
		MapRadius:  world.DefaultRadius,
	}

	db, err := persistence.Open(cfg.SQLitePath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	svc := campaign.NewService(db, auth.NewAdminList(nil))
	m := world.DefaultLayout(world.DefaultRadius)
	start := time.Now().UTC().AddDate(0, 0, -1)
	if err := svc.EnsureBootstrap(context.Background(), campaign.Bootstrap{Map: m, SeasonStart: start, SeasonLength: 30 * 24 * time.Hour}); err != nil {
		t.Fatalf("EnsureBootstrap: %v", err)
	}
	horus := auth.Principal{UserID: 1, Email: "horus@cthonia.net"}
	_, err = svc.Submit(context.Background(), horus, campaign.BattleInput{
		BattleType: "adeptus_titanicus", LocationID: m.ByName("Molech").ID, WinningSide: "traitor",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return cfg
}

func runCmd(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), cfg, args, &out)
	return out.String(), err
}

func TestRecalcAndScore(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCmd(t, cfg, "recalc")
	if err != nil {
		t.Fatalf("recalc: %v", err)
	}
	if !strings.Contains(out, "replayed 1 battles") {
		t.Errorf("recalc output = %q", out)
	}
	if !strings.Contains(out, "Molech") || !strings.Contains(out, "Traitor 2") {
		t.Errorf("score after recalc = %q", out)
	}

	out, err = runCmd(t, cfg, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, campaign.FirstSeasonName) || !strings.Contains(out, "day(s) remaining") {
		t.Errorf("status output = %q", out)
	}
}

func TestSeasonCommand(t *testing.T) {
	cfg := testConfig(t)
	start := time.Now().UTC().Format(campaign.DateLayout)
	end := time.Now().UTC().AddDate(0, 2, 0).Format(campaign.DateLayout)

	if _, err := runCmd(t, cfg, "season", "-name", "Season 2", "-start", start, "-end", end); err == nil {
		t.Fatal("starting over a running season should fail without -force")
	}
	out, err := runCmd(t, cfg, "season", "-name", "Season 2", "-start", start, "-end", end, "-force")
	if err != nil {
		t.Fatalf("season -force: %v", err)
	}
	if !strings.Contains(out, `"Season 2"`) || !strings.Contains(out, "Lead +0") {
		t.Errorf("season output = %q", out)
	}

	out, err = runCmd(t, cfg, "conclude")
	if err != nil || !strings.Contains(out, "no season to conclude") {
		t.Errorf("conclude = %q, %v", out, err)
	}
}

func TestPreviewNeedsNoDatabase(t *testing.T) {
	cfg := config.Config{DBDialect: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "missing", "never.db"), MapLayout: "fixed", MapRadius: 4}
	out, err := runCmd(t, cfg, "preview")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, "6 planets, 55 void tiles") || !strings.Contains(out, "Terra (Anchor)") {
		t.Errorf("preview output = %q", out)
	}

	out, err = runCmd(t, cfg, "preview", "-layout", "generated", "-radius", "3", "-seed", "9")
	if err != nil || !strings.Contains(out, "territories=37") {
		t.Errorf("generated preview = %q, %v", out, err)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := runCmd(t, config.Config{}, "launch"); err == nil {
		t.Error("unknown command should fail")
	}
	out, err := runCmd(t, config.Config{})
	if err == nil || !strings.Contains(out, "usage:") {
		t.Errorf("no args = %q, %v", out, err)
	}
}
