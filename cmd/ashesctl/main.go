// Command ashesctl is the operator tool for an Ashes Across the Void
// database: replay the battle log, inspect the score, and manage seasons.
// It reads the same ASHES_* configuration as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/talgya/ashes-void/internal/auth"
	"github.com/talgya/ashes-void/internal/campaign"
	"github.com/talgya/ashes-void/internal/config"
	"github.com/talgya/ashes-void/internal/control"
	"github.com/talgya/ashes-void/internal/persistence"
	"github.com/talgya/ashes-void/internal/world"
)

const usage = `usage: ashesctl <command> [flags]

commands:
  status                  season banner and score
  score                   score breakdown by tile
  recalc [-campaign N]    rebuild control from the battle log
  conclude                end the active season if its end date has passed
  season -name N -start YYYY-MM-DD -end YYYY-MM-DD [-force]
                          start a new season and reset the map
  preview [-layout L] [-radius R] [-seed S]
                          print a map layout without touching the database
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "ashesctl:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("see usage")

func run(ctx context.Context, cfg config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	if cmd == "preview" {
		return preview(cfg, rest, out)
	}

	db, err := persistence.OpenWith(ctx, persistence.Options{
		Dialect: persistence.Dialect(cfg.DBDialect),
		Path:    cfg.SQLitePath,
		DSN:     cfg.PostgresDSN,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	svc := campaign.NewService(db, auth.NewAdminList(cfg.AdminEmails))

	switch cmd {
	case "status":
		return status(ctx, svc, out)
	case "score":
		return score(ctx, svc, out)
	case "recalc":
		fs := flag.NewFlagSet("recalc", flag.ContinueOnError)
		fs.SetOutput(out)
		id := fs.Int64("campaign", 0, "campaign (season) id; default is the active season")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *id == 0 {
			season, err := svc.Current(ctx)
			if err != nil {
				return err
			}
			*id = season.ID
		}
		n, err := svc.Recalculate(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "replayed %d battles for campaign %d\n", n, *id)
		return score(ctx, svc, out)
	case "conclude":
		ok, err := svc.Conclude(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "no season to conclude")
			return nil
		}
		return status(ctx, svc, out)
	case "season":
		fs := flag.NewFlagSet("season", flag.ContinueOnError)
		fs.SetOutput(out)
		var req campaign.SeasonRequest
		fs.StringVar(&req.Name, "name", "", "season name")
		fs.StringVar(&req.Start, "start", "", "start date (YYYY-MM-DD)")
		fs.StringVar(&req.End, "end", "", "end date (YYYY-MM-DD)")
		fs.BoolVar(&req.Force, "force", false, "end a season that is still running")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		season, err := svc.StartSeason(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "started season %d %q\n", season.ID, season.Name)
		return status(ctx, svc, out)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func status(ctx context.Context, svc *campaign.Service, out io.Writer) error {
	season, err := svc.Latest(ctx)
	if err != nil {
		return err
	}
	tally, err := svc.Score(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (#%d, %s)\n%s\n", season.Name, season.ID, season.Status, campaign.Banner(season, svc.Clock()))
	fmt.Fprintf(out, "Loyalist %d · Traitor %d · Lead %+d (%s)\n", tally.Loyalist, tally.Traitor, tally.Lead, tally.Leader())
	if season.Final != nil {
		fmt.Fprintf(out, "Final: Loyalist %d · Traitor %d · Lead %+d\n", season.Final.Loyalist, season.Final.Traitor, season.Final.Lead)
	}
	return nil
}

func score(ctx context.Context, svc *campaign.Service, out io.Writer) error {
	m, err := svc.Map(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTERRITORY\tKIND\tCP\tSIDE\tSTATUS\tPOINTS")
	for _, t := range m.Territories() {
		if t.CP == 0 && !t.IsPlanet {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%+d\t%s\t%s\t%d\n", t.ID, t.Name, t.Kind(), t.CP,
			control.SideFromCP(t.CP), control.StatusFromCP(t.CP), control.Points(t.IsPlanet, t.CP))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	tally := control.Score(m.Territories())
	fmt.Fprintf(out, "Loyalist %d · Traitor %d · Lead %+d (%s)\n", tally.Loyalist, tally.Traitor, tally.Lead, tally.Leader())
	return nil
}

func preview(cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(out)
	layout := fs.String("layout", cfg.MapLayout, "fixed or generated")
	radius := fs.Int("radius", cfg.MapRadius, "map radius")
	seed := fs.Int64("seed", cfg.MapSeed, "noise seed for generated layouts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := world.Layout(*layout, *radius, *seed)
	if err != nil {
		return err
	}
	planets, voids := world.KindCounts(m)
	fmt.Fprintf(out, "%s: %d planets, %d void tiles\n", m, planets, voids)
	for _, p := range m.Planets() {
		fmt.Fprintf(out, "  %3d  %-20s %s\n", p.ID, p.Name, p.Coord)
	}
	return nil
}
