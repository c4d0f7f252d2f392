// cmd/tradectl/main.go
//
// tradectl runs the administrative sweeps against the trade store:
// freezing over-limit traders, item request approval, weekly trade
// count resets, and suggestion queries.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"tradenexus/internal/config"
	"tradenexus/internal/registry"
	"tradenexus/internal/store"
	"tradenexus/internal/suggest"
	"tradenexus/internal/traders"
	"tradenexus/internal/trading"
)

func main() {
	app := &cli.App{
		Name:  "tradectl",
		Usage: "Administrative sweeps for the trade system",
		Commands: []*cli.Command{
			freezeSweepCmd,
			approveItemsCmd,
			resetCountsCmd,
			suggestCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

// services connects to the configured store and builds the service layer.
func services() (traders.Service, trading.Service, *registry.Registry, func(), error) {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, nil, errors.New("DATABASE_URL must be set")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	reg := registry.New(store.NewPGStore(db))
	tradeSvc := trading.NewService(reg)
	traderSvc := traders.NewService(reg, tradeSvc, traders.Defaults{
		TradeLimit:           cfg.DefaultTradeLimit,
		IncompleteTradeLimit: cfg.DefaultIncompleteTradeLimit,
		MinimumToBorrow:      cfg.DefaultMinimumToBorrow,
	})
	return traderSvc, tradeSvc, reg, func() { db.Close() }, nil
}

var freezeSweepCmd = &cli.Command{
	Name:  "freeze-sweep",
	Usage: "Freeze traders over their incomplete trade limit and unfreeze approved requests",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "unfreeze",
			Usage: "also unfreeze traders that requested it",
		},
	},
	Action: func(ctx *cli.Context) error {
		svc, _, _, closeFn, err := services()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.FreezeAllOverLimit(context.Background()); err != nil {
			return err
		}
		if ctx.Bool("unfreeze") {
			return svc.UnfreezeAllRequested(context.Background())
		}
		return nil
	},
}

var approveItemsCmd = &cli.Command{
	Name:  "approve-items",
	Usage: "Approve pending item requests",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "list",
			Usage: "list pending requests instead of approving them",
		},
	},
	Action: func(ctx *cli.Context) error {
		svc, _, _, closeFn, err := services()
		if err != nil {
			return err
		}
		defer closeFn()

		if ctx.Bool("list") {
			requests, err := svc.AllItemRequests(context.Background())
			if err != nil {
				return err
			}
			for traderID, items := range requests {
				for _, itemID := range items {
					fmt.Printf("%s\t%s\n", traderID, itemID)
				}
			}
			return nil
		}
		return svc.AcceptAllItemRequests(context.Background())
	},
}

var resetCountsCmd = &cli.Command{
	Name:  "reset-counts",
	Usage: "Zero every trader's weekly trade count",
	Action: func(ctx *cli.Context) error {
		svc, _, _, closeFn, err := services()
		if err != nil {
			return err
		}
		defer closeFn()

		return svc.ResetTradeCounts(context.Background())
	},
}

var suggestCmd = &cli.Command{
	Name:  "suggest",
	Usage: "Print a trade or lend suggestion for a trader",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "trader",
			Required: true,
			Usage:    "trader id",
		},
		&cli.StringFlag{
			Name:  "mode",
			Value: "trade",
			Usage: "trade or lend",
		},
		&cli.BoolFlag{
			Name:  "similar",
			Usage: "use name-similarity matching instead of exact wishlist matches",
		},
		&cli.BoolFlag{
			Name:  "in-city",
			Usage: "only consider traders in the same city",
		},
	},
	Action: func(ctx *cli.Context) error {
		traderID, err := uuid.Parse(ctx.String("trader"))
		if err != nil {
			return fmt.Errorf("invalid trader id: %w", err)
		}

		_, _, reg, closeFn, err := services()
		if err != nil {
			return err
		}
		defer closeFn()

		var strategy suggest.Strategy = suggest.NewExact(reg)
		if ctx.Bool("similar") {
			strategy = suggest.NewSimilar(reg)
		}

		switch mode := ctx.String("mode"); mode {
		case "lend":
			s, err := strategy.SuggestLend(context.Background(), traderID, ctx.Bool("in-city"))
			if err != nil {
				return err
			}
			if s == nil {
				fmt.Println("no suggestion")
				return nil
			}
			fmt.Printf("lend %s to %s\n", s.ItemID, s.ReceiverID)
		case "trade":
			s, err := strategy.SuggestTrade(context.Background(), traderID, ctx.Bool("in-city"))
			if err != nil {
				return err
			}
			if s == nil {
				fmt.Println("no suggestion")
				return nil
			}
			fmt.Printf("give %s to %s for %s\n", s.GiveItemID, s.PartnerID, s.ReceiveItemID)
		default:
			return fmt.Errorf("unknown mode %q", mode)
		}
		return nil
	},
}
