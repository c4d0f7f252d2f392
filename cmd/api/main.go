// cmd/api/main.go
package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"tradenexus/internal/config"
	"tradenexus/internal/registry"
	"tradenexus/internal/store"
	"tradenexus/internal/suggest"
	"tradenexus/internal/traders"
	"tradenexus/internal/trading"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := setupTracing(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Fatalf("Failed to set up tracing: %v", err)
		}
		defer shutdown(ctx)
	}

	var recordStore store.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		recordStore = store.NewPGStore(db)
	} else {
		log.Print("DATABASE_URL not set, using in-memory store")
		recordStore = store.NewMemStore()
	}

	reg := registry.New(recordStore)
	tradeSvc := trading.NewService(reg)
	traderSvc := traders.NewService(reg, tradeSvc, traders.Defaults{
		TradeLimit:           cfg.DefaultTradeLimit,
		IncompleteTradeLimit: cfg.DefaultIncompleteTradeLimit,
		MinimumToBorrow:      cfg.DefaultMinimumToBorrow,
	})

	tradeHandler := trading.NewHandler(tradeSvc)
	traderHandler := traders.NewHandler(traderSvc)
	suggestHandler := suggest.NewHandler(suggest.NewExact(reg), suggest.NewSimilar(reg))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/traders", func(r chi.Router) {
		r.Post("/", traderHandler.HandleRegister)
		r.Post("/login", traderHandler.HandleLogin)
		r.Get("/search", traderHandler.HandleSearchTraders)
		r.Route("/{traderID}", func(r chi.Router) {
			r.Get("/", traderHandler.HandleGetTrader)
			r.Patch("/settings", traderHandler.HandleUpdateSettings)
			r.Put("/wishlist/{itemID}", traderHandler.HandleWishlist)
			r.Delete("/wishlist/{itemID}", traderHandler.HandleWishlist)
			r.Delete("/inventory/{itemID}", traderHandler.HandleRemoveInventoryItem)
			r.Post("/items", traderHandler.HandleRequestItem)
			r.Post("/items/{itemID}/process", traderHandler.HandleProcessItemRequest)
			r.Post("/unfreeze-request", traderHandler.HandleRequestUnfreeze)
			r.Put("/frozen", traderHandler.HandleSetFrozen)
			r.Get("/frequent-partners", tradeHandler.HandleFrequentPartners)
			r.Get("/recent-items", tradeHandler.HandleRecentItems)
			r.Get("/suggest/lend", suggestHandler.HandleSuggestLend)
			r.Get("/suggest/trade", suggestHandler.HandleSuggestTrade)
		})
	})

	r.Get("/items/search", traderHandler.HandleSearchItems)
	r.Get("/item-requests", traderHandler.HandleAllItemRequests)

	r.Route("/trades", func(r chi.Router) {
		r.Post("/", tradeHandler.HandleRequestTrade)
		r.Route("/{tradeID}", func(r chi.Router) {
			r.Get("/", tradeHandler.HandleGetTrade)
			r.Post("/accept", tradeHandler.HandleAcceptRequest)
			r.Post("/confirm-meeting", tradeHandler.HandleConfirmMeeting)
			r.Post("/counter", tradeHandler.HandleCounterOffer)
			r.Delete("/", tradeHandler.HandleRescindRequest)
			r.Delete("/ongoing", tradeHandler.HandleRescindOngoing)
		})
	})

	log.Printf("Trade API listening on port %s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, r))
}

// setupTracing installs an OTLP/HTTP trace exporter as the global provider.
func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
