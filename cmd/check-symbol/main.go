// One-shot tool: check brokerage connectivity and the data the trading
// cycle would see for a symbol right now.
//
// Usage:
//
//	go run cmd/check-symbol/main.go [SYMBOL]
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mr-BiG1/cursor-trade-bot/internal/broker"
	"github.com/Mr-BiG1/cursor-trade-bot/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfgPath := "config/tradebot.yaml"
	if p := os.Getenv("TRADEBOT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sym := cfg.Symbol
	if len(os.Args) > 1 {
		sym = strings.ToUpper(os.Args[1])
	}

	gw := broker.NewAlpacaGateway(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Printf("=== %s via %s ===\n\n", sym, cfg.Alpaca.BaseURL)

	open, err := gw.IsMarketOpen(ctx)
	if err != nil {
		fmt.Printf("clock:     error: %v\n", err)
	} else {
		fmt.Printf("clock:     market open = %v\n", open)
	}

	acct, err := gw.GetAccount(ctx)
	if err != nil {
		fmt.Printf("account:   error: %v\n", err)
	} else {
		fmt.Printf("account:   portfolio=%s buying_power=%s\n",
			acct.PortfolioValue, acct.BuyingPower)
	}

	quote, err := gw.GetLatestQuote(ctx, sym)
	if err != nil {
		fmt.Printf("quote:     error: %v\n", err)
	} else {
		fmt.Printf("quote:     ask=%s bid=%s\n", quote.AskPrice, quote.BidPrice)
	}

	positions, err := gw.GetPositions(ctx)
	if err != nil {
		fmt.Printf("positions: error: %v\n", err)
		return
	}
	if len(positions) == 0 {
		fmt.Println("positions: none")
		return
	}
	for _, p := range positions {
		fmt.Printf("positions: %s qty=%s avg_entry=%s current=%s pl=%s\n",
			p.Symbol, p.Qty, p.AvgEntryPrice, p.CurrentPrice, p.UnrealizedPL)
	}
}
