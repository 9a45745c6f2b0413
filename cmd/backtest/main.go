package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/xwinwin/SimTradeLab/examples/strategy"
	engine "github.com/xwinwin/SimTradeLab/internal/engine/engine_v1"
)

// runAction loads the engine config, wires the example strategy and runs the
// simulation.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	symbol := cmd.String("symbol")

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	simEngine := engine.NewSimulationEngineV1()
	if err := simEngine.Initialize(string(configBytes)); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	maCross := strategy.NewMACross(symbol)
	maCross.FastWindow = int(cmd.Int("fast"))
	maCross.SlowWindow = int(cmd.Int("slow"))
	maCross.Shares = cmd.Int("shares")

	simEngine.SetCallbacks(maCross.Callbacks())

	if err := simEngine.Run(); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	printSummary(simEngine)

	return nil
}

func printSummary(simEngine *engine.SimulationEngineV1) {
	collector := simEngine.Stats()

	last := collector.LastRecord()
	if last.IsNone() {
		fmt.Println("No trading days simulated.")
		return
	}

	fmt.Printf("Final portfolio value: %.2f\n", last.Unwrap().PostTradeValue)
	fmt.Printf("Total return:          %.2f%%\n", collector.TotalReturn()*100)
	fmt.Printf("Trades:                %d\n", len(simEngine.TradeLog()))

	audit := simEngine.LifecycleStats()
	fmt.Printf("Operations:            %d (%d failed)\n", audit.TotalCalls, audit.FailedCalls)
}

// schemaAction prints the JSON schema of the engine config.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	simEngine := engine.NewSimulationEngineV1()

	schema, err := simEngine.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate config schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a daily trading strategy simulation",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the dual moving average example strategy",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the engine YAML config",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "Symbol to trade",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "fast",
						Usage: "Fast moving average window in days",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "slow",
						Usage: "Slow moving average window in days",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "shares",
						Usage: "Shares to hold while the fast average leads",
						Value: 100,
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the engine config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
