// Command transport infers how travelers moved between two points from the
// survey tables, without starting the server.
//
//	transport -prev 126.978,37.5665 -next 127.0276,37.4979 -boundary 3
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"tripreco/internal/config"
	"tripreco/internal/domain/entities"
	"tripreco/internal/logging"
	"tripreco/internal/repository/csvstore"
	"tripreco/internal/services"
)

func main() {
	prev := flag.String("prev", "", "previous point as lon,lat")
	next := flag.String("next", "", "next point as lon,lat")
	boundary := flag.Float64("boundary", 0, "search radius in km (default from config)")
	avoidCar := flag.Bool("avoid-car", false, "split routes at private-car legs")
	flag.Parse()

	if err := run(*prev, *next, *boundary, *avoidCar); err != nil {
		fmt.Fprintln(os.Stderr, "transport:", err)
		os.Exit(1)
	}
}

func run(prevArg, nextArg string, boundary float64, avoidCar bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	prev, err := parsePoint(prevArg)
	if err != nil {
		return fmt.Errorf("-prev: %w", err)
	}
	next, err := parsePoint(nextArg)
	if err != nil {
		return fmt.Errorf("-next: %w", err)
	}
	if boundary <= 0 {
		boundary = cfg.Recommend.TransportBoundaryKm
	}

	svc := services.NewTransportService(csvstore.NewStore(cfg.Data))
	resolve := svc.Resolve
	if avoidCar {
		resolve = svc.ResolveAvoidingPrivateCar
	}
	result, err := resolve(context.Background(), prev, next, boundary)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println(services.NoRecommendation)
		return nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func parsePoint(s string) (entities.Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return entities.Location{}, fmt.Errorf("want lon,lat, got %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return entities.Location{}, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return entities.Location{}, err
	}
	return entities.FromXY(lon, lat), nil
}
