// Command trip runs one adapter lookup from the command line and prints the
// normalised result as JSON. It uses the same configuration as the API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/tripplanner/cache"
	"github.com/briangreenhill/tripplanner/internal/clock"
	"github.com/briangreenhill/tripplanner/internal/config"
	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/providers"
)

const version = "0.1.0"

const usage = `Usage: trip <command> [arguments]

Commands:
  providers                                 List adapters and whether they are configured
  weather LAT LON DATE[,DATE...]            Daily weather for YYYY-MM-DD dates
  geocode QUERY                             Resolve a free-text place
  reverse LAT LON                           Address at a point
  cities QUERY                              Search cities by name
  places LAT LON CATEGORY [QUERY]           Food, lodging or attractions near a point
  flight CALLSIGN                           Route flown under a callsign
  offers ORIGIN DESTINATION DATE [ADULTS]   One-way flight offers
  route FROM_LAT FROM_LON TO_LAT TO_LON [MODE]
                                            Travel time by driving, walking or cycling
  timezone LAT LON                          Time zone at a point
  version                                   Print the version

Configuration is read from the environment and an optional .env file.
`

var errUsage = errors.New("usage")

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	logger = logger.Level(cfg.Level())

	policy, err := cfg.CachePolicy()
	if err != nil {
		logger.Fatal().Err(err).Msg("cache policy")
	}
	store := cache.NewMemory(0, cache.WithPolicy(policy))
	defer store.Close()

	svc, err := providers.Setup(cfg, store, clock.Real{}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("providers setup")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := runCLI(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		cancel()
		logger.Fatal().Err(err).Msg("command failed")
	}
}

func runCLI(ctx context.Context, svc *providers.Services, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", errUsage)
	}
	cmd, rest := args[0], args[1:]

	var result any
	var err error
	switch cmd {
	case "help", "--help", "-h":
		_, err = fmt.Fprint(out, usage)
		return err
	case "version", "--version", "-v":
		_, err = fmt.Fprintf(out, "trip v%s\n", version)
		return err
	case "providers":
		result = svc.Registry.Describe()
	case "weather":
		if err := want(rest, 3, 3); err != nil {
			return err
		}
		lat, lon, err := coords(rest[0], rest[1])
		if err != nil {
			return err
		}
		result, err = svc.Weather.Conditions(ctx, lat, lon, strings.Split(rest[2], ","))
		if err != nil {
			return err
		}
	case "geocode", "cities":
		if len(rest) == 0 {
			return fmt.Errorf("%w: %s needs a query", errUsage, cmd)
		}
		q := strings.Join(rest, " ")
		if cmd == "geocode" {
			result, err = svc.Geocoding.Search(ctx, q)
		} else {
			result, err = svc.Cities.Search(ctx, q)
		}
	case "reverse", "timezone":
		if err := want(rest, 2, 2); err != nil {
			return err
		}
		lat, lon, err := coords(rest[0], rest[1])
		if err != nil {
			return err
		}
		if cmd == "reverse" {
			result, err = svc.Geocoding.Reverse(ctx, lat, lon)
		} else {
			result, err = svc.Timezones.Lookup(ctx, lat, lon)
		}
		if err != nil {
			return err
		}
	case "places":
		if len(rest) < 3 {
			return fmt.Errorf("%w: places needs LAT LON CATEGORY", errUsage)
		}
		lat, lon, err := coords(rest[0], rest[1])
		if err != nil {
			return err
		}
		result, err = svc.Places.Search(ctx, providers.PlaceQuery{
			Near:     &providers.Point{Lat: lat, Lon: lon},
			Category: domain.PlaceCategory(rest[2]),
			Query:    strings.Join(rest[3:], " "),
		})
		if err != nil {
			return err
		}
	case "flight":
		if err := want(rest, 1, 1); err != nil {
			return err
		}
		result, err = svc.Flights.Route(ctx, rest[0])
	case "offers":
		if err := want(rest, 3, 4); err != nil {
			return err
		}
		q := providers.FlightQuery{Origin: rest[0], Destination: rest[1], Date: rest[2], Adults: 1}
		if len(rest) == 4 {
			if q.Adults, err = strconv.Atoi(rest[3]); err != nil {
				return fmt.Errorf("%w: adults must be a number", errUsage)
			}
		}
		result, err = svc.Flights.Search(ctx, q)
	case "route":
		if err := want(rest, 4, 5); err != nil {
			return err
		}
		fromLat, fromLon, err := coords(rest[0], rest[1])
		if err != nil {
			return err
		}
		toLat, toLon, err := coords(rest[2], rest[3])
		if err != nil {
			return err
		}
		mode := domain.ModeDriving
		if len(rest) == 5 {
			mode = domain.TravelMode(rest[4])
		}
		result, err = svc.Routing.TravelTime(ctx, mode,
			providers.Point{Lat: fromLat, Lon: fromLon}, providers.Point{Lat: toLat, Lon: toLon})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown command: %s", errUsage, cmd)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func want(args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("%w: expected %d arguments, got %d", errUsage, lo, len(args))
		}
		return fmt.Errorf("%w: expected %d to %d arguments, got %d", errUsage, lo, hi, len(args))
	}
	return nil
}

func coords(latS, lonS string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("%w: latitude %q must be a number between -90 and 90", errUsage, latS)
	}
	lon, err := strconv.ParseFloat(lonS, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: longitude %q must be a number between -180 and 180", errUsage, lonS)
	}
	return lat, lon, nil
}
