package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/unklstewy/plane-spotter/pkg/adsb"
	"github.com/unklstewy/plane-spotter/pkg/airports"
	"github.com/unklstewy/plane-spotter/pkg/config"
	"github.com/unklstewy/plane-spotter/pkg/coordinates"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	catalog := flag.String("catalog", "", "Airport catalog CSV, optionally .zst (overrides airports.path)")
	radius := flag.Float64("radius", 0, "Search radius in km (overrides tracker.search_radius_km)")
	ident := flag.String("ident", "", "Show the airport with this ident instead of searching")
	traffic := flag.Bool("traffic", false, "Also list aircraft near the airport found")
	trafficNM := flag.Float64("traffic-radius", 10, "Radius in nautical miles for -traffic")
	asJSON := flag.Bool("json", false, "Print the airport as JSON")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] \"lat, lon\"\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *catalog != "" {
		cfg.Airports.Path = *catalog
	}
	if *radius > 0 {
		cfg.Tracker.SearchRadiusKm = *radius
	}

	idx, err := airports.Load(cfg.Airports.Path)
	if err != nil {
		log.Fatalf("Failed to load airports: %v", err)
	}

	var ap airports.Airport
	var found bool
	if *ident != "" {
		ap, found = idx.Get(*ident)
		if !found {
			fmt.Printf("airport %s is not in the catalog\n", strings.ToUpper(*ident))
			os.Exit(1)
		}
	} else {
		if flag.NArg() == 0 {
			flag.Usage()
			os.Exit(2)
		}
		p, err := coordinates.ParsePoint(strings.Join(flag.Args(), " "))
		if err != nil {
			log.Fatalf("Invalid coordinates: %v", err)
		}
		ap, found = idx.Lookup(p, cfg.Tracker.SearchRadiusKm)
		if !found {
			fmt.Printf("not near any known airport within %.0f km\n", cfg.Tracker.SearchRadiusKm)
			os.Exit(1)
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ap); err != nil {
			log.Fatalf("Failed to encode airport: %v", err)
		}
	} else {
		printAirport(ap)
	}

	if *traffic {
		if err := printTraffic(cfg, ap, *trafficNM); err != nil {
			log.Fatalf("Failed to fetch traffic: %v", err)
		}
	}
}

func printAirport(ap airports.Airport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Ident:\t%s\n", ap.Ident)
	fmt.Fprintf(w, "Name:\t%s\n", ap.Name)
	fmt.Fprintf(w, "Type:\t%s\n", ap.Type)
	fmt.Fprintf(w, "Location:\t%s\n", ap.Location)
	fmt.Fprintf(w, "Elevation:\t%d ft\n", ap.ElevationFt)
	fmt.Fprintf(w, "Country:\t%s\n", ap.ISOCountry)
	fmt.Fprintf(w, "Region:\t%s\n", ap.ISORegion)
	fmt.Fprintf(w, "Municipality:\t%s\n", ap.Municipality)
	if ap.DistanceKm > 0 {
		fmt.Fprintf(w, "Distance:\t%.2f km\n", ap.DistanceKm)
	}
	w.Flush()
}

// printTraffic lists the aircraft airplanes.live reports around ap.
func printTraffic(cfg *config.Config, ap airports.Airport, radiusNM float64) error {
	baseURL := "https://api.airplanes.live/v2"
	for _, src := range cfg.ADSB.Sources {
		if src.Type == adsb.SourceAirplanesLive && src.BaseURL != "" {
			baseURL = src.BaseURL
			break
		}
	}

	client := adsb.NewAirplanesLiveClient(baseURL, 10*time.Second, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	positions, err := client.AircraftNear(ctx, ap.Location.Latitude, ap.Location.Longitude, radiusNM)
	if err != nil {
		return err
	}

	fmt.Printf("\n%d aircraft within %.0f NM of %s\n", len(positions), radiusNM, ap.Ident)
	if len(positions) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ICAO\tCALLSIGN\tALT\tGS\tDIST\tBRG")
	for _, pos := range positions {
		alt := fmt.Sprintf("%.0f", pos.AltitudeFt)
		if pos.OnGround {
			alt = "ground"
		}
		brg := coordinates.Bearing(ap.Location, pos.Point())
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%.1f NM\t%03.0f %s\n",
			pos.ICAO, pos.Callsign, alt, pos.GroundSpeed,
			coordinates.DistanceNauticalMiles(ap.Location, pos.Point()),
			brg, coordinates.CompassPoint(brg))
	}
	return w.Flush()
}
