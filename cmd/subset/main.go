package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"fedharvest/config"
	"fedharvest/publish"
	"fedharvest/subset"
	"fedharvest/types"
	"fedharvest/validate"
)

func main() {
	log.SetOutput(os.Stderr)

	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	token := flag.String("token", os.Getenv("HF_TOKEN"), "Hugging Face access token (defaults to HF_TOKEN env)")
	publisher := flag.String("publisher", config.DefaultPublisher, "Account datasets are published under")
	startMonth := flag.String("start", "2015-01", "First expected month (YYYY-MM)")
	endMonth := flag.String("end", "2025-11", "Last expected month (YYYY-MM)")
	agencies := flag.String("agencies", "AG=usda,IN=doi", "Agency code=name pairs, comma separated")
	outDir := flag.String("out", "data/agency_subsets", "Output directory for combined CSVs")
	flag.Parse()

	start, err := parseYearMonth(*startMonth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad --start: %v\n", err)
		os.Exit(1)
	}
	end, err := parseYearMonth(*endMonth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad --end: %v\n", err)
		os.Exit(1)
	}

	agencyMap, err := parseAgencies(*agencies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s := subset.New(publish.NewHubClient(*token), subset.Config{
		Publisher: *publisher,
		Namespace: config.Namespace,
		Start:     start,
		End:       end,
		Agencies:  agencyMap,
		DataTypes: []types.Category{types.Accessions, types.Separations},
		OutputDir: *outDir,
	})

	if err := s.Run(context.Background()); err != nil {
		var ce *validate.CompletenessError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "ABORTING: %v\nRun the harvester first, then retry.\n", ce)
			os.Exit(1)
		}
		log.Fatalf("Subset failed: %v", err)
	}
}

func parseYearMonth(s string) (validate.YearMonth, error) {
	var ym validate.YearMonth
	if _, err := fmt.Sscanf(s, "%d-%d", &ym.Year, &ym.Month); err != nil {
		return ym, err
	}
	if ym.Month < 1 || ym.Month > 12 {
		return ym, fmt.Errorf("month %d out of range", ym.Month)
	}
	return ym, nil
}

func parseAgencies(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, name, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("bad agency pair %q (want CODE=name)", pair)
		}
		out[strings.TrimSpace(code)] = strings.TrimSpace(name)
	}
	if len(out) == 0 {
		return nil, errors.New("no agencies selected")
	}
	return out, nil
}
