package subset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"fedharvest/config"
	"fedharvest/normalize"
	"fedharvest/publish"
	"fedharvest/types"
	"fedharvest/validate"
)

// Config describes one subset run.
type Config struct {
	Publisher string
	Namespace string
	Start     validate.YearMonth
	End       validate.YearMonth
	// Agencies maps agency codes to output short names, e.g. "AG" -> "usda".
	Agencies  map[string]string
	DataTypes []types.Category
	OutputDir string
}

// Subsetter re-reads published datasets, validates completeness of the
// expected month range, filters down to the configured agencies and date
// window, and writes one combined CSV per agency.
type Subsetter struct {
	store publish.Store
	cfg   Config
}

// New creates a Subsetter over the given store.
func New(store publish.Store, cfg Config) *Subsetter {
	return &Subsetter{store: store, cfg: cfg}
}

// Run executes the full subset flow. It aborts with a CompletenessError
// before downloading anything if any expected month is unpublished.
func (s *Subsetter) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return err
	}

	expected := validate.ExpectedMonths(s.cfg.Start, s.cfg.End)
	log.Printf("Expected range %s to %s (%d months per data type)", s.cfg.Start, s.cfg.End, len(expected))

	// Validate every data type before touching any data.
	repos := make(map[types.Category][]string, len(s.cfg.DataTypes))
	for _, dt := range s.cfg.DataTypes {
		ids, err := s.store.ListDatasets(ctx, s.cfg.Publisher, s.cfg.Namespace+"-"+dt.Lower())
		if err != nil {
			return fmt.Errorf("listing %s datasets: %w", dt, err)
		}
		log.Printf("%s: found %d datasets", dt, len(ids))

		if missing := validate.Validate(ids, expected); len(missing) > 0 {
			return &validate.CompletenessError{Subject: string(dt), Missing: missing}
		}
		log.Printf("%s: all %d months present", dt, len(expected))
		repos[dt] = ids
	}

	agencyCodes := make([]string, 0, len(s.cfg.Agencies))
	for code := range s.cfg.Agencies {
		agencyCodes = append(agencyCodes, code)
	}
	sort.Strings(agencyCodes)

	startMonth, endMonth := s.cfg.Start.String(), s.cfg.End.String()
	perAgency := make(map[string][]*normalize.Table)
	dropped := make(DroppedSummary)

	for _, dt := range s.cfg.DataTypes {
		log.Printf("Processing %s...", dt)
		for _, repoID := range repos[dt] {
			data, err := s.store.DownloadFile(ctx, repoID, config.ArtifactFileName)
			if err != nil {
				log.Printf("  Error with %s: %v", repoID, err)
				continue
			}
			table, err := ReadParquet(data)
			if err != nil {
				log.Printf("  Error with %s: %v", repoID, err)
				continue
			}

			filtered := FilterRows(table, agencyCodes, dt.Lower(), startMonth, endMonth, dropped)
			if len(filtered.Rows) == 0 {
				continue
			}
			tagged := TagDataType(filtered, dt.Lower())

			for _, code := range agencyCodes {
				if sub := selectAgency(tagged, code); len(sub.Rows) > 0 {
					perAgency[code] = append(perAgency[code], sub)
				}
			}
		}
	}

	s.logDropped(dropped)

	for _, code := range agencyCodes {
		name := s.cfg.Agencies[code]
		tables := perAgency[code]
		if len(tables) == 0 {
			log.Printf("No data for %s", name)
			continue
		}

		path := filepath.Join(s.cfg.OutputDir, name+"_accessions_separations.csv")
		rows, err := writeCombinedCSV(path, tables)
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("%s (%s): %d rows -> %s", name, code, rows, path)
	}
	return nil
}

func selectAgency(t *normalize.Table, code string) *normalize.Table {
	idx := columnIndex(t.Columns, agencyCodeColumn)
	out := &normalize.Table{Columns: t.Columns}
	for _, row := range t.Rows {
		if idx >= 0 && idx < len(row) && row[idx] == code {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// writeCombinedCSV concatenates tables sharing a column layout into one CSV.
func writeCombinedCSV(path string, tables []*normalize.Table) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tables[0].Columns); err != nil {
		return 0, err
	}

	rows := 0
	for _, t := range tables {
		for _, row := range t.Rows {
			if err := w.Write(row); err != nil {
				return rows, err
			}
			rows++
		}
	}
	w.Flush()
	return rows, w.Error()
}

func (s *Subsetter) logDropped(dropped DroppedSummary) {
	if len(dropped) == 0 {
		return
	}

	keys := make([]DropKey, 0, len(dropped))
	for k := range dropped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AgencyCode != keys[j].AgencyCode {
			return keys[i].AgencyCode < keys[j].AgencyCode
		}
		return keys[i].DataType < keys[j].DataType
	})

	log.Printf("Dropped data summary (outside %s-%s):", s.cfg.Start, s.cfg.End)
	for _, k := range keys {
		info := dropped[k]
		months := make([]string, 0, len(info.Months))
		for m := range info.Months {
			months = append(months, m)
		}
		sort.Strings(months)
		log.Printf("  %s %s: %d records dropped across %d month(s) (%s to %s)",
			k.AgencyCode, k.DataType, info.Records, len(months), months[0], months[len(months)-1])
	}
}
