// Command exportskills writes the skill table as CSV for balance review.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/automoto/dragonsons/config"
)

var header = []string{
	"name", "id", "element", "kind", "rarity", "power", "radius", "range",
	"chainCount", "castMs", "cooldownMs", "notes", "suggestion",
}

func main() {
	configPath := flag.String("config", "", "Balance/content JSON file (empty = built-in defaults)")
	outPath := flag.String("out", filepath.Join("docs", "skills.csv"), "Output CSV path")
	flag.Parse()

	snap := config.Default
	if *configPath != "" {
		s, err := config.Load(*configPath)
		if err != nil {
			fatal(err)
		}
		snap = s
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		fatal(err)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		fatal(err)
	}
	if err := writeCSV(f, snap.Content.Skills); err != nil {
		_ = f.Close()
		fatal(err)
	}
	if err := f.Close(); err != nil {
		fatal(err)
	}
	fmt.Printf("Exported %d skills to %s\n", len(snap.Content.Skills), *outPath)
}

func writeCSV(w io.Writer, skills []config.SkillDef) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range skills {
		if err := cw.Write(row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(s config.SkillDef) []string {
	element := ""
	if s.Element != nil {
		element = s.Element.String()
	}
	kind := string(s.Kind)
	if kind == "" {
		kind = "active"
		if s.IsPassive() {
			kind = "passive"
		}
	}
	rarity := s.Rarity
	if rarity == "" {
		rarity = "common"
	}
	return []string{
		s.Name, s.ID, element, kind, rarity,
		num(s.Power), optNum(s.Radius), optNum(s.Range), optInt(s.ChainCount),
		strconv.FormatInt(s.CastMs, 10), strconv.FormatInt(s.CooldownMs, 10),
		"", "",
	}
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Optional columns stay blank when unset.
func optNum(v float64) string {
	if v == 0 {
		return ""
	}
	return num(v)
}

func optInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func fatal(err error) {
	slog.Error("export failed", slog.Any("err", err))
	os.Exit(1)
}
