package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeTMX(t *testing.T, dir, name string, tiles int) string {
	t.Helper()
	tmx := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="%d" height="%d" tilewidth="4" tileheight="4" infinite="0" nextlayerid="1" nextobjectid="1">
</map>
`, tiles, tiles)
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(tmx), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadArenas(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	def, arenas, err := loadArenas("", logger)
	if err != nil || def.Width != 0 || arenas != nil {
		t.Fatalf("empty path = %+v %v %v", def, arenas, err)
	}

	dir := t.TempDir()
	file := writeTMX(t, dir, "pit.tmx", 50)
	def, arenas, err = loadArenas(file, logger)
	if err != nil || def.Width != 200 || arenas != nil {
		t.Fatalf("single file = %+v %v %v", def, arenas, err)
	}

	writeTMX(t, dir, "main.tmx", 25)
	def, arenas, err = loadArenas(dir, logger)
	if err != nil {
		t.Fatalf("dir: %v", err)
	}
	if def.Width != 100 || len(arenas) != 2 || arenas["pit"].Width != 200 {
		t.Fatalf("dir = %+v %+v", def, arenas)
	}

	if _, _, err := loadArenas(filepath.Join(dir, "missing"), logger); err == nil {
		t.Fatal("missing path accepted")
	}
	if _, _, err := loadArenas(t.TempDir(), logger); err == nil {
		t.Fatal("directory without maps accepted")
	}
}
