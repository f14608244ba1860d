package arena

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/automoto/dragonsons/server/world"
)

const ringTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" tiledversion="1.10.2" orientation="orthogonal" renderorder="right-down" width="50" height="40" tilewidth="4" tileheight="4" infinite="0" nextlayerid="4" nextobjectid="7">
 <objectgroup id="1" name="Zone">
  <object id="1" x="90" y="70" width="20" height="20">
   <properties>
    <property name="radius" type="float" value="60"/>
   </properties>
  </object>
 </objectgroup>
 <objectgroup id="2" name="PlayerSpawn">
  <object id="2" x="150" y="20">
   <properties>
    <property name="spawnIndex" type="int" value="1"/>
   </properties>
   <point/>
  </object>
  <object id="3" x="10" y="20">
   <properties>
    <property name="spawnIndex" type="int" value="2"/>
   </properties>
   <point/>
  </object>
  <object id="4" x="40" y="120">
   <properties>
    <property name="spawnIndex" type="int" value="1"/>
   </properties>
   <point/>
  </object>
 </objectgroup>
 <objectgroup id="3" name="MonsterSpawn">
  <object id="5" x="100" y="100">
   <point/>
  </object>
  <object id="6" x="30" y="30">
   <point/>
  </object>
 </objectgroup>
</map>
`

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{"arenas/ring.tmx": {Data: []byte(ringTMX)}}

	cfg, err := Load(fsys, "arenas/ring.tmx")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 160 {
		t.Errorf("size = %vx%v, want 200x160", cfg.Width, cfg.Height)
	}
	if cfg.Center != (world.Point{X: 100, Y: 80}) {
		t.Errorf("center = %+v", cfg.Center)
	}
	if cfg.InitialRadius != 60 {
		t.Errorf("radius = %v", cfg.InitialRadius)
	}

	wantSpawns := []world.Point{{X: 40, Y: 120}, {X: 150, Y: 20}, {X: 10, Y: 20}}
	if len(cfg.PlayerSpawns) != len(wantSpawns) {
		t.Fatalf("player spawns = %+v", cfg.PlayerSpawns)
	}
	for i, want := range wantSpawns {
		if cfg.PlayerSpawns[i] != want {
			t.Errorf("spawn %d = %+v, want %+v", i, cfg.PlayerSpawns[i], want)
		}
	}
	if len(cfg.MonsterSpawns) != 2 || cfg.MonsterSpawns[0].X != 30 {
		t.Errorf("monster spawns = %+v", cfg.MonsterSpawns)
	}
}

func TestLoadDir(t *testing.T) {
	fsys := fstest.MapFS{
		"arenas/b.tmx":   {Data: []byte(ringTMX)},
		"arenas/a.tmx":   {Data: []byte(ringTMX)},
		"arenas/readme":  {Data: []byte("not a map")},
		"other/skip.tmx": {Data: []byte("<map")},
	}
	arenas, names, err := LoadDir(fsys, "arenas")
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v", names)
	}
	if _, ok := arenas["a"]; !ok {
		t.Error("arena a missing")
	}

	if _, _, err := LoadDir(fsys, "empty"); !errors.Is(err, ErrNoArenas) {
		t.Errorf("empty dir err = %v", err)
	}
}

func TestLoadRejectsBrokenMap(t *testing.T) {
	fsys := fstest.MapFS{"bad.tmx": {Data: []byte("<map width=")}}
	if _, err := Load(fsys, "bad.tmx"); err == nil {
		t.Fatal("broken map loaded")
	}
	if _, err := Load(fsys, "missing.tmx"); err == nil {
		t.Fatal("missing map loaded")
	}
}
