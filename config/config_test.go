package config

import "testing"

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Tracks) != 2 {
		t.Errorf("default tracks = %d, want 2", len(cfg.Tracks))
	}
	if cfg.HistoryDepth != 128 {
		t.Errorf("default history depth = %d", cfg.HistoryDepth)
	}
	if cfg.UI.Scale != "major" {
		t.Errorf("default scale = %q", cfg.UI.Scale)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.OutputPort = "Test Synth"
	cfg.UI.LastTempo = 98
	cfg.Tracks[1].Channel = 9
	cfg.Tracks[1].LoopEnd = 16
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.OutputPort != "Test Synth" {
		t.Errorf("OutputPort = %q", loaded.OutputPort)
	}
	if loaded.UI.LastTempo != 98 {
		t.Errorf("LastTempo = %v", loaded.UI.LastTempo)
	}
	if loaded.Tracks[1].Channel != 9 || loaded.Tracks[1].LoopEnd != 16 {
		t.Errorf("track 1 = %+v", loaded.Tracks[1])
	}
}

func TestLoadSanitizesDegenerateValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &Config{HistoryDepth: -5}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.HistoryDepth != 128 {
		t.Errorf("HistoryDepth = %d, want repaired default", loaded.HistoryDepth)
	}
	if len(loaded.Tracks) == 0 {
		t.Error("empty track list not repaired")
	}
}
