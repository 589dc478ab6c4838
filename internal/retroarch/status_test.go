package retroarch_test

import (
	"testing"

	"hinter/internal/retroarch"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantLoaded  bool
		wantPaused  bool
		wantCore    string
		wantContent string
	}{
		{
			name:  "contentless",
			reply: "GET_STATUS CONTENTLESS",
		},
		{
			name:        "playing with crc",
			reply:       "GET_STATUS PLAYING snes9x,Super Metroid,crc32=abcd1234",
			wantLoaded:  true,
			wantCore:    "snes9x",
			wantContent: "Super Metroid",
		},
		{
			name:        "paused without crc",
			reply:       "GET_STATUS PAUSED mgba,Metroid Fusion",
			wantLoaded:  true,
			wantPaused:  true,
			wantCore:    "mgba",
			wantContent: "Metroid Fusion",
		},
		{
			name:        "content only",
			reply:       "GET_STATUS PLAYING SomeGame",
			wantLoaded:  true,
			wantContent: "SomeGame",
		},
		{
			name:        "missing command echo",
			reply:       "PLAYING puae,Chaos Engine",
			wantLoaded:  true,
			wantCore:    "puae",
			wantContent: "Chaos Engine",
		},
		{
			name:  "empty reply",
			reply: "",
		},
		{
			name:  "garbage reply",
			reply: "???",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := retroarch.ParseStatus(tc.reply)
			if status.ContentLoaded() != tc.wantLoaded {
				t.Fatalf("ContentLoaded = %v, want %v", status.ContentLoaded(), tc.wantLoaded)
			}
			if status.Paused != tc.wantPaused {
				t.Fatalf("Paused = %v, want %v", status.Paused, tc.wantPaused)
			}
			if status.Core != tc.wantCore {
				t.Fatalf("Core = %q, want %q", status.Core, tc.wantCore)
			}
			if status.Content != tc.wantContent {
				t.Fatalf("Content = %q, want %q", status.Content, tc.wantContent)
			}
		})
	}
}

func TestSystemForCore(t *testing.T) {
	tests := []struct {
		core string
		want string
	}{
		{"snes9x", "SNES"},
		{"Snes9x_Next", "SNES"},
		{"mesen-s", "SNES"},
		{"mesen", "NES"},
		{"commodore_amiga", "Amiga"},
		{"vice_x64", "C64"},
		{"", "Unknown System"},
		{"totally_new_core", "Unknown System"},
	}
	for _, tc := range tests {
		if got := retroarch.SystemForCore(tc.core); got != tc.want {
			t.Fatalf("SystemForCore(%q) = %q, want %q", tc.core, got, tc.want)
		}
	}
}

func TestGameTitle(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"/roms/snes/super_metroid.sfc", "Super Metroid"},
		{"chrono-trigger.smc", "Chrono Trigger"},
		{"Secret of Mana", "Secret Of Mana"},
		{"", "Unknown Game"},
	}
	for _, tc := range tests {
		if got := retroarch.GameTitle(tc.content); got != tc.want {
			t.Fatalf("GameTitle(%q) = %q, want %q", tc.content, got, tc.want)
		}
	}
}
