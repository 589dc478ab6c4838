package retroarch

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the tolerantly parsed result of a GET_STATUS query.
type Status struct {
	Playing bool
	Paused  bool
	Core    string
	Content string
	Raw     string
}

// ContentLoaded reports whether any content is running or paused.
func (s Status) ContentLoaded() bool {
	return s.Playing || s.Paused
}

// ParseStatus interprets a GET_STATUS reply. Observed grammar variants:
//
//	GET_STATUS CONTENTLESS
//	GET_STATUS PLAYING core_name,content_name,crc32=xxxx
//	GET_STATUS PAUSED core_name,content_name
//	GET_STATUS PLAYING content_name
//
// The reply grammar is not stable across RetroArch versions, so anything
// unrecognized parses as contentless rather than failing.
func ParseStatus(reply string) Status {
	status := Status{Raw: reply}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return status
	}

	fields := strings.Fields(reply)
	idx := 0
	if strings.EqualFold(fields[0], "GET_STATUS") {
		idx = 1
	}
	if len(fields) <= idx {
		return status
	}

	switch strings.ToUpper(fields[idx]) {
	case "PLAYING":
		status.Playing = true
	case "PAUSED":
		status.Paused = true
	case "CONTENTLESS":
		return status
	default:
		// Unknown state token; treat the rest as content info anyway.
		idx--
	}

	if len(fields) <= idx+1 {
		return status
	}
	info := strings.Join(fields[idx+1:], " ")
	if info == "" {
		return status
	}

	parts := strings.SplitN(info, ",", 3)
	if len(parts) == 1 {
		status.Content = strings.TrimSpace(parts[0])
		return status
	}
	status.Core = strings.TrimSpace(parts[0])
	status.Content = strings.TrimSpace(parts[1])
	// parts[2], when present, carries crc32=... which we do not need.
	return status
}

// coreSystems maps libretro core name fragments to display system names.
var coreSystems = map[string]string{
	"snes9x":           "SNES",
	"bsnes":            "SNES",
	"mesen-s":          "SNES",
	"genesis_plus_gx":  "Genesis",
	"picodrive":        "Genesis",
	"blastem":          "Genesis",
	"mgba":             "GBA",
	"vba_next":         "GBA",
	"gambatte":         "Game Boy",
	"sameboy":          "Game Boy",
	"nestopia":         "NES",
	"mesen":            "NES",
	"fceumm":           "NES",
	"mupen64plus_next": "N64",
	"parallel_n64":     "N64",
	"pcsx_rearmed":     "PlayStation",
	"duckstation":      "PlayStation",
	"swanstation":      "PlayStation",
	"beetle_psx":       "PlayStation",
	"flycast":          "Dreamcast",
	"mednafen_saturn":  "Saturn",
	"yabause":          "Saturn",
	"stella":           "Atari 2600",
	"prosystem":        "Atari 7800",
	"mame":             "Arcade",
	"fbneo":            "Arcade",
	"dosbox_pure":      "DOS",
	"scummvm":          "ScummVM",
	"puae":             "Amiga",
	"commodore_amiga":  "Amiga",
	"fsuae":            "Amiga",
	"vice":             "C64",
	"hatari":           "Atari ST",
	"px68k":            "X68000",
	"quasi88":          "PC-88",
	"np2kai":           "PC-98",
}

// SystemForCore derives a display system name from a libretro core name.
func SystemForCore(core string) string {
	core = strings.ToLower(strings.TrimSpace(core))
	if core == "" {
		return "Unknown System"
	}
	// mesen-s must win over mesen, so check longer fragments first by
	// preferring exact matches before substring scans.
	if system, ok := coreSystems[core]; ok {
		return system
	}
	best := ""
	bestLen := 0
	for fragment, system := range coreSystems {
		if strings.Contains(core, fragment) && len(fragment) > bestLen {
			best = system
			bestLen = len(fragment)
		}
	}
	if best == "" {
		return "Unknown System"
	}
	return best
}

// GameTitle derives a display title from a content path or name.
func GameTitle(content string) string {
	if strings.TrimSpace(content) == "" {
		return "Unknown Game"
	}
	base := filepath.Base(content)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'':
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Game"
	}
	return cases.Title(language.Und, cases.NoLower).String(title)
}
