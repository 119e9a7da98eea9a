package tts

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed voices.toml
var voicesTOML []byte

// Voice describes one narration voice from the built-in catalog.
type Voice struct {
	Name        string `toml:"name"`
	Language    string `toml:"language"`
	Style       string `toml:"style"`
	Description string `toml:"description"`
}

type voiceCatalog struct {
	Voices []Voice `toml:"voices"`
}

var (
	catalogOnce sync.Once
	catalog     []Voice
	catalogErr  error
)

func loadCatalog() ([]Voice, error) {
	catalogOnce.Do(func() {
		var parsed voiceCatalog
		if err := toml.Unmarshal(voicesTOML, &parsed); err != nil {
			catalogErr = fmt.Errorf("parse voice catalog: %w", err)
			return
		}
		catalog = parsed.Voices
	})
	return catalog, catalogErr
}

// Voices returns the built-in voice catalog.
func Voices() ([]Voice, error) {
	return loadCatalog()
}

// LookupVoice finds a catalog voice by name, case-insensitively.
func LookupVoice(name string) (Voice, bool) {
	voices, err := loadCatalog()
	if err != nil {
		return Voice{}, false
	}
	name = strings.TrimSpace(name)
	for _, voice := range voices {
		if strings.EqualFold(voice.Name, name) {
			return voice, true
		}
	}
	return Voice{}, false
}
