package config

import (
	"fmt"
	"strings"
)

// Browser engines
const (
	EngineChromium = "chromium"
	EngineFirefox  = "firefox"
	EngineWebKit   = "webkit"
)

// BrowserConfig selects the browser engine and mode for the suite
type BrowserConfig struct {
	Name     string
	Engine   string
	Headless bool
}

var browsers = map[string]BrowserConfig{
	"chrome":          {Engine: EngineChromium},
	"ch":              {Engine: EngineChromium},
	"headlesschrome":  {Engine: EngineChromium, Headless: true},
	"firefox":         {Engine: EngineFirefox},
	"ff":              {Engine: EngineFirefox},
	"headlessfirefox": {Engine: EngineFirefox, Headless: true},
	"webkit":          {Engine: EngineWebKit, Headless: true},
}

// LoadBrowserConfig loads the BROWSER selection from environment variables
func LoadBrowserConfig(getenv func(string) string) (*BrowserConfig, error) {
	name := strings.ToLower(strings.TrimSpace(getenv("BROWSER")))
	if name == "" {
		return nil, fmt.Errorf("BROWSER is required")
	}

	config, ok := browsers[name]
	if !ok {
		return nil, fmt.Errorf("BROWSER %q is not supported: use chrome, ch, headlesschrome, firefox, ff, headlessfirefox or webkit", name)
	}
	config.Name = name

	return &config, nil
}
