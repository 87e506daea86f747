package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
)

// TabsConfig represents the tabs.json configuration for the feed tab set
type TabsConfig struct {
	Default string      `json:"default"`
	Tabs    []TabConfig `json:"tabs"`
}

// TabConfig describes one feed tab
type TabConfig struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var (
	tabsConfig     *TabsConfig
	tabsConfigMu   sync.RWMutex
	tabsConfigOnce sync.Once
)

// GetTabsConfig returns the current tabs configuration (thread-safe)
func GetTabsConfig() *TabsConfig {
	tabsConfigOnce.Do(func() {
		tabsConfigMu.Lock()
		defer tabsConfigMu.Unlock()
		if tabsConfig == nil {
			tabsConfig = loadTabsConfigFromFile()
		}
	})

	tabsConfigMu.RLock()
	defer tabsConfigMu.RUnlock()
	return tabsConfig
}

// ReloadTabsConfig reloads the configuration from file
func ReloadTabsConfig() error {
	newConfig := loadTabsConfigFromFile()
	tabsConfigMu.Lock()
	defer tabsConfigMu.Unlock()
	tabsConfig = newConfig
	slog.Info("tabs configuration reloaded")
	return nil
}

func loadTabsConfigFromFile() *TabsConfig {
	configPath := os.Getenv("TABS_CONFIG")
	if configPath == "" {
		configPath = "config/tabs.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("tabs config file not found, using defaults", "path", configPath)
		} else {
			slog.Warn("could not read tabs config, using defaults", "path", configPath, "error", err)
		}
		return getDefaultTabsConfig()
	}

	var config TabsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Error("invalid JSON in tabs config, using defaults", "path", configPath, "error", err)
		return getDefaultTabsConfig()
	}

	slog.Info("loaded tabs configuration", "default", config.Default, "tabs", len(config.Tabs))
	return &config
}

// getDefaultTabsConfig returns the embedded default configuration
func getDefaultTabsConfig() *TabsConfig {
	return &TabsConfig{
		Default: "all",
		Tabs: []TabConfig{
			{ID: "all", Label: "All Activity"},
			{ID: "connect", Label: "Connect"},
			{ID: "kudos", Label: "Kudos"},
			{ID: "mine", Label: "My Activity"},
		},
	}
}

// IsValidTab reports whether a tab ID belongs to the configured set
func (c *TabsConfig) IsValidTab(id string) bool {
	for _, tab := range c.Tabs {
		if tab.ID == id {
			return true
		}
	}
	return false
}

// DefaultTab returns the configured default tab ID
func (c *TabsConfig) DefaultTab() string {
	if c.Default != "" {
		return c.Default
	}
	if len(c.Tabs) > 0 {
		return c.Tabs[0].ID
	}
	return "all"
}
