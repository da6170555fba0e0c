package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DataDir   string `json:"data_dir"`
	LogLevel  string `json:"log_level"`
	Persona   string `json:"persona"`
	UseSearch bool   `json:"use_search"`
	Player    string `json:"player"`
	Gemini    struct {
		APIKey           string `json:"api_key"`
		Model            string `json:"model"`
		FlashModel       string `json:"flash_model"`
		ImageModel       string `json:"image_model"`
		SpeechModel      string `json:"speech_model"`
		Voice            string `json:"voice"`
		MaxContextTokens int    `json:"max_context_tokens"`
		OutputReserve    int    `json:"output_reserve"`
	} `json:"gemini"`
	Google struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	} `json:"google"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:   filepath.Join(os.Getenv("HOME"), ".nexusterm"),
		LogLevel:  "info",
		Persona:   "friendly",
		UseSearch: true,
	}
	cfg.Gemini.Model = "gemini-2.5-flash"
	cfg.Gemini.FlashModel = "gemini-2.5-flash"
	cfg.Gemini.ImageModel = "gemini-2.5-flash-image"
	cfg.Gemini.SpeechModel = "gemini-2.5-flash-preview-tts"
	cfg.Gemini.Voice = "Kore"
	cfg.Gemini.MaxContextTokens = 128000
	cfg.Gemini.OutputReserve = 4096

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.Gemini.APIKey = apiKey
	}
	if dataDir := os.Getenv("NEXUSTERM_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		cfg.Google.ClientID = clientID
	}
	if clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET"); clientSecret != "" {
		cfg.Google.ClientSecret = clientSecret
	}

	return cfg, nil
}

// Save writes the config atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
