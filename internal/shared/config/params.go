package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
)

// LoadParams lê o arquivo de tuning por cima de prediction.DefaultParams.
// Extensão .toml usa TOML, qualquer outra YAML. Campos ausentes mantêm o
// default; path vazio ou arquivo inexistente devolvem os defaults sem erro.
func LoadParams(path string) (prediction.Params, error) {
	p := prediction.DefaultParams()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read tuning file: %w", err)
	}

	if err := decodeParams(path, data, &p); err != nil {
		return prediction.DefaultParams(), fmt.Errorf("parse tuning file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return prediction.DefaultParams(), fmt.Errorf("invalid tuning file: %w", err)
	}
	return p, nil
}

func decodeParams(path string, data []byte, p *prediction.Params) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, p)
	}
	return yaml.Unmarshal(data, p)
}
