package tuning

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/radieske/winmix-prediction-poc/internal/prediction"
	"github.com/radieske/winmix-prediction-poc/internal/shared/config"
)

// Watcher recarrega o arquivo de tuning (YAML ou TOML) quando ele muda e
// entrega os novos parâmetros para Apply. Arquivo inválido é logado e
// ignorado; os parâmetros em uso continuam valendo.
type Watcher struct {
	Path  string
	Log   *zap.Logger
	Apply func(prediction.Params)

	OnReload func(ok bool) // métricas

	fw *fsnotify.Watcher
}

// New observa o diretório do arquivo, já que editores costumam gravar em um
// arquivo temporário e renomear por cima do original.
func New(path string, log *zap.Logger, apply func(prediction.Params)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{Path: filepath.Clean(path), Log: log, Apply: apply, fw: fw}, nil
}

// Run bloqueia até o contexto ser cancelado
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	w.Log.Info("watching tuning file", zap.String("path", w.Path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.Path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				w.reload()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn("tuning watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	p, err := config.LoadParams(w.Path)
	if err != nil {
		w.Log.Warn("tuning reload rejected", zap.String("path", w.Path), zap.Error(err))
		if w.OnReload != nil {
			w.OnReload(false)
		}
		return
	}

	w.Apply(p)
	w.Log.Info("tuning reloaded", zap.String("path", w.Path))
	if w.OnReload != nil {
		w.OnReload(true)
	}
}
