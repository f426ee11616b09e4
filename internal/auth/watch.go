package auth

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch monitors the credential file and reloads it after writes,
// debouncing bursts of filesystem events. Removed or renamed files are
// re-added so atomic replace rotations keep working.
func (p *FileProvider) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(p.path); err != nil {
		_ = w.Close()
		return err
	}

	go func() {
		defer func() { _ = w.Close() }()

		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					if err := w.Add(p.path); err != nil {
						log.Error().Err(err).Str("path", p.path).Msg("Failed to re-add credential watch")
					}
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					if !debounce.Stop() {
						select {
						case <-debounce.C:
						default:
						}
					}
					debounce.Reset(250 * time.Millisecond)
				}

			case <-debounce.C:
				if _, changed, err := p.Load(); err != nil {
					log.Error().Err(err).Str("path", p.path).Msg("Credential reload failed")
				} else if changed {
					log.Info().Str("path", p.path).Msg("Credentials rotated")
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("Credential watch error")
			}
		}
	}()

	return nil
}
