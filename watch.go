package asap3

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// WatchConfig watches path for writes and reloads the parameter list
// into client, reissuing StartSubscription each time the file changes.
// This is opt-in: nothing calls it automatically, since most deployments
// configure a parameter list once at startup. It runs until ctx is
// canceled or the watcher errors.
func (c *Client) WatchConfig(ctx context.Context, path string, scanRate uint16) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create config watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return errors.Wrapf(err, "watch %s", path)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadConfig(path)
			if err != nil {
				c.listener().Outf(0, "config reload failed: %v", err)
				continue
			}
			c.ParameterList(cfg.ToParameters())
			if err := c.StartSubscription(ctx, scanRate); err != nil {
				c.listener().Outf(0, "resubscribe after config reload failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.listener().Outf(0, "config watcher error: %v", err)
		}
	}
}
