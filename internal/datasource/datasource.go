// Package datasource abstracts where raw dataset bytes come from. A Source
// yields a byte stream; parsers downstream do not care whether it was a local
// file or an HTTP download.
package datasource

import (
	"context"
	"fmt"
	"io"

	"cleanse/internal/config"
	"cleanse/internal/datasource/file"
	"cleanse/internal/datasource/httpds"
)

// Source is the minimal contract a byte origin must satisfy. Open may be
// called more than once; each call returns an independent stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New builds a Source from its config block.
func New(cfg config.Source) (Source, error) {
	switch cfg.Kind {
	case "file":
		return file.NewLocal(cfg.File.Path), nil
	case "http":
		client := httpds.NewClient(httpds.Config{
			InsecureSkipVerify: cfg.HTTP.AllowInsecureTLS,
		})
		return httpds.NewRemote(client, cfg.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("datasource: unknown source kind %q", cfg.Kind)
	}
}
