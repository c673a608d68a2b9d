//go:build !linux

package modulebackend

import (
	vplugin "github.com/joeycumines/vlock/internal/plugin"
)

// Dir is a stand-in on platforms without Go plugin support (everything
// except linux): Load always reports vplugin.ErrNotFound, so the registry
// falls through to the script backend exactly as it would for a missing
// module file.
type Dir struct {
	Path string
}

func (d Dir) Load(name string) (*vplugin.Plugin, error) {
	return nil, vplugin.ErrNotFound
}
