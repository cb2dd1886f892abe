package filesystem

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandPath(t *testing.T) {
	home := UserHomeDir()

	tests := map[string]string{
		"":                       "",
		"~":                      home,
		"~/.kubeask/config.yaml": filepath.Join(home, ".kubeask", "config.yaml"),
		"/etc/kubeask/../x":      "/etc/x",
		"relative/./file":        filepath.Join("relative", "file"),
	}
	for in, want := range tests {
		assert.Equal(t, want, ExpandPath(in), in)
	}
}
