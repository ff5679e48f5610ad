package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/wscroll/internal/config"
)

func newTestLauncher(t *testing.T, goos string) (*Launcher, *[][]string) {
	t.Helper()
	detector, err := NewTypeDetector()
	require.NoError(t, err)

	registry, err := NewPlayerRegistry()
	require.NoError(t, err)
	registry.goos = goos

	var started [][]string
	l := &Launcher{
		imageViewer:   "feh",
		defaultOpener: "xdg-open",
		registry:      registry,
		detector:      detector,
		start: func(argv []string) error {
			started = append(started, argv)
			return nil
		},
	}
	return l, &started
}

func TestLauncherOpen(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{
			name:   "article page uses default opener",
			target: "https://en.wikipedia.org/wiki/Plato",
			want:   []string{"xdg-open", "https://en.wikipedia.org/wiki/Plato"},
		},
		{
			name:   "thumbnail uses image viewer with its args",
			target: "https://upload.wikimedia.org/wikipedia/commons/thumb/a/a4/Plato.jpg/300px-Plato.jpg",
			want:   []string{"feh", "--scale-down", "--auto-zoom", "https://upload.wikimedia.org/wikipedia/commons/thumb/a/a4/Plato.jpg/300px-Plato.jpg"},
		},
		{
			name:   "surrounding whitespace is trimmed",
			target: "  https://en.wikipedia.org/wiki/Kant \n",
			want:   []string{"xdg-open", "https://en.wikipedia.org/wiki/Kant"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, started := newTestLauncher(t, "linux")
			require.NoError(t, l.Open(tt.target))
			require.Len(t, *started, 1)
			assert.Equal(t, tt.want, (*started)[0])
		})
	}
}

func TestLauncherOpenErrors(t *testing.T) {
	l, started := newTestLauncher(t, "linux")
	assert.Error(t, l.Open("  "))
	assert.Empty(t, *started)

	l.defaultOpener = ""
	assert.ErrorIs(t, l.Open("https://en.wikipedia.org/wiki/Plato"), ErrNoOpener)

	l.defaultOpener = "xdg-open"
	l.start = func([]string) error { return errors.New("exec: not found") }
	err := l.Open("https://en.wikipedia.org/wiki/Plato")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start xdg-open")
}

func TestLauncherUnsupportedPlatformFallsBack(t *testing.T) {
	l, started := newTestLauncher(t, "windows")
	l.imageViewer = "feh"

	require.NoError(t, l.Open("https://upload.wikimedia.org/x.png"))
	assert.Equal(t, []string{"feh", "https://upload.wikimedia.org/x.png"}, (*started)[0])
}

func TestNewLauncher(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Media.DefaultOpener = "my-opener"
	cfg.Media.Linux.Image = []string{"definitely-not-installed-viewer"}
	cfg.Media.Darwin.Image = []string{"definitely-not-installed-viewer"}
	cfg.Media.Windows.Image = []string{"definitely-not-installed-viewer"}

	l := NewLauncher(cfg)
	assert.Equal(t, "my-opener", l.defaultOpener)
	assert.Equal(t, "my-opener", l.imageViewer, "falls back to the default opener")
}
