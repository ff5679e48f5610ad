package media

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/wscroll/internal/config"
	"github.com/pders01/wscroll/internal/debuglog"
)

var ErrNoOpener = errors.New("no application found to open URL")

type Launcher struct {
	imageViewer   string
	defaultOpener string
	registry      *PlayerRegistry
	detector      *TypeDetector
	start         func(argv []string) error
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewPlayerRegistry()
	if err != nil {
		registry = &PlayerRegistry{players: make(map[string]PlayerDefinition), goos: runtime.GOOS}
	}

	detector, err := NewTypeDetector()
	if err != nil {
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	defaultOpener := cfg.Media.DefaultOpener
	if defaultOpener == "" {
		defaultOpener = detector.GetDefaultOpener()
	}

	var players config.MediaPlayers
	switch runtime.GOOS {
	case "darwin":
		players = cfg.Media.Darwin
	case "windows":
		players = cfg.Media.Windows
	default:
		players = cfg.Media.Linux
	}

	imageViewer := FindAvailablePlayer(players.Image)
	if imageViewer == "" {
		imageViewer = defaultOpener
	}

	return &Launcher{
		imageViewer:   imageViewer,
		defaultOpener: defaultOpener,
		registry:      registry,
		detector:      detector,
		start:         startDetached,
	}
}

// Open hands target to the image viewer or the default opener depending on
// what it points at. The program is started detached.
func (l *Launcher) Open(target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return errors.New("nothing to open")
	}

	kind := l.detector.DetectType(target)
	program := l.defaultOpener
	if kind == KindImage {
		program = l.imageViewer
	}
	if program == "" {
		return ErrNoOpener
	}

	argv, err := l.registry.Command(program, target)
	if err != nil {
		argv = []string{program, target}
	}

	debuglog.WithFields(map[string]interface{}{
		"component": "media",
		"kind":      kind.String(),
		"program":   argv[0],
	}).Debugf("opening %s", target)

	if err := l.start(argv); err != nil {
		return fmt.Errorf("failed to start %s: %w", program, err)
	}
	return nil
}

func startDetached(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
