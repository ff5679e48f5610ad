package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/wscroll/internal/config"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition defines how a viewer should be invoked
type PlayerDefinition struct {
	Description    string   `toml:"description"`
	Platforms      []string `toml:"platforms"`
	Args           []string `toml:"args,omitempty"`
	ArgsDarwin     []string `toml:"args_darwin,omitempty"`
	ArgsLinux      []string `toml:"args_linux,omitempty"`
	ArgsWindows    []string `toml:"args_windows,omitempty"`
	CommandWindows string   `toml:"command_windows,omitempty"`
}

type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

type PlayerRegistry struct {
	players map[string]PlayerDefinition
	goos    string
}

// NewPlayerRegistry creates a registry from the embedded TOML, overlaid with
// ~/.config/wscroll/players.toml when present.
func NewPlayerRegistry() (*PlayerRegistry, error) {
	var pc PlayersConfig
	if err := toml.Unmarshal(playersTOML, &pc); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}

	r := &PlayerRegistry{players: pc.Players, goos: runtime.GOOS}
	_ = r.merge(filepath.Join(config.DefaultDir(), "players.toml"))
	return r, nil
}

func (r *PlayerRegistry) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var user PlayersConfig
	if err := toml.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, def := range user.Players {
		r.players[name] = def
	}
	return nil
}

// Command builds the argv for opening target with playerName.
func (r *PlayerRegistry) Command(playerName, target string) ([]string, error) {
	player, ok := r.players[playerName]
	if !ok {
		return []string{playerName, target}, nil
	}
	if !slices.Contains(player.Platforms, r.goos) {
		return nil, fmt.Errorf("%s not supported on %s", playerName, r.goos)
	}

	name := playerName
	if r.goos == "windows" && player.CommandWindows != "" {
		name = player.CommandWindows
	}

	argv := append([]string{name}, r.args(player)...)
	return append(argv, target), nil
}

func (r *PlayerRegistry) args(p PlayerDefinition) []string {
	switch r.goos {
	case "darwin":
		if len(p.ArgsDarwin) > 0 {
			return p.ArgsDarwin
		}
	case "linux":
		if len(p.ArgsLinux) > 0 {
			return p.ArgsLinux
		}
	case "windows":
		if len(p.ArgsWindows) > 0 {
			return p.ArgsWindows
		}
	}
	return p.Args
}

// FindAvailablePlayer finds the first installed player from a list
func FindAvailablePlayer(players []string) string {
	for _, player := range players {
		if _, err := exec.LookPath(player); err == nil {
			return player
		}
	}
	return ""
}
