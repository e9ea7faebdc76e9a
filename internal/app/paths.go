package app

import (
	"os"
	"path/filepath"
)

// Paths holds all resolved filesystem paths for the .mamdani/ project directory.
// All fields are pre-computed strings.
type Paths struct {
	Root   string // .mamdani/
	Config string // .mamdani/config.toml
	DB     string // .mamdani/runs.db

	SystemsDir string // .mamdani/systems/

	LogDir string // .mamdani/log/
	Log    string // .mamdani/log/mamdani.log

	RunDir   string // .mamdani/run/
	AddrFile string // .mamdani/run/http.addr
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, ".mamdani")
	return &Paths{
		Root:   root,
		Config: filepath.Join(root, "config.toml"),
		DB:     filepath.Join(root, "runs.db"),

		SystemsDir: filepath.Join(root, "systems"),

		LogDir: filepath.Join(root, "log"),
		Log:    filepath.Join(root, "log", "mamdani.log"),

		RunDir:   filepath.Join(root, "run"),
		AddrFile: filepath.Join(root, "run", "http.addr"),
	}
}

// EnsureDirs creates all subdirectories under .mamdani/. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.SystemsDir, p.LogDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// WriteAddr records the address the HTTP server is listening on.
func (p *Paths) WriteAddr(addr string) error {
	if err := os.MkdirAll(p.RunDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(p.AddrFile, []byte(addr+"\n"), 0644)
}

// CleanEphemeral removes ephemeral runtime files. Called on clean server
// shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.AddrFile)
}
