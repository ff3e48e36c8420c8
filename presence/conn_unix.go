//go:build !windows

package presence

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// dialDiscord tries the well-known socket slots in each candidate runtime
// directory, covering native, flatpak and snap installs.
func dialDiscord() (net.Conn, error) {
	var lastErr error
	for _, dir := range socketDirs() {
		for slot := 0; slot < 10; slot++ {
			path := filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", slot))
			conn, err := net.DialTimeout("unix", path, 2*time.Second)
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate socket directories")
	}
	return nil, lastErr
}

func socketDirs() []string {
	var roots []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			roots = append(roots, dir)
		}
	}
	roots = append(roots, "/tmp")

	var dirs []string
	for _, root := range roots {
		dirs = append(dirs,
			root,
			filepath.Join(root, "app", "com.discordapp.Discord"),
			filepath.Join(root, "snap.discord"),
		)
	}
	return dirs
}
