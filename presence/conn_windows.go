//go:build windows

package presence

import (
	"fmt"
	"net"
	"time"

	"gopkg.in/natefinch/npipe.v2"
)

func dialDiscord() (net.Conn, error) {
	var lastErr error
	for slot := 0; slot < 10; slot++ {
		conn, err := npipe.DialTimeout(fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, slot), 2*time.Second)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
