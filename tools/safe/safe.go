package safe

import (
	"ChatWave/logger"
)

// SafeGo starts a goroutine that recovers from panics,
// so a misbehaving background task cannot take the process down.
func SafeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[SafeGo] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
