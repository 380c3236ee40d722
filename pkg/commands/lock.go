package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// acquireLock takes the run lock for one-shot jobs. The second return is
// false when another run holds the lock; the caller should skip the run with
// a zero exit. A lock older than staleAfter is treated as abandoned by a
// crashed run and force-cleared.
func acquireLock(path string, staleAfter time.Duration) (release func(), acquired bool, err error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() {
				if err := os.Remove(path); err != nil {
					logrus.WithError(err).Warnf("failed to release lock %s", path)
				}
			}, true, nil
		}
		if !os.IsExist(err) {
			return nil, false, fmt.Errorf("creating lock %s: %w", path, err)
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			// Lock vanished between the create and the stat; retry
			continue
		}
		if time.Since(info.ModTime()) < staleAfter {
			return nil, false, nil
		}

		logrus.Warnf("clearing stale lock %s (age %v)", path, time.Since(info.ModTime()).Round(time.Second))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("clearing stale lock %s: %w", path, err)
		}
	}
	return nil, false, nil
}
