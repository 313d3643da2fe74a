package utils

import (
	"fmt"
	"os"
	"sync"
)

// ReadFiles reads every named file concurrently. The first failure wins.
func ReadFiles(files ...string) (map[string][]byte, error) {
	var wg sync.WaitGroup
	var m sync.Mutex
	var firstErr error

	contents := make(map[string][]byte, len(files))
	wg.Add(len(files))

	for _, file := range files {
		go func(file string) {
			defer wg.Done()
			content, err := os.ReadFile(file)

			m.Lock()
			defer m.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("read %s: %w", file, err)
				}
				return
			}
			contents[file] = content
		}(file)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return contents, nil
}
