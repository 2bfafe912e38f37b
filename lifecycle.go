// Copyright 2025 TimeWtr
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package overflow

import (
	"os"
	"sync"
)

// lifecycleRegistry tracks every segment file path an operator instance
// has created and not yet unlinked, independent of whatever queue/segment object
// currently owns it. A segment's own Close calls back into untrack once
// it has actually unlinked its file, so the registry's live set tracks
// open segments rather than every segment ever created; sweep exists so
// Operator.teardown can still guarantee no file is left behind if
// shutdown happens in an order other than the normal one (e.g. the
// scheduler's worker is torn down mid-drain).
type lifecycleRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func newLifecycleRegistry() *lifecycleRegistry {
	return &lifecycleRegistry{paths: make(map[string]struct{})}
}

func (l *lifecycleRegistry) track(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths[path] = struct{}{}
}

func (l *lifecycleRegistry) untrack(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.paths, path)
}

// sweep unlinks every path still tracked and clears the registry.
func (l *lifecycleRegistry) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for path := range l.paths {
		_ = os.Remove(path)
	}
	l.paths = make(map[string]struct{})
}

// wrapFileFactory returns a FileFactory that tracks every path it hands
// out, so the registry knows about a segment's file the moment it's
// created rather than only once the segment object exists.
func (l *lifecycleRegistry) wrapFileFactory(f FileFactory) FileFactory {
	return func() (string, error) {
		path, err := f()
		if err != nil {
			return "", err
		}
		l.track(path)
		return path, nil
	}
}
