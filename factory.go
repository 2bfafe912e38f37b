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
	"path/filepath"

	"github.com/google/uuid"
)

// defaultFileFactory names segment files with a random UUID under the
// OS temp directory, so concurrent operator instances in the same
// process or on the same host never collide on a path.
func defaultFileFactory() (string, error) {
	name := "overflow-" + uuid.NewString() + ".seg"
	return filepath.Join(os.TempDir(), name), nil
}
