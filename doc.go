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

// Package overflow implements a file-backed overflow buffer that
// interposes between a fast producer and a slow, demand-driven consumer
// on a pull-based stream. Every item is spooled through one or more
// memory-mapped segment files so the producer never has to block and
// the consumer's memory footprint stays bounded.
package overflow
