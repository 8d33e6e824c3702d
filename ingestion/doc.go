// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ingestion uploads candidate dishes into the store in batches.
//
// Each candidate passes through duplicate detection, validation and
// insertion. A failure at any of those steps is counted and recorded
// but never aborts the batch; the pipeline always processes every
// candidate it was given and reports aggregate statistics at the end.
// Rejected candidates are appended to a durable side log so a later run
// can replay them after the data is fixed.
package ingestion
