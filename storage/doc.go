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


// Package storage provides the storage abstraction layer for dishpipe.
//
// This package defines the repository interface that decouples storage
// implementation from pipeline logic, so different backends (BadgerDB,
// in-memory, etc.) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.DishRepository interface rather
// than concrete backend types:
//
//	repo, err := badger.NewDishRepository(backend)
//
// This keeps the ingestion pipeline, duplicate detector and maintenance
// operations free of BadgerDB specifics and lets tests substitute an
// in-memory backend without modification.
//
// # Thread Safety
//
// All repository implementations must be thread-safe. The upload pipeline
// processes items strictly sequentially, but offline operations (duplicate
// report, cleanup) may run alongside reads.
//
// # Context Support
//
// All repository methods accept context.Context. Pass context.Background()
// for operations without specific timeout requirements.
package storage
