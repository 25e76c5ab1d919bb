// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package supervisor builds the Suture supervision tree for serve
// mode.
//
// The tree has two layers: compute (the scheduled trainer) and api
// (the HTTP server). A crash in the trainer never takes down the read
// path; the caches it last wrote keep serving.
package supervisor
