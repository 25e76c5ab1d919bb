// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package api serves the recommendation read path over HTTP using the
// Chi router.
//
// The read endpoints only touch the replace-by-tag caches and the
// popularity counters, so they stay fast and available while a compute
// run is rewriting snapshots. The admin endpoint triggers a compute
// run in the background; it never blocks the request on the run.
package api
