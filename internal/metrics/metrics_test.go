// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPass(t *testing.T) {
	before := testutil.ToFloat64(PassRuns.WithLabelValues("item_cf", OutcomeOK))
	RecordPass("item_cf", OutcomeOK, 250*time.Millisecond)
	after := testutil.ToFloat64(PassRuns.WithLabelValues("item_cf", OutcomeOK))

	if after != before+1 {
		t.Errorf("PassRuns counter = %v, want %v", after, before+1)
	}
}

func TestRecordDBQueryError(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "novel_similarity"))
	RecordDBQuery("insert", "novel_similarity", time.Millisecond, errors.New("constraint"))
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "novel_similarity"))

	if after != before+1 {
		t.Errorf("DBQueryErrors counter = %v, want %v", after, before+1)
	}
}

func TestRecordDBQueryNoError(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "novels"))
	RecordDBQuery("select", "novels", time.Millisecond, nil)
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "novels"))

	if after != before {
		t.Errorf("DBQueryErrors counter moved on nil error: %v -> %v", before, after)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/recommendations/hot", "200"))
	RecordAPIRequest("GET", "/api/recommendations/hot", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/recommendations/hot", "200"))

	if after != before+1 {
		t.Errorf("APIRequestsTotal counter = %v, want %v", after, before+1)
	}
}
