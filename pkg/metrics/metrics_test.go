package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(MessageMutations.WithLabelValues("star"))
	RecordMutation("star")
	RecordMutation("star")
	assert.Equal(t, before+2, testutil.ToFloat64(MessageMutations.WithLabelValues("star")))
}

func TestRecordUpload(t *testing.T) {
	okBefore := testutil.ToFloat64(UploadsTotal.WithLabelValues("local", "ok"))
	errBefore := testutil.ToFloat64(UploadsTotal.WithLabelValues("local", "error"))

	RecordUpload("local", nil)
	RecordUpload("local", errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(UploadsTotal.WithLabelValues("local", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(UploadsTotal.WithLabelValues("local", "error")))
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/health", "200"))
	RecordAPIRequest("GET", "/api/health", "200", 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/health", "200")))
}
