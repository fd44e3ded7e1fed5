package loginaudit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordRejectsEmptyIP(t *testing.T) {
	rec := NewPGRecorder(nil)
	err := rec.Record(context.Background(), "", nil, false, nil)
	require.Error(t, err)
}
