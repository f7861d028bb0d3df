package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	base := errors.New("connection refused")

	q := fmt.Errorf("加载红包: %w", &QueryError{Source: "indexer", Op: "list-packets", Err: base})
	assert.True(t, IsQuery(q))
	assert.False(t, IsSubmission(q))
	assert.ErrorIs(t, q, base)

	s := &SubmissionError{Op: "claimRedPacket", Err: base}
	assert.True(t, IsSubmission(s))
	assert.ErrorIs(t, s, base)

	v := &ValidationError{Field: "total_count", Message: "红包数量不能超过 100"}
	assert.True(t, IsValidation(v))
	assert.Equal(t, "total_count: 红包数量不能超过 100", v.Error())
}
