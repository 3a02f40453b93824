package upstream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreakerWithSettings(3, time.Minute, 1)

	for i := 0; i < 2; i++ {
		b.RecordFailure("bookeo")
	}
	assert.Equal(t, Closed, b.State("bookeo"))
	assert.True(t, b.Allow("bookeo"))

	b.RecordFailure("bookeo")
	assert.Equal(t, Open, b.State("bookeo"))
	assert.False(t, b.Allow("bookeo"))
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreakerWithSettings(2, time.Minute, 1)

	b.RecordFailure("payu")
	b.RecordSuccess("payu")
	b.RecordFailure("payu")
	assert.Equal(t, Closed, b.State("payu"))
}

func TestBreaker_HalfOpenAndRecovery(t *testing.T) {
	b := NewBreakerWithSettings(1, time.Millisecond, 1)

	b.RecordFailure("bookeo")
	assert.Equal(t, Open, b.State("bookeo"))

	time.Sleep(5 * time.Millisecond)
	assert.True(t, b.Allow("bookeo"))
	assert.Equal(t, HalfOpen, b.State("bookeo"))

	b.RecordSuccess("bookeo")
	assert.Equal(t, Closed, b.State("bookeo"))
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreakerWithSettings(1, time.Millisecond, 1)

	b.RecordFailure("payu")
	time.Sleep(5 * time.Millisecond)
	assert.True(t, b.Allow("payu"))

	b.RecordFailure("payu")
	assert.Equal(t, Open, b.State("payu"))
	assert.False(t, b.Allow("payu"))
}

func TestBreaker_ProvidersIndependent(t *testing.T) {
	b := NewBreakerWithSettings(1, time.Minute, 1)

	b.RecordFailure("bookeo")
	assert.False(t, b.Allow("bookeo"))
	assert.True(t, b.Allow("payu"))
}
