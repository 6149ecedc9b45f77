package lock

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNilLockerIsDisabled(t *testing.T) {
	var l *Locker
	assert.False(t, l.Enabled())

	_, ok, err := l.TryLock(context.Background(), TxnKey("A"), time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, l.Release(context.Background(), TxnKey("A"), "token"))
	assert.Nil(t, NewLocker(nil))
}

func TestTryLockValidatesArguments(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	l := NewLocker(client)

	_, _, err := l.TryLock(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = l.TryLock(context.Background(), TxnKey("A"), 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
	assert.NoError(t, l.Release(context.Background(), "", ""))
}

func TestTxnKey(t *testing.T) {
	assert.Equal(t, "na:ipn:txn:9XY", TxnKey("9XY"))
}
