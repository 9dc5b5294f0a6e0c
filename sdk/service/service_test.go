package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddError(t *testing.T) {
	t.Run("首个错误成为主错误", func(t *testing.T) {
		s := &Service{}
		err1 := errors.New("booking not found")
		assert.Equal(t, err1, s.AddError(err1))
		assert.Equal(t, err1, s.Error)
	})

	t.Run("后续错误被追加且可通过errors.Is检查", func(t *testing.T) {
		s := &Service{}
		err1 := errors.New("booking not found")
		err2 := errors.New("payment declined")
		s.AddError(err1)
		s.AddError(err2)

		assert.Contains(t, s.Error.Error(), "booking not found")
		assert.True(t, errors.Is(s.Error, err2))
	})

	t.Run("nil错误不改变状态", func(t *testing.T) {
		s := &Service{}
		assert.Nil(t, s.AddError(nil))
	})
}
