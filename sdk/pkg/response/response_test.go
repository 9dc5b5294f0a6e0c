package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corejson "github.com/poputka/ride-core/sdk/pkg/json"
)

func perform(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/t", handler)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
	return w
}

func TestOK(t *testing.T) {
	w := perform(func(c *gin.Context) {
		OK(c, gin.H{"trip_id": 42}, "ok")
	})

	require.Equal(t, http.StatusOK, w.Code)

	var res Response
	require.NoError(t, corejson.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Msg)
	assert.NotNil(t, res.Data)
}

func TestError(t *testing.T) {
	w := perform(func(c *gin.Context) {
		Error(c, http.StatusInternalServerError, errors.New("boom"), "")
	})

	var res Response
	require.NoError(t, corejson.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "boom", res.Msg)
}

func TestPageOK(t *testing.T) {
	w := perform(func(c *gin.Context) {
		PageOK(c, []string{"a", "b"}, 2, 1, 10, "")
	})

	var res struct {
		Code int  `json:"code"`
		Data Page `json:"data"`
	}
	require.NoError(t, corejson.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Data.Count)
	assert.Equal(t, 1, res.Data.PageIndex)
	assert.Equal(t, 10, res.Data.PageSize)
}
