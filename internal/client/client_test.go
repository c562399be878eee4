package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labbook/internal/domain/auth"
	"labbook/internal/domain/booking"
	"labbook/internal/pkg/response"
)

func newTestServer(t *testing.T, register func(r *gin.Engine)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestListRange_SendsWindowAndToken(t *testing.T) {
	srv := newTestServer(t, func(r *gin.Engine) {
		r.GET("/api/v1/bookings", func(c *gin.Context) {
			assert.Equal(t, "Bearer tok", c.GetHeader("Authorization"))
			assert.Equal(t, "2026-03-01", c.Query("from"))
			assert.Equal(t, "2026-03-31", c.Query("to"))
			response.Success(c, http.StatusOK, booking.ListBookingsResponse{Bookings: []booking.Booking{
				{ID: "b1", Day: "2026-03-02", UserID: "u1", StartMinute: 540, EndMinute: 600},
			}})
		})
	})

	list, err := New(srv.URL+"/", "tok").ListRange(context.Background(), "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b1", list[0].ID)
}

func TestCreate_PostsMinutes(t *testing.T) {
	srv := newTestServer(t, func(r *gin.Engine) {
		r.POST("/api/v1/bookings", func(c *gin.Context) {
			var req map[string]any
			require.NoError(t, c.ShouldBindJSON(&req))
			assert.Equal(t, float64(0), req["start_minute"], "zero start is sent, not omitted")
			assert.Equal(t, float64(60), req["end_minute"])
			response.Success(c, http.StatusCreated, booking.BookingResponse{Booking: booking.Booking{ID: "new", Day: "2026-03-02"}})
		})
	})

	b, err := New(srv.URL, "tok").Create(context.Background(), booking.Draft{Day: "2026-03-02", StartMinute: 0, EndMinute: 60})
	require.NoError(t, err)
	assert.Equal(t, "new", b.ID)
}

func TestAPIError_MapsToDomainErrors(t *testing.T) {
	cases := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusConflict, "OVERLAP_CONFLICT", booking.ErrOverlap},
		{http.StatusForbidden, "FORBIDDEN", booking.ErrForbidden},
		{http.StatusNotFound, "NOT_FOUND", booking.ErrNotFound},
		{http.StatusBadRequest, "PAST_DATE", booking.ErrPastDate},
		{http.StatusForbidden, "NOT_INVITED", auth.ErrNotInvited},
		{http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", auth.ErrRateLimitExceeded},
		{http.StatusUnauthorized, "INVALID_TOKEN", ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			srv := newTestServer(t, func(r *gin.Engine) {
				r.DELETE("/api/v1/bookings/:id", func(c *gin.Context) {
					response.Error(c, tc.status, tc.code, "nope")
				})
			})

			err := New(srv.URL, "tok").Delete(context.Background(), "b1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.code+": nope", apiErr.Error())
		})
	}
}

func TestDo_NonJSONError(t *testing.T) {
	srv := newTestServer(t, func(r *gin.Engine) {
		r.GET("/api/v1/users/me", func(c *gin.Context) {
			c.String(http.StatusBadGateway, "<html>bad gateway</html>")
		})
	})

	_, err := New(srv.URL, "tok").Me(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Nil(t, apiErr.Unwrap())
}

func TestDo_BoundedOnlyByContext(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, func(r *gin.Engine) {
		r.GET("/api/v1/users/me", func(c *gin.Context) {
			select {
			case <-c.Request.Context().Done():
			case <-release:
			}
		})
	})
	t.Cleanup(func() { close(release) })

	c := New(srv.URL, "tok")
	assert.Zero(t, c.http.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestVerifyCode_DecodesLogin(t *testing.T) {
	srv := newTestServer(t, func(r *gin.Engine) {
		r.POST("/api/v1/auth/otp/verify", func(c *gin.Context) {
			var req auth.VerifyCodeRequest
			require.NoError(t, json.NewDecoder(c.Request.Body).Decode(&req))
			assert.Equal(t, "123456", req.Code)
			response.Success(c, http.StatusOK, auth.LoginResponse{
				AccessToken: "jwt",
				TokenType:   "Bearer",
				ExpiresIn:   60,
				User:        auth.Identity{UserID: "u1", Email: req.Email, DisplayName: "Ada"},
			})
		})
	})

	res, err := New(srv.URL, "").VerifyCode(context.Background(), "ada@lab.org", "123456")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.AccessToken)
	assert.Equal(t, "Ada", res.User.DisplayName)
}
