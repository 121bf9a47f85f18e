package pyth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oraclebets/oraclebets/internal/domain"
)

const testFeedID = "ef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d"

func newTestClient(t *testing.T, handler http.HandlerFunc, now time.Time) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.now = func() time.Time { return now }
	return c
}

func hermesBody(id string, price string, expo int32, publishTime int64) string {
	return `{"parsed":[{"id":"` + id + `","price":{"price":"` + price +
		`","conf":"100","expo":` + strconv.FormatInt(int64(expo), 10) +
		`,"publish_time":` + strconv.FormatInt(publishTime, 10) + `}}]}`
}

func TestGetPrice(t *testing.T) {
	now := time.Unix(1_770_000_000, 0).UTC()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/updates/price/latest", r.URL.Path)
		assert.Equal(t, testFeedID, r.URL.Query().Get("ids[]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hermesBody(testFeedID, "25012345678", -8, now.Unix()-30)))
	}, now)

	r, err := c.GetPrice(context.Background(), testFeedID, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, testFeedID, r.FeedID)
	assert.Equal(t, int64(25012345678), r.Price)
	assert.Equal(t, int32(-8), r.Expo)
	assert.Equal(t, now.Add(-30*time.Second), r.PublishedAt)
}

func TestGetPriceStale(t *testing.T) {
	now := time.Unix(1_770_000_000, 0).UTC()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hermesBody(testFeedID, "100", -8, now.Unix()-121)))
	}, now)

	_, err := c.GetPrice(context.Background(), testFeedID, 2*time.Minute)
	assert.ErrorIs(t, err, domain.ErrStalePrice)
}

func TestGetPriceFeedMismatch(t *testing.T) {
	now := time.Unix(1_770_000_000, 0).UTC()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hermesBody("deadbeef", "100", -8, now.Unix())))
	}, now)

	_, err := c.GetPrice(context.Background(), testFeedID, time.Minute)
	assert.ErrorIs(t, err, domain.ErrOracleMismatch)
}

func TestGetPriceHexPrefixMatches(t *testing.T) {
	now := time.Unix(1_770_000_000, 0).UTC()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hermesBody("0x"+testFeedID, "100", -8, now.Unix())))
	}, now)

	r, err := c.GetPrice(context.Background(), testFeedID, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, testFeedID, r.FeedID)
}

func TestGetPriceEmptyParsed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"parsed":[]}`))
	}, time.Now())

	_, err := c.GetPrice(context.Background(), testFeedID, time.Minute)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetPriceServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}, time.Now())

	_, err := c.GetPrice(context.Background(), testFeedID, time.Minute)
	assert.Error(t, err)
}
