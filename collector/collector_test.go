package collector_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/easygraphs/easygraphs-device/collection"
	"github.com/easygraphs/easygraphs-device/collector"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/easygraphs/easygraphs-device/publish"
	publish_config "github.com/easygraphs/easygraphs-device/publish/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublisher(t testing.TB, srv *httptest.Server, token string) (*publish.Publisher, *collection.Collection) {
	i := strings.LastIndexByte(srv.URL, ':')
	port, err := strconv.Atoi(srv.URL[i+1:])
	require.NoError(t, err)
	coll := collection.New()
	ident := publish.IdentityFromConfig(publish_config.Device{Name: "bench", Longitude: 1.5, Latitude: -2.25})
	p, err := publish.NewPublisher(publish_config.Config{Server: srv.URL[:i], Port: port, Token: token}, ident, coll, log2.NewTest(t, log2.LDebug))
	require.NoError(t, err)
	return p, coll
}

func TestPublishToCollector(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	sink := collector.NewSink(0)
	srv := httptest.NewServer(collector.NewRouter(log, "secret", sink))
	defer srv.Close()

	p, coll := newPublisher(t, srv, "secret")
	require.NoError(t, coll.Add("temperature", 21.5))
	require.NoError(t, coll.Add("co2", 415))
	require.True(t, p.Publish(context.Background()), p.Error().Error())
	assert.Equal(t, 0, coll.Len())

	ds := sink.Datasets()
	require.Len(t, ds, 1)
	assert.Equal(t, "bench", ds[0].Name)
	assert.Equal(t, "ESP8266", ds[0].Type)
	assert.Equal(t, "1.50", ds[0].Longitude)
	assert.Equal(t, "-2.25", ds[0].Latitude)
	assert.Equal(t, map[string]string{"temperature": "21.50", "co2": "415.00"}, ds[0].Values)
}

func TestCollectorRejects(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	sink := collector.NewSink(0)
	srv := httptest.NewServer(collector.NewRouter(log, "secret", sink))
	defer srv.Close()

	p, coll := newPublisher(t, srv, "wrong")
	require.NoError(t, coll.Add("temperature", 21.5))
	assert.False(t, p.Publish(context.Background()))
	assert.Equal(t, publish.PublishError{Message: "invalid token", Code: http.StatusUnauthorized}, p.Error())
	assert.Equal(t, 1, coll.Len())
	assert.Len(t, sink.Datasets(), 0)

	resp, err := http.Post(srv.URL+"/dataset/collections", "text/plain", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSinkLimit(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	sink := collector.NewSink(2)
	srv := httptest.NewServer(collector.NewRouter(log, "", sink))
	defer srv.Close()

	p, coll := newPublisher(t, srv, "any")
	for _, v := range []float32{1, 2, 3} {
		require.NoError(t, coll.Add("n", v))
		require.True(t, p.Publish(context.Background()))
	}
	ds := sink.Datasets()
	require.Len(t, ds, 2)
	assert.Equal(t, "2.00", ds[0].Values["n"])
	assert.Equal(t, "3.00", ds[1].Values["n"])
}
