// Package collector is local stand-in for EasyGraphs collections API.
// Used by simulator and tests, accepts what device Publisher sends.
package collector

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/easygraphs/easygraphs-device/log2"
	publish_config "github.com/easygraphs/easygraphs-device/publish/config"
	"github.com/gorilla/mux"
)

const maxBody = 64 << 10

type Dataset struct {
	Received  time.Time
	Name      string
	Type      string
	Platform  string
	Longitude string
	Latitude  string
	Values    map[string]string
}

// Sink keeps last datasets, oldest dropped first.
type Sink struct {
	mu    sync.Mutex
	limit int
	items []Dataset
}

func NewSink(limit int) *Sink {
	if limit <= 0 {
		limit = 1000
	}
	return &Sink{limit: limit}
}

func (s *Sink) add(d Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) >= s.limit {
		copy(s.items, s.items[1:])
		s.items = s.items[:len(s.items)-1]
	}
	s.items = append(s.items, d)
}

func (s *Sink) Datasets() []Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Dataset, len(s.items))
	copy(out, s.items)
	return out
}

type handler struct {
	log   *log2.Log
	token string
	sink  *Sink
}

// NewRouter serves POST /dataset/collections.
// Empty token accepts any SecretToken.
func NewRouter(log *log2.Log, token string, sink *Sink) *mux.Router {
	h := &handler{log: log, token: token, sink: sink}
	r := mux.NewRouter()
	r.HandleFunc(publish_config.CollectionsPath, h.collections).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debugf("collector not found %s %s", req.Method, req.URL.Path)
		reply(w, http.StatusNotFound, "not found")
	})
	return r
}

func reply(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, text)
}

func (h *handler) collections(w http.ResponseWriter, req *http.Request) {
	if h.token != "" && req.Header.Get("SecretToken") != h.token {
		h.log.Infof("collector reject device=%s invalid token", req.Header.Get("Data-Device-Name"))
		reply(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if mt, _, err := mime.ParseMediaType(req.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		reply(w, http.StatusUnsupportedMediaType, "expected application/json")
		return
	}
	b, err := ioutil.ReadAll(io.LimitReader(req.Body, maxBody))
	if err != nil {
		reply(w, http.StatusBadRequest, "read body")
		return
	}
	values := make(map[string]string)
	if err := json.Unmarshal(b, &values); err != nil {
		h.log.Debugf("collector invalid body=%q err=%v", b, err)
		reply(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(values) == 0 {
		reply(w, http.StatusBadRequest, "empty dataset")
		return
	}
	d := Dataset{
		Received:  time.Now(),
		Name:      req.Header.Get("Data-Device-Name"),
		Type:      req.Header.Get("Data-Device-Type"),
		Platform:  req.Header.Get("Data-Device-Platform"),
		Longitude: req.Header.Get("Data-Device-Longitude"),
		Latitude:  req.Header.Get("Data-Device-Latitude"),
		Values:    values,
	}
	h.sink.add(d)
	h.log.Infof("collector device=%s values=%d body=%s", d.Name, len(values), b)
	reply(w, http.StatusOK, "ok")
}
