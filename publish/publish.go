// Package publish sends collected measurements to EasyGraphs collections API.
//
// Wire format is fixed by server: values are JSON strings with 2 decimals,
// `{"temperature":"21.50","humidity":"40.00"}`.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/easygraphs/easygraphs-device/collection"
	"github.com/easygraphs/easygraphs-device/log2"
	publish_config "github.com/easygraphs/easygraphs-device/publish/config"
	"github.com/juju/errors"
)

const (
	MsgEmpty = "No parameters in collection to send"

	// CodeTransport is reported when request did not produce HTTP response,
	// same as ESP8266HTTPClient connection refused.
	CodeTransport = -1

	maxResponseBody = 64 << 10
)

type PublishError struct {
	Message string
	Code    int
}

func (e PublishError) Error() string { return fmt.Sprintf("publish code=%d message=%s", e.Code, e.Message) }
func (e PublishError) IsZero() bool  { return e == PublishError{} }

type Identity struct {
	Name      string
	Type      string
	Platform  string
	Longitude float32
	Latitude  float32
}

func IdentityFromConfig(d publish_config.Device) Identity {
	d.ApplyDefaults()
	return Identity{
		Name:      d.Name,
		Type:      d.Type,
		Platform:  d.Platform,
		Longitude: float32(d.Longitude),
		Latitude:  float32(d.Latitude),
	}
}

// Publisher contract:
// - one synchronous request per Publish, no retry, no queue
// - success (HTTP 200) empties collection, any failure keeps it for next try
// - last failure is kept until Error() reads it
type Publisher struct {
	Identity Identity

	url    string
	token  string
	coll   *collection.Collection
	client *http.Client
	log    *log2.Log
	err    PublishError
}

func NewPublisher(config publish_config.Config, identity Identity, coll *collection.Collection, log *log2.Log) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Annotate(err, "publisher")
	}
	if coll == nil {
		panic("code error publish.NewPublisher coll=nil")
	}
	p := &Publisher{
		Identity: identity,
		url:      config.URL(),
		token:    config.Token,
		coll:     coll,
		client:   &http.Client{Timeout: config.Timeout()},
		log:      log,
	}
	if config.LogDebug {
		p.log = log.Clone(log2.LDebug)
	}
	return p, nil
}

func (p *Publisher) URL() string { return p.url }

func (p *Publisher) SetToken(token string) { p.token = token }

// SetTransport replaces HTTP round tripper, tests use helpers.MockHTTP.
func (p *Publisher) SetTransport(rt http.RoundTripper) { p.client.Transport = rt }

func (p *Publisher) Publish(ctx context.Context) bool {
	if p.coll.Len() == 0 {
		p.err = PublishError{Message: MsgEmpty}
		p.log.Debugf("publish skip: %s", MsgEmpty)
		return false
	}

	body := EncodeBody(p.coll.Items())
	p.log.Debugf("request body: %s", body)

	code, payload, err := p.post(ctx, body)
	if err != nil {
		p.err = PublishError{Message: err.Error(), Code: CodeTransport}
		p.log.Debugf("publish err=%v", errors.ErrorStack(err))
		return false
	}
	p.log.Debugf("response code: %d", code)
	p.log.Debugf("response payload: %s", payload)

	if code != http.StatusOK {
		p.err = PublishError{Message: payload, Code: code}
		return false
	}
	p.coll.Reset()
	return true
}

func (p *Publisher) post(ctx context.Context, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return 0, "", errors.Annotatef(err, "publish url=%s", p.url)
	}
	p.setHeaders(req.Header)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, "", errors.Annotate(err, "publish")
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, "", errors.Annotatef(err, "publish read response code=%d", resp.StatusCode)
	}
	return resp.StatusCode, string(b), nil
}

func (p *Publisher) setHeaders(h http.Header) {
	h.Set("Content-Type", "application/json")
	h.Set("SecretToken", p.token)
	h.Set("Data-Device-Name", p.Identity.Name)
	h.Set("Data-Device-Type", p.Identity.Type)
	h.Set("Data-Device-Platform", p.Identity.Platform)
	h.Set("Data-Device-Longitude", FormatValue(p.Identity.Longitude))
	h.Set("Data-Device-Latitude", FormatValue(p.Identity.Latitude))
}

// Error returns last failure and forgets it.
func (p *Publisher) Error() PublishError {
	e := p.err
	p.err = PublishError{}
	return e
}

// FormatValue renders float with 2 decimals, like Arduino String(float).
func FormatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 2, 32)
}

func EncodeBody(items []collection.Measurement) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(items)*24))
	buf.WriteByte('{')
	for i, m := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(m.Name) // string never fails
		buf.Write(name)
		buf.WriteString(`:"`)
		buf.WriteString(FormatValue(m.Value))
		buf.WriteByte('"')
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
