package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"guild-chat/transport/ws"
)

// BaseWsSuite drives a running server over its two public surfaces: the
// REST API for accounts and guild administration, and the websocket
// gateway for the live chat flow.
type BaseWsSuite struct {
	suite.Suite
	Config Config
	http   *http.Client
}

// SetupSuite loads the environment configuration before running tests.
// Without SERVER_ADDR the whole suite is skipped, so `go test ./...`
// stays green on machines with no server running.
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end to end suite")
	}
	s.http = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header so multi-step scenarios stay readable.
func (s *BaseWsSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// PostJSON sends a JSON body and decodes the JSON response into out
// (when out is non-nil). An Authorization header is added when token is
// non-empty.
func (s *BaseWsSuite) PostJSON(path, token string, body, out any) int {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, "http://"+s.Config.ServerAddr+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.http.Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Logf("POST %s [%d]\n%s", path, resp.StatusCode, raw)
	}
	if out != nil && resp.StatusCode < 300 {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp.StatusCode
}

// Put issues a bodyless authenticated PUT, used for membership grants.
func (s *BaseWsSuite) Put(path, token string) int {
	req, err := http.NewRequest(http.MethodPut, "http://"+s.Config.ServerAddr+path, nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(req)
	s.Require().NoError(err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

// Dial opens an authenticated websocket session against the gateway.
func (s *BaseWsSuite) Dial(token string) *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/chat", RawQuery: "token=" + url.QueryEscape(token)}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to open websocket session at "+u.String())
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// Send writes one tagged envelope.
func (s *BaseWsSuite) Send(conn *websocket.Conn, eventName string, payload any) {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(ws.Envelope{Event: eventName, Data: data}))
}

// WaitFor reads envelopes until one matches the wanted event name,
// discarding unrelated presence traffic along the way. Fails the test
// when an error envelope or the deadline arrives first.
func (s *BaseWsSuite) WaitFor(conn *websocket.Conn, eventName string, out any) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(10 * time.Second)))
	for {
		var env ws.Envelope
		s.Require().NoError(conn.ReadJSON(&env), "Websocket closed while waiting for "+eventName)
		if s.Config.DebugJSON {
			s.T().Logf("RECV %s\n%s", env.Event, env.Data)
		}
		if env.Event == ws.EventError {
			s.FailNowf("Server reported an error envelope", "while waiting for %s: %s", eventName, env.Data)
		}
		if env.Event != eventName {
			continue
		}
		if out != nil {
			s.Require().NoError(json.Unmarshal(env.Data, out))
		}
		return
	}
}
