package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/sirosfoundation/go-peppol-inbound/internal/config"
	"github.com/sirosfoundation/go-peppol-inbound/pkg/soap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEnvelope = `<S:Envelope xmlns:S="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ids="http://busdox.org/transport/identifiers/1.0/">
<S:Header>
<ids:MessageIdentifier>%s</ids:MessageIdentifier>
<ids:ChannelIdentifier>CH1</ids:ChannelIdentifier>
<ids:RecipientIdentifier>9908:976098897</ids:RecipientIdentifier>
<ids:SenderIdentifier>9908:820417490</ids:SenderIdentifier>
<ids:DocumentIdentifier>urn:oasis:names:specification:ubl:schema:xsd:Invoice-2::Invoice##urn:www.cenbii.eu:transaction:biicoretrdm010:ver1.0::2.0</ids:DocumentIdentifier>
<ids:ProcessIdentifier>urn:www.cenbii.eu:profile:bii04:ver1.0</ids:ProcessIdentifier>
</S:Header>
<S:Body><Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"/></S:Body>
</S:Envelope>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
server:
  basePath: /peppol
  maxBodyBytes: 4096
storage:
  inboundRoot: %s
  outboundRoot: %s
reliability:
  duplicateWindow: 1h
`, filepath.Join(dir, "inbound"), filepath.Join(dir, "outbound"))))
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown(context.Background())
	})
	return ts
}

func postEnvelope(t *testing.T, url, body string) (*http.Response, *etree.Document) {
	t.Helper()
	resp, err := http.Post(url, "text/xml; charset=utf-8", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(data), string(data))
	return resp, doc
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestReady(t *testing.T) {
	cfg := testConfig(t)
	ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, root := range []string{cfg.Storage.InboundRoot, cfg.Storage.OutboundRoot} {
		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestReady_ReadOnlyRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Storage.InboundRoot, 0o755))
	require.NoError(t, os.Chmod(cfg.Storage.InboundRoot, 0o555))
	t.Cleanup(func() { os.Chmod(cfg.Storage.InboundRoot, 0o755) })
	ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReady_RootIsFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Storage.OutboundRoot, []byte("not a directory"), 0o644))
	ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestInbound_Stored(t *testing.T) {
	cfg := testConfig(t)
	ts := newTestServer(t, cfg)

	resp, doc := postEnvelope(t, ts.URL+"/peppol/inbound", fmt.Sprintf(testEnvelope, "uuid:abc-123"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/xml")
	assert.NotEmpty(t, resp.Header.Get("X-Receipt-ID"))

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, soap.NsSOAP11, root.NamespaceURI())
	assert.Nil(t, doc.FindElement("//*[local-name()='Fault']"))

	dir := filepath.Join(cfg.Storage.InboundRoot, "9908_976098897", "9908_820417490")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestInbound_MissingHeaderFault(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	body := strings.Replace(fmt.Sprintf(testEnvelope, "uuid:1"),
		"<ids:ProcessIdentifier>urn:www.cenbii.eu:profile:bii04:ver1.0</ids:ProcessIdentifier>", "", 1)
	resp, doc := postEnvelope(t, ts.URL+"/peppol/inbound", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	faultCode := doc.FindElement("//faultcode")
	require.NotNil(t, faultCode)
	assert.Equal(t, "S:Client", faultCode.Text())
	faultString := doc.FindElement("//faultstring")
	require.NotNil(t, faultString)
	assert.Contains(t, faultString.Text(), "ProcessId")
}

func TestInbound_StorageFault(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Storage.InboundRoot, []byte("not a directory"), 0o644))
	ts := newTestServer(t, cfg)

	resp, doc := postEnvelope(t, ts.URL+"/peppol/inbound", fmt.Sprintf(testEnvelope, "uuid:1"))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	faultCode := doc.FindElement("//faultcode")
	require.NotNil(t, faultCode)
	assert.Equal(t, "S:Server", faultCode.Text())
}

func TestInbound_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	body := strings.Replace(fmt.Sprintf(testEnvelope, "uuid:1"), "<Invoice",
		"<!--"+strings.Repeat("x", 8192)+"--><Invoice", 1)
	resp, err := http.Post(ts.URL+"/peppol/inbound", "text/xml", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestInbound_WrongMethod(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/peppol/inbound")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListMessages(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	for _, id := range []string{"uuid:2", "uuid:1"} {
		resp, _ := postEnvelope(t, ts.URL+"/peppol/inbound", fmt.Sprintf(testEnvelope, id))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/peppol/messages/9908:976098897/9908:820417490")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Messages []struct {
			MessageID string    `json:"messageId"`
			ChannelID string    `json:"channelId"`
			TimeStamp time.Time `json:"timeStamp"`
		} `json:"messages"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "uuid:1", body.Messages[0].MessageID)
	assert.Equal(t, "CH1", body.Messages[0].ChannelID)

	empty, err := http.Get(ts.URL + "/peppol/messages/9908:1/9908:2")
	require.NoError(t, err)
	defer empty.Body.Close()
	var none struct {
		Messages []json.RawMessage `json:"messages"`
		Total    int               `json:"total"`
	}
	require.NoError(t, json.NewDecoder(empty.Body).Decode(&none))
	assert.Zero(t, none.Total)
	assert.NotNil(t, none.Messages)
}

func TestNew_TLSClientCAMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.TLS.Enabled = true
	cfg.Server.TLS.CertFile = "server.crt"
	cfg.Server.TLS.KeyFile = "server.key"
	cfg.Server.TLS.ClientCAFile = filepath.Join(t.TempDir(), "missing.pem")

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client CA")
}

func TestNew_TLSRequestsClientCert(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.TLS.Enabled = true

	tlsConfig, err := newTLSConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, tlsConfig.ClientCAs)
	assert.Equal(t, tls.RequestClientCert, tlsConfig.ClientAuth)
}

func TestListMessages_InvalidParticipant(t *testing.T) {
	ts := newTestServer(t, testConfig(t))

	resp, err := http.Get(ts.URL + "/peppol/messages/a%2Fb/9908:820417490")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInbound_UnsafeIdentifierFault(t *testing.T) {
	cfg := testConfig(t)
	ts := newTestServer(t, cfg)

	body := strings.Replace(fmt.Sprintf(testEnvelope, "../../../escaped"),
		"<ids:RecipientIdentifier>9908:976098897</ids:RecipientIdentifier>",
		"<ids:RecipientIdentifier>..</ids:RecipientIdentifier>", 1)
	resp, doc := postEnvelope(t, ts.URL+"/peppol/inbound", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	faultCode := doc.FindElement("//faultcode")
	require.NotNil(t, faultCode)
	assert.Equal(t, "S:Client", faultCode.Text())

	parent := filepath.Dir(cfg.Storage.InboundRoot)
	_, err := os.Stat(filepath.Join(parent, "escaped_message.xml"))
	assert.True(t, os.IsNotExist(err))
}
