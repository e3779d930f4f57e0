package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/bassamadnan/tmail/body"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eml(lines ...string) string {
	return strings.Join(lines, "\r\n")
}

func TestFromRFC822MultipartAlternative(t *testing.T) {
	raw := eml(
		"From: Alice <alice@example.com>",
		"To: bob@example.com",
		"Subject: Lunch",
		"Message-ID: <abc123@example.com>",
		"Date: Tue, 05 Mar 2024 09:30:00 -0500",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=b1",
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Caf=C3=A9 at noon?",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>Café at <b>noon</b>?</p>",
		"--b1--",
		"",
	)

	payload, headers, err := FromRFC822(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Lunch", headers.Value(HeaderSubject))
	assert.Equal(t, "Alice <alice@example.com>", headers.Value(HeaderFrom))
	assert.Equal(t, "<abc123@example.com>", headers.Value(HeaderMessageID))

	assert.Equal(t, "multipart/alternative", payload.MimeType)
	assert.Nil(t, payload.DirectBody)
	require.Len(t, payload.Parts, 2)

	got := body.Resolve(payload)
	assert.Equal(t, body.PartsPlainAggregate, got.SourceKind)
	assert.Equal(t, "Café at noon?", got.TextContent)
}

func TestFromRFC822SinglePartHTML(t *testing.T) {
	raw := eml(
		"Subject: Newsletter",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><h1>Hello</h1>\n\n<p>World</p></body></html>",
	)

	payload, _, err := FromRFC822(strings.NewReader(raw))
	require.NoError(t, err)
	require.NotNil(t, payload.DirectBody)

	got := body.Resolve(payload)
	assert.Equal(t, body.DirectHTMLBody, got.SourceKind)
	assert.Equal(t, "Hello World", got.TextContent)
}

func TestFromRFC822ConvertsCharset(t *testing.T) {
	raw := eml(
		"Subject: =?ISO-8859-1?Q?R=E9sum=E9?=",
		"Content-Type: text/plain; charset=ISO-8859-1",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		"Voil=E0 mon r=E9sum=E9",
	)

	payload, headers, err := FromRFC822(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Résumé", headers.Value(HeaderSubject))
	assert.Equal(t, "Voilà mon résumé", body.Resolve(payload).TextContent)
}

func TestFromRFC822SkipsAttachments(t *testing.T) {
	raw := eml(
		"Subject: Report",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/html",
		"",
		"<p>See attached</p>",
		"--inner--",
		"--outer",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=report.pdf",
		"Content-Transfer-Encoding: base64",
		"",
		"JVBERi0xLjQK",
		"--outer--",
		"",
	)

	payload, _, err := FromRFC822(strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, payload.Parts, 2)
	assert.Empty(t, payload.Parts[1].InlineData)

	got := body.Resolve(payload)
	assert.Equal(t, body.PartsHTMLAggregate, got.SourceKind)
	assert.Equal(t, "<p>See attached</p>", got.TextContent)
}

func TestFromRaw(t *testing.T) {
	raw := eml("Subject: Raw", "Content-Type: text/plain", "", "raw body")

	payload, headers, err := FromRaw(b64(raw))
	require.NoError(t, err)
	assert.Equal(t, "Raw", headers.Value(HeaderSubject))
	assert.Equal(t, "raw body", body.Resolve(payload).TextContent)
}

func TestFromRFC822EmptyBody(t *testing.T) {
	payload, _, err := FromRFC822(strings.NewReader(eml("Subject: nothing", "", "")))
	require.NoError(t, err)
	assert.Equal(t, body.Empty, body.Resolve(payload).SourceKind)
}

func TestFromRawMatchesFromRFC822ForLegacyCharset(t *testing.T) {
	raw := eml(
		"Subject: Menu",
		"Content-Type: text/plain; charset=iso-8859-1",
		"Content-Transfer-Encoding: 8bit",
		"",
		"caf\xe9",
	)

	direct, _, err := FromRFC822(strings.NewReader(raw))
	require.NoError(t, err)
	viaRaw, headers, err := FromRaw(base64.RawURLEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)

	assert.Equal(t, "Menu", headers.Value(HeaderSubject))
	assert.Equal(t, "café", body.Resolve(direct).TextContent)
	assert.Equal(t, body.Resolve(direct), body.Resolve(viaRaw))
}
