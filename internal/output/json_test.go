package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dotcommander/reliability/internal/models"
	"github.com/stretchr/testify/require"
)

// Compile-time check: models.RecoverableError must satisfy the local recoverableError interface.
var _ recoverableError = (models.RecoverableError)(nil)

func TestSuccessAndError(t *testing.T) {
	s := Success(map[string]string{"k": "v"})
	require.Equal(t, "v1", s.SchemaVersion)
	require.True(t, s.Success)
	require.NotNil(t, s.Data)
	require.Empty(t, s.Error)

	e := Error(errors.New("boom"))
	require.Equal(t, "v1", e.SchemaVersion)
	require.False(t, e.Success)
	require.Nil(t, e.Data)
	require.Equal(t, "boom", e.Error)
}

func TestErrorEnrichesFromRecoverableError(t *testing.T) {
	e := Error(&models.NotFoundError{Kind: "task", ID: "t-1"})
	require.Equal(t, "NOT_FOUND", e.ErrorCode)
	require.Equal(t, "t-1", e.ErrorContext["id"])
	require.NotEmpty(t, e.SuggestedAction)
}

func TestPrintWithCompactJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Writer: &buf, Pretty: false}

	err := PrintWith(cfg, map[string]string{"hello": "world"})
	require.NoError(t, err)
	require.Equal(t, "{\"hello\":\"world\"}\n", buf.String())
}

func TestPrintWithPrettyJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Writer: &buf, Pretty: true}

	err := PrintWith(cfg, map[string]string{"hello": "world"})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "\n  \"hello\"")
}

func TestPrintSuccessAndPrintErrorUseSuccessEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintWith(Config{Writer: &buf}, Success("ok")))
	require.Contains(t, buf.String(), `"success":true`)

	buf.Reset()
	require.NoError(t, PrintWith(Config{Writer: &buf}, Error(errors.New("nope"))))
	require.Contains(t, buf.String(), `"success":false`)
}
