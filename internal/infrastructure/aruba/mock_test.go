package aruba_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/pkg/config"
	"github.com/jhoicas/psicofattura/pkg/logger"
)

func mockClient(t *testing.T) *aruba.Client {
	cfg := config.ResolveEInvoicing(config.EInvoicingConfig{Enabled: true, Environment: config.EnvironmentMock}, "", "", "", "", "", "")
	c, err := aruba.NewClient(cfg, nil, logger.Nop())
	require.NoError(t, err)
	return c
}

func TestMock_Upload(t *testing.T) {
	res, err := mockClient(t).UploadInvoice(context.Background(), "<x/>", "test_invoice.xml")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "test_invoice.xml", res.UploadFilename)
	assert.Empty(t, res.Errors)
}

func TestMock_Status(t *testing.T) {
	st, err := mockClient(t).GetInvoiceStatus(context.Background(), "test_invoice.xml")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Contains(t, []string{"sent", "accepted", "delivered"}, st.Status)
	assert.Regexp(t, `^SDI\d+$`, st.SDIID)
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, "INFO", st.Notifications[0].Type)
	assert.Equal(t, "Mock notification for test_invoice.xml", st.Notifications[0].Description)
	assert.Less(t, st.SubmissionDate, st.LastUpdate)
}

func TestMock_ConnectionYListado(t *testing.T) {
	c := mockClient(t)
	res := c.TestConnection(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, "Successfully connected to mock Aruba environment for testing", res.Message)

	list, err := c.ListInvoices(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	info := c.EnvironmentInfo()
	assert.Equal(t, "mock", info.Environment)
	assert.Equal(t, "https://mock.aruba.local/api", info.BaseURL)
	assert.False(t, info.IsTest)
}
