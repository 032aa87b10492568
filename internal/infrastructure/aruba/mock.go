package aruba

import (
	"fmt"
	"math/rand/v2"

	"github.com/jhoicas/psicofattura/internal/domain/entity"
)

var mockStatuses = []string{entity.SDIStatusSent, entity.SDIStatusAccepted, entity.SDIStatusDelivered}

func (c *Client) mockUpload(xml, filename string) *UploadResult {
	c.log.Debug().Str("mode", "mock").Str("filename", filename).Int("size", len(xml)).Msg("upload simulado")
	return &UploadResult{Success: true, UploadFilename: filename, Errors: []entity.SDIError{}}
}

func (c *Client) mockStatus(filename string) *InvoiceStatus {
	c.log.Debug().Str("mode", "mock").Str("filename", filename).Msg("consulta de estado simulada")
	now := c.now().UTC()
	return &InvoiceStatus{
		Filename:       filename,
		SDIID:          fmt.Sprintf("SDI%d", now.UnixMilli()),
		Status:         mockStatuses[rand.IntN(len(mockStatuses))],
		SubmissionDate: now.AddDate(0, 0, -1).Format(isoLayout),
		LastUpdate:     now.Format(isoLayout),
		Errors:         []entity.SDIError{},
		Notifications:  c.mockNotifications(filename),
	}
}

func (c *Client) mockNotifications(filename string) []Notification {
	return []Notification{{
		Type:        "INFO",
		Date:        c.now().UTC().Format(isoLayout),
		Description: "Mock notification for " + filename,
	}}
}
