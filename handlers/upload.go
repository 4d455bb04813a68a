package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"boqwizard/services"
	"boqwizard/templates"
)

const maxUploadMemory = 32 << 20

// uploadPayload is the JSON answer of an extraction upload.
type uploadPayload struct {
	Message         string `json:"message"`
	ReferenceNumber string `json:"referenceNumber,omitempty"`
	Items           int    `json:"items,omitempty"`
	// RetryAfter tells the client how many seconds to show an error before
	// resetting the upload form.
	RetryAfter int `json:"retry_after,omitempty"`
}

// HandleUpload sends the uploaded BOQ photographs to the extractor and stores
// the result in the session. One extraction runs per session at a time; a
// repeated submission joins the one in flight.
// Route: POST /wizard/upload
func HandleUpload(d *Deps) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, err := requireSession(e)
		if sess == nil {
			return err
		}

		images, err := readUploadedImages(e)
		if err != nil {
			log.Printf("upload: %v", err)
			return uploadFailed(e, d, http.StatusBadRequest, err)
		}

		v, err, shared := d.uploads.Do(sess.Token, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(e.Request.Context()), d.Config.ExtractTimeout)
			defer cancel()

			ex, err := d.Extractor.Extract(ctx, images)
			if err != nil {
				return nil, err
			}
			sess.ApplyExtraction(ex)
			if err := d.Sessions.Save(sess); err != nil {
				return nil, fmt.Errorf("save session: %w", err)
			}
			return len(ex.Items), nil
		})
		if shared {
			log.Printf("upload: joined in-flight extraction for %s", sess.ReferenceNumber)
		}
		if err != nil {
			log.Printf("upload: extraction failed: %v", err)
			return uploadFailed(e, d, extractionStatus(err), err)
		}

		msg := "Data extracted successfully"
		if isHTMX(e) {
			SetToast(e, "success", msg)
			return templates.UploadStatus(msg, false, 0).Render(e.Request.Context(), e.Response)
		}
		return e.JSON(http.StatusOK, uploadPayload{
			Message:         msg,
			ReferenceNumber: sess.ReferenceNumber,
			Items:           v.(int),
		})
	}
}

// HandleUploadReset clears the upload status area.
// Route: GET /wizard/upload/reset
func HandleUploadReset() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return templates.UploadStatus("", false, 0).Render(e.Request.Context(), e.Response)
	}
}

func readUploadedImages(e *core.RequestEvent) ([]services.Image, error) {
	if err := e.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrNoImages, err)
	}
	headers := e.Request.MultipartForm.File["images"]
	if len(headers) == 0 {
		return nil, services.ErrNoImages
	}

	images := make([]services.Image, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, services.Image{Name: fh.Filename, Data: data})
	}
	return services.ValidateImages(images)
}

// readPart reads at most one byte past the image size limit so oversized
// files are rejected without buffering them whole.
func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}

func extractionStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNoImages),
		errors.Is(err, services.ErrImageTooLarge),
		errors.Is(err, services.ErrUnsupportedImage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrQuota):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrAuth),
		errors.Is(err, services.ErrNetwork),
		errors.Is(err, services.ErrService):
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

// uploadFailed reports an extraction failure once. HTMX clients get the
// status partial, which resets itself after the configured delay.
func uploadFailed(e *core.RequestEvent, d *Deps, status int, err error) error {
	msg := services.UserMessage(err)
	delay := d.Config.ResetDelay
	if isHTMX(e) {
		SetToast(e, "error", msg)
		return templates.UploadStatus(msg, true, delay).Render(e.Request.Context(), e.Response)
	}
	return e.JSON(status, uploadPayload{Message: msg, RetryAfter: int(delay.Seconds())})
}
