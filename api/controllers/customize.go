package controllers

import (
	"io"
	"net/http"

	"github.com/impresiones-magicas/storefront/api/responses"
	"github.com/impresiones-magicas/storefront/api/validators"
	"github.com/impresiones-magicas/storefront/internal/customize"
	pkgerrors "github.com/impresiones-magicas/storefront/pkg/errors"
	"github.com/impresiones-magicas/storefront/pkg/logger"
)

// CustomizeUpload accepts artwork under multipart field "file" and returns
// the inline data URL for the editor. Rejections never produce a partial
// customization.
func CustomizeUpload(uploader *customize.Uploader, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Allow a little headroom over the artwork cap for the multipart
		// framing; the uploader enforces the real limit.
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024)

		file, _, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart field 'file' is required"))
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeMedia, err, "reading uploaded file"))
			return
		}

		dataURL, err := uploader.DataURL(content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"imageDataUrl": dataURL})
	}
}

type validateCustomizationRequest struct {
	CanvasWidth   float64                 `json:"canvasWidth" validate:"required,gte=1"`
	CanvasHeight  float64                 `json:"canvasHeight" validate:"required,gte=1"`
	ProductName   string                  `json:"productName"`
	Customization customize.Customization `json:"customization" validate:"required"`
}

type validateCustomizationResponse struct {
	Customization   customize.Customization `json:"customization"`
	PrintArea       customize.PrintArea     `json:"printArea"`
	WithinPrintArea bool                    `json:"withinPrintArea"`
}

// CustomizeValidate checks a serialized customization against canvas bounds
// and reports the advisory print-area fit for the named product.
func CustomizeValidate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validateCustomizationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		canvas, err := customize.NewCanvas(payload.CanvasWidth, payload.CanvasHeight)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := canvas.ApplyCustomization(payload.Customization); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		normalized, err := canvas.Customization()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		area := customize.LookupPrintArea(payload.ProductName)
		responses.WriteSuccess(w, validateCustomizationResponse{
			Customization:   normalized,
			PrintArea:       area,
			WithinPrintArea: canvas.WithinPrintArea(area),
		})
	}
}
