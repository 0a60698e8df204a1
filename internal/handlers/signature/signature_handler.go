// internal/handlers/signature/signature_handler.go
package signature

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/pkg/response"
	service "vigilance-service/internal/service/checklist"
)

// Render turns signature pad strokes into a PNG data URI without touching
// any draft, so clients can preview before saving.
func Render(c *gin.Context) {
	var req checklist.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	image, err := service.RenderSignature(&req)
	if err != nil {
		response.FromError(c, "failed to render signature", err)
		return
	}

	response.Success(c, http.StatusOK, "signature rendered", gin.H{"image": image})
}
