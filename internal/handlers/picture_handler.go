package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/services"
)

// MaxPictureSize is the largest accepted profile picture.
const MaxPictureSize = 5 << 20

// pictureTypes are the sniffed MIME types accepted for profile pictures.
// SVG is left out since it can carry script.
var pictureTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// UploadProfilePicture stores the multipart "file" field and points the
// user's profile at it.
func (h *Handler) UploadProfilePicture(c *gin.Context) {
	// Leave room for the multipart envelope around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxPictureSize+64<<10)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fileTooLarge(c)
			return
		}
		httperr.Send(c, http.StatusBadRequest, httperr.CodeValidation, "Please upload a file in the \"file\" field")
		return
	}
	if header.Size > MaxPictureSize {
		fileTooLarge(c)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !mimetype.EqualsAny(mtype.String(), pictureTypes...) {
		httperr.Send(c, http.StatusUnsupportedMediaType, httperr.CodeUnsupportedMedia, "Only PNG, JPEG, GIF or WebP images are allowed")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.respondError(c, err)
		return
	}

	if !h.Pictures.Enabled() {
		h.respondError(c, services.ErrStorageDisabled)
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	url, err := h.Pictures.Upload(c.Request.Context(), user.ID.Hex(), mtype.String(), mtype.Extension(), header.Size, file)
	if err != nil {
		h.respondError(c, err)
		return
	}
	user.ProfilePicture = url
	user.UpdatedAt = time.Now().UTC()
	if err := h.Store.ReplaceUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "url": url, "user": user})
}

func fileTooLarge(c *gin.Context) {
	httperr.Send(c, http.StatusRequestEntityTooLarge, httperr.CodeFileTooLarge, "File too large. Maximum size is 5MB.")
}
