package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

// maxAvatarSize bounds avatar uploads.
const maxAvatarSize = 5 << 20

type AvatarHandler struct {
	avatars   ports.AvatarService
	customers ports.CustomerService
}

func NewAvatarHandler(avatars ports.AvatarService, customers ports.CustomerService) *AvatarHandler {
	return &AvatarHandler{avatars: avatars, customers: customers}
}

type viewAvatarRequest struct {
	Image string `query:"image" validate:"required,base64"`
}

type customerAvatarRequest struct {
	ID string `param:"id" validate:"required"`
}

type avatarURLResponse struct {
	URL string `json:"url"`
}

// View streams the avatar file named by the base64 encoded image parameter.
//
// @Summary      View an avatar
// @Tags         avatar
// @Produce      octet-stream
// @Param        image  query     string  true  "base64 encoded avatar path"
// @Success      200
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /viewfile/avatar/view/ [get]
func (h *AvatarHandler) View(c echo.Context) error {
	var req viewAvatarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	file, err := h.avatars.Open(c.Request().Context(), req.Image)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "inline; filename="+strconv.Quote(file.Name))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

// ByCustomer returns the avatar URL of any customer, or the placeholder.
//
// @Summary      Avatar URL of a customer
// @Tags         avatar
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  avatarURLResponse
// @Router       /v1/customers/{id}/avatar [get]
func (h *AvatarHandler) ByCustomer(c echo.Context) error {
	var req customerAvatarRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	url := h.avatars.AvatarByCustomerID(c.Request().Context(), req.ID)
	return c.JSON(http.StatusOK, avatarURLResponse{URL: url})
}

// Mine returns the avatar URL of the logged in customer.
//
// @Summary      Avatar URL of the current customer
// @Tags         avatar
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  avatarURLResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/customers/me/avatar [get]
func (h *AvatarHandler) Mine(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	view, err := h.customers.Current(c.Request().Context(), session)
	if err != nil {
		return err
	}
	url := h.avatars.AvatarForCurrentCustomer(c.Request().Context(), view.ProfilePicture)
	return c.JSON(http.StatusOK, avatarURLResponse{URL: url})
}

// Upload stores a new profile picture for the logged in customer.
//
// @Summary      Upload a profile picture
// @Tags         avatar
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        profile_picture  formData  file  true  "jpg, jpeg, gif or png image"
// @Success      200  {object}  avatarURLResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /v1/customers/me/avatar [post]
func (h *AvatarHandler) Upload(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(domain.AttributeProfilePicture)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "profile_picture file is required")
	}
	if fh.Size > maxAvatarSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "profile picture is too large")
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxAvatarSize+1))
	if err != nil {
		return err
	}
	if len(data) > maxAvatarSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "profile picture is too large")
	}

	view, err := h.customers.UploadAvatar(c.Request().Context(), session, ports.AvatarUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	})
	if err != nil {
		return err
	}

	url := h.avatars.AvatarForCurrentCustomer(c.Request().Context(), view.ProfilePicture)
	return c.JSON(http.StatusOK, avatarURLResponse{URL: url})
}
