package handler

import (
	"net/http"

	"github.com/msomdec/book-exchange/internal/service"
	"github.com/msomdec/book-exchange/internal/view"
)

// ProfileHandler serves profile pages and profile edits.
type ProfileHandler struct {
	responder
	users *service.UserService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(rs responder, users *service.UserService) *ProfileHandler {
	return &ProfileHandler{responder: rs, users: users}
}

// HandleProfile renders a user with their listings and reservations.
// GET /profile/{id}
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	pv, err := h.users.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "/home")
		return
	}
	h.render(w, r, http.StatusOK, view.ProfilePage(RequestFromContext(r.Context()), pv))
}

// HandleUploadAvatar replaces the user's avatar with the multipart "profile"
// file.
// PUT /upload/{id}
func (h *ProfileHandler) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := "/profile/" + id

	uploads, err := readUploads(w, r, "profile", maxAvatarBody)
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	if len(uploads) == 0 {
		h.failure(w, r, "Please choose an image to upload.", back)
		return
	}

	user, err := h.users.UpdateAvatar(r.Context(), UserFromContext(r.Context()), id, uploads[0])
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.success(w, r, user.Username+", your avatar has been changed!", back)
}

// HandleUpdateProfile saves the personal details form.
// PUT /profile/{id}
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := "/profile/" + id

	user, err := h.users.UpdateProfile(r.Context(), UserFromContext(r.Context()), id, service.ProfileInput{
		FirstName:  r.FormValue("first_name"),
		LastName:   r.FormValue("last_name"),
		Phone:      r.FormValue("phone"),
		HouseNo:    r.FormValue("house_no"),
		Street:     r.FormValue("street"),
		Landmark:   r.FormValue("landmark"),
		City:       r.FormValue("city"),
		Country:    r.FormValue("country"),
		PostalCode: r.FormValue("postal_code"),
	})
	if err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.success(w, r, user.Username+", your profile is ready!", back)
}
