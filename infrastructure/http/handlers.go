package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"unicomm/domain"
	"unicomm/errors"
	"unicomm/observability"
	"unicomm/services"
)

// Handler translates HTTP requests into core calls. It holds no
// business logic; validation, authorization and locking all live behind
// the service facade.
type Handler struct {
	log        *slog.Logger
	core       *services.Core
	monitoring *observability.MonitoringManager
}

func NewHandler(log *slog.Logger, core *services.Core, monitoring *observability.MonitoringManager) *Handler {
	return &Handler{log: log, core: core, monitoring: monitoring}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, token, err := h.core.Auth.Register(req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, authResponse{
		UserID: user.ID, Username: user.Username, Role: string(user.Role), Token: token,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, token, err := h.core.Auth.Login(req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, authResponse{
		UserID: user.ID, Username: user.Username, Role: string(user.Role), Token: token,
	})
}

// contactOwner resolves the contact owner for the request: the caller
// themselves, unless an explicit owner is asked for (which only passes
// the gate for Admin callers).
func (h *Handler) contactOwner(w http.ResponseWriter, r *http.Request, identity domain.Identity) (int64, bool) {
	raw := r.URL.Query().Get("owner")
	if raw == "" {
		return identity.UserID, true
	}
	ownerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "owner must be a numeric user id"})
		return 0, false
	}
	return ownerID, true
}

func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	ownerID, ok := h.contactOwner(w, r, identity)
	if !ok {
		return
	}
	contacts, err := h.core.Contacts.List(identity, ownerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contacts)
}

func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	ownerID, ok := h.contactOwner(w, r, identity)
	if !ok {
		return
	}
	var fields domain.ContactFields
	if !h.decode(w, r, &fields) {
		return
	}
	contact, err := h.core.Contacts.Add(identity, ownerID, fields)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, contact)
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	contactID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	ownerID, ok := h.contactOwner(w, r, identity)
	if !ok {
		return
	}
	var fields domain.ContactFields
	if !h.decode(w, r, &fields) {
		return
	}
	contact, err := h.core.Contacts.Update(identity, ownerID, contactID, fields)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, contact)
}

func (h *Handler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	contactID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	ownerID, ok := h.contactOwner(w, r, identity)
	if !ok {
		return
	}
	if err := h.core.Contacts.Remove(identity, ownerID, contactID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type directChatRequest struct {
	PeerID int64 `json:"peer_id"`
}

func (h *Handler) CreateDirectChat(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	var req directChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	chat, err := h.core.Chats.CreateOrGetDirectChat(identity, identity.UserID, req.PeerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chat)
}

type groupChatRequest struct {
	ParticipantIDs []int64 `json:"participant_ids"`
}

func (h *Handler) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	var req groupChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	chat, err := h.core.Chats.CreateGroupChat(identity, identity.UserID, req.ParticipantIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, chat)
}

func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	chats, err := h.core.Chats.ListChats(identity, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, chats)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	chatID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var sinceSeq uint64
	if raw := r.URL.Query().Get("since_seq"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "since_seq must be a non-negative integer"})
			return
		}
		sinceSeq = parsed
	}
	messages, err := h.core.Chats.ListMessages(identity, chatID, sinceSeq)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	chatID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req postMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	message, err := h.core.Chats.PostMessage(identity, chatID, identity.UserID, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, message)
}

type initiateCallRequest struct {
	Target   string `json:"target"`
	CallType string `json:"call_type"`
}

func (h *Handler) InitiateCall(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	var req initiateCallRequest
	if !h.decode(w, r, &req) {
		return
	}
	call, err := h.core.Calls.Initiate(r.Context(), identity, identity.UserID, req.Target, req.CallType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, call)
}

type callEventRequest struct {
	Event  string `json:"event"`
	Reason string `json:"reason,omitempty"`
}

// CallEvent applies one lifecycle signal to a call. The event names
// mirror what a telephony shell reports: answer, voicemail, end, fail.
func (h *Handler) CallEvent(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	callID := chi.URLParam(r, "id")
	var req callEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	var call domain.Call
	var err error
	switch req.Event {
	case "answer":
		call, err = h.core.Calls.Answer(identity, callID)
	case "voicemail":
		call, err = h.core.Calls.RouteToVoicemail(identity, callID)
	case "end":
		call, err = h.core.Calls.End(identity, callID)
	case "fail":
		call, err = h.core.Calls.Fail(identity, callID, req.Reason)
	default:
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown call event"})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, call)
}

type smsRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

func (h *Handler) SendSMS(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	var req smsRequest
	if !h.decode(w, r, &req) {
		return
	}
	receipt, err := h.core.SendSMS(r.Context(), identity, req.Number, req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"receipt_id": receipt})
}

func (h *Handler) ListVoicemails(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	voicemails, err := h.core.Calls.ListVoicemails(identity, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, voicemails)
}

func (h *Handler) MarkVoicemailRead(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	voicemailID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.core.Calls.MarkVoicemailRead(identity, voicemailID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteVoicemail(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	voicemailID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.core.Calls.DeleteVoicemail(identity, voicemailID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	users, err := h.core.Auth.ListUsers(identity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	// Hashes never leave the process.
	type userView struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
		Active   bool   `json:"active"`
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{ID: u.ID, Username: u.Username, Role: string(u.Role), Active: u.Active})
	}
	h.writeJSON(w, http.StatusOK, views)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	var req setRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.core.Auth.SetRole(identity, userID, req.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user_id": user.ID, "role": string(user.Role)})
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	userID, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.core.Auth.Deactivate(identity, userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.monitoring.GetLatest())
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps core sentinels onto HTTP statuses. Unrecognized
// errors are storage-grade: logged in full, reported opaquely.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, errors.ErrValidation),
		errors.Is(err, errors.ErrInvalidTarget),
		errors.Is(err, errors.ErrInvalidPassword),
		errors.Is(err, errors.ErrUserAlreadyExists):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrInvalidCredentials),
		errors.Is(err, errors.ErrUserDeactivated):
		status = http.StatusUnauthorized
	case errors.Is(err, errors.ErrPermissionDenied),
		errors.Is(err, errors.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrTransport):
		status = http.StatusBadGateway
	default:
		h.log.Error("Internal error", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed json body"})
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: name + " must be a numeric id"})
		return 0, false
	}
	return id, true
}
