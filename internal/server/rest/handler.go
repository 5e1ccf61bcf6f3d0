package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/server/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(context.Background(), "error encoding response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

// respondServiceError maps the sentinel errors of the service layer onto
// HTTP statuses. Anything unrecognized is an internal error and its detail
// stays out of the response.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorPermissionDenied):
		s.respondError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, common.ErrorNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorTokenUsed):
		s.respondError(w, http.StatusConflict, "token already used")
	case errors.Is(err, common.ErrorConflict):
		s.respondError(w, http.StatusConflict, "already exists")
	default:
		s.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err)
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

type registerRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserName == "" || req.Email == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := s.users.Register(r.Context(), req.UserName, req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, user.Public())
}

type loginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, loginResponse{Token: token})
}

type createGroupRequest struct {
	Name string `json:"name"`
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())

	var req createGroupRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	group, err := s.vault.CreateGroup(r.Context(), callerID, req.Name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, group.Public())
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())

	groups, err := s.vault.ListGroups(r.Context(), callerID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	views := make([]models.PublicGroup, 0, len(groups))
	for _, g := range groups {
		views = append(views, g.Public())
	}
	s.respondJSON(w, http.StatusOK, views)
}

type addGroupUserRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) addGroupUser(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())
	groupID := r.PathValue("id")

	var req addGroupUserRequest
	if err := decodeBody(r, &req); err != nil || req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.vault.AddUserToGroup(r.Context(), callerID, groupID, req.UserID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addGroupItemRequest struct {
	ItemID string `json:"item_id"`
}

func (s *Server) addGroupItem(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())
	groupID := r.PathValue("id")

	var req addGroupItemRequest
	if err := decodeBody(r, &req); err != nil || req.ItemID == "" {
		s.respondError(w, http.StatusBadRequest, "item_id is required")
		return
	}

	if err := s.vault.AddItemToGroup(r.Context(), callerID, groupID, req.ItemID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroupItems(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())
	groupID := r.PathValue("id")

	items, err := s.vault.ListGroupItems(r.Context(), callerID, groupID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	views := make([]models.PublicItem, 0, len(items))
	for _, i := range items {
		views = append(views, i.Public())
	}
	s.respondJSON(w, http.StatusOK, views)
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())

	var req createItemRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	item, err := s.vault.CreateItem(r.Context(), callerID, req.Name, req.Description, req.Tags)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, item.Public())
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())

	items, err := s.vault.ListItems(r.Context(), callerID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	views := make([]models.PublicItem, 0, len(items))
	for _, i := range items {
		views = append(views, i.Public())
	}
	s.respondJSON(w, http.StatusOK, views)
}

type itemDetailResponse struct {
	models.PublicItem
	Services []models.ServiceDetail `json:"services"`
}

// getItem is the one place stored service passwords leave the server, and
// only after the caller passed the item access check.
func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())
	itemID := r.PathValue("id")

	item, svcs, err := s.vault.GetItem(r.Context(), callerID, itemID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := itemDetailResponse{
		PublicItem: item.Public(),
		Services:   make([]models.ServiceDetail, 0, len(svcs)),
	}
	for _, svc := range svcs {
		resp.Services = append(resp.Services, svc.Detail())
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type createServiceRequest struct {
	Name     string `json:"name"`
	UserName string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
	ItemID   string `json:"item_id"`
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())

	var req createServiceRequest
	if err := decodeBody(r, &req); err != nil || req.Name == "" || req.ItemID == "" {
		s.respondError(w, http.StatusBadRequest, "name and item_id are required")
		return
	}

	svc, err := s.vault.CreateService(r.Context(), callerID, &models.Service{
		Name:     req.Name,
		UserName: req.UserName,
		Password: req.Password,
		URL:      req.URL,
		ItemID:   req.ItemID,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, svc.Public())
}

type issueShareRequest struct {
	Resource   int    `json:"resource"`
	ResourceID string `json:"resource_id"`
	Email      string `json:"email"`
}

type shareResponse struct {
	Token      string `json:"token"`
	Resource   string `json:"resource"`
	ResourceID string `json:"resource_id"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

func (s *Server) issueShare(w http.ResponseWriter, r *http.Request) {
	callerID, _ := UserIDFromContext(r.Context())

	var req issueShareRequest
	if err := decodeBody(r, &req); err != nil || req.ResourceID == "" {
		s.respondError(w, http.StatusBadRequest, "resource and resource_id are required")
		return
	}

	resource := models.ResourceType(req.Resource)
	if !resource.Valid() {
		s.respondError(w, http.StatusBadRequest, "unknown resource type")
		return
	}

	token, err := s.shares.Issue(r.Context(), callerID, resource, req.ResourceID, req.Email)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := shareResponse{
		Token:      token.Token,
		Resource:   token.Resource.String(),
		ResourceID: token.ResourceID,
	}
	if !token.ExpiresAt.IsZero() {
		resp.ExpiresAt = token.ExpiresAt.UTC().Format(time.RFC3339)
	}
	s.respondJSON(w, http.StatusCreated, resp)
}

type validateShareResponse struct {
	Valid      bool   `json:"valid"`
	Resource   string `json:"resource,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
}

func (s *Server) validateShare(w http.ResponseWriter, r *http.Request) {
	tokenString := r.PathValue("token")

	result, err := s.shares.Validate(r.Context(), tokenString)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	resp := validateShareResponse{Valid: result.Valid}
	if result.Valid {
		resp.Resource = result.Resource.String()
		resp.ResourceID = result.ResourceID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type redeemShareRequest struct {
	UserName string `json:"username"`
}

func (s *Server) redeemShare(w http.ResponseWriter, r *http.Request) {
	tokenString := r.PathValue("token")

	var req redeemShareRequest
	if err := decodeBody(r, &req); err != nil || req.UserName == "" {
		s.respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	user, err := s.users.GetByUserName(r.Context(), req.UserName)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	token, err := s.shares.Redeem(r.Context(), tokenString, user.ID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, shareResponse{
		Token:      token.Token,
		Resource:   token.Resource.String(),
		ResourceID: token.ResourceID,
	})
}
