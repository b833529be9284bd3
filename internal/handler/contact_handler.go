// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/contactbook/internal/middleware"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/security"
)

// maxContactBodyBytes はリクエストボディの上限。
const maxContactBodyBytes = 64 << 10

// ContactStore は連絡先ハンドラーが必要とするストアインターフェース。
type ContactStore interface {
	List(ctx context.Context, query string) ([]model.Contact, error)
	Get(ctx context.Context, id string) (*model.Contact, error)
	Create(ctx context.Context, patch model.ContactPatch, createdBy string) (*model.Contact, error)
	Update(ctx context.Context, id string, patch model.ContactPatch) (*model.Contact, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// MutationRecorder は連絡先の変更操作を記録するインターフェース。
type MutationRecorder interface {
	RecordContactMutation(operation string)
}

// ContactHandler は連絡先管理のHTTPハンドラー。
// 認証と認可はミドルウェアで完了している前提で動作する。
type ContactHandler struct {
	store     ContactStore
	sanitizer *security.ContactInputSanitizer
	recorder  MutationRecorder
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(store ContactStore, sanitizer *security.ContactInputSanitizer, recorder MutationRecorder) *ContactHandler {
	return &ContactHandler{
		store:     store,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// ListContacts は連絡先一覧を返す。
// GET /api/contacts?q=
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.store.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}

	writeJSON(w, http.StatusOK, contacts)
}

// GetContact は連絡先の詳細を返す。
// GET /api/contacts/{id}
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := security.ValidateContactID(id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	contact, err := h.store.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if contact == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewContactNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, contact)
}

// CreateContact は連絡先を作成する。作成者は認証済みユーザーになる。
// POST /api/contacts
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError(""))
		return
	}

	patch, err := h.readPatch(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	contact, err := h.store.Create(r.Context(), patch, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.recorder.RecordContactMutation("create")

	writeJSON(w, http.StatusCreated, contact)
}

// UpdateContact は指定されたフィールドのみを更新する。
// PUT /api/contacts/{id}
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := security.ValidateContactID(id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	patch, err := h.readPatch(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	contact, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.recorder.RecordContactMutation("update")

	writeJSON(w, http.StatusOK, contact)
}

// DeleteContact は連絡先を削除する。存在しない場合は404を返す。
// DELETE /api/contacts/{id}
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := security.ValidateContactID(id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !deleted {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewContactNotFoundError())
		return
	}
	h.recorder.RecordContactMutation("delete")

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// readPatch はリクエストボディを読み取り、検証・サニタイズ済みのパッチを返す。
func (h *ContactHandler) readPatch(w http.ResponseWriter, r *http.Request) (model.ContactPatch, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContactBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return model.ContactPatch{}, model.NewValidationError("Request body too large", "")
		}
		return model.ContactPatch{}, model.NewValidationError("Invalid request body", "")
	}

	patch, err := security.DecodeContactPatch(body)
	if err != nil {
		return model.ContactPatch{}, err
	}
	return h.sanitizer.SanitizePatch(patch)
}
