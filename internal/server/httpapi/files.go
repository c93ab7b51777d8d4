package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/cryptox"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/gorilla/mux"
)

const multipartMemory = 32 << 20

type transitionRequest struct {
	Action string `json:"action"`
}

type transitionResponse struct {
	ID     string            `json:"id"`
	Status models.FileStatus `json:"status"`
}

// handleUpload accepts multipart fields file (base64 ciphertext, named after
// the original file), iv and encryptionKey.
func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	// base64 inflates by 4/3; leave room for the other fields.
	limit := s.maxUploadSize/3*4 + multipartMemory/32
	if r.ContentLength > limit {
		writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: malformed multipart body", common.ErrorIncorrectMetadata))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	part, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: no file provided", common.ErrorIncorrectMetadata))
		return
	}
	defer part.Close()

	encoded, err := io.ReadAll(part)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ciphertext, err := cryptox.DecodeTransport(string(encoded))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: file is not base64", err))
		return
	}
	if int64(len(ciphertext)) > s.maxUploadSize {
		writeMessage(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	view, err := s.files.Upload(r.Context(), caller(r), header.Filename, ciphertext,
		r.FormValue("iv"), r.FormValue("encryptionKey"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (s *HTTPServer) handleListOwn(w http.ResponseWriter, r *http.Request) {
	views, err := s.files.ListOwn(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	view, err := s.files.GetOwn(r.Context(), caller(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleDeleteOwn(w http.ResponseWriter, r *http.Request) {
	if err := s.files.DeleteOwn(r.Context(), caller(r), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := mux.Vars(r)["id"]
	status, err := s.files.Transition(r.Context(), caller(r), id, req.Action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transitionResponse{ID: id, Status: status})
}

func (s *HTTPServer) handleManagerFiles(w http.ResponseWriter, r *http.Request) {
	views, err := s.files.PendingForManager(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleAdminUserFiles(w http.ResponseWriter, r *http.Request) {
	views, err := s.files.ListForUserAdmin(r.Context(), caller(r), mux.Vars(r)["userId"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleAdminFile(w http.ResponseWriter, r *http.Request) {
	view, err := s.files.GetAdmin(r.Context(), caller(r), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
