package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cravetown/internal/checksum"
	"github.com/starford/cravetown/internal/commands"
	"github.com/starford/cravetown/internal/versionservice"
)

const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	reg *commands.Registry
	svc *versionservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(reg *commands.Registry, svc *versionservice.Service) *Handler {
	return &Handler{reg: reg, svc: svc}
}

// ListCommands handles GET /api/commands.
//
//	@Summary	List invocable commands
//	@Tags		commands
//	@Produce	json
//	@Success	200	{object}	CommandListResponse
//	@Security	BearerAuth
//	@Router		/commands [get]
func (h *Handler) ListCommands(w http.ResponseWriter, _ *http.Request) {
	cmds := h.reg.Commands()
	out := make([]CommandInfo, 0, len(cmds))
	for _, c := range cmds {
		params := make([]ParamInfo, 0, len(c.Params))
		for _, p := range c.Params {
			params = append(params, ParamInfo(p))
		}
		out = append(out, CommandInfo{Name: c.Name, Description: c.Description, Params: params})
	}
	writeJSON(w, http.StatusOK, CommandListResponse{Commands: out})
}

// Invoke handles POST /api/invoke/{command}. The request body is the JSON
// argument object of the command; an empty body means no arguments.
//
//	@Summary	Invoke a command
//	@Tags		commands
//	@Accept		json
//	@Produce	json
//	@Param		command	path		string	true	"Command name"
//	@Success	200		{object}	InvokeResponse
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/invoke/{command} [post]
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
		return
	}

	res, err := h.reg.Invoke(r.Context(), name, json.RawMessage(body))
	if err != nil {
		writeError(w, r, name, err)
		return
	}
	writeJSON(w, http.StatusOK, InvokeResponse{Result: res})
}

// GetFile handles GET /api/files?path=. The body is the raw file content;
// the ETag header carries its checksum.
//
//	@Summary	Read a raw file
//	@Tags		files
//	@Produce	octet-stream
//	@Param		path	query	string	true	"Absolute file path"
//	@Success	200
//	@Failure	404	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/files [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	data, sum, err := h.svc.ReadFile(r.Context(), path)
	if err != nil {
		writeError(w, r, "read file", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", checksum.ETag(sum))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PutFile handles PUT /api/files?path=.
//
//	@Summary	Write a raw file
//	@Tags		files
//	@Accept		octet-stream
//	@Produce	json
//	@Param		path		query	string	true	"Absolute file path"
//	@Param		If-Match	header	string	false	"Checksum of the content the client last read"
//	@Success	200	{object}	FileWriteResponse
//	@Failure	409	{object}	errResponse
//	@Security	BearerAuth
//	@Router		/files [put]
func (h *Handler) PutFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
		return
	}

	sum, err := h.svc.WriteFileIfMatch(r.Context(), path, body, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, r, "write file", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(sum))
	writeJSON(w, http.StatusOK, FileWriteResponse{Path: path, Checksum: sum})
}

// ListVersions handles GET /api/versions.
//
//	@Summary	List versions on disk and in the manifest
//	@Tags		versions
//	@Produce	json
//	@Success	200	{object}	VersionListResponse
//	@Security	BearerAuth
//	@Router		/versions [get]
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListVersions(r.Context())
	if err != nil {
		writeError(w, r, "list versions", err)
		return
	}
	writeJSON(w, http.StatusOK, VersionListResponse{Versions: list})
}

// VersionFiles handles GET /api/versions/{id}/files.
//
//	@Summary	List catalogued files of a version
//	@Tags		versions
//	@Produce	json
//	@Param		id	path		string	true	"Version id"
//	@Success	200	{object}	VersionFilesResponse
//	@Security	BearerAuth
//	@Router		/versions/{id}/files [get]
func (h *Handler) VersionFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	files, err := h.svc.VersionFiles(r.Context(), id)
	if err != nil {
		writeError(w, r, "version files", err)
		return
	}
	writeJSON(w, http.StatusOK, VersionFilesResponse{Version: id, Files: files})
}
