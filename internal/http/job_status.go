package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sigmatax/console/internal/jobs"
	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/util"
)

const proofField = "proof_of_work_pdf"

// StatusModal renders the status dialog for a job.
func (h *Handler) StatusModal(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))

	j, err := h.jobService(r).Get(r.Context(), fam, id)
	if err != nil {
		h.pageError(w, r, err, "Failed to load job.")
		return
	}
	h.renderStatusModal(w, r, http.StatusOK, fam, j, "", "")
}

// UpdateJobStatus submits the new status and the optional proof file. On
// failure the dialog stays open with the error.
func (h *Handler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))
	limit := h.cfg.UploadMaxBytes

	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.statusFailed(w, r, fam, jobs.Job{ID: id}, "", uploadError(errors.New("upload too large or malformed")))
		return
	}

	status := r.FormValue("overall_status")
	current := jobs.Job{ID: id, Status: r.FormValue("current_status")}

	upload, err := proofUpload(r.MultipartForm, limit)
	if err != nil {
		h.statusFailed(w, r, fam, current, status, uploadError(err))
		return
	}

	if err := h.jobService(r).UpdateStatus(r.Context(), fam, id, status, upload); err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.statusFailed(w, r, fam, current, status, err)
		return
	}
	h.notify(r, "Status pekerjaan berhasil diperbarui!", notify.KindSuccess)
	http.Redirect(w, r, returnPath(r, jobPath(fam, id)), http.StatusSeeOther)
}

func (h *Handler) statusFailed(w http.ResponseWriter, r *http.Request, fam jobs.Family, j jobs.Job, selected string, err error) {
	h.logger.Error().Err(err).Str("family", fam.Slug).Str("job_id", j.ID.String()).Msg("status update failed")
	msg := "Error: " + apiMessage(err)
	status := http.StatusBadGateway
	var fe util.FieldErrors
	if errors.As(err, &fe) || errors.Is(err, jobs.ErrStatusRequired) {
		msg = "Error: " + err.Error()
		status = http.StatusUnprocessableEntity
	}
	h.notify(r, msg, notify.KindError)
	h.renderStatusModal(w, r, status, fam, j, selected, msg)
}

func (h *Handler) renderStatusModal(w http.ResponseWriter, r *http.Request, status int, fam jobs.Family, j jobs.Job, selected, msg string) {
	if selected == "" {
		selected = j.Status
	}
	if !contains(jobs.StatusTargets, selected) {
		selected = jobs.StatusTargets[0]
	}
	data := h.basePage(r, "Update Status")
	data.Family = fam
	data.Job = &j
	data.StatusTargets = jobs.StatusTargets
	data.SelectedState = selected
	data.ReturnPath = returnPath(r, jobPath(fam, j.ID))
	data.Error = msg
	h.render(w, r, status, "job_status", data)
}

var errProofType = errors.New("proof of work must be a PDF file")

func uploadError(err error) util.FieldErrors {
	return util.FieldErrors{"_form": err.Error(), proofField: err.Error()}
}

// proofUpload returns the optional proof file. No file is not an error.
func proofUpload(form *multipart.Form, limit int64) (*jobs.Upload, error) {
	header, err := getFirstFile(form, proofField)
	if err != nil {
		return nil, nil
	}
	if header.Size == 0 && header.Filename == "" {
		return nil, nil
	}
	data, contentType, err := readMultipartFile(header, limit)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") && contentType != "application/pdf" {
		return nil, errProofType
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "application/pdf"
	}
	return &jobs.Upload{Filename: filepath.Base(header.Filename), ContentType: contentType, Data: data}, nil
}

func getFirstFile(form *multipart.Form, field string) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, errors.New("file missing")
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, errors.New("file missing")
	}
	return files[0], nil
}

func readMultipartFile(header *multipart.FileHeader, limit int64) ([]byte, string, error) {
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(file, limit+1)); err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}

	if int64(buf.Len()) > limit {
		return nil, "", fmt.Errorf("file exceeds %d bytes", limit)
	}

	contentType := header.Header.Get("Content-Type")
	if strings.TrimSpace(contentType) == "" {
		contentType = http.DetectContentType(buf.Bytes())
	}

	return buf.Bytes(), contentType, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
