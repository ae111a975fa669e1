package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/tabclean/internal/tabular/codec"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
)

const formFileField = "file"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) CreateSession(ctx context.Context, r *http.Request) (any, error) {
	result, err := h.uc.CreateSession(ctx)
	if err != nil {
		return nil, err
	}

	return SessionResponse{SessionID: result.SessionID, CreatedAt: result.CreatedAt}, nil
}

func (h *HTTPEndpoint) CloseSession(ctx context.Context, r *http.Request) (any, error) {
	if err := h.uc.CloseSession(ctx, pkgrouter.GetParam(ctx, "session_id")); err != nil {
		return nil, err
	}

	return nil, nil
}

func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	files, err := readUploadedFiles(r)
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Upload(ctx, pkgrouter.GetParam(ctx, "session_id"), files)
	if err != nil {
		return nil, err
	}

	out := make([]FileResult, 0, len(result.Files))
	for _, f := range result.Files {
		item := FileResult{
			Name:      f.Name,
			Status:    f.Status,
			Error:     f.Error,
			ErrorCode: f.ErrorCode,
		}
		if f.Details != nil {
			details := toFileDetails(*f.Details)
			item.File = &details
		}
		out = append(out, item)
	}

	return UploadResponse{SessionID: result.SessionID, Files: out, msg: result.Message}, nil
}

func (h *HTTPEndpoint) Files(ctx context.Context, r *http.Request) (any, error) {
	items, err := h.uc.Files(ctx, pkgrouter.GetParam(ctx, "session_id"))
	if err != nil {
		return nil, err
	}

	files := make([]FileMeta, 0, len(items))
	for _, m := range items {
		files = append(files, toFileMeta(m))
	}

	return ListFilesResponse{Files: files}, nil
}

func (h *HTTPEndpoint) Details(ctx context.Context, r *http.Request) (any, error) {
	sessionID, fileID := fileParams(ctx)

	details, err := h.uc.Details(ctx, sessionID, fileID)
	if err != nil {
		return nil, err
	}

	return toFileDetails(details), nil
}

func (h *HTTPEndpoint) RemoveDuplicates(ctx context.Context, r *http.Request) (any, error) {
	sessionID, fileID := fileParams(ctx)

	result, err := h.uc.RemoveDuplicates(ctx, sessionID, fileID)
	if err != nil {
		return nil, err
	}

	return toTransformResponse(result, true), nil
}

func (h *HTTPEndpoint) FillMissing(ctx context.Context, r *http.Request) (any, error) {
	sessionID, fileID := fileParams(ctx)

	result, err := h.uc.FillMissing(ctx, sessionID, fileID)
	if err != nil {
		return nil, err
	}

	return toTransformResponse(result, false), nil
}

func (h *HTTPEndpoint) Columns(ctx context.Context, r *http.Request) (any, error) {
	sessionID, fileID := fileParams(ctx)

	result, err := h.uc.Columns(ctx, sessionID, fileID)
	if err != nil {
		return nil, err
	}

	return ColumnsResponse{Options: result.Options, Default: result.Default}, nil
}

func (h *HTTPEndpoint) SelectColumns(ctx context.Context, r *http.Request) (any, error) {
	var req SelectColumnsRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	sessionID, fileID := fileParams(ctx)

	result, err := h.uc.SelectColumns(ctx, sessionID, fileID, req.Columns)
	if err != nil {
		return nil, err
	}

	return toTransformResponse(result, false), nil
}

func (h *HTTPEndpoint) Chart(ctx context.Context, r *http.Request) (any, error) {
	sessionID, fileID := fileParams(ctx)

	result, err := h.uc.Chart(ctx, sessionID, fileID)
	if err != nil {
		return nil, err
	}

	return ChartResponse{
		File:     result.FileName,
		Labels:   result.Projection.Labels,
		Series:   result.Projection.Series,
		Warnings: result.Warnings,
	}, nil
}

func (h *HTTPEndpoint) ChartSVG(ctx context.Context, r *http.Request) (any, error) {
	sessionID, fileID := fileParams(ctx)

	dl, err := h.uc.ChartSVG(ctx, sessionID, fileID)
	if err != nil {
		return nil, err
	}

	return toAttachment(dl, true), nil
}

func (h *HTTPEndpoint) Export(ctx context.Context, r *http.Request) (any, error) {
	query := ExportQuery{Format: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))}
	if err := validate.StructCtx(ctx, query); err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	format, err := entity.ParseFormat(query.Format)
	if err != nil {
		return nil, pkgerror.NewInvalidInput(err)
	}

	sessionID, fileID := fileParams(ctx)

	dl, err := h.uc.Export(ctx, sessionID, fileID, format)
	if err != nil {
		return nil, err
	}

	return toAttachment(dl, false), nil
}

func fileParams(ctx context.Context) (string, string) {
	return pkgrouter.GetParam(ctx, "session_id"), pkgrouter.GetParam(ctx, "file")
}

func toAttachment(dl codec.Download, inline bool) *pkgrouter.Attachment {
	return &pkgrouter.Attachment{
		Filename:    dl.Filename,
		ContentType: dl.ContentType,
		Body:        dl.Data,
		Inline:      inline,
	}
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return pkgerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if tooLarge(err) {
			return pkgerror.NewTooLarge(err)
		}
		return pkgerror.NewInvalidFormatErr(err)
	}

	return nil
}

// readUploadedFiles collects every "file" part of a multipart body in order.
func readUploadedFiles(r *http.Request) ([]entity.UploadedFile, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return nil, pkgerror.NewInvalidFormatErr(errors.New("expected multipart/form-data"))
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, pkgerror.NewInvalidFormat()
	}

	var files []entity.UploadedFile
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if tooLarge(err) {
				return nil, pkgerror.NewTooLarge(err)
			}
			return nil, pkgerror.NewInvalidFormat()
		}

		if part.FormName() != formFileField {
			_ = part.Close()
			continue
		}

		name := part.FileName()
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			if tooLarge(err) {
				return nil, pkgerror.NewTooLarge(err)
			}
			return nil, pkgerror.NewInvalidFormat()
		}
		if name == "" {
			return nil, pkgerror.NewInvalidInput(errors.New("file part has no filename"))
		}

		files = append(files, entity.UploadedFile{
			Name: name,
			Size: int64(len(data)),
			Data: data,
		})
	}

	if len(files) == 0 {
		return nil, pkgerror.NewInvalidInput(errors.New("file part is required"))
	}

	return files, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
